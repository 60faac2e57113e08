package repomaker

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/repoforge/repomaker/repomaker/config"
	"github.com/repoforge/repomaker/repomaker/loader"
	"github.com/repoforge/repomaker/repomaker/repo"
	"github.com/repoforge/repomaker/repomaker/schema"
	"github.com/repoforge/repomaker/repomaker/ssh"
	"github.com/repoforge/repomaker/repomaker/storage"
	"github.com/repoforge/repomaker/repomaker/store"
	"github.com/repoforge/repomaker/repomaker/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wzshiming/ctc"
)

type Repomaker struct {
	stdout *os.File
	stderr *os.File
	loader *loader.Loader
	ui     *ui.Output
}

func New(stdout, stderr *os.File) *Repomaker {
	return &Repomaker{
		stdout: stdout,
		stderr: stderr,
		loader: loader.New(),
		ui:     ui.NewOutput(stdout, stderr),
	}
}

func (r *Repomaker) Run() {
	rootCmd := &cobra.Command{
		Use:     "repomaker",
		Short:   "Repomaker - Signed package repository maker",
		Long:    "Repomaker creates, updates and publishes signed application package repositories.",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(
		r.buildInitCommand(),
		r.buildCreateCommand(),
		r.buildUpdateCommand(),
		r.buildPublishCommand(),
		r.buildListCommand(),
		r.buildServeCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(r.stderr, "%sError:%s %v\n", ctc.ForegroundRed, ctc.Reset, err)
		os.Exit(1)
	}
}

// env holds everything a command needs once config and store are open.
type env struct {
	cfg    *config.Config
	file   *schema.File
	store  *store.Store
	logger *logrus.Logger
}

func (r *Repomaker) setup(configDir, dataDir string) (*env, error) {
	cfg := config.Load()
	if configDir != "" {
		cfg.ConfigDir = configDir
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	file, err := r.loader.LoadDirectory(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := r.loader.Validate(file); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	return &env{
		cfg:    cfg,
		file:   file,
		store:  st,
		logger: cfg.NewLogger(),
	}, nil
}

func (e *env) repository(name string) (*repo.Repository, error) {
	cfg, ok := e.file.Repos[name]
	if !ok {
		return nil, fmt.Errorf("repo %q not found in configuration", name)
	}
	return repo.New(name, cfg, e.cfg.DataDir, e.store, e.logger), nil
}

func (e *env) storagesFor(name string) ([]storage.Storage, ssh.Client, error) {
	names := loader.StoragesForRepo(e.file, name)
	sshClient := ssh.NewClient()
	factory := storage.NewFactory(e.logger, sshClient)

	backends, err := factory.BuildFor(e.file, names)
	if err != nil {
		sshClient.Close()
		return nil, nil, err
	}
	return backends, sshClient, nil
}

func (r *Repomaker) buildCreateCommand() *cobra.Command {
	var configDir, dataDir string

	cmd := &cobra.Command{
		Use:           "create [repo]",
		Short:         "Initialize a repository on disk with a fresh signing key",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.setup(configDir, dataDir)
			if err != nil {
				return err
			}
			defer e.store.Close()

			rep, err := e.repository(args[0])
			if err != nil {
				return err
			}
			if err := rep.Create(); err != nil {
				return err
			}

			fp, err := rep.Fingerprint()
			if err != nil {
				return err
			}
			r.ui.Success("Repository %s created", args[0])
			r.ui.Info("Fingerprint: %s", fp)
			if len(loader.StoragesForRepo(e.file, args[0])) == 0 {
				r.ui.Warning("No storages reference %s, publish will have nowhere to go", args[0])
			}
			return nil
		},
	}

	addCommonFlags(cmd, &configDir, &dataDir)
	return cmd
}

func (r *Repomaker) buildUpdateCommand() *cobra.Command {
	var configDir, dataDir string

	cmd := &cobra.Command{
		Use:           "update [repo]",
		Short:         "Scan packages and rebuild the signed index",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.setup(configDir, dataDir)
			if err != nil {
				return err
			}
			defer e.store.Close()

			rep, err := e.repository(args[0])
			if err != nil {
				return err
			}
			if err := rep.Update(cmd.Context()); err != nil {
				return err
			}

			r.ui.Success("Repository %s updated", args[0])
			return nil
		},
	}

	addCommonFlags(cmd, &configDir, &dataDir)
	return cmd
}

func (r *Repomaker) buildPublishCommand() *cobra.Command {
	var (
		configDir   string
		dataDir     string
		parallelism string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:           "publish [repo]",
		Short:         "Upload the repo tree to all configured storages",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.setup(configDir, dataDir)
			if err != nil {
				return err
			}
			defer e.store.Close()

			name := args[0]
			rep, err := e.repository(name)
			if err != nil {
				return err
			}

			backends, sshClient, err := e.storagesFor(name)
			if err != nil {
				return err
			}
			defer sshClient.Close()

			if dryRun {
				r.ui.DryRunHeader(name)
				r.ui.Section("Storages")
				for _, b := range backends {
					r.ui.Info("  - %s: %s", b.Name(), b.URL())
				}
				return nil
			}

			result, err := rep.Publish(cmd.Context(), backends, parallelism)
			if err != nil {
				if result != nil {
					r.ui.RunFailed(result.FailedStorage, err)
				}
				return fmt.Errorf("publish failed: %w", err)
			}

			r.ui.RunStarted(name, result.RunID)
			r.ui.RunCompleted(result.EndTime.Sub(result.StartTime))
			return nil
		},
	}

	addCommonFlags(cmd, &configDir, &dataDir)
	cmd.Flags().StringVarP(&parallelism, "parallelism", "p", "", "Storages per batch (number or percentage)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be published without uploading")
	return cmd
}

func (r *Repomaker) buildListCommand() *cobra.Command {
	var configDir, dataDir string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List known repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.setup(configDir, dataDir)
			if err != nil {
				return err
			}
			defer e.store.Close()

			records, err := e.store.ListRepos()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.stdout)
			t.AppendHeader(table.Row{"NAME", "FINGERPRINT", "UPDATED", "PUBLISHED", "STORAGES"})
			for _, rec := range records {
				updated, published := "-", "-"
				if !rec.UpdatedAt.IsZero() {
					updated = rec.UpdatedAt.Format("2006-01-02 15:04")
				}
				if !rec.PublishedAt.IsZero() {
					published = rec.PublishedAt.Format("2006-01-02 15:04")
				}
				t.AppendRow(table.Row{
					rec.Name,
					shortFingerprint(rec.Fingerprint),
					updated,
					published,
					len(loader.StoragesForRepo(e.file, rec.Name)),
				})
			}
			t.SetStyle(table.StyleLight)
			t.Render()
			return nil
		},
	}

	addCommonFlags(cmd, &configDir, &dataDir)
	return cmd
}

func addCommonFlags(cmd *cobra.Command, configDir, dataDir *string) {
	cmd.Flags().StringVarP(configDir, "config-dir", "c", "", "Directory to search for YAML config files (default: current directory)")
	cmd.Flags().StringVarP(dataDir, "data-dir", "d", "", "Directory holding repos and the metadata store")
}

func shortFingerprint(fp string) string {
	if len(fp) <= 16 {
		return fp
	}
	return fp[:16] + "…"
}

// publishRepo is the shared publish path used by serve and the API.
func publishRepo(ctx context.Context, e *env, name, parallelism string) (*repo.PublishResult, error) {
	rep, err := e.repository(name)
	if err != nil {
		return nil, err
	}

	backends, sshClient, err := e.storagesFor(name)
	if err != nil {
		return nil, err
	}
	defer sshClient.Close()

	return rep.Publish(ctx, backends, parallelism)
}
