package repomaker

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dimiro1/banner"
	"github.com/mattn/go-colorable"
	"github.com/repoforge/repomaker/repomaker/api"
	"github.com/repoforge/repomaker/repomaker/repo"
	"github.com/repoforge/repomaker/repomaker/store"
	"github.com/repoforge/repomaker/repomaker/tasks"
	"github.com/spf13/cobra"
)

const bannerText = `
{{ .Title "Repomaker" "" 0 }}
{{ .AnsiBackground.BrightBlue }}{{ .AnsiColor.White }}
{{ .AnsiReset }}
`

func (r *Repomaker) buildServeCommand() *cobra.Command {
	var configDir, dataDir string

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the API, scheduler and package watcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.setup(configDir, dataDir)
			if err != nil {
				return err
			}
			defer e.store.Close()

			return r.serve(e)
		},
	}

	addCommonFlags(cmd, &configDir, &dataDir)
	return cmd
}

func (r *Repomaker) serve(e *env) error {
	banner.Init(colorable.NewColorableStdout(), true, true, strings.NewReader(bannerText))

	logger := e.logger
	tasksCfg := e.file.Tasks

	runUpdate := func(ctx context.Context, name string) error {
		rep, err := e.repository(name)
		if err != nil {
			return err
		}
		if err := rep.Update(ctx); err != nil {
			return err
		}

		backends, sshClient, err := e.storagesFor(name)
		if err != nil {
			return err
		}
		defer sshClient.Close()

		if len(backends) == 0 {
			logger.Debugf("Repo %s has no storages, skipping publish", name)
			return nil
		}

		_, err = rep.Publish(ctx, backends, tasksCfg.Parallelism)
		return err
	}

	queue := tasks.NewQueue(e.store, logger, runUpdate, 64)
	queue.Start()
	defer queue.Stop()

	scheduler := tasks.NewScheduler(logger, tasksCfg.MaxConcurrent)
	scheduler.RegisterTask("update-all", func() error {
		records, err := e.store.ListRepos()
		if err != nil {
			return err
		}
		for _, rec := range records {
			if _, err := queue.Enqueue(rec.Name); err != nil {
				return err
			}
		}
		return nil
	})

	if tasksCfg.UpdateSchedule != "" {
		job := tasks.Job{
			Name:     "update-all",
			Schedule: tasksCfg.UpdateSchedule,
			TaskName: "update-all",
		}
		if err := scheduler.AddJob(job); err != nil {
			return err
		}
	}
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	if tasksCfg.Watch {
		watcher, err := tasks.NewWatcher(queue, logger, 0)
		if err != nil {
			return err
		}
		for name := range e.file.Repos {
			if _, err := e.store.GetRepo(name); errors.Is(err, store.ErrNotFound) {
				logger.Warnf("Repo %s is configured but not created, run `repomaker create %s`", name, name)
				continue
			} else if err != nil {
				return err
			}

			rep := repo.New(name, e.file.Repos[name], e.cfg.DataDir, e.store, logger)
			if err := watcher.WatchRepo(name, rep.RepoPath()); err != nil {
				return err
			}
		}
		watcher.Start()
		defer watcher.Stop()
	}

	publish := func(ctx context.Context, name string) (*repo.PublishResult, error) {
		return publishRepo(ctx, e, name, tasksCfg.Parallelism)
	}

	handler := api.NewHandler(e.store, e.file, queue, scheduler, publish, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("Serving %d repos - Press Ctrl+C to stop.", len(e.file.Repos))

	if err := api.StartServer(ctx, handler, e.cfg.Port); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
