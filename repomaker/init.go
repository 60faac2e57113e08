package repomaker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wzshiming/ctc"
)

type templateFile struct {
	filename string
	content  string
}

func (r *Repomaker) buildInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "init",
		Short:         "Initialize a new repomaker project with example files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runInit()
		},
	}
}

func (r *Repomaker) runInit() error {
	files := []templateFile{
		{filename: "repos.repomaker.yaml", content: reposTemplate},
		{filename: "storages.repomaker.yaml", content: storagesTemplate},
		{filename: ".env", content: envTemplate},
	}

	// Compute max filename length for aligned output
	maxLen := 0
	for _, f := range files {
		if len(f.filename) > maxLen {
			maxLen = len(f.filename)
		}
	}

	for _, f := range files {
		padding := strings.Repeat(" ", maxLen-len(f.filename))

		if _, err := os.Stat(f.filename); err == nil {
			fmt.Fprintf(r.stdout, "  %s%s   ..%sskipped%s\n", f.filename, padding, ctc.ForegroundYellow, ctc.Reset)
			continue
		}

		if dir := filepath.Dir(f.filename); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				fmt.Fprintf(r.stdout, "  %s%s   ..%sfailed%s (%s)\n", f.filename, padding, ctc.ForegroundRed, ctc.Reset, err)
				continue
			}
		}

		if err := os.WriteFile(f.filename, []byte(f.content), 0644); err != nil {
			fmt.Fprintf(r.stdout, "  %s%s   ..%sfailed%s (%s)\n", f.filename, padding, ctc.ForegroundRed, ctc.Reset, err)
			continue
		}

		fmt.Fprintf(r.stdout, "  %s%s   ..%screated%s\n", f.filename, padding, ctc.ForegroundGreen, ctc.Reset)
	}

	return nil
}

var reposTemplate = `repos:
  main:
    name: Example Repo
    description: Apps built and signed by example.org
    url: https://repo.example.org/fdroid
    categories: [Internet, Tools]

tasks:
  update_schedule: "0 */15 * * * *"
  parallelism: "50%"
  max_concurrent: 2
  watch: true
`

var storagesTemplate = `storages:
  webroot:
    type: local
    path: /var/www/repo
    repos: [main]

  mirror-1:
    type: ssh
    host: mirror.example.org
    user: deploy
    path: /srv/fdroid
    identity_file: ~/.ssh/id_ed25519
    repos: [main]

  # bucket:
  #   type: s3
  #   bucket: my-repo-bucket
  #   region: eu-central-1
  #   repos: [main]
`

var envTemplate = `PORT=8080
REPOMAKER_DATA_DIR=data
REPOMAKER_CONFIG_DIR=.
REPOMAKER_LOG_LEVEL=info
`
