package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/sitemap/internal/ingest"
	"github.com/agentic-research/sitemap/internal/linter"
)

var lintCmd = &cobra.Command{
	Use:   "lint [dir]",
	Short: "Check //sitemap: directives in Go sources",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir := cfg.Root
		if len(args) == 1 {
			dir = args[0]
		}
		diags, err := linter.LintFS(cmd.Context(), osfs.New(dir),
			ingest.WithIncludeModules(cfg.IncludeModules...),
			ingest.WithExcludeModules(cfg.ExcludeModules...),
		)
		if err != nil {
			return err
		}
		for _, d := range diags {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		if len(diags) > 0 {
			return errors.Newf("%d directive problem(s)", len(diags))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
