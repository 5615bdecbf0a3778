package cmd

import (
	"fmt"
	"os"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/sitemap/internal/app"
	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/graph"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site map once and print it as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := app.New(ctx, cfg, app.Options{})
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		timer := ctxlog.Start(ctxlog.FromContext(ctx))
		tree, err := a.SiteMap.BaseTree(ctx)
		if err != nil {
			return err
		}
		timer.Done("built site map", "name", cfg.Name, "nodes", tree.Len())
		if dups := tree.Duplicates(); len(dups) > 0 {
			ctxlog.FromContext(ctx).Warn("duplicate node keys", "keys", dups)
		}

		out := oj.JSON(graph.Export(tree.Root()), &oj.Options{Indent: 2, Sort: true})
		if buildOut == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		}
		return os.WriteFile(buildOut, []byte(out+"\n"), 0o644)
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "Write JSON to this file instead of stdout")
	rootCmd.AddCommand(buildCmd)
}
