package main

import (
	"context"
	"fmt"

	"github.com/chozen2see/catalogsearch/index"
	"github.com/spf13/cobra"
)

func (a *app) indexCmd() *cobra.Command {
	var clearFirst bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Resolve every reference and build the configured search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			e, err := a.open(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer e.Close()

			w := cmd.OutOrStdout()
			if e.blob != nil {
				n, err := e.blob.Preload(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "preloaded %d documents\n", n)
			}

			stats, err := e.searcher.LoadReferences(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "resolved %d references in %d passes (%d nodes)\n",
				stats.Resolved, stats.Passes, e.cat.Len())

			switch cfg.Index.Backend {
			case "memory":
				idx := index.Build(e.cat)
				fmt.Fprintf(w, "indexed %d nodes in memory\n", idx.Len())
			case "redis":
				if _, err := a.openIndex(ctx, e); err != nil {
					return err
				}
				if clearFirst {
					if err := e.redis.Clear(ctx); err != nil {
						return err
					}
				}
				n, err := e.redis.Load(ctx, e.cat)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "indexed %d nodes in redis\n", n)
			default:
				fmt.Fprintln(w, "no index backend configured")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearFirst, "clear", false, "drop existing redis index entries first")
	return cmd
}
