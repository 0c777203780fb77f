package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chozen2see/catalogsearch"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type searchOutput struct {
	Query   string      `json:"query"`
	Mode    string      `json:"mode"`
	Results []searchHit `json:"results"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type searchHit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a *app) searchCmd() *cobra.Command {
	var (
		mode    string
		asJSON  bool
		timeout time.Duration
		noIndex bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a single search and print the matching nodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return catalogsearch.ErrEmptyQuery
			}
			m, err := catalogsearch.ParseMode(mode)
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			e, err := a.open(ctx, cfg, !noIndex)
			if err != nil {
				return err
			}
			defer e.Close()

			sess := e.searcher.Search(ctx, query, m)
			if err := sess.Wait(ctx); err != nil && !sess.IsComplete() {
				return err
			}

			out := searchOutput{
				Query:   sess.Query(),
				Mode:    sess.Mode().String(),
				Results: []searchHit{},
				Message: sess.Message(),
			}
			for _, r := range sess.Results() {
				out.Results = append(out.Results, searchHit{ID: r.ID, Name: r.Name})
			}
			if err := sess.Err(); err != nil {
				out.Error = err.Error()
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				for _, r := range out.Results {
					fmt.Fprintf(w, "%s\t%s\n", r.ID, r.Name)
				}
				if out.Message != "" {
					fmt.Fprintln(w, out.Message)
				}
			}
			return sess.Err()
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "default", "match mode: default, date or event")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long (0 disables)")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "always traverse the catalog, ignoring a configured index")
	return cmd
}
