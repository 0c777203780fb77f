package main

import (
	"github.com/spf13/cobra"
)

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "catalogsearch",
		Short:         "Search a catalog of places, dates and events",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(a.searchCmd())
	cmd.AddCommand(a.indexCmd())
	return cmd
}
