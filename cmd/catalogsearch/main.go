// Command catalogsearch searches a catalog snapshot from the command line.
//
//	catalogsearch search "storm" --config catalogsearch.yaml
//	catalogsearch search 2024-05-01 --mode date --json
//	catalogsearch index --config catalogsearch.yaml
package main

import (
	"os"
)

func main() {
	if err := newApp().rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
