// Command timeflow runs the project-tracking API server and its supporting
// maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "timeflow",
		Short:        "Timesheet and project tracking backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing timeflow.yaml")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
