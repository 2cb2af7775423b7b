// Package gen holds generators for fcpctl's own documentation.
package gen

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate fcpctl documentation",

	// Doesn't need the environment
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
}

func init() {
	RootCmd.AddCommand(ManPagesCmd)
}
