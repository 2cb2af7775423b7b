package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luma/fcp/client"
	"github.com/luma/fcp/storage"
)

var ConfigCmd = &cobra.Command{
	Use:   "config [section [option]]",
	Short: "Print the node configuration as JSON",
	Long: `Print the node configuration as JSON.

Sections are current, default, shortDescription, longDescription,
expertFlag, dataType, sortOrder and forceWriteFlag. Options keep their
dotted names, for example:

	fcpctl config current node.name`,
	Args: cobra.MaximumNArgs(2),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			store := storage.NewConfigStore()
			defer store.Close()

			if err := loadConfig(ctx, c, store); err != nil {
				return err
			}

			value, err := store.Get(ctx, configPath(args...))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(value))
			return nil
		})
	},
}

// loadConfig replaces the contents of store with the node's configuration.
func loadConfig(ctx context.Context, c *client.Client, store *storage.ConfigStore) error {
	config, err := c.GetConfig(ctx)
	if err != nil {
		return err
	}

	return store.Load(ctx, config)
}

// configPath is the store path of a section, or of an option within it.
func configPath(parts ...string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return storage.EscapeKey(parts[0])
	}

	return storage.OptionPath(parts[0], strings.Join(parts[1:], "."))
}
