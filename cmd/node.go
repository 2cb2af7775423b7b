package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/fcp/client"
	"github.com/luma/fcp/internal/meta"
)

var HelloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Connect to the node and describe it",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			hello := c.NodeHello()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Node:        %s\n", hello.Node())
			fmt.Fprintf(out, "Version:     %s\n", hello.Version())
			fmt.Fprintf(out, "FCP version: %s\n", hello.FCPVersion())
			fmt.Fprintf(out, "Testnet:     %t\n", hello.Testnet())
			fmt.Fprintf(out, "Connection:  %s\n", hello.ConnectionIdentifier())

			return nil
		})
	},
}

var KeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an SSK key pair",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			keypair, err := c.GenerateKeyPair(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Insert URI:  %s\nRequest URI: %s\n", keypair.InsertURI(), keypair.RequestURI())
			return nil
		})
	},
}

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fcpctl version",
	Args:  cobra.NoArgs,

	// Doesn't need the environment
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },

	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), meta.GetInfo())
	},
}
