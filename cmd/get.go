package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/fcp/client"
)

var (
	getOutput     string
	getFilterData bool
)

var GetCmd = &cobra.Command{
	Use:   "get <uri>",
	Short: "Fetch a key, following redirects",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			result, err := c.GetURI(ctx, args[0], getFilterData)
			if err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("Failed to fetch %s: error code %d", result.RealURI, result.ErrorCode)
			}

			log.Info("Fetched",
				zap.String("uri", result.RealURI),
				zap.String("contentType", result.ContentType),
				zap.String("size", humanize.Bytes(uint64(result.ContentLength))))

			if getOutput == "" || getOutput == "-" {
				_, err := cmd.OutOrStdout().Write(result.Payload)
				return err
			}

			if err := os.WriteFile(getOutput, result.Payload, 0644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s of %s to %s\n",
				humanize.Bytes(uint64(len(result.Payload))), result.ContentType, getOutput)

			return nil
		})
	},
}

func init() {
	flags := GetCmd.Flags()

	flags.StringVarP(&getOutput, "output", "o", "", "Write the data to a file instead of stdout")
	flags.BoolVar(&getFilterData, "filter", false, "Ask the node to filter the content for safe browsing")
}
