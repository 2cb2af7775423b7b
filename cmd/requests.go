package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/luma/fcp/client"
)

var requestsGlobal bool

var RequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List the persistent requests and their progress",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			requests, err := c.Requests(ctx, requestsGlobal)
			if err != nil {
				return err
			}

			for _, r := range requests {
				writeRequest(cmd.OutOrStdout(), r)
			}

			return nil
		})
	},
}

func init() {
	RequestsCmd.Flags().BoolVar(&requestsGlobal, "global", false, "Include requests on the global queue")
}

func writeRequest(w io.Writer, r *client.Request) {
	fmt.Fprintf(w, "%-3s %-10s %-40s %s\n", r.Kind, requestState(r), r.Identifier, r.URI)

	if r.TotalBlocks > 0 {
		fmt.Fprintf(w, "    %s of %s blocks", humanize.Comma(int64(r.SucceededBlocks)), humanize.Comma(int64(r.RequiredBlocks)))
		if r.RequiredBlocks > 0 {
			fmt.Fprintf(w, " (%.0f%%)", 100*float64(r.SucceededBlocks)/float64(r.RequiredBlocks))
		}

		if !r.FinalizedTotal {
			fmt.Fprint(w, ", total not final")
		}

		fmt.Fprintln(w)
	}

	if r.Length >= 0 && r.Complete && !r.Failed {
		fmt.Fprintf(w, "    %s %s\n", humanize.Bytes(uint64(r.Length)), r.ContentType)
	}
}

func requestState(r *client.Request) string {
	switch {
	case r.Failed && r.Fatal:
		return fmt.Sprintf("fatal(%d)", r.ErrorCode)
	case r.Failed:
		return fmt.Sprintf("failed(%d)", r.ErrorCode)
	case r.Complete:
		return "complete"
	}

	return "running"
}
