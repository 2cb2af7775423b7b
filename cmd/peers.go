package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/luma/fcp/client"
	"github.com/luma/fcp/event"
)

var (
	peersMetadata bool
	peersVolatile bool
	peersKind     string
)

var PeersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List the peers of the node",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := peerLister(peersKind)
		if err != nil {
			return err
		}

		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			peers, err := list(c, ctx, peersMetadata, peersVolatile)
			if err != nil {
				return err
			}

			for _, p := range peers {
				writePeer(cmd.OutOrStdout(), p)
			}

			return nil
		})
	},
}

func init() {
	flags := PeersCmd.Flags()

	flags.BoolVar(&peersMetadata, "metadata", false, "Include the node's metadata about each peer")
	flags.BoolVar(&peersVolatile, "volatile", false, "Include volatile state such as the connection status")
	flags.StringVar(&peersKind, "kind", "", "Only list darknet, opennet or seed peers")
}

type peerListFunc func(c *client.Client, ctx context.Context, withMetadata, withVolatile bool) ([]*event.Peer, error)

func peerLister(kind string) (peerListFunc, error) {
	switch kind {
	case "":
		return (*client.Client).Peers, nil
	case "darknet":
		return (*client.Client).DarknetPeers, nil
	case "opennet":
		return (*client.Client).OpennetPeers, nil
	case "seed":
		return (*client.Client).SeedPeers, nil
	}

	return nil, fmt.Errorf("Unknown peer kind '%s', expected darknet, opennet or seed", kind)
}

func writePeer(w io.Writer, p *event.Peer) {
	kind := "darknet"
	switch {
	case p.Seed():
		kind = "seed"
	case p.Opennet():
		kind = "opennet"
	}

	fmt.Fprintf(w, "%-8s %-44s %-24s %.4f %s\n", kind, p.Identity(), p.MyName(), p.Location(), p.Version())

	writeSection(w, "metadata", p.Metadata())
	writeSection(w, "volatile", p.Volatile())
}

func writeSection(w io.Writer, name string, fields map[string]string) {
	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(w, "    %s.%s=%s\n", name, k, fields[k])
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
