// Package cmd implements fcpctl, a command line client for a node's FCP
// interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/fcp/client"
	"github.com/luma/fcp/cmd/gen"
	"github.com/luma/fcp/internal/env"
	"github.com/luma/fcp/transport"
)

var (
	// Loaded by the root command before any subcommand runs
	conf *env.Config
	log  *zap.Logger

	// Flags overriding the environment
	host       string
	port       int
	clientName string
	logLevel   string
	trace      bool
)

var RootCmd = &cobra.Command{
	Use:   "fcpctl",
	Short: "Talk to a node over FCP",
	Long: `fcpctl talks to the FCP interface of a node.

The node is found using FCP_HOST and FCP_PORT, or the --host and --port
flags. Variables are also read from .env.local in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		conf, err = env.LoadConfig(cmd.Context())
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("host") {
			conf.Host = host
		}

		if flags.Changed("port") {
			conf.Port = port
		}

		if flags.Changed("name") {
			conf.ClientName = clientName
		}

		if flags.Changed("log-level") {
			conf.LogLevel = logLevel
		}

		log, err = env.MakeLogger(conf.LogLevel)
		return err
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	flags := RootCmd.PersistentFlags()

	flags.StringVarP(&host, "host", "a", "localhost", "The host of the node")
	flags.IntVarP(&port, "port", "p", 9481, "The FCP port of the node")
	flags.StringVarP(&clientName, "name", "n", "", "The client name to connect as, it must be unique on the node")
	flags.StringVar(&logLevel, "log-level", "info", "The log level: debug, info, warn or error")
	flags.BoolVar(&trace, "trace", false, "Log every byte exchanged with the node at debug level")

	RootCmd.AddCommand(
		HelloCmd,
		PeersCmd,
		GetCmd,
		RequestsCmd,
		ConfigCmd,
		KeygenCmd,
		GatewayCmd,
		VersionCmd,
		gen.RootCmd,
	)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect returns a client that has completed the handshake.
func connect(ctx context.Context) (*client.Client, error) {
	c := client.New(client.Options{
		Dialer: transport.NewTCP(transport.Options{
			Host:        conf.Host,
			Port:        conf.Port,
			DialTimeout: conf.DialTimeout,
			Trace:       trace,
			Log:         log.Named("transport"),
		}),
		Log: log,
	})

	if err := c.Connect(ctx, conf.ClientName); err != nil {
		return nil, err
	}

	return c, nil
}

// withClient connects, runs fn and disconnects.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	ctx := cmd.Context()

	c, err := connect(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := c.Close(); err != nil {
			log.Warn("Failed to disconnect cleanly", zap.Error(err))
		}
	}()

	return fn(ctx, c)
}
