package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/luma/fcp/client"
	"github.com/luma/fcp/protocol"
	"github.com/luma/fcp/storage"
)

// The address to serve HTTP on, overriding FCP_HTTP_ADDR
var httpAddr string

func init() {
	GatewayCmd.Flags().StringVar(&httpAddr, "http-addr", "", "The address to serve HTTP requests on")
}

var GatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve a JSON view of the node over HTTP",
	Long: `Serve a JSON view of the node over HTTP

Routes
	GET /ping
	GET /node
	GET /peers?kind=&metadata=&volatile=
	GET /requests?global=
	GET /config
	GET /config/<section>/<option>
	PUT /config       {"option.name": "value", ...}
	GET /metrics
`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		if httpAddr == "" {
			httpAddr = conf.HTTPAddr
		}

		c, err := connect(ctx)
		if err != nil {
			return err
		}

		store := storage.NewConfigStore()
		defer store.Close()

		if err := loadConfig(ctx, c, store); err != nil {
			c.Close()
			return err
		}

		go logConfigUpdates(store, log.Named("config"))

		router := setupRouter(conf.DebugHTTP, log)
		newGateway(c, store, prometheus.DefaultGatherer, log).routes(router)

		s := &http.Server{
			Addr:    httpAddr,
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		log.Info("Listening",
			zap.String("httpAddr", httpAddr),
			zap.String("node", conf.Host),
			zap.Int("port", conf.Port))

		// Until interrupted, or the node goes away
		select {
		case <-ctx.Done():
		case <-c.Conn().Done():
			log.Warn("Node connection closed", zap.Error(c.Conn().Err()))
		}

		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		if err := c.Close(); err != nil {
			log.Error("Failed to disconnect cleanly", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Access and error log, RFC3339 UTC timestamps
	r.Use(ginzap.GinzapWithConfig(log.Named("http"), &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping", "/metrics"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}

func logConfigUpdates(store *storage.ConfigStore, log *zap.Logger) {
	for update := range store.ListenToUpdates() {
		if update.Path == "" {
			log.Debug("Config reloaded", zap.Int("bytes", len(update.Value)))
			continue
		}

		log.Debug("Config changed", zap.String("path", update.Path), zap.ByteString("value", update.Value))
	}
}

type gateway struct {
	client   *client.Client
	store    *storage.ConfigStore
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

func newGateway(c *client.Client, store *storage.ConfigStore, gatherer prometheus.Gatherer, log *zap.Logger) *gateway {
	return &gateway{
		client:   c,
		store:    store,
		gatherer: gatherer,
		log:      log.Named("gateway"),
	}
}

func (g *gateway) routes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.GET("/node", g.node)
	r.GET("/peers", g.peers)
	r.GET("/requests", g.requests)
	r.GET("/config", g.config)
	r.GET("/config/*path", g.config)
	r.PUT("/config", g.modifyConfig)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{})))
}

func (g *gateway) node(c *gin.Context) {
	node, err := g.client.NodeInformation(c.Request.Context(), false, false, true)
	if err != nil {
		g.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hello": g.client.NodeHello().Fields(),
		"node":  node.Fields(),
	})
}

func (g *gateway) peers(c *gin.Context) {
	list, err := peerLister(c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	peers, err := list(g.client, c.Request.Context(), c.Query("metadata") == "true", c.Query("volatile") == "true")
	if err != nil {
		g.fail(c, err)
		return
	}

	body := make([]map[string]string, len(peers))
	for i, p := range peers {
		body[i] = p.Fields()
	}

	c.JSON(http.StatusOK, body)
}

func (g *gateway) requests(c *gin.Context) {
	requests, err := g.client.Requests(c.Request.Context(), c.Query("global") == "true")
	if err != nil {
		g.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// config refreshes the store from the node and serves the requested part of
// it.
func (g *gateway) config(c *gin.Context) {
	ctx := c.Request.Context()

	if err := loadConfig(ctx, g.client, g.store); err != nil {
		g.fail(c, err)
		return
	}

	parts := strings.Split(strings.Trim(c.Param("path"), "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		parts = nil
	}

	value, err := g.store.Get(ctx, configPath(parts...))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err != nil {
		g.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", value)
}

// modifyConfig applies a JSON object of option values in the order given.
func (g *gateway) modifyConfig(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	options, err := parseOptions(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config, err := g.client.ModifyConfig(ctx, options)
	if err != nil {
		g.fail(c, err)
		return
	}

	for _, o := range options {
		if value, ok := config.Section("current")[o.Key]; ok {
			if err := g.store.Set(ctx, storage.OptionPath("current", o.Key), value); err != nil {
				g.fail(c, err)
				return
			}
		}
	}

	current, err := g.store.Get(ctx, "current")
	if err != nil {
		g.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", current)
}

var errInvalidOptions = errors.New("expected a JSON object of option values")

func parseOptions(body []byte) ([]protocol.Field, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidOptions
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, errInvalidOptions
	}

	var options []protocol.Field
	doc.ForEach(func(key, value gjson.Result) bool {
		options = append(options, protocol.Field{Key: key.String(), Value: value.String()})
		return true
	})

	if len(options) == 0 {
		return nil, errInvalidOptions
	}

	return options, nil
}

func (g *gateway) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway

	var protoErr *client.ProtocolError
	switch {
	case errors.As(err, &protoErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	case errors.Is(err, client.ErrNotConnected), errors.Is(err, client.ErrConnectionClosed):
		status = http.StatusServiceUnavailable
	}

	g.log.Warn("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

