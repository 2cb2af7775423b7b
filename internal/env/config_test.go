package env_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/luma/fcp/internal/env"
)

var _ = Describe("LoadConfigWith()", func() {
	It("defaults to a local node", func() {
		config, err := env.LoadConfigWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
		Expect(err).To(Succeed())

		Expect(config.Host).To(Equal("localhost"))
		Expect(config.Port).To(Equal(9481))
		Expect(config.DialTimeout).To(Equal(10 * time.Second))
		Expect(config.LogLevel).To(Equal("info"))
		Expect(config.HTTPAddr).To(Equal("127.0.0.1:9480"))
		Expect(config.DebugHTTP).To(BeFalse())
		Expect(config.ClientName).To(HavePrefix("fcpctl-"))
	})

	It("reads the environment", func() {
		config, err := env.LoadConfigWith(context.Background(), envconfig.MapLookuper(map[string]string{
			"FCP_HOST":         "node.lan",
			"FCP_PORT":         "19481",
			"FCP_CLIENT_NAME":  "me",
			"FCP_DIAL_TIMEOUT": "2s",
			"FCP_DEBUG_HTTP":   "true",
		}))
		Expect(err).To(Succeed())

		Expect(config.Host).To(Equal("node.lan"))
		Expect(config.Port).To(Equal(19481))
		Expect(config.ClientName).To(Equal("me"))
		Expect(config.DialTimeout).To(Equal(2 * time.Second))
		Expect(config.DebugHTTP).To(BeTrue())
	})

	It("rejects malformed values", func() {
		_, err := env.LoadConfigWith(context.Background(), envconfig.MapLookuper(map[string]string{
			"FCP_PORT": "lots",
		}))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("MakeLogger()", func() {
	It("builds a logger at the given level", func() {
		log, err := env.MakeLogger("warn")
		Expect(err).To(Succeed())
		Expect(log.Core().Enabled(zapcore.InfoLevel)).To(BeFalse())
		Expect(log.Core().Enabled(zapcore.WarnLevel)).To(BeTrue())
	})

	It("rejects unknown levels", func() {
		_, err := env.MakeLogger("chatty")
		Expect(err).To(HaveOccurred())
	})
})
