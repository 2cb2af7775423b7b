package transport

import (
	"time"

	"go.uber.org/zap"

	"github.com/luma/fcp/protocol"
)

const (
	DefaultHost        = "localhost"
	DefaultDialTimeout = 10 * time.Second
	DefaultKeepAlive   = 30 * time.Second
)

type Options struct {
	// Host of the node. Defaults to localhost
	Host string

	// Port of the node's FCP interface. Defaults to protocol.DefaultPort
	Port int

	// DialTimeout bounds connection establishment. The context passed to Dial
	// may shorten it further.
	DialTimeout time.Duration

	KeepAlive time.Duration

	// Trace will log every byte read and written at debug level. This is only
	// useful in local debugging
	Trace bool

	Log *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = DefaultHost
	}

	if o.Port == 0 {
		o.Port = protocol.DefaultPort
	}

	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultDialTimeout
	}

	if o.KeepAlive == 0 {
		o.KeepAlive = DefaultKeepAlive
	}

	if o.Log == nil {
		o.Log = zap.NewNop()
	}

	return o
}
