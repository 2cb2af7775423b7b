// Package env loads the fcpctl configuration from the environment.
package env

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// LocalEnvFile is loaded, if present, before the environment is read.
// Variables already set in the environment win.
const LocalEnvFile = ".env.local"

type Config struct {
	Host        string        `env:"FCP_HOST,default=localhost"`
	Port        int           `env:"FCP_PORT,default=9481"`
	ClientName  string        `env:"FCP_CLIENT_NAME"`
	DialTimeout time.Duration `env:"FCP_DIAL_TIMEOUT,default=10s"`
	LogLevel    string        `env:"FCP_LOG_LEVEL,default=info"`

	// Gateway
	HTTPAddr  string `env:"FCP_HTTP_ADDR,default=127.0.0.1:9480"`
	DebugHTTP bool   `env:"FCP_DEBUG_HTTP"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(LocalEnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("Failed to load %s: %w", LocalEnvFile, err)
	}

	return LoadConfigWith(ctx, envconfig.OsLookuper())
}

// LoadConfigWith reads the configuration from lookuper only.
func LoadConfigWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}

	if config.ClientName == "" {
		config.ClientName = defaultClientName()
	}

	return &config, nil
}

// defaultClientName is unique per process, as nodes refuse a second
// connection with a name already in use.
func defaultClientName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	return fmt.Sprintf("fcpctl-%s-%d", host, os.Getpid())
}
