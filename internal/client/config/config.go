// Package config handles configuration for the CLI client.
package config

import (
	"flag"
	"os"

	"github.com/talonmd/socialgraph/internal/flagx"
)

// Config holds runtime settings for the socialgraph CLI client.
type Config struct {
	// ServerBaseURL is the base URL of the server API, e.g. "http://localhost:8080".
	ServerBaseURL string
}

func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080"
}

// LoadConfig builds a Config by applying defaults and then command-line flags.
//
// Supported flags:
//
//	-a string   server base URL
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()

	args := flagx.FilterArgs(os.Args[1:], []string{"-a"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "server base URL")
	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	return cfg
}
