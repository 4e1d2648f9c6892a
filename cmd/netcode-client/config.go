package main

import (
	"flag"
	"fmt"
)

// config holds the client's CLI-configurable knobs (spec section 6).
type config struct {
	server   string
	fakePing int
	logLevel string
}

func parseConfig(args []string) (config, error) {
	fs := flag.NewFlagSet("netcode-client", flag.ContinueOnError)

	cfg := config{}
	fs.StringVar(&cfg.server, "server", "127.0.0.1:8080", "server address to connect to")
	fs.IntVar(&cfg.fakePing, "fake-ping", 0, "artificial symmetric delay in milliseconds")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.fakePing < 0 {
		return fmt.Errorf("fake-ping must be non-negative, got %d", c.fakePing)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.logLevel)
	}
	return nil
}
