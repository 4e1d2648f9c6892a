package main

import (
	"flag"
	"fmt"
)

// config holds the server's CLI-configurable knobs (spec section 6).
// Grounded on kstaniek-go-ampio-server/cmd/can-server/config.go's
// flag-then-validate pattern.
type config struct {
	host         string
	port         int
	tickRate     int
	maxClients   int
	metricsAddr  string
	logLevel     string
}

func parseConfig(args []string) (config, error) {
	fs := flag.NewFlagSet("netcode-server", flag.ContinueOnError)

	cfg := config{}
	fs.StringVar(&cfg.host, "host", "0.0.0.0", "bind host")
	fs.IntVar(&cfg.port, "port", 8080, "bind port")
	fs.IntVar(&cfg.tickRate, "tick-rate", 60, "simulation ticks per second")
	fs.IntVar(&cfg.maxClients, "max-clients", 32, "maximum concurrent clients")
	fs.StringVar(&cfg.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")
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
	if c.port <= 0 || c.port > 65535 {
		return fmt.Errorf("port %d out of range", c.port)
	}
	if c.tickRate <= 0 {
		return fmt.Errorf("tick-rate must be positive, got %d", c.tickRate)
	}
	if c.maxClients <= 0 {
		return fmt.Errorf("max-clients must be positive, got %d", c.maxClients)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.logLevel)
	}
	return nil
}
