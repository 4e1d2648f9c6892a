// Command netcode-server runs the authoritative tick loop over a real
// UDP socket.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ancillary-agi/netcode/networking/metrics"
	"github.com/ancillary-agi/netcode/networking/server"
	"github.com/ancillary-agi/netcode/networking/shared"
	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := parseConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	level, err := logrus.ParseLevel(cfg.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	shared.Log.SetLevel(level)

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.host, cfg.port))
	if err != nil {
		shared.Log.WithError(err).Error("failed to resolve bind address")
		return 1
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		shared.Log.WithError(err).Error("failed to bind")
		return 1
	}
	defer conn.Close()

	m := metrics.New()
	if cfg.metricsAddr != "" {
		go func() {
			shared.Log.WithField("addr", cfg.metricsAddr).Info("serving metrics")
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			if err := http.ListenAndServe(cfg.metricsAddr, mux); err != nil {
				shared.Log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	transport := shared.NewUDPTransport(conn, 0)
	srv := server.New(server.Config{TickRate: cfg.tickRate, MaxClients: cfg.maxClients}, transport, m)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		shared.Log.Info("shutting down")
		cancel()
	}()

	shared.Log.WithFields(logrus.Fields{
		"addr":        addr.String(),
		"tick_rate":   cfg.tickRate,
		"max_clients": cfg.maxClients,
	}).Info("server started")

	if err := srv.Run(ctx); err != nil {
		shared.Log.WithError(err).Error("server stopped with error")
		return 1
	}
	return 0
}
