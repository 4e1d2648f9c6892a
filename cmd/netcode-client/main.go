// Command netcode-client runs the client side of the protocol over a real
// UDP socket. The input device and rendering surface are out-of-scope
// external collaborators (spec section 1); this binary wires in a
// DeviceSource so a real one can be substituted without touching the
// netcode core.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	netclient "github.com/ancillary-agi/netcode/networking/client"
	"github.com/ancillary-agi/netcode/networking/shared"
	"github.com/sirupsen/logrus"
)

// DeviceSource supplies the current keyboard/device state. The real
// implementation lives with the rendering surface; this binary's default
// is an idle source (nothing pressed, ever) so the binary still runs a
// correct, connectable client without a UI attached.
type DeviceSource interface {
	Read() netclient.DeviceState
}

type idleSource struct{}

func (idleSource) Read() netclient.DeviceState { return netclient.DeviceState{} }

func main() {
	os.Exit(run(os.Args[1:], idleSource{}))
}

func run(args []string, dev DeviceSource) int {
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

	localConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		shared.Log.WithError(err).Error("failed to bind local socket")
		return 1
	}
	defer localConn.Close()

	serverAddr, err := net.ResolveUDPAddr("udp", cfg.server)
	if err != nil {
		shared.Log.WithError(err).Error("failed to resolve server address")
		return 1
	}

	transport := shared.NewUDPTransport(localConn, time.Duration(cfg.fakePing)*time.Millisecond)
	c := netclient.New(transport, serverAddr)

	if err := c.Connect(); err != nil {
		shared.Log.WithError(err).Error("failed to send connect packet")
		return 1
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			shared.Log.Info("shutting down")
			c.Disconnect()
			return 0
		case <-ticker.C:
			c.Tick(dev.Read())
		}
	}
}
