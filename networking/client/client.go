package client

import (
	"net"
	"time"

	"github.com/ancillary-agi/netcode/networking/shared"
)

// renderTickInterval matches the 16ms cadence used for both input
// sampling and rendering in original_source/client/src/network.rs.
const renderTickInterval = 16 * time.Millisecond

const clientVersion uint32 = 1

// Client is the client side of the wire protocol: connect, send sampled
// input, apply received GameState, and expose render-ready players,
// grounded on original_source/client/src/network.rs.
type Client struct {
	transport  shared.Transport
	serverAddr net.Addr

	clientID    uint32
	hasClientID bool
	connected   bool

	state   *State
	sampler *InputSampler

	pingMillis int64

	PredictionEnabled     bool
	ReconciliationEnabled bool
	InterpolationEnabled  bool
}

// New returns a client ready to Connect, with all three netcode features
// enabled by default (matching the Rust client's defaults).
func New(transport shared.Transport, serverAddr net.Addr) *Client {
	return &Client{
		transport:             transport,
		serverAddr:            serverAddr,
		state:                 NewState(),
		sampler:               NewInputSampler(),
		PredictionEnabled:     true,
		ReconciliationEnabled: true,
		InterpolationEnabled:  true,
	}
}

// PingMillis is the last observed latency estimate: local receive time
// minus the server's GameState timestamp, so it is one-way and includes
// any clock skew between the hosts (original_source/client/src/network.rs).
func (c *Client) PingMillis() int64 { return c.pingMillis }

// Connected reports whether the server has acknowledged a Connect.
func (c *Client) Connected() bool { return c.connected }

// Connect sends the initial handshake packet.
func (c *Client) Connect() error {
	return c.sendPacket(shared.Packet{Type: shared.PacketConnect, ClientVersion: clientVersion})
}

// Reconnect tears down the current session state and re-sends Connect.
// Only invoked on the input sampler's explicit reconnect toggle (spec
// section 6/7: never automatic).
func (c *Client) Reconnect() error {
	c.connected = false
	c.hasClientID = false
	c.state = NewState()
	return c.Connect()
}

func (c *Client) sendPacket(p shared.Packet) error {
	data, err := shared.EncodePacket(p)
	if err != nil {
		return err
	}
	return c.transport.Send(c.serverAddr, data)
}

// HandleIncoming decodes and applies one datagram, if it belongs to the
// handshake/state/disconnect protocol.
func (c *Client) HandleIncoming(data []byte) {
	packet, err := shared.DecodePacket(data)
	if err != nil {
		shared.Log.WithError(err).Warn("dropping undecodable datagram from server")
		return
	}

	switch packet.Type {
	case shared.PacketConnected:
		c.clientID = packet.ClientID
		c.hasClientID = true
		c.connected = true
		shared.Log.WithField("client_id", c.clientID).Info("connected")

	case shared.PacketGameState:
		now := time.Now().UnixMilli()
		if packet.GSTimestamp > 0 {
			c.pingMillis = now - int64(packet.GSTimestamp)
		}

		cfg := ServerStateConfig{
			ClientID:              c.clientID,
			HasClientID:           c.hasClientID,
			ReconciliationEnabled: c.ReconciliationEnabled,
			InterpolationEnabled:  c.InterpolationEnabled,
		}
		c.state.ApplyServerState(packet.GSTick, packet.GSTimestamp, packet.GSPlayers, packet.GSLastProcessedInput, cfg)

	case shared.PacketDisconnected:
		shared.Log.WithField("reason", packet.Reason).Warn("disconnected by server")
		c.connected = false
		c.hasClientID = false

	default:
		shared.Log.Warn("unexpected packet type from server")
	}
}

// SendInput transmits a sampled input and, if prediction is enabled,
// applies it locally.
func (c *Client) SendInput(input shared.InputState) error {
	if !c.connected || !c.hasClientID {
		return nil
	}

	if err := c.sendPacket(shared.Packet{Type: shared.PacketInput, Input: input}); err != nil {
		return err
	}

	if c.PredictionEnabled {
		c.state.ApplyPrediction(c.clientID, input)
	}
	return nil
}

// ApplyToggles flips the three feature flags on their rising edges and,
// on the reconnect toggle's rising edge, tears down and re-establishes
// the session (spec section 6/7: reconnect is invoked only on this
// explicit edge, never automatically).
func (c *Client) ApplyToggles(t Toggles) {
	if t.Prediction {
		c.PredictionEnabled = !c.PredictionEnabled
	}
	if t.Reconciliation {
		c.ReconciliationEnabled = !c.ReconciliationEnabled
	}
	if t.Interpolation {
		c.InterpolationEnabled = !c.InterpolationEnabled
	}
	if t.Reconnect {
		if err := c.Reconnect(); err != nil {
			shared.Log.WithError(err).Error("failed to reconnect")
		}
	}
}

// RenderPlayers returns the players to display this frame.
func (c *Client) RenderPlayers() []shared.Player {
	return c.state.GetRenderPlayers(c.clientID, c.hasClientID, c.PredictionEnabled, c.InterpolationEnabled)
}

// Disconnect sends a best-effort Disconnect, ignoring any send error
// (the client is tearing down regardless).
func (c *Client) Disconnect() {
	_ = c.sendPacket(shared.Packet{Type: shared.PacketDisconnect})
	c.connected = false
}

// Tick drains the transport, applies any incoming packets, samples dev,
// applies any toggle edges, and sends a new input if the sampler produced
// one. It returns the toggle edges and the input sent (nil if none).
// This is a thin, poll-driven substitute for the Rust client's async
// run() loop (rendering/device polling are out-of-scope collaborators).
func (c *Client) Tick(dev DeviceState) (toggles Toggles, sentInput *shared.InputState) {
	for {
		data, _, err := c.transport.TryRecv()
		if err != nil {
			break
		}
		c.HandleIncoming(data)
	}

	toggles, sentInput = c.sampler.Update(dev)
	c.ApplyToggles(toggles)
	if sentInput != nil {
		if err := c.SendInput(*sentInput); err != nil {
			shared.Log.WithError(err).Error("failed to send input")
		}
	}
	return toggles, sentInput
}
