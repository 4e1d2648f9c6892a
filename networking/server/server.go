package server

import (
	"context"
	"net"
	"time"

	"github.com/ancillary-agi/netcode/networking/metrics"
	"github.com/ancillary-agi/netcode/networking/shared"
)

// Config controls the tick loop (spec section 6: --tick-rate, --max-clients).
type Config struct {
	TickRate   int
	MaxClients int
}

// DefaultConfig mirrors spec.md section 6's documented defaults.
func DefaultConfig() Config {
	return Config{TickRate: 60, MaxClients: 32}
}

// Server is the authoritative tick loop: single-threaded simulation state
// (snapshot + registry), fed by a Transport that may be driven by a
// separate reader task, per spec section 5.
type Server struct {
	cfg       Config
	transport shared.Transport
	registry  *ClientManager
	snapshot  shared.Snapshot
	metrics   *metrics.Server
}

// New builds a server bound to transport, ready to Run.
func New(cfg Config, transport shared.Transport, m *metrics.Server) *Server {
	return &Server{
		cfg:       cfg,
		transport: transport,
		registry:  NewClientManager(cfg.MaxClients),
		snapshot:  shared.NewSnapshot(),
		metrics:   m,
	}
}

// Run drives the fixed-rate tick loop until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			s.tick()
			if s.metrics != nil {
				s.metrics.TickDuration.Observe(time.Since(start).Seconds())
				s.metrics.TicksProcessed.Inc()
				s.metrics.ConnectedClients.Set(float64(s.registry.Len()))
			}
		}
	}
}

func (s *Server) tick() {
	s.drainTransport()
	s.applyInputs()
	shared.Step(&s.snapshot, shared.FixedTimestep)
	s.broadcast()
	s.evictTimeouts()
}

// drainTransport decodes every datagram currently available and
// dispatches it, per spec section 4.7 step 1.
func (s *Server) drainTransport() {
	for {
		data, addr, err := s.transport.TryRecv()
		if err != nil {
			if err == shared.ErrWouldBlock {
				return
			}
			shared.Log.WithError(err).Warn("transport read failed")
			return
		}

		packet, err := shared.DecodePacket(data)
		if err != nil {
			if s.metrics != nil {
				s.metrics.DecodeErrors.Inc()
			}
			shared.Log.WithError(err).WithField("addr", addr).Warn("dropping undecodable datagram")
			continue
		}

		if s.metrics != nil {
			s.metrics.PacketsReceived.Inc()
		}
		s.dispatch(packet, addr)
	}
}

func (s *Server) dispatch(packet shared.Packet, addr net.Addr) {
	switch packet.Type {
	case shared.PacketConnect:
		s.handleConnect(addr)
	case shared.PacketInput:
		s.handleInput(packet, addr)
	case shared.PacketDisconnect:
		s.handleDisconnect(addr)
	default:
		shared.Log.WithField("addr", addr).Warn("unexpected packet type from client")
	}
}

func (s *Server) handleConnect(addr net.Addr) {
	id, ok := s.registry.AddClient(addr)
	if !ok {
		shared.Log.WithField("addr", addr).Warn("rejecting connect: client table full")
		return
	}

	s.snapshot.Players[id] = shared.NewPlayer(id)

	reply, err := shared.EncodePacket(shared.Packet{Type: shared.PacketConnected, ClientID: id})
	if err != nil {
		shared.Log.WithError(err).Error("failed to encode Connected packet")
		return
	}
	if err := s.transport.Send(addr, reply); err != nil {
		shared.Log.WithError(err).WithField("client_id", id).Error("failed to send Connected packet")
		return
	}
	if s.metrics != nil {
		s.metrics.PacketsSent.Inc()
	}
	shared.Log.WithField("client_id", id).Info("client connected")
}

func (s *Server) handleInput(packet shared.Packet, addr net.Addr) {
	id, ok := s.registry.FindByAddr(addr)
	if !ok {
		shared.Log.WithField("addr", addr).Warn("input from unknown peer")
		return
	}
	s.registry.AddInput(id, packet.Input)
}

func (s *Server) handleDisconnect(addr net.Addr) {
	id, ok := s.registry.FindByAddr(addr)
	if !ok {
		return
	}
	s.registry.RemoveClient(id)
	delete(s.snapshot.Players, id)
	shared.Log.WithField("client_id", id).Info("client disconnected")
}

// applyInputs merges every client's pending inputs into one chronological
// stream and applies each in order, per spec section 4.7 step 2.
func (s *Server) applyInputs() {
	inputs := s.registry.GetChronologicalInputs()
	lastSeqByClient := make(map[uint32]uint32)

	for _, ci := range inputs {
		shared.ApplyInput(&s.snapshot, ci.ClientID, ci.Input)
		if ci.Input.Sequence > lastSeqByClient[ci.ClientID] {
			lastSeqByClient[ci.ClientID] = ci.Input.Sequence
		}
		if s.metrics != nil {
			s.metrics.InputsApplied.Inc()
		}
	}

	for clientID, seq := range lastSeqByClient {
		s.registry.MarkInputProcessed(clientID, seq)
	}
	s.registry.CleanupProcessedInputs()
}

// broadcast sends the post-step GameState to every connected peer, per
// spec section 4.7 step 4.
func (s *Server) broadcast() {
	players := make([]shared.Player, 0, len(s.snapshot.Players))
	for _, p := range s.snapshot.Players {
		players = append(players, p)
	}

	packet := shared.Packet{
		Type:                 shared.PacketGameState,
		GSTick:               s.snapshot.Tick,
		GSTimestamp:          uint64(time.Now().UnixMilli()),
		GSLastProcessedInput: s.registry.GetLastProcessedInputs(),
		GSPlayers:            players,
	}

	data, err := shared.EncodePacket(packet)
	if err != nil {
		shared.Log.WithError(err).Error("failed to encode GameState, skipping broadcast")
		return
	}

	for clientID, addr := range s.registry.ClientAddrs() {
		if err := s.transport.Send(addr, data); err != nil {
			shared.Log.WithError(err).WithField("client_id", clientID).Error("send failed, disconnecting client")
			s.registry.RemoveClient(clientID)
			delete(s.snapshot.Players, clientID)
			continue
		}
		if s.metrics != nil {
			s.metrics.PacketsSent.Inc()
		}
	}
}

// evictTimeouts removes peers not heard from in 5s, per spec section 4.7 step 5.
func (s *Server) evictTimeouts() {
	for _, id := range s.registry.CheckTimeouts() {
		delete(s.snapshot.Players, id)
		if s.metrics != nil {
			s.metrics.Timeouts.Inc()
		}
		shared.Log.WithField("client_id", id).Warn("client timed out")
	}
}
