// Package server is the authoritative side of the netcode core: the
// per-client registry and the fixed-rate tick loop that drains the
// transport, applies input chronologically, steps the shared physics
// kernel, and broadcasts the resulting snapshot.
package server

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/ancillary-agi/netcode/networking/shared"
)

// clientTimeout is the "no packets received" duration after which a peer
// is considered gone (spec section 4.6 / 4.7).
const clientTimeout = 5 * time.Second

// client is one connected peer: its address, liveness, and its queue of
// not-yet-applied inputs sorted by sequence.
type client struct {
	id                 uint32
	addr               net.Addr
	lastSeen           time.Time
	lastProcessedInput uint32
	pendingInputs      []shared.InputState
}

func newClient(id uint32, addr net.Addr) *client {
	return &client{id: id, addr: addr, lastSeen: time.Now()}
}

func (c *client) addInput(input shared.InputState) {
	c.lastSeen = time.Now()
	c.pendingInputs = append(c.pendingInputs, input)
	sort.Slice(c.pendingInputs, func(i, j int) bool {
		return c.pendingInputs[i].Sequence < c.pendingInputs[j].Sequence
	})
}

func (c *client) isTimedOut(now time.Time) bool {
	return now.Sub(c.lastSeen) > clientTimeout
}

// ChronologicalInput pairs a pending input with the client id that sent it.
type ChronologicalInput struct {
	ClientID uint32
	Input    shared.InputState
}

// ClientManager tracks every connected peer (spec section 4.6), grounded
// on original_source/server/src/client_manager.rs.
type ClientManager struct {
	mu         sync.RWMutex
	clients    map[uint32]*client
	byAddr     map[string]uint32
	nextID     uint32
	maxClients int
}

// NewClientManager returns an empty registry that will reject new peers
// once maxClients are connected.
func NewClientManager(maxClients int) *ClientManager {
	return &ClientManager{
		clients:    make(map[uint32]*client),
		byAddr:     make(map[string]uint32),
		nextID:     1,
		maxClients: maxClients,
	}
}

// AddClient registers addr and returns its freshly assigned id, or false
// if the registry is already at capacity.
func (m *ClientManager) AddClient(addr net.Addr) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.clients) >= m.maxClients {
		return 0, false
	}

	id := m.nextID
	m.nextID++
	m.clients[id] = newClient(id, addr)
	m.byAddr[addr.String()] = id
	return id, true
}

// RemoveClient drops a peer from the registry.
func (m *ClientManager) RemoveClient(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[id]; ok {
		delete(m.byAddr, c.addr.String())
		delete(m.clients, id)
	}
}

// FindByAddr resolves a peer's id by its source address.
func (m *ClientManager) FindByAddr(addr net.Addr) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byAddr[addr.String()]
	return id, ok
}

// AddInput queues an input for the named client, if it exists.
func (m *ClientManager) AddInput(id uint32, input shared.InputState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[id]; ok {
		c.addInput(input)
	}
}

// GetChronologicalInputs flattens every client's pending inputs filtered
// to sequence > last processed, sorted across all clients by timestamp
// (spec section 4.6 / 5: cross-client fairness approximation).
func (m *ClientManager) GetChronologicalInputs() []ChronologicalInput {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ChronologicalInput
	ids := make([]uint32, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		c := m.clients[id]
		for _, in := range c.pendingInputs {
			if in.Sequence > c.lastProcessedInput {
				out = append(out, ChronologicalInput{ClientID: id, Input: in})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Input.Timestamp < out[j].Input.Timestamp
	})
	return out
}

// MarkInputProcessed lifts the client's last-processed sequence to
// max(current, seq).
func (m *ClientManager) MarkInputProcessed(id uint32, seq uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[id]; ok && seq > c.lastProcessedInput {
		c.lastProcessedInput = seq
	}
}

// CleanupProcessedInputs drops every pending input whose sequence has
// already been applied.
func (m *ClientManager) CleanupProcessedInputs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		kept := c.pendingInputs[:0]
		for _, in := range c.pendingInputs {
			if in.Sequence > c.lastProcessedInput {
				kept = append(kept, in)
			}
		}
		c.pendingInputs = kept
	}
}

// GetLastProcessedInputs returns a snapshot of every client's
// last-processed sequence, suitable for embedding in a GameState packet.
func (m *ClientManager) GetLastProcessedInputs() map[uint32]uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uint32]uint32, len(m.clients))
	for id, c := range m.clients {
		out[id] = c.lastProcessedInput
	}
	return out
}

// CheckTimeouts removes and returns the ids of every peer not heard from
// in clientTimeout.
func (m *ClientManager) CheckTimeouts() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var timedOut []uint32
	for id, c := range m.clients {
		if c.isTimedOut(now) {
			timedOut = append(timedOut, id)
		}
	}
	for _, id := range timedOut {
		c := m.clients[id]
		delete(m.byAddr, c.addr.String())
		delete(m.clients, id)
	}
	return timedOut
}

// ClientAddrs returns the address of every connected peer, for broadcast.
func (m *ClientManager) ClientAddrs() map[uint32]net.Addr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uint32]net.Addr, len(m.clients))
	for id, c := range m.clients {
		out[id] = c.addr
	}
	return out
}

// Len returns the number of connected clients.
func (m *ClientManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
