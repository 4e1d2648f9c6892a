package shared

import (
	"net"
	"sync"
)

// memAddr is a trivial net.Addr for in-memory transports, used by tests
// and by local loopback wiring that doesn't want a real UDP socket.
type memAddr string

func (a memAddr) Network() string { return "mem" }
func (a memAddr) String() string  { return string(a) }

// MemTransport is an in-memory Transport used in tests to exercise the
// client/server protocol without a real socket. Two MemTransports wired
// to each other via Connect form a loopback pair.
type MemTransport struct {
	self memAddr
	peer *MemTransport

	mu    sync.Mutex
	inbox []pendingMemDatagram
}

type pendingMemDatagram struct {
	data []byte
	from net.Addr
}

// NewMemTransport creates a transport addressed by name.
func NewMemTransport(name string) *MemTransport {
	return &MemTransport{self: memAddr(name)}
}

// Connect wires two transports so sends to the other's address deliver
// into its inbox.
func Connect(a, b *MemTransport) {
	a.peer = b
	b.peer = a
}

func (t *MemTransport) Addr() net.Addr { return t.self }

func (t *MemTransport) Send(addr net.Addr, data []byte) error {
	if t.peer == nil || addr.String() != t.peer.self.String() {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	t.peer.mu.Lock()
	t.peer.inbox = append(t.peer.inbox, pendingMemDatagram{data: cp, from: t.self})
	t.peer.mu.Unlock()
	return nil
}

func (t *MemTransport) TryRecv() ([]byte, net.Addr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inbox) == 0 {
		return nil, nil, ErrWouldBlock
	}
	next := t.inbox[0]
	t.inbox = t.inbox[1:]
	return next.data, next.from, nil
}

func (t *MemTransport) Close() error { return nil }
