package shared

import (
	"errors"
	"net"
	"sync"
	"time"
)

// ErrWouldBlock is returned by Transport.TryRecv when no datagram is
// currently available; callers should treat it as "nothing to do this
// tick", not as a failure.
var ErrWouldBlock = errors.New("shared: would block")

// Transport is the non-blocking datagram abstraction the netcode core is
// built against (spec section 4.3). Implementations must never block the
// caller: Send and TryRecv both return promptly.
type Transport interface {
	Send(addr net.Addr, data []byte) error
	TryRecv() (data []byte, addr net.Addr, err error)
	Close() error
}

// UDPTransport wraps a net.UDPConn in non-blocking mode, with an optional
// artificial delay split symmetrically across both directions
// (delay/2 each way), matching the demo fake-ping knob in spec section 4.3.
type UDPTransport struct {
	conn  *net.UDPConn
	delay time.Duration

	mu      sync.Mutex
	pending []pendingDatagram
}

type pendingDatagram struct {
	readyAt time.Time
	data    []byte
	addr    net.Addr
}

// NewUDPTransport binds conn for non-blocking use. delay is the total
// round-trip artificial delay to simulate; half is applied on send and
// half on receive.
func NewUDPTransport(conn *net.UDPConn, delay time.Duration) *UDPTransport {
	return &UDPTransport{conn: conn, delay: delay}
}

func (t *UDPTransport) Send(addr net.Addr, data []byte) error {
	if t.delay <= 0 {
		_, err := t.conn.WriteTo(data, addr)
		return err
	}
	time.AfterFunc(t.delay/2, func() {
		_, _ = t.conn.WriteTo(data, addr)
	})
	return nil
}

// TryRecv performs one non-blocking read attempt. With an artificial
// delay configured, datagrams are buffered until their simulated arrival
// time before being surfaced.
func (t *UDPTransport) TryRecv() ([]byte, net.Addr, error) {
	if t.delay > 0 {
		if data, addr, ok := t.popReady(); ok {
			return data, addr, nil
		}
	}

	_ = t.conn.SetReadDeadline(time.Now())
	buf := make([]byte, MaxDatagramSize)
	n, addr, err := t.conn.ReadFrom(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil, ErrWouldBlock
		}
		return nil, nil, err
	}

	data := buf[:n]
	if t.delay <= 0 {
		return data, addr, nil
	}

	t.mu.Lock()
	t.pending = append(t.pending, pendingDatagram{
		readyAt: time.Now().Add(t.delay / 2),
		data:    data,
		addr:    addr,
	})
	t.mu.Unlock()
	return nil, nil, ErrWouldBlock
}

func (t *UDPTransport) popReady() ([]byte, net.Addr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for i, pd := range t.pending {
		if !pd.readyAt.After(now) {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return pd.data, pd.addr, true
		}
	}
	return nil, nil, false
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
