package server

import (
	"testing"

	"github.com/ancillary-agi/netcode/networking/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1 from spec.md section 8: connect/echo.
func TestConnectEcho(t *testing.T) {
	serverT := shared.NewMemTransport("server")
	clientT := shared.NewMemTransport("client")
	shared.Connect(serverT, clientT)

	s := New(DefaultConfig(), serverT, nil)

	connect, err := shared.EncodePacket(shared.Packet{Type: shared.PacketConnect, ClientVersion: 1})
	require.NoError(t, err)
	require.NoError(t, clientT.Send(serverT.Addr(), connect))

	s.tick()

	data, _, err := clientT.TryRecv()
	require.NoError(t, err)
	reply, err := shared.DecodePacket(data)
	require.NoError(t, err)
	require.Equal(t, shared.PacketConnected, reply.Type)
	assert.Equal(t, uint32(1), reply.ClientID)

	s.tick()
	data, _, err = clientT.TryRecv()
	require.NoError(t, err)
	gameState, err := shared.DecodePacket(data)
	require.NoError(t, err)
	require.Equal(t, shared.PacketGameState, gameState.Type)
	require.Len(t, gameState.GSPlayers, 1)
	assert.Equal(t, uint32(1), gameState.GSPlayers[0].ID)
}

func TestInputFromUnknownPeerIsDropped(t *testing.T) {
	serverT := shared.NewMemTransport("server")
	clientT := shared.NewMemTransport("client")
	shared.Connect(serverT, clientT)

	s := New(DefaultConfig(), serverT, nil)

	input, err := shared.EncodePacket(shared.Packet{Type: shared.PacketInput, Input: shared.InputState{Sequence: 1, Left: true}})
	require.NoError(t, err)
	require.NoError(t, clientT.Send(serverT.Addr(), input))

	assert.NotPanics(t, func() { s.tick() })
	assert.Equal(t, 0, s.registry.Len())
}

func TestSequenceFilteringAcrossTicks(t *testing.T) {
	serverT := shared.NewMemTransport("server")
	clientT := shared.NewMemTransport("client")
	shared.Connect(serverT, clientT)

	s := New(DefaultConfig(), serverT, nil)

	connect, _ := shared.EncodePacket(shared.Packet{Type: shared.PacketConnect, ClientVersion: 1})
	clientT.Send(serverT.Addr(), connect)
	s.tick()
	clientT.TryRecv() // Connected
	s.tick()
	clientT.TryRecv() // first GameState

	input, _ := shared.EncodePacket(shared.Packet{Type: shared.PacketInput, Input: shared.InputState{Sequence: 5, Right: true}})
	clientT.Send(serverT.Addr(), input)
	s.tick()

	assert.Equal(t, uint32(5), s.registry.GetLastProcessedInputs()[1])

	// Replaying the same or an older sequence must never be applied again.
	stale, _ := shared.EncodePacket(shared.Packet{Type: shared.PacketInput, Input: shared.InputState{Sequence: 5, Left: true}})
	clientT.Send(serverT.Addr(), stale)
	s.tick()

	assert.Empty(t, s.registry.GetChronologicalInputs())
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	serverT := shared.NewMemTransport("server")
	clientT := shared.NewMemTransport("client")
	shared.Connect(serverT, clientT)

	s := New(DefaultConfig(), serverT, nil)

	connect, _ := shared.EncodePacket(shared.Packet{Type: shared.PacketConnect, ClientVersion: 1})
	clientT.Send(serverT.Addr(), connect)
	s.tick()

	disconnect, _ := shared.EncodePacket(shared.Packet{Type: shared.PacketDisconnect})
	clientT.Send(serverT.Addr(), disconnect)
	s.tick()

	assert.Equal(t, 0, s.registry.Len())
	assert.Empty(t, s.snapshot.Players)
}
