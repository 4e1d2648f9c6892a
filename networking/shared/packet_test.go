package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, p Packet) Packet {
	t.Helper()
	data, err := EncodePacket(p)
	require.NoError(t, err)
	require.LessOrEqual(t, len(data), MaxDatagramSize)

	decoded, err := DecodePacket(data)
	require.NoError(t, err)
	return decoded
}

func TestPacketRoundTripConnect(t *testing.T) {
	p := Packet{Type: PacketConnect, ClientVersion: 1}
	assert.Equal(t, p, roundTrip(t, p))
}

func TestPacketRoundTripConnected(t *testing.T) {
	p := Packet{Type: PacketConnected, ClientID: 42}
	assert.Equal(t, p, roundTrip(t, p))
}

func TestPacketRoundTripInput(t *testing.T) {
	p := Packet{
		Type: PacketInput,
		Input: InputState{
			Sequence:  7,
			Timestamp: 1234567,
			Left:      true,
			Jump:      true,
		},
	}
	assert.Equal(t, p, roundTrip(t, p))
}

func TestPacketRoundTripGameState(t *testing.T) {
	p := Packet{
		Type:                 PacketGameState,
		GSTick:               99,
		GSTimestamp:          555,
		GSLastProcessedInput: map[uint32]uint32{1: 10, 2: 20},
		GSPlayers: []Player{
			{ID: 1, X: 1, Y: 2, VelX: 3, VelY: 4, OnGround: true},
			{ID: 2, X: 5, Y: 6},
		},
	}
	assert.Equal(t, p, roundTrip(t, p))
}

func TestPacketRoundTripDisconnect(t *testing.T) {
	p := Packet{Type: PacketDisconnect}
	assert.Equal(t, p, roundTrip(t, p))
}

func TestPacketRoundTripDisconnected(t *testing.T) {
	p := Packet{Type: PacketDisconnected, Reason: "timeout"}
	assert.Equal(t, p, roundTrip(t, p))
}

func TestDecodePacketTooShort(t *testing.T) {
	_, err := DecodePacket([]byte{1, 2})
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestDecodePacketUnknownVariant(t *testing.T) {
	data, err := EncodePacket(Packet{Type: PacketConnect, ClientVersion: 1})
	require.NoError(t, err)
	data[0] = 0xFF
	_, err = DecodePacket(data)
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestDecodePacketTrailingBytes(t *testing.T) {
	data, err := EncodePacket(Packet{Type: PacketConnect, ClientVersion: 1})
	require.NoError(t, err)
	data = append(data, 0xAA)
	_, err = DecodePacket(data)
	assert.ErrorIs(t, err, ErrTrailingBytes)
}

func TestDecodePacketOversized(t *testing.T) {
	data := make([]byte, MaxDatagramSize+1)
	_, err := DecodePacket(data)
	assert.ErrorIs(t, err, ErrDataTooLarge)
}
