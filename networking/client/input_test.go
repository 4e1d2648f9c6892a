package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputSamplerStartsAtSequenceOne(t *testing.T) {
	s := NewInputSampler()
	_, input := s.Update(DeviceState{Left: true})
	require.NotNil(t, input)
	assert.Equal(t, uint32(1), input.Sequence)
}

func TestInputSamplerSequenceIncrements(t *testing.T) {
	s := NewInputSampler()
	_, first := s.Update(DeviceState{Left: true})
	require.NotNil(t, first)

	_, second := s.Update(DeviceState{Left: false})
	require.NotNil(t, second)
	assert.Equal(t, first.Sequence+1, second.Sequence)
}

func TestInputSamplerSuppressesUnchangedInputUntilCadence(t *testing.T) {
	s := NewInputSampler()
	_, first := s.Update(DeviceState{Left: true})
	require.NotNil(t, first)

	_, again := s.Update(DeviceState{Left: true})
	assert.Nil(t, again)
}

func TestInputSamplerSendsOnCadenceEvenIfUnchanged(t *testing.T) {
	s := NewInputSampler()
	s.lastSent = time.Now().Add(-20 * time.Millisecond)
	_, input := s.Update(DeviceState{})
	assert.NotNil(t, input)
}

func TestInputSamplerTogglesOnlyOnRisingEdge(t *testing.T) {
	s := NewInputSampler()
	toggles, _ := s.Update(DeviceState{TogglePrediction: true})
	assert.True(t, toggles.Prediction)

	toggles, _ = s.Update(DeviceState{TogglePrediction: true})
	assert.False(t, toggles.Prediction)

	toggles, _ = s.Update(DeviceState{TogglePrediction: false})
	assert.False(t, toggles.Prediction)
}
