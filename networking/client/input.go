// Package client is the client side of the netcode core: input sampling,
// confirmed/predicted state with reconciliation and interpolation, and the
// network loop that ties them together.
package client

import (
	"time"

	"github.com/ancillary-agi/netcode/networking/shared"
)

// sampleInterval is the input sampler's cadence (spec section 4.4).
const sampleInterval = 16 * time.Millisecond

// DeviceState is the raw input-device collaborator: keypress booleans for
// movement plus the four toggle keys. It's sampled once per Update call;
// the actual keyboard/device polling is out of scope (spec section 1).
type DeviceState struct {
	Left, Right, Jump                     bool
	TogglePrediction, ToggleReconciliation bool
	ToggleInterpolation, ToggleReconnect  bool
}

// Toggles reports which feature toggles just had a rising edge.
type Toggles struct {
	Prediction, Reconciliation, Interpolation, Reconnect bool
}

// InputSampler produces monotonically sequenced InputState messages at a
// fixed cadence, with edge-detected toggle keys, grounded on
// original_source/client/src/input.rs.
type InputSampler struct {
	nextSequence  uint32
	current       shared.InputState
	lastSent      time.Time

	prevToggle1, prevToggle2, prevToggle3, prevToggleR bool
}

// NewInputSampler starts sequencing at 1, per spec section 4.4.
func NewInputSampler() *InputSampler {
	return &InputSampler{nextSequence: 1, lastSent: time.Now()}
}

// Update samples dev and returns any toggle edges plus a new InputState
// if this call should send one (input changed, or 16ms elapsed).
func (s *InputSampler) Update(dev DeviceState) (Toggles, *shared.InputState) {
	var toggles Toggles
	if dev.TogglePrediction && !s.prevToggle1 {
		toggles.Prediction = true
	}
	if dev.ToggleReconciliation && !s.prevToggle2 {
		toggles.Reconciliation = true
	}
	if dev.ToggleInterpolation && !s.prevToggle3 {
		toggles.Interpolation = true
	}
	if dev.ToggleReconnect && !s.prevToggleR {
		toggles.Reconnect = true
	}
	s.prevToggle1 = dev.TogglePrediction
	s.prevToggle2 = dev.ToggleReconciliation
	s.prevToggle3 = dev.ToggleInterpolation
	s.prevToggleR = dev.ToggleReconnect

	inputChanged := dev.Left != s.current.Left || dev.Right != s.current.Right || dev.Jump != s.current.Jump
	timeToSend := time.Since(s.lastSent) >= sampleInterval

	if !inputChanged && !timeToSend {
		return toggles, nil
	}

	s.current = shared.InputState{
		Sequence:  s.nextSequence,
		Timestamp: uint64(time.Now().UnixMilli()),
		Left:      dev.Left,
		Right:     dev.Right,
		Jump:      dev.Jump,
	}
	sent := s.current
	s.nextSequence++
	s.lastSent = time.Now()

	return toggles, &sent
}
