package client

import (
	"math"
	"time"

	"github.com/ancillary-agi/netcode/networking/shared"
)

const (
	inputHistoryCap     = 1000
	inputHistoryTrim    = 100
	renderDelay         = 150 * time.Millisecond
	bufferRetentionMS   = 1000
	reconciliationEps   = 1.0
)

// interpolationEntry is one timestamped server snapshot retained for
// rendering remote players at a fixed render delay (spec section 4.5.5).
type interpolationEntry struct {
	timestampMS uint64
	players     []shared.Player
}

// ServerStateConfig controls how a received GameState is applied (spec
// section 4.5.2).
type ServerStateConfig struct {
	ClientID              uint32
	HasClientID           bool
	ReconciliationEnabled bool
	InterpolationEnabled  bool
}

// State is the client's netcode state: confirmed/predicted snapshots,
// bounded input history, and the interpolation buffer, grounded on
// original_source/client/src/game.rs's ClientGameState.
type State struct {
	Confirmed shared.Snapshot
	Predicted shared.Snapshot

	inputHistory  []shared.InputState
	interpolation []interpolationEntry

	LastConfirmedTick uint32
}

// NewState returns an empty client state.
func NewState() *State {
	return &State{
		Confirmed: shared.NewSnapshot(),
		Predicted: shared.NewSnapshot(),
	}
}

// ApplyPrediction appends input to history (trimming if over capacity)
// and advances the predicted snapshot by one fixed step, per spec
// section 4.5.1.
func (s *State) ApplyPrediction(clientID uint32, input shared.InputState) {
	s.inputHistory = append(s.inputHistory, input)
	if len(s.inputHistory) > inputHistoryCap {
		s.inputHistory = s.inputHistory[inputHistoryTrim:]
	}

	shared.ApplyInput(&s.Predicted, clientID, input)
	shared.Step(&s.Predicted, shared.FixedTimestep)
}

// ApplyServerState overwrites the confirmed snapshot, seeds the local
// player's predicted entry if newly visible, appends to the interpolation
// buffer, and reconciles (or directly overwrites) the predicted local
// player, per spec section 4.5.2.
func (s *State) ApplyServerState(tick uint32, timestampMS uint64, players []shared.Player, lastProcessedInput map[uint32]uint32, cfg ServerStateConfig) {
	confirmed := make(map[uint32]shared.Player, len(players))
	for _, p := range players {
		confirmed[p.ID] = p
	}
	s.Confirmed.Tick = tick
	s.Confirmed.Players = confirmed

	if cfg.HasClientID {
		if _, predicted := s.Predicted.Players[cfg.ClientID]; !predicted {
			if cp, ok := confirmed[cfg.ClientID]; ok {
				if s.Predicted.Players == nil {
					s.Predicted.Players = make(map[uint32]shared.Player)
				}
				s.Predicted.Players[cfg.ClientID] = cp
			}
		}
	}

	if cfg.InterpolationEnabled {
		s.interpolation = append(s.interpolation, interpolationEntry{timestampMS: timestampMS, players: players})
		s.pruneInterpolationBuffer(timestampMS)
	}

	if cfg.HasClientID {
		if cfg.ReconciliationEnabled {
			s.performReconciliation(cfg.ClientID, lastProcessedInput)
		} else if cp, ok := confirmed[cfg.ClientID]; ok {
			if s.Predicted.Players == nil {
				s.Predicted.Players = make(map[uint32]shared.Player)
			}
			s.Predicted.Players[cfg.ClientID] = cp
		}
	}

	s.LastConfirmedTick = tick
}

func (s *State) pruneInterpolationBuffer(newestTimestampMS uint64) {
	cutoff := int64(newestTimestampMS) - bufferRetentionMS
	kept := s.interpolation[:0]
	for _, e := range s.interpolation {
		if int64(e.timestampMS) > cutoff {
			kept = append(kept, e)
		}
	}
	s.interpolation = kept
}

// performReconciliation drops acknowledged input history and, if the
// predicted and confirmed local-player positions have drifted beyond the
// hysteresis threshold, rolls predicted back to confirmed and replays the
// remaining history (spec section 4.5.3).
func (s *State) performReconciliation(clientID uint32, lastProcessedInput map[uint32]uint32) {
	lastSeq, ok := lastProcessedInput[clientID]
	if !ok {
		return
	}

	kept := s.inputHistory[:0]
	for _, in := range s.inputHistory {
		if in.Sequence > lastSeq {
			kept = append(kept, in)
		}
	}
	s.inputHistory = kept

	confirmedPlayer, hasConfirmed := s.Confirmed.Players[clientID]
	predictedPlayer, hasPredicted := s.Predicted.Players[clientID]
	if !hasConfirmed {
		return
	}
	if !hasPredicted {
		if s.Predicted.Players == nil {
			s.Predicted.Players = make(map[uint32]shared.Player)
		}
		s.Predicted.Players[clientID] = confirmedPlayer
		return
	}

	dx := float64(predictedPlayer.X - confirmedPlayer.X)
	dy := float64(predictedPlayer.Y - confirmedPlayer.Y)
	distance := math.Sqrt(dx*dx + dy*dy)

	if distance <= reconciliationEps {
		return
	}

	s.Predicted = s.Confirmed.Clone()
	for _, in := range s.inputHistory {
		shared.ApplyInput(&s.Predicted, clientID, in)
		shared.Step(&s.Predicted, shared.FixedTimestep)
	}
}

// GetRenderPlayers dispatches to the interpolated or direct render path,
// per spec section 4.5.4.
func (s *State) GetRenderPlayers(clientID uint32, hasClientID, predictionOn, interpolationOn bool) []shared.Player {
	if interpolationOn {
		return s.getInterpolatedPlayers(clientID, hasClientID)
	}

	if hasClientID {
		out := make([]shared.Player, 0, len(s.Confirmed.Players))
		for id, p := range s.Confirmed.Players {
			if id == clientID {
				if predictionOn {
					if pred, ok := s.Predicted.Players[clientID]; ok {
						out = append(out, pred)
						continue
					}
				}
			}
			out = append(out, p)
		}
		return out
	}

	out := make([]shared.Player, 0, len(s.Confirmed.Players))
	for _, p := range s.Confirmed.Players {
		out = append(out, p)
	}
	return out
}

// getInterpolatedPlayers renders remote players at now-renderDelay by
// linearly interpolating between the two bracketing buffered snapshots,
// substituting the local player from the predicted snapshot (never
// interpolating self), per spec section 4.5.5. With fewer than two buffered
// entries, or a render time before the oldest entry, it falls back to the
// direct render path with prediction off, so the local player then comes
// from the confirmed snapshot.
func (s *State) getInterpolatedPlayers(clientID uint32, hasClientID bool) []shared.Player {
	renderTimeMS := time.Now().UnixMilli() - renderDelay.Milliseconds()
	return s.getInterpolatedPlayersAt(renderTimeMS, clientID, hasClientID)
}

// getInterpolatedPlayersAt is the render-time-parameterized core of
// getInterpolatedPlayers, split out so tests can drive a fixed render
// time instead of depending on the wall clock.
func (s *State) getInterpolatedPlayersAt(renderTimeMS int64, clientID uint32, hasClientID bool) []shared.Player {
	if len(s.interpolation) < 2 {
		return s.GetRenderPlayers(clientID, hasClientID, false, false)
	}

	var before, after *interpolationEntry
	for i := range s.interpolation {
		e := &s.interpolation[i]
		if int64(e.timestampMS) <= renderTimeMS {
			before = e
		} else {
			after = e
			break
		}
	}

	if before == nil {
		return s.GetRenderPlayers(clientID, hasClientID, false, false)
	}
	if after == nil {
		return s.substituteLocal(before.players, clientID, hasClientID)
	}

	alpha := float32(0)
	if after.timestampMS > before.timestampMS {
		span := float32(after.timestampMS - before.timestampMS)
		pos := float32(renderTimeMS - int64(before.timestampMS))
		alpha = pos / span
		if alpha < 0 {
			alpha = 0
		} else if alpha > 1 {
			alpha = 1
		}
	}

	afterByID := make(map[uint32]shared.Player, len(after.players))
	for _, p := range after.players {
		afterByID[p.ID] = p
	}

	out := make([]shared.Player, 0, len(before.players))
	for _, p1 := range before.players {
		if hasClientID && p1.ID == clientID {
			if pred, ok := s.Predicted.Players[clientID]; ok {
				out = append(out, pred)
			} else {
				out = append(out, p1)
			}
			continue
		}

		p2, ok := afterByID[p1.ID]
		if !ok {
			out = append(out, p1)
			continue
		}

		out = append(out, shared.Player{
			ID:       p1.ID,
			X:        lerp(p1.X, p2.X, alpha),
			Y:        lerp(p1.Y, p2.Y, alpha),
			VelX:     lerp(p1.VelX, p2.VelX, alpha),
			VelY:     lerp(p1.VelY, p2.VelY, alpha),
			OnGround: p2.OnGround,
		})
	}
	return out
}

func (s *State) substituteLocal(players []shared.Player, clientID uint32, hasClientID bool) []shared.Player {
	out := make([]shared.Player, 0, len(players))
	for _, p := range players {
		if hasClientID && p.ID == clientID {
			if pred, ok := s.Predicted.Players[clientID]; ok {
				out = append(out, pred)
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func lerp(a, b, alpha float32) float32 {
	return a + (b-a)*alpha
}
