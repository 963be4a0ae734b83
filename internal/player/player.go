// Package player holds shared audio-player state so the progress bar,
// transcript pane and controls all observe one source. The state is scoped
// to whichever call is open; volume, mute and rate are user preferences
// that survive across calls within a session.
package player

import "sync"

// DefaultPlaybackRate is the neutral speed multiplier.
const DefaultPlaybackRate = 1.0

// Snapshot is a consistent read of the player state.
type Snapshot struct {
	IsPlaying        bool
	CurrentTime      float64
	Duration         float64
	Volume           float64
	IsMuted          bool
	PlaybackRate     float64
	CurrentCallID    string
	AudioURL         string
	CurrentTurnIndex int
}

// State is the playback store. The zero value is not ready; use New.
type State struct {
	mu sync.RWMutex
	s  Snapshot
}

// New returns player state at defaults: stopped, full volume, neutral rate,
// no call loaded.
func New() *State {
	return &State{s: Snapshot{Volume: 1, PlaybackRate: DefaultPlaybackRate}}
}

// Snapshot returns the current state under one read lock.
func (p *State) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.s
}

// SetPlaying flips the play/pause flag.
func (p *State) SetPlaying(playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.IsPlaying = playing
}

// SetCurrentTime records the playhead position in seconds. The caller keeps
// it within [0, duration]; no clamping happens here.
func (p *State) SetCurrentTime(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.CurrentTime = seconds
}

// SetDuration records the loaded audio length in seconds.
func (p *State) SetDuration(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.Duration = seconds
}

// SetVolume stores the raw value (caller supplies v in [0,1]) and derives
// the mute flag: volume exactly 0 mutes, anything else unmutes.
func (p *State) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.Volume = v
	p.s.IsMuted = v == 0
}

// ToggleMute flips the mute flag without touching the stored volume, so
// un-muting restores the prior level.
func (p *State) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.IsMuted = !p.s.IsMuted
}

// SetPlaybackRate stores the speed multiplier.
func (p *State) SetPlaybackRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.PlaybackRate = rate
}

// LoadCall points the player at a call's audio and rewinds to the start.
func (p *State) LoadCall(callID, audioURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.CurrentCallID = callID
	p.s.AudioURL = audioURL
	p.s.IsPlaying = false
	p.s.CurrentTime = 0
	p.s.Duration = 0
	p.s.CurrentTurnIndex = 0
}

// SetTurnIndex syncs the highlighted transcript turn with the audio.
func (p *State) SetTurnIndex(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.CurrentTurnIndex = i
}

// Reset restores playback fields to their defaults when navigating away
// from a call. Volume, mute and rate are deliberately preserved: they are
// session-scoped user preferences, not per-call state.
func (p *State) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	volume, muted, rate := p.s.Volume, p.s.IsMuted, p.s.PlaybackRate
	p.s = Snapshot{Volume: volume, IsMuted: muted, PlaybackRate: rate}
}
