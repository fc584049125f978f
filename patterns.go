package mpc

import (
	"gitlab.com/gomidi/midi/v2"

	intmidi "github.com/preslife/web-mpc-infinite-loop-sub000/internal/midiin"
	intmix "github.com/preslife/web-mpc-infinite-loop-sub000/internal/mixer"
	intpat "github.com/preslife/web-mpc-infinite-loop-sub000/internal/pattern"
)

// Pattern edit errors. A failing call leaves the pattern untouched.
var (
	ErrNoTracksLoaded  = intpat.ErrNoTracksLoaded
	ErrNoTrackSelected = intpat.ErrNoTrackSelected
	ErrTrackEmpty      = intpat.ErrTrackEmpty
)

// Scope selects the tracks a pattern generator touches.
type Scope struct {
	all   bool
	track int
}

// ScopeAllLoaded covers every track that has a sample.
var ScopeAllLoaded = Scope{all: true}

// ScopeSelected covers a single track. A negative track means nothing is
// selected.
func ScopeSelected(track int) Scope {
	return Scope{track: track}
}

// scopeTracks resolves s against the loaded tracks. Called with e.mu held.
func (e *Engine) scopeTracks(s Scope) ([]int, error) {
	if s.all {
		tracks := loadedTracks(&e.tracks)
		if len(tracks) == 0 {
			return nil, ErrNoTracksLoaded
		}
		return tracks, nil
	}
	if !validTrack(s.track) {
		return nil, ErrNoTrackSelected
	}
	if !e.tracks[s.track].Loaded() {
		return nil, ErrTrackEmpty
	}
	return []int{s.track}, nil
}

// ToggleStep flips one step. The change is heard from the next scheduled fire.
func (e *Engine) ToggleStep(track, step int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pattern.Toggle(track, step)
}

// SetStep writes one step directly.
func (e *Engine) SetStep(track, step int, active bool, velocity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pattern.Set(track, step, intpat.Step{Active: active, Velocity: velocity})
}

// ClearPattern deactivates every step, keeping velocities.
func (e *Engine) ClearPattern() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pattern.Clear()
}

// Randomize redraws the live steps of the tracks in scope.
func (e *Engine) Randomize(s Scope) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tracks, err := e.scopeTracks(s)
	if err != nil {
		return err
	}
	return e.pattern.Randomize(e.rng, tracks, e.length)
}

// Fill rewrites the live steps of track so every nth step is active.
// every must be 1, 2, 4 or 8.
func (e *Engine) Fill(track, every int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.scopeTracks(ScopeSelected(track)); err != nil {
		return err
	}
	return e.pattern.Fill(track, every, e.length)
}

// Quantize maps a fractional step position onto the grid using the current
// record settings and length.
func (e *Engine) Quantize(raw float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return intpat.Quantize(raw, e.recGrid, e.recStrength, e.length)
}

// Pattern returns a copy of the pattern being played.
func (e *Engine) Pattern() *intpat.Pattern {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern.Clone()
}

// SetPattern replaces the current pattern with a copy of p.
func (e *Engine) SetPattern(p *intpat.Pattern) {
	if p == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pattern = p.Clone()
	if len(e.song) > 0 {
		e.song[e.pass%len(e.song)] = e.pattern
	}
}

// SetSong arranges patterns to play in order, one per pass of the sequencer
// length, looping at the end. An empty list leaves song mode and keeps the
// current pattern.
func (e *Engine) SetSong(patterns []*intpat.Pattern) {
	song := make([]*intpat.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p != nil {
			song = append(song, p.Clone())
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(song) == 0 {
		e.song = nil
		return
	}
	e.song = song
	if e.clock.Current() < 0 {
		e.pattern = song[0]
	}
}

// SongPosition returns the index of the pattern being played in the song,
// or -1 outside song mode.
func (e *Engine) SongPosition() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.song) == 0 {
		return -1
	}
	return e.pass % len(e.song)
}

// SetRecording arms pad recording. Hits are written only while playing.
func (e *Engine) SetRecording(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recording = on
}

// SetRecordQuantize sets the grid (1, 2, 4 or 8 steps) and strength
// (0..100 percent) used for recorded hits.
func (e *Engine) SetRecordQuantize(grid int, strength float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recGrid = grid
	e.recStrength = strength
}

// Pad is a live pad hit: the track's sample plays now and, when recording
// while the transport runs, the hit is written at the quantized step.
func (e *Engine) Pad(track, velocity int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	played := e.trigger(track, velocity, nil)
	if !e.recording || !e.clock.Playing() || !validTrack(track) || !e.tracks[track].Loaded() {
		return played
	}
	raw := e.clock.Position(e.frame)
	step := intpat.Quantize(raw, e.recGrid, e.recStrength, e.length)
	e.pattern.Set(track, step, intpat.Step{Active: true, Velocity: velocity})
	return played
}

// SetMIDIChannel restricts HandleMIDI to one channel (0..15); a negative
// value accepts every channel.
func (e *Engine) SetMIDIChannel(ch int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch < 0 || ch > 15 {
		ch = intmidi.AnyChannel
	}
	e.midi.Channel = ch
}

// HandleMIDI plays the pad mapped to a note-on. Other messages are ignored.
func (e *Engine) HandleMIDI(msg midi.Message) bool {
	e.mu.Lock()
	hit, ok := e.midi.Translate(msg)
	e.mu.Unlock()
	if !ok {
		return false
	}
	return e.Pad(hit.Track, hit.Velocity)
}

var _ intmidi.Sink = (*Engine)(nil)

// loadedTracks lists tracks with a sample. Called with e.mu held.
func loadedTracks(tracks *[NumTracks]intmix.Track) []int {
	var out []int
	for i := range tracks {
		if tracks[i].Loaded() {
			out = append(out, i)
		}
	}
	return out
}
