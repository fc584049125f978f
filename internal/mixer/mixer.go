// Package mixer owns per-track mix state and renders sounding voices through
// each track's effect chain onto the stereo bus.
package mixer

import (
	"github.com/viterin/vek/vek32"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/effects"
	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

const (
	NumTracks     = 16
	DefaultVolume = 80
	CenterPan     = 50
)

// Track is one pad slot's mix state. Index in the track array is identity.
type Track struct {
	Sample  *voice.Sample
	Volume  float64 // 0..100
	Pan     float64 // 0..100, 50 centre
	Mute    bool
	Solo    bool
	Effects effects.Settings
}

func DefaultTrack() Track {
	return Track{Volume: DefaultVolume, Pan: CenterPan, Effects: effects.DefaultSettings()}
}

// Loaded reports whether the track has a playable sample.
func (t Track) Loaded() bool {
	return t.Sample != nil && t.Sample.Buffer != nil && t.Sample.Buffer.Frames() > 0
}

// Audible applies the mute/solo rule: a muted track never plays; while any
// track is soloed only soloed tracks play.
func Audible(tracks []Track, i int) bool {
	if i < 0 || i >= len(tracks) || tracks[i].Mute {
		return false
	}
	if tracks[i].Solo {
		return true
	}
	for _, t := range tracks {
		if t.Solo {
			return false
		}
	}
	return true
}

// FinalGain is velocity/127 * volume/100 * master.
func FinalGain(velocity int, volume, master float64) float32 {
	return float32(float64(velocity) / 127 * (volume / 100) * master)
}

func clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampVolume limits a track volume to 0..100.
func ClampVolume(v float64) float64 { return clamp(v, 0, 100) }

// ClampPan limits a track pan to 0..100.
func ClampPan(v float64) float64 { return clamp(v, 0, 100) }

// ClampMaster limits the master volume to 0..1.
func ClampMaster(v float64) float64 { return clamp(v, 0, 1) }

// Mixer holds the sounding voices of every track and the compiled chains.
// It is not safe for concurrent use.
type Mixer struct {
	sampleRate int
	sounding   [NumTracks][]*voice.Voice
	chains     [NumTracks]*effects.TrackChain
	tails      [NumTracks]int // frames of chain ring-out left after the last voice
	bufL, bufR []float32

	// Tap, when set, sees each track's block after its chain and before it
	// joins the bus.
	Tap func(track int, left, right []float32)
}

// New creates a mixer. seed fixes each track's reverb noise.
func New(sampleRate int, seed int64) *Mixer {
	m := &Mixer{sampleRate: sampleRate}
	for i := range m.chains {
		m.chains[i] = effects.NewTrackChain(sampleRate, TrackSeed(seed, i), effects.DefaultSettings())
	}
	return m
}

// TrackSeed derives the reverb seed for track i.
func TrackSeed(seed int64, i int) int64 {
	return seed*31 + int64(i) + 1
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// Chain returns the compiled chain of a track.
func (m *Mixer) Chain(track int) *effects.TrackChain { return m.chains[track] }

// Configure brings the track's chain in line with its settings and pan.
func (m *Mixer) Configure(track int, t Track) {
	c := m.chains[track]
	c.Update(t.Effects)
	c.SetPan(effects.PanPosition(t.Pan))
}

// Start adds v to the track. With gate set, every voice already sounding on
// the track is stopped first.
func (m *Mixer) Start(track int, v *voice.Voice, gate bool) {
	if track < 0 || track >= NumTracks || v == nil || v.Done() {
		return
	}
	if gate {
		m.Cut(track)
	}
	m.sounding[track] = append(m.sounding[track], v)
}

// Cut stops every voice on the track.
func (m *Mixer) Cut(track int) {
	for _, v := range m.sounding[track] {
		v.Stop()
	}
	m.sounding[track] = m.sounding[track][:0]
}

// StopAll stops every voice on every track and clears chain state.
func (m *Mixer) StopAll() {
	for i := range m.sounding {
		m.Cut(i)
		m.chains[i].Reset()
		m.tails[i] = 0
	}
}

// Busy reports whether any track still has voices or chain ring-out.
func (m *Mixer) Busy() bool {
	for t := range m.sounding {
		if len(m.sounding[t]) > 0 || m.tails[t] > 0 {
			return true
		}
	}
	return false
}

// Sounding returns the number of live voices on the track.
func (m *Mixer) Sounding(track int) int {
	if track < 0 || track >= NumTracks {
		return 0
	}
	return len(m.sounding[track])
}

// Render adds one block of every track into outL and outR. Voice gain is
// read from tracks at the start of the block so volume changes apply to
// voices already playing.
func (m *Mixer) Render(outL, outR []float32, tracks *[NumTracks]Track, master float64) {
	n := len(outL)
	if cap(m.bufL) < n {
		m.bufL = make([]float32, n)
		m.bufR = make([]float32, n)
	}
	bufL, bufR := m.bufL[:n], m.bufR[:n]
	for t := range m.sounding {
		voices := m.sounding[t]
		if len(voices) == 0 && m.tails[t] <= 0 {
			continue
		}
		vek32.Zeros_Into(bufL, n)
		vek32.Zeros_Into(bufR, n)
		live := voices[:0]
		for _, v := range voices {
			v.Mix(bufL, bufR, FinalGain(v.Velocity(), tracks[t].Volume, master))
			if !v.Done() {
				live = append(live, v)
			}
		}
		for i := len(live); i < len(voices); i++ {
			voices[i] = nil
		}
		m.sounding[t] = live
		m.chains[t].ProcessBlock(bufL, bufR)
		if len(voices) > 0 {
			m.tails[t] = m.chains[t].Tail()
		} else {
			m.tails[t] -= n
		}
		if m.Tap != nil {
			m.Tap(t, bufL, bufR)
		}
		vek32.Add_Inplace(outL, bufL)
		vek32.Add_Inplace(outR, bufR)
	}
}
