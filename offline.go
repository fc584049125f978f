package mpc

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/viterin/vek/vek32"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/effects"
	intmix "github.com/preslife/web-mpc-infinite-loop-sub000/internal/mixer"
	intpat "github.com/preslife/web-mpc-infinite-loop-sub000/internal/pattern"
	intseq "github.com/preslife/web-mpc-infinite-loop-sub000/internal/sequencer"
	intvoice "github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

// ErrInvalidBars is returned by RenderOffline for a non-positive bar count.
var ErrInvalidBars = errors.New("bars must be positive")

// maxTailSeconds bounds how long a tailed render may ring out past the last bar.
const maxTailSeconds = 30

type RenderOptions struct {
	// Stems keeps each eligible track's isolated signal next to the mix.
	Stems bool
	// Effects runs the full track chains. Without it only pan is applied.
	Effects bool
	// Tail extends the render until voices and effect ring-out finish.
	Tail bool
}

// AudioBuffer is planar stereo audio.
type AudioBuffer struct {
	SampleRate int
	Left       []float32
	Right      []float32
}

func newAudioBuffer(sampleRate, frames int) *AudioBuffer {
	return &AudioBuffer{SampleRate: sampleRate, Left: make([]float32, frames), Right: make([]float32, frames)}
}

func (b *AudioBuffer) Frames() int { return len(b.Left) }

func (b *AudioBuffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Left)) / float64(b.SampleRate)
}

// Interleaved returns L/R interleaved samples.
func (b *AudioBuffer) Interleaved() []float32 {
	out := make([]float32, len(b.Left)*2)
	for i := range b.Left {
		out[2*i] = b.Left[i]
		out[2*i+1] = b.Right[i]
	}
	return out
}

// Peak returns the largest absolute sample over both channels.
func (b *AudioBuffer) Peak() float32 {
	if len(b.Left) == 0 {
		return 0
	}
	return math32Max(vek32.Max(vek32.Abs(b.Left)), vek32.Max(vek32.Abs(b.Right)))
}

func math32Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// EncodeWAV returns the buffer as a 32-bit float WAV file.
func (b *AudioBuffer) EncodeWAV() []byte {
	return EncodeWAVFloat32LE(b.Interleaved(), b.SampleRate, 2)
}

// WriteWAV writes the buffer as integer PCM at bitDepth (16, 24 or 32),
// clipping to full scale.
func (b *AudioBuffer) WriteWAV(w io.WriteSeeker, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return errors.New("bit depth must be 16, 24 or 32")
	}
	scale := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, len(b.Left)*2)
	for i := range b.Left {
		data[2*i] = int(math.Round(clampUnit(b.Left[i]) * scale))
		data[2*i+1] = int(math.Round(clampUnit(b.Right[i]) * scale))
	}
	enc := wav.NewEncoder(w, b.SampleRate, bitDepth, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: b.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func clampUnit(v float32) float64 {
	return math.Max(-1, math.Min(1, float64(v)))
}

// Render is the result of RenderOffline.
type Render struct {
	SampleRate int
	// Frames is the arrangement length; with Tail the buffers may be longer.
	Frames int
	Mix    *AudioBuffer
	// Stems holds one buffer per loaded, audible track when requested.
	Stems [NumTracks]*AudioBuffer
}

type offlineEvent struct {
	frame    int64
	track    int
	velocity int
}

type renderSnapshot struct {
	sampleRate int
	seed       int64
	tracks     [NumTracks]intmix.Track
	master     float64
	bpm        float64
	swing      float64
	length     int
	patterns   []*intpat.Pattern
}

func (e *Engine) snapshot() renderSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := renderSnapshot{
		sampleRate: e.sampleRate,
		seed:       e.seed,
		tracks:     e.tracks,
		master:     e.master,
		bpm:        e.bpm,
		swing:      e.swing,
		length:     e.length,
	}
	if len(e.song) > 0 {
		for _, p := range e.song {
			s.patterns = append(s.patterns, p.Clone())
		}
	} else {
		s.patterns = []*intpat.Pattern{e.pattern.Clone()}
	}
	return s
}

// events lays out every hit of the arrangement in firing order.
func (s *renderSnapshot) events(bars int) []offlineEvent {
	var out []offlineEvent
	for p := 0; p < bars; p++ {
		pat := s.patterns[p%len(s.patterns)]
		for step := 0; step < s.length; step++ {
			frame := intseq.StepFrame(int64(p*s.length+step), step, s.bpm, s.swing, s.sampleRate)
			for t := 0; t < NumTracks; t++ {
				st := pat.At(t, step)
				if !st.Active || !s.tracks[t].Loaded() || !intmix.Audible(s.tracks[:], t) {
					continue
				}
				out = append(out, offlineEvent{frame: frame, track: t, velocity: st.Velocity})
			}
		}
	}
	return out
}

// RenderOffline renders bars passes of the sequencer length from a snapshot
// of the engine. Timing, voices, gain and mute/solo follow the live path, so
// without effects the mix matches what playback from Start produces.
func (e *Engine) RenderOffline(bars int, opts RenderOptions) (*Render, error) {
	if bars <= 0 {
		return nil, ErrInvalidBars
	}
	snap := e.snapshot()
	sr := snap.sampleRate
	total := int(intseq.StepFrame(int64(bars*snap.length), 0, snap.bpm, 0, sr))

	mix := intmix.New(sr, snap.seed)
	for t := range snap.tracks {
		tr := snap.tracks[t]
		if !opts.Effects {
			tr.Effects = dryEffects(tr.Effects)
			snap.tracks[t].Effects = tr.Effects
		}
		mix.Configure(t, tr)
	}

	out := newAudioBuffer(sr, total)
	r := &Render{SampleRate: sr, Frames: total, Mix: out}
	if opts.Stems {
		for t := range snap.tracks {
			if snap.tracks[t].Loaded() && intmix.Audible(snap.tracks[:], t) {
				r.Stems[t] = newAudioBuffer(sr, total)
			}
		}
	}

	pos := 0
	mix.Tap = func(track int, l, rr []float32) {
		if st := r.Stems[track]; st != nil {
			copy(st.Left[pos:], l)
			copy(st.Right[pos:], rr)
		}
	}
	renderTo := func(end int) {
		if end > pos {
			mix.Render(out.Left[pos:end], out.Right[pos:end], &snap.tracks, snap.master)
			pos = end
		}
	}

	for _, ev := range snap.events(bars) {
		renderTo(int(ev.frame))
		tr := snap.tracks[ev.track]
		mix.Start(ev.track, intvoice.New(tr.Sample, ev.velocity, sr), tr.Sample.Params.Gate)
	}
	renderTo(total)

	if opts.Tail {
		const chunk = 1024
		limit := total + maxTailSeconds*sr
		for mix.Busy() && pos < limit {
			r.grow(chunk)
			renderTo(pos + chunk)
		}
	}
	return r, nil
}

func (r *Render) grow(n int) {
	ext := func(b *AudioBuffer) {
		if b != nil {
			b.Left = append(b.Left, make([]float32, n)...)
			b.Right = append(b.Right, make([]float32, n)...)
		}
	}
	ext(r.Mix)
	for _, st := range r.Stems {
		ext(st)
	}
}

// dryEffects disables every stage but pan.
func dryEffects(s effects.Settings) effects.Settings {
	s.EQ.Enabled = false
	s.Filter.Enabled = false
	s.Delay.Enabled = false
	s.Reverb.Enabled = false
	return s
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
