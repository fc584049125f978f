// Package voice holds decoded sample buffers and the one-shot playback voice
// that reads them.
package voice

import "sync"

const (
	MinPitch = -12
	MaxPitch = 12
)

// Buffer is immutable decoded audio: one or two planar float32 channels.
type Buffer struct {
	Name       string
	SampleRate int
	Channels   [][]float32

	revOnce  sync.Once
	reversed [][]float32
}

// NewBuffer wraps planar channel data. Extra channels beyond two are dropped.
func NewBuffer(name string, sampleRate int, channels ...[]float32) *Buffer {
	if len(channels) > 2 {
		channels = channels[:2]
	}
	return &Buffer{Name: name, SampleRate: sampleRate, Channels: channels}
}

// Frames returns the length of the shortest channel.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	n := len(b.Channels[0])
	for _, ch := range b.Channels[1:] {
		if len(ch) < n {
			n = len(ch)
		}
	}
	return n
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// data returns the channel data, reversed when asked. The reversed copy is
// built on first use and shared by every later voice.
func (b *Buffer) data(reverse bool) [][]float32 {
	if !reverse {
		return b.Channels
	}
	b.revOnce.Do(func() {
		n := b.Frames()
		b.reversed = make([][]float32, len(b.Channels))
		for c, ch := range b.Channels {
			rev := make([]float32, n)
			for i := 0; i < n; i++ {
				rev[i] = ch[n-1-i]
			}
			b.reversed[c] = rev
		}
	})
	return b.reversed
}

// Params are the per-sample playback settings.
type Params struct {
	Start   float64 // slice start, 0..1 of the buffer
	End     float64 // slice end, 0..1 of the buffer
	Pitch   float64 // semitones
	Reverse bool
	Gate    bool    // a new trigger cuts voices still sounding on the track
	Volume  float64 // output trim, 0..1
}

func DefaultParams() Params {
	return Params{End: 1, Volume: 1}
}

// Clamp returns p with every field inside its range.
func (p Params) Clamp() Params {
	p.Start = clamp(p.Start, 0, 1)
	p.End = clamp(p.End, 0, 1)
	if p.End < p.Start {
		p.Start, p.End = p.End, p.Start
	}
	p.Pitch = clamp(p.Pitch, MinPitch, MaxPitch)
	p.Volume = clamp(p.Volume, 0, 1)
	return p
}

// Sample is a buffer together with the parameters it is played with.
type Sample struct {
	Buffer *Buffer
	Params Params
}

func NewSample(b *Buffer, p Params) *Sample {
	return &Sample{Buffer: b, Params: p.Clamp()}
}

func clamp(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
