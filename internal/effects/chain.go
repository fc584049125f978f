package effects

import (
	"math"
	"math/rand"
)

// tailFloor is the level at which a decaying delay line counts as silent.
const tailFloor = 1e-4

// TrackChain is the compiled form of one track's Settings:
// EQ -> filter -> pan -> sum of enabled sends. Stages keep their state across
// Update calls unless the change requires rebuilding them.
type TrackChain struct {
	sampleRate int
	seed       int64
	settings   Settings

	eq     *EQ3Band
	filter *BiquadFilter
	pan    *Pan
	delay  *DelayLine
	reverb *ConvolutionReverb

	irRoom, irDecay float64
	irBuilds        int

	compiled *Chain
}

// NewTrackChain compiles s. seed fixes the reverb impulse noise so the same
// settings always produce the same response.
func NewTrackChain(sampleRate int, seed int64, s Settings) *TrackChain {
	c := &TrackChain{
		sampleRate: sampleRate,
		seed:       seed,
		pan:        NewPan(0),
	}
	c.settings = s.Clamp()
	c.build()
	return c
}

func (c *TrackChain) Settings() Settings { return c.settings }

// Update applies new settings, touching only the stages that changed.
func (c *TrackChain) Update(s Settings) {
	s = s.Clamp()
	if s == c.settings {
		return
	}
	c.settings = s
	c.build()
}

func (c *TrackChain) SetPan(pos float64) { c.pan.Set(pos) }

func (c *TrackChain) Pan() float64 { return c.pan.Position() }

func (c *TrackChain) build() {
	s := c.settings
	if s.EQ.Enabled {
		if c.eq == nil {
			c.eq = NewEQ3Band(c.sampleRate, s.EQ.Low, s.EQ.Mid, s.EQ.High)
		} else {
			c.eq.SetGains(s.EQ.Low, s.EQ.Mid, s.EQ.High)
		}
	}
	if s.Filter.Enabled {
		if c.filter == nil {
			c.filter = NewBiquadFilter(c.sampleRate, s.Filter.Type, s.Filter.Freq, s.Filter.Q)
		} else {
			c.filter.Set(s.Filter.Type, s.Filter.Freq, s.Filter.Q)
		}
	}
	if s.Delay.Enabled {
		if c.delay == nil || c.delay.time != s.Delay.Time {
			c.delay = NewDelay(c.sampleRate, s.Delay.Time, s.Delay.Feedback, s.Delay.Wet)
		} else {
			c.delay.SetMix(s.Delay.Feedback, s.Delay.Wet)
		}
	}
	if s.Reverb.Enabled {
		if c.reverb == nil || c.irRoom != s.Reverb.RoomSize || c.irDecay != s.Reverb.Decay {
			ir := NewImpulse(rand.New(rand.NewSource(c.seed)), c.sampleRate, s.Reverb.RoomSize, s.Reverb.Decay)
			if c.reverb == nil {
				c.reverb = NewReverb(ir, s.Reverb.Wet)
			} else {
				c.reverb.SetImpulse(ir)
				c.reverb.SetWet(s.Reverb.Wet)
			}
			c.irRoom, c.irDecay = s.Reverb.RoomSize, s.Reverb.Decay
			c.irBuilds++
		} else {
			c.reverb.SetWet(s.Reverb.Wet)
		}
	}

	chain := NewChain()
	if s.EQ.Enabled {
		chain.Add(c.eq)
	}
	if s.Filter.Enabled {
		chain.Add(c.filter)
	}
	chain.Add(c.pan)
	if s.HasSends() {
		sends := NewSum()
		if s.Delay.Enabled {
			sends.effects = append(sends.effects, c.delay)
		}
		if s.Reverb.Enabled {
			sends.effects = append(sends.effects, c.reverb)
		}
		chain.Add(sends)
	}
	c.compiled = chain
}

func (c *TrackChain) Process(l, r float32) (float32, float32) {
	return c.compiled.Process(l, r)
}

func (c *TrackChain) ProcessBlock(left, right []float32) {
	c.compiled.ProcessBlock(left, right)
}

// Reset clears every stage's state, including disabled ones.
func (c *TrackChain) Reset() {
	if c.eq != nil {
		c.eq.Reset()
	}
	if c.filter != nil {
		c.filter.Reset()
	}
	if c.delay != nil {
		c.delay.Reset()
	}
	if c.reverb != nil {
		c.reverb.Reset()
	}
}

// Tail returns how many frames the chain keeps sounding after its input goes
// silent. It is zero when no send is enabled.
func (c *TrackChain) Tail() int {
	s := c.settings
	tail := 0
	if s.Delay.Enabled && c.delay != nil {
		repeats := 1
		if fb := float64(c.delay.feedback); fb > 0 {
			repeats += int(math.Ceil(math.Log(tailFloor) / math.Log(fb)))
		}
		tail = repeats * len(c.delay.bufL)
	}
	if s.Reverb.Enabled {
		if n := int(math.Ceil(s.Reverb.Decay*float64(c.sampleRate))) + ReverbBlock; n > tail {
			tail = n
		}
	}
	return tail
}
