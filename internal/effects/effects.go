// Package effects implements the per-track signal chain: EQ, filter, pan and
// the delay and reverb sends.
package effects

// Effector processes stereo audio in-place.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessBlock runs the chain over planar buffers in place.
func (c *Chain) ProcessBlock(left, right []float32) {
	for i := range left {
		left[i], right[i] = c.Process(left[i], right[i])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int { return len(c.effects) }

// Sum feeds every effect the same input and adds their outputs. Each member
// carries its own dry share, so two members pass the dry signal twice.
type Sum struct {
	effects []Effector
}

func NewSum(effects ...Effector) *Sum {
	return &Sum{effects: effects}
}

func (s *Sum) Process(l, r float32) (float32, float32) {
	var outL, outR float32
	for _, e := range s.effects {
		el, er := e.Process(l, r)
		outL += el
		outR += er
	}
	return outL, outR
}

func (s *Sum) Reset() {
	for _, e := range s.effects {
		e.Reset()
	}
}
