package effects

import "math"

// Pan is an equal-power stereo panner. Position -1 is hard left, 1 hard
// right. At 0 the signal passes through unchanged.
type Pan struct {
	pos          float32
	gainL, gainR float32
}

func NewPan(pos float64) *Pan {
	p := &Pan{}
	p.Set(pos)
	return p
}

// PanPosition maps the 0..100 track control (50 centre) onto -1..1.
func PanPosition(pan float64) float64 {
	return clamp64((pan-50)/50, -1, 1)
}

func (p *Pan) Set(pos float64) {
	pos = clamp64(pos, -1, 1)
	p.pos = float32(pos)
	x := pos
	if pos <= 0 {
		x = pos + 1
	}
	p.gainL = float32(math.Cos(x * math.Pi / 2))
	p.gainR = float32(math.Sin(x * math.Pi / 2))
}

func (p *Pan) Position() float64 { return float64(p.pos) }

func (p *Pan) Process(l, r float32) (float32, float32) {
	switch {
	case p.pos == 0:
		return l, r
	case p.pos < 0:
		return l + r*p.gainL, r * p.gainR
	default:
		return l * p.gainL, r + l*p.gainR
	}
}

func (p *Pan) Reset() {}
