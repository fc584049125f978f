package effects

// DelayLine is a stereo feedback delay mixed as (1-wet)*dry + wet*delayed.
type DelayLine struct {
	bufL, bufR []float32
	pos        int
	time       float64
	feedback   float32
	wet        float32
}

// NewDelay creates a delay effect.
// timeSec: delay time in seconds, 0.01..1
// feedback: 0..0.9, kept below 1 so the loop always decays
// wet: wet/dry mix 0..1
func NewDelay(sampleRate int, timeSec, feedback, wet float64) *DelayLine {
	d := &DelayLine{}
	d.setTime(sampleRate, timeSec)
	d.SetMix(feedback, wet)
	return d
}

func (d *DelayLine) setTime(sampleRate int, timeSec float64) {
	d.time = clamp64(timeSec, MinDelayTime, MaxDelayTime)
	samples := int(d.time*float64(sampleRate) + 0.5)
	if samples < 1 {
		samples = 1
	}
	d.bufL = make([]float32, samples)
	d.bufR = make([]float32, samples)
	d.pos = 0
}

// SetMix changes feedback and wet without touching the delay line.
func (d *DelayLine) SetMix(feedback, wet float64) {
	d.feedback = float32(clamp64(feedback, 0, MaxFeedback))
	d.wet = float32(clamp64(wet, 0, 1))
}

func (d *DelayLine) Process(l, r float32) (float32, float32) {
	delL := d.bufL[d.pos]
	delR := d.bufR[d.pos]
	d.bufL[d.pos] = l + delL*d.feedback
	d.bufR[d.pos] = r + delR*d.feedback
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l*(1-d.wet) + delL*d.wet, r*(1-d.wet) + delR*d.wet
}

func (d *DelayLine) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}

func clamp64(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
