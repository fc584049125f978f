package voice

import "math"

// Voice is one playback of a Sample. It is created on trigger, renders until
// the slice end or Stop, and is never restarted.
type Voice struct {
	ch       [][]float32
	pos      float64 // source frame
	end      float64 // exclusive source frame
	rate     float64 // source frames per output frame
	trim     float32
	velocity int
	done     bool
}

// New prepares a voice for s at the given MIDI velocity, resampled to outputRate.
func New(s *Sample, velocity int, outputRate int) *Voice {
	v := &Voice{velocity: clampVelocity(velocity)}
	if s == nil || s.Buffer == nil || s.Buffer.Frames() == 0 || outputRate <= 0 {
		v.done = true
		return v
	}
	p := s.Params.Clamp()
	n := float64(s.Buffer.Frames())
	v.ch = s.Buffer.data(p.Reverse)
	v.pos = math.Floor(p.Start * n)
	v.end = p.End * n
	v.rate = PlaybackRate(p.Pitch, s.Buffer.SampleRate, outputRate)
	v.trim = float32(p.Volume)
	if v.pos >= v.end {
		v.done = true
	}
	return v
}

// PlaybackRate is 2^(pitch/12) scaled by the source to output rate ratio.
func PlaybackRate(pitch float64, bufferRate, outputRate int) float64 {
	r := math.Pow(2, pitch/12)
	if bufferRate > 0 && outputRate > 0 {
		r *= float64(bufferRate) / float64(outputRate)
	}
	return r
}

func (v *Voice) Velocity() int { return v.velocity }

func (v *Voice) Done() bool { return v.done }

// Stop ends the voice immediately. Stopping a finished voice is a no-op.
func (v *Voice) Stop() { v.done = true }

// Remaining returns the number of output frames left to render.
func (v *Voice) Remaining() int {
	if v.done {
		return 0
	}
	return int(math.Ceil((v.end - v.pos) / v.rate))
}

// Mix adds up to len(dstL) frames into dstL and dstR, scaled by gain, and
// returns the number of frames written. Mono sources feed both sides.
func (v *Voice) Mix(dstL, dstR []float32, gain float32) int {
	if v.done {
		return 0
	}
	n := len(dstL)
	if len(dstR) < n {
		n = len(dstR)
	}
	left := v.ch[0]
	right := left
	if len(v.ch) > 1 {
		right = v.ch[1]
	}
	last := len(left) - 1
	if len(right)-1 < last {
		last = len(right) - 1
	}
	g := v.trim * gain
	i := 0
	for ; i < n; i++ {
		if v.pos >= v.end {
			v.done = true
			break
		}
		idx := int(v.pos)
		frac := float32(v.pos - float64(idx))
		next := idx + 1
		if next > last {
			next = last
		}
		l := left[idx] + (left[next]-left[idx])*frac
		r := right[idx] + (right[next]-right[idx])*frac
		dstL[i] += l * g
		dstR[i] += r * g
		v.pos += v.rate
	}
	if v.pos >= v.end {
		v.done = true
	}
	return i
}

func clampVelocity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}
