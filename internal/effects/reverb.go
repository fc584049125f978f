package effects

import (
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/mjibson/go-dsp/fft"
)

// ReverbBlock is the partition size of the convolution and the reverb's
// latency in frames.
const ReverbBlock = 128

const (
	irMinPower    = 0.000125
	irCalibration = 0.00125
	irCalibRate   = 44100
)

// Impulse is a stereo impulse response.
type Impulse struct {
	L, R []float64
}

// NewImpulse builds the synthetic room response: white noise shaped by
// ((length-i)/length)^roomSize over decay seconds, then scaled to a fixed
// loudness so wet level does not depend on IR length.
func NewImpulse(rng *rand.Rand, sampleRate int, roomSize, decay float64) Impulse {
	n := int(math.Ceil(decay * float64(sampleRate)))
	if n < 1 {
		n = 1
	}
	ir := Impulse{L: make([]float64, n), R: make([]float64, n)}
	for _, ch := range [][]float64{ir.L, ir.R} {
		for i := range ch {
			ch[i] = (rng.Float64()*2 - 1) * math.Pow(float64(n-i)/float64(n), roomSize)
		}
	}
	ir.normalize(sampleRate)
	return ir
}

func (ir Impulse) normalize(sampleRate int) {
	var power float64
	for i := range ir.L {
		power += ir.L[i]*ir.L[i] + ir.R[i]*ir.R[i]
	}
	power = math.Sqrt(power / float64(2*len(ir.L)))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < irMinPower {
		power = irMinPower
	}
	scale := 1 / power * irCalibration * irCalibRate / float64(sampleRate)
	for i := range ir.L {
		ir.L[i] *= scale
		ir.R[i] *= scale
	}
}

// convolver is a uniformly partitioned overlap-save convolution of one
// channel against a fixed kernel.
type convolver struct {
	parts [][]complex128 // half spectra of the kernel partitions
	fdl   [][]complex128 // half spectra of recent input blocks, newest at head
	head  int
	prev  []float64 // previous input block
	frame []float64
	acc   []complex128
}

func newConvolver(kernel []float64) *convolver {
	const B = ReverbBlock
	count := (len(kernel) + B - 1) / B
	if count < 1 {
		count = 1
	}
	c := &convolver{
		parts: make([][]complex128, count),
		fdl:   make([][]complex128, count),
		prev:  make([]float64, B),
		frame: make([]float64, 2*B),
		acc:   make([]complex128, 2*B),
	}
	for p := 0; p < count; p++ {
		seg := make([]float64, 2*B)
		start := p * B
		end := start + B
		if end > len(kernel) {
			end = len(kernel)
		}
		copy(seg, kernel[start:end])
		c.parts[p] = fft.FFTReal(seg)[:B+1]
		c.fdl[p] = make([]complex128, B+1)
	}
	return c
}

// block convolves B new input frames and writes B output frames.
func (c *convolver) block(in, out []float64) {
	const B = ReverbBlock
	copy(c.frame[:B], c.prev)
	copy(c.frame[B:], in)
	copy(c.prev, in)

	c.head--
	if c.head < 0 {
		c.head = len(c.fdl) - 1
	}
	copy(c.fdl[c.head], fft.FFTReal(c.frame)[:B+1])

	for k := 0; k <= B; k++ {
		c.acc[k] = 0
	}
	for p := range c.parts {
		x := c.fdl[(c.head+p)%len(c.fdl)]
		h := c.parts[p]
		for k := 0; k <= B; k++ {
			c.acc[k] += x[k] * h[k]
		}
	}
	// rebuild the conjugate-symmetric upper half
	for k := 1; k < B; k++ {
		c.acc[2*B-k] = cmplx.Conj(c.acc[k])
	}
	y := fft.IFFT(c.acc)
	for i := 0; i < B; i++ {
		out[i] = real(y[B+i])
	}
}

func (c *convolver) reset() {
	c.head = 0
	for i := range c.prev {
		c.prev[i] = 0
	}
	for _, x := range c.fdl {
		for k := range x {
			x[k] = 0
		}
	}
}

// ConvolutionReverb is a stereo convolution reverb mixed as (1-wet)*dry + wet*convolved.
// Output is delayed by ReverbBlock frames relative to input.
type ConvolutionReverb struct {
	convL, convR *convolver
	inL, inR     []float64
	outL, outR   []float64
	pos          int
	wet          float32
}

func NewReverb(ir Impulse, wet float64) *ConvolutionReverb {
	r := &ConvolutionReverb{
		inL:  make([]float64, ReverbBlock),
		inR:  make([]float64, ReverbBlock),
		outL: make([]float64, ReverbBlock),
		outR: make([]float64, ReverbBlock),
	}
	r.SetImpulse(ir)
	r.SetWet(wet)
	return r
}

// SetImpulse swaps the kernel and clears the tail.
func (r *ConvolutionReverb) SetImpulse(ir Impulse) {
	r.convL = newConvolver(ir.L)
	r.convR = newConvolver(ir.R)
	r.Reset()
}

func (r *ConvolutionReverb) SetWet(wet float64) {
	r.wet = float32(clamp64(wet, 0, 1))
}

func (r *ConvolutionReverb) Process(l, rr float32) (float32, float32) {
	wl, wr := float32(r.outL[r.pos]), float32(r.outR[r.pos])
	r.inL[r.pos] = float64(l)
	r.inR[r.pos] = float64(rr)
	r.pos++
	if r.pos == ReverbBlock {
		r.convL.block(r.inL, r.outL)
		r.convR.block(r.inR, r.outR)
		r.pos = 0
	}
	return l*(1-r.wet) + wl*r.wet, rr*(1-r.wet) + wr*r.wet
}

func (r *ConvolutionReverb) Reset() {
	r.convL.reset()
	r.convR.reset()
	for i := range r.inL {
		r.inL[i], r.inR[i] = 0, 0
		r.outL[i], r.outR[i] = 0, 0
	}
	r.pos = 0
}
