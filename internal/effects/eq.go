package effects

import "math"

const (
	eqLowFreq  = 320
	eqMidFreq  = 1000
	eqHighFreq = 3200
	eqMidQ     = 1
)

type biquadKind int

const (
	kindLowpass biquadKind = iota
	kindHighpass
	kindBandpass
	kindLowShelf
	kindHighShelf
	kindPeaking
)

// biquad is an RBJ cookbook filter in transposed direct form II with one
// state pair per channel.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	z1L, z2L, z1R, z2R float64
}

func newBiquad(kind biquadKind, sampleRate int, freq, q, gainDB float64) *biquad {
	bq := &biquad{}
	bq.set(kind, sampleRate, freq, q, gainDB)
	return bq
}

// set recomputes coefficients and keeps the filter state.
func (bq *biquad) set(kind biquadKind, sampleRate int, freq, q, gainDB float64) {
	nyquist := float64(sampleRate) / 2
	freq = math.Min(math.Max(freq, 1), nyquist*0.999)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW, sinW := math.Cos(w0), math.Sin(w0)
	A := math.Pow(10, gainDB/40)

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case kindLowpass:
		alpha := sinW / (2 * q)
		b0, b1, b2 = (1-cosW)/2, 1-cosW, (1-cosW)/2
		a0, a1, a2 = 1+alpha, -2*cosW, 1-alpha
	case kindHighpass:
		alpha := sinW / (2 * q)
		b0, b1, b2 = (1+cosW)/2, -(1 + cosW), (1+cosW)/2
		a0, a1, a2 = 1+alpha, -2*cosW, 1-alpha
	case kindBandpass:
		alpha := sinW / (2 * q)
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cosW, 1-alpha
	case kindLowShelf:
		k := 2 * math.Sqrt(A) * sinW / math.Sqrt2 // shelf slope 1
		b0 = A * ((A + 1) - (A-1)*cosW + k)
		b1 = 2 * A * ((A - 1) - (A+1)*cosW)
		b2 = A * ((A + 1) - (A-1)*cosW - k)
		a0 = (A + 1) + (A-1)*cosW + k
		a1 = -2 * ((A - 1) + (A+1)*cosW)
		a2 = (A + 1) + (A-1)*cosW - k
	case kindHighShelf:
		k := 2 * math.Sqrt(A) * sinW / math.Sqrt2
		b0 = A * ((A + 1) + (A-1)*cosW + k)
		b1 = -2 * A * ((A - 1) + (A+1)*cosW)
		b2 = A * ((A + 1) + (A-1)*cosW - k)
		a0 = (A + 1) - (A-1)*cosW + k
		a1 = 2 * ((A - 1) - (A+1)*cosW)
		a2 = (A + 1) - (A-1)*cosW - k
	case kindPeaking:
		alpha := sinW / (2 * q)
		b0, b1, b2 = 1+alpha*A, -2*cosW, 1-alpha*A
		a0, a1, a2 = 1+alpha/A, -2*cosW, 1-alpha/A
	}
	bq.b0, bq.b1, bq.b2 = b0/a0, b1/a0, b2/a0
	bq.a1, bq.a2 = a1/a0, a2/a0
}

func (bq *biquad) Process(l, r float32) (float32, float32) {
	xl, xr := float64(l), float64(r)
	yl := bq.b0*xl + bq.z1L
	bq.z1L = bq.b1*xl - bq.a1*yl + bq.z2L
	bq.z2L = bq.b2*xl - bq.a2*yl
	yr := bq.b0*xr + bq.z1R
	bq.z1R = bq.b1*xr - bq.a1*yr + bq.z2R
	bq.z2R = bq.b2*xr - bq.a2*yr
	return float32(yl), float32(yr)
}

func (bq *biquad) Reset() {
	bq.z1L, bq.z2L, bq.z1R, bq.z2R = 0, 0, 0, 0
}

// EQ3Band is a low-shelf, peaking mid and high-shelf equalizer at fixed
// frequencies. Gains are in dB.
type EQ3Band struct {
	sampleRate     int
	low, mid, high *biquad
}

func NewEQ3Band(sampleRate int, lowDB, midDB, highDB float64) *EQ3Band {
	return &EQ3Band{
		sampleRate: sampleRate,
		low:        newBiquad(kindLowShelf, sampleRate, eqLowFreq, 0, lowDB),
		mid:        newBiquad(kindPeaking, sampleRate, eqMidFreq, eqMidQ, midDB),
		high:       newBiquad(kindHighShelf, sampleRate, eqHighFreq, 0, highDB),
	}
}

// SetGains retunes the bands in place.
func (eq *EQ3Band) SetGains(lowDB, midDB, highDB float64) {
	eq.low.set(kindLowShelf, eq.sampleRate, eqLowFreq, 0, lowDB)
	eq.mid.set(kindPeaking, eq.sampleRate, eqMidFreq, eqMidQ, midDB)
	eq.high.set(kindHighShelf, eq.sampleRate, eqHighFreq, 0, highDB)
}

func (eq *EQ3Band) Process(l, r float32) (float32, float32) {
	l, r = eq.low.Process(l, r)
	l, r = eq.mid.Process(l, r)
	return eq.high.Process(l, r)
}

func (eq *EQ3Band) Reset() {
	eq.low.Reset()
	eq.mid.Reset()
	eq.high.Reset()
}

// BiquadFilter is the resonant lowpass, highpass or bandpass stage.
type BiquadFilter struct {
	sampleRate int
	bq         *biquad
}

func NewBiquadFilter(sampleRate int, typ FilterType, freq, q float64) *BiquadFilter {
	return &BiquadFilter{sampleRate: sampleRate, bq: newBiquad(typ.kind(), sampleRate, freq, q, 0)}
}

func (f *BiquadFilter) Set(typ FilterType, freq, q float64) {
	f.bq.set(typ.kind(), f.sampleRate, freq, q, 0)
}

func (f *BiquadFilter) Process(l, r float32) (float32, float32) {
	return f.bq.Process(l, r)
}

func (f *BiquadFilter) Reset() { f.bq.Reset() }
