package voice

import (
	"math"
	"testing"
)

func ramp(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

func render(v *Voice, block int) ([]float32, []float32) {
	var l, r []float32
	for !v.Done() {
		bl := make([]float32, block)
		br := make([]float32, block)
		n := v.Mix(bl, br, 1)
		l = append(l, bl[:n]...)
		r = append(r, br[:n]...)
	}
	return l, r
}

func TestVoicePlaysSliceAtUnityRate(t *testing.T) {
	b := NewBuffer("ramp", 48000, ramp(100))
	s := NewSample(b, Params{Start: 0.25, End: 0.5, Volume: 1})
	v := New(s, 127, 48000)
	if v.Remaining() != 25 {
		t.Fatalf("remaining = %d, want 25", v.Remaining())
	}
	l, r := render(v, 7)
	if len(l) != 25 {
		t.Fatalf("rendered %d frames, want 25", len(l))
	}
	for i := range l {
		if l[i] != float32(25+i) || r[i] != l[i] {
			t.Fatalf("frame %d = %v/%v, want %d", i, l[i], r[i], 25+i)
		}
	}
}

func TestVoiceReverseUsesCachedCopy(t *testing.T) {
	b := NewBuffer("ramp", 48000, ramp(10))
	s := NewSample(b, Params{End: 1, Reverse: true, Volume: 1})
	l, _ := render(New(s, 127, 48000), 64)
	for i := range l {
		if l[i] != float32(9-i) {
			t.Fatalf("reversed frame %d = %v", i, l[i])
		}
	}
	first := b.data(true)
	second := b.data(true)
	if &first[0][0] != &second[0][0] {
		t.Fatalf("reversed data rebuilt")
	}
	if b.Channels[0][0] != 0 {
		t.Fatalf("source buffer was modified")
	}
}

func TestVoicePitchAndResample(t *testing.T) {
	if r := PlaybackRate(12, 44100, 44100); r != 2 {
		t.Fatalf("octave up rate = %v", r)
	}
	if r := PlaybackRate(0, 24000, 48000); r != 0.5 {
		t.Fatalf("resample rate = %v", r)
	}
	b := NewBuffer("ramp", 48000, ramp(8))
	l, _ := render(New(NewSample(b, Params{End: 1, Pitch: -12, Volume: 1}), 127, 48000), 64)
	if len(l) != 16 {
		t.Fatalf("octave down rendered %d frames, want 16", len(l))
	}
	if math.Abs(float64(l[1]-0.5)) > 1e-6 {
		t.Fatalf("interpolated frame = %v, want 0.5", l[1])
	}
}

func TestVoiceStereoAndGain(t *testing.T) {
	b := NewBuffer("st", 48000, []float32{1, 1}, []float32{-1, -1})
	v := New(NewSample(b, Params{End: 1, Volume: 0.5}), 127, 48000)
	l := make([]float32, 4)
	r := make([]float32, 4)
	if n := v.Mix(l, r, 0.5); n != 2 {
		t.Fatalf("mixed %d frames", n)
	}
	if l[0] != 0.25 || r[0] != -0.25 || l[2] != 0 {
		t.Fatalf("got l=%v r=%v", l, r)
	}
	if !v.Done() {
		t.Fatalf("voice should be done")
	}
}

func TestVoiceStopAndEmpty(t *testing.T) {
	b := NewBuffer("ramp", 48000, ramp(100))
	v := New(NewSample(b, DefaultParams()), 100, 48000)
	v.Stop()
	v.Stop()
	if v.Mix(make([]float32, 8), make([]float32, 8), 1) != 0 {
		t.Fatalf("stopped voice rendered")
	}
	if !New(nil, 100, 48000).Done() {
		t.Fatalf("voice without sample should be done")
	}
	if !New(NewSample(b, Params{Start: 0.5, End: 0.5, Volume: 1}), 100, 48000).Done() {
		t.Fatalf("empty slice should be done")
	}
}

func TestParamsClamp(t *testing.T) {
	p := Params{Start: 0.9, End: 0.1, Pitch: 30, Volume: 2}.Clamp()
	if p.Start != 0.1 || p.End != 0.9 || p.Pitch != MaxPitch || p.Volume != 1 {
		t.Fatalf("clamped = %+v", p)
	}
	if v := New(NewSample(NewBuffer("x", 1, ramp(2)), DefaultParams()), 300, 1); v.Velocity() != 127 {
		t.Fatalf("velocity = %d", v.Velocity())
	}
}
