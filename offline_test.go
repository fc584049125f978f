package mpc

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/effects"
	intvoice "github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

// arrangement loads a small kit with uneven settings so timing, pitch, pan
// and gain all matter.
func arrangement(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t, WithMasterVolume(0.9))
	e.LoadSample(0, decaying(3000))
	p := intvoice.DefaultParams()
	p.Pitch = 3
	p.Start = 0.1
	e.LoadSample(3, decaying(5000), p)
	g := intvoice.DefaultParams()
	g.Gate = true
	e.LoadSample(5, decaying(20000), g)

	e.SetTrackPan(0, 20)
	e.SetTrackVolume(0, 60)
	e.SetTrackPan(3, 85)
	for _, s := range []int{0, 2, 5, 11} {
		e.SetStep(0, s, true, 100)
	}
	e.SetStep(3, 1, true, 70)
	e.SetStep(3, 8, true, 127)
	for s := 0; s < 16; s += 2 {
		e.SetStep(5, s, true, 90)
	}
	e.SetTempo(133)
	e.SetSwing(40)
	return e
}

func TestOfflineMatchesLivePlayback(t *testing.T) {
	e := arrangement(t)
	r, err := e.RenderOffline(2, RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Frames != r.Mix.Frames() {
		t.Fatalf("frames %d vs buffer %d", r.Frames, r.Mix.Frames())
	}

	e.Start()
	live := make([]float32, 0, r.Frames*2)
	buf := make([]float32, 317*2)
	for len(live) < r.Frames*2 {
		n := len(buf)
		if rest := r.Frames*2 - len(live); rest < n {
			n = rest
		}
		e.Process(buf[:n])
		live = append(live, buf[:n]...)
	}
	offline := r.Mix.Interleaved()
	var peak float32
	for i := range offline {
		if d := math.Abs(float64(offline[i] - live[i])); d > 1e-6 {
			t.Fatalf("sample %d (frame %d): offline %v live %v", i, i/2, offline[i], live[i])
		}
		if a := float32(math.Abs(float64(offline[i]))); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		t.Fatalf("render is silent")
	}
	if got := r.Mix.Peak(); got != peak {
		t.Fatalf("Peak() = %v, want %v", got, peak)
	}
}

func TestRenderOfflineLength(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.RenderOffline(0, RenderOptions{}); !errors.Is(err, ErrInvalidBars) {
		t.Fatalf("bars=0 err = %v", err)
	}
	r, err := e.RenderOffline(3, RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if want := 3 * 16 * stepFrames; r.Frames != want || r.Mix.Frames() != want {
		t.Fatalf("frames = %d/%d, want %d", r.Frames, r.Mix.Frames(), want)
	}
	if r.Mix.Peak() != 0 {
		t.Fatalf("empty pattern rendered sound")
	}
	if d := r.Mix.Duration(); math.Abs(d-6) > 1e-9 {
		t.Fatalf("duration = %v", d)
	}
}

func TestStemsSumToMix(t *testing.T) {
	e := arrangement(t)
	e.LoadSample(9, decaying(100))
	e.SetStep(9, 0, true, 100)
	e.SetTrackMute(9, true)
	r, err := e.RenderOffline(1, RenderOptions{Stems: true})
	if err != nil {
		t.Fatal(err)
	}
	if r.Stems[9] != nil || r.Stems[1] != nil {
		t.Fatalf("muted or empty track got a stem")
	}
	for _, tr := range []int{0, 3, 5} {
		if r.Stems[tr] == nil || r.Stems[tr].Peak() == 0 {
			t.Fatalf("track %d stem missing or silent", tr)
		}
	}
	for i := 0; i < r.Frames; i++ {
		var l, rr float32
		for _, st := range r.Stems {
			if st != nil {
				l += st.Left[i]
				rr += st.Right[i]
			}
		}
		if math.Abs(float64(l-r.Mix.Left[i])) > 1e-5 || math.Abs(float64(rr-r.Mix.Right[i])) > 1e-5 {
			t.Fatalf("frame %d: stems %v/%v mix %v/%v", i, l, rr, r.Mix.Left[i], r.Mix.Right[i])
		}
	}
}

func TestRenderTailIncludesRingOut(t *testing.T) {
	e := newTestEngine(t)
	e.LoadSample(0, constBuffer(20*stepFrames, 0.5))
	e.SetStep(0, 15, true, 127)

	r, err := e.RenderOffline(1, RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	tailed, err := e.RenderOffline(1, RenderOptions{Tail: true})
	if err != nil {
		t.Fatal(err)
	}
	want := 15*stepFrames + 20*stepFrames
	if tailed.Mix.Frames() < want || tailed.Mix.Frames() > want+1024 {
		t.Fatalf("tailed frames = %d, want about %d", tailed.Mix.Frames(), want)
	}
	if tailed.Frames != r.Frames {
		t.Fatalf("arrangement length changed with tail: %d vs %d", tailed.Frames, r.Frames)
	}
	if tailed.Mix.Left[want-1] == 0 || tailed.Mix.Left[want] != 0 {
		t.Fatalf("tail boundary wrong: %v %v", tailed.Mix.Left[want-1], tailed.Mix.Left[want])
	}
}

func TestRenderEffectsAreOptInAndDeterministic(t *testing.T) {
	e, err := NewEngine(8000, WithOutput(OutputNone), WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	e.LoadSample(0, intvoice.NewBuffer("hit", 8000, []float32{1, 0.5, 0.25}))
	e.SetStep(0, 0, true, 127)
	e.SetTrackEffect(0, effects.Reverb{Enabled: true, RoomSize: 2, Decay: 0.3, Wet: 0.5})
	e.SetTrackEffect(0, effects.Delay{Enabled: true, Time: 0.05, Feedback: 0.4, Wet: 0.3})

	dry, err := e.RenderOffline(1, RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if nz := nonZero(dry.Mix.Left); len(nz) != 3 {
		t.Fatalf("dry render should hold only the hit, non-zero at %v", nz)
	}

	a, err := e.RenderOffline(1, RenderOptions{Effects: true, Tail: true})
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.RenderOffline(1, RenderOptions{Effects: true, Tail: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(nonZero(a.Mix.Left)) <= 3 {
		t.Fatalf("effects produced no ring-out")
	}
	if a.Mix.Frames() != b.Mix.Frames() {
		t.Fatalf("frames differ: %d vs %d", a.Mix.Frames(), b.Mix.Frames())
	}
	for i := range a.Mix.Left {
		if a.Mix.Left[i] != b.Mix.Left[i] || a.Mix.Right[i] != b.Mix.Right[i] {
			t.Fatalf("renders differ at frame %d", i)
		}
	}
}

func TestEncodeWAVFloat32LE(t *testing.T) {
	data := EncodeWAVFloat32LE([]float32{0.5, -0.25}, 44100, 2)
	if len(data) != 44+8 {
		t.Fatalf("len = %d", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Fatalf("bad chunk ids")
	}
	if f := binary.LittleEndian.Uint16(data[20:]); f != 3 {
		t.Fatalf("format = %d, want IEEE float", f)
	}
	if sr := binary.LittleEndian.Uint32(data[24:]); sr != 44100 {
		t.Fatalf("sample rate = %d", sr)
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(data[48:])); v != -0.25 {
		t.Fatalf("second sample = %v", v)
	}
}

func TestWriteWAVPCM(t *testing.T) {
	b := &AudioBuffer{SampleRate: 22050, Left: []float32{0.5, 2, -1}, Right: []float32{0, -0.5, 1}}
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.WriteWAV(f, 16); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := b.WriteWAV(f, 12); err == nil {
		t.Fatalf("expected bit depth error")
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	dec := wav.NewDecoder(in)
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if pcm.Format.NumChannels != 2 || pcm.Format.SampleRate != 22050 {
		t.Fatalf("format = %+v", pcm.Format)
	}
	want := []int{16384, 0, 32767, -16384, -32767, 32767}
	if len(pcm.Data) != len(want) {
		t.Fatalf("data = %v", pcm.Data)
	}
	for i := range want {
		if pcm.Data[i] != want[i] {
			t.Fatalf("data = %v, want %v", pcm.Data, want)
		}
	}
}
