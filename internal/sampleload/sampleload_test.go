package sampleload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

func writeWAV(t *testing.T, path string, sr, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sr, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sr},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFileStereoWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hit.wav")
	writeWAV(t, path, 22050, 2, []int{16384, -16384, 0, 32767, -32768, 8192})
	b, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.SampleRate != 22050 || len(b.Channels) != 2 || b.Frames() != 3 {
		t.Fatalf("got rate=%d channels=%d frames=%d", b.SampleRate, len(b.Channels), b.Frames())
	}
	if b.Channels[0][0] != 0.5 || b.Channels[1][0] != -0.5 || b.Channels[0][2] != -1 {
		t.Fatalf("samples = %v / %v", b.Channels[0], b.Channels[1])
	}
}

func TestDecodeSniffsRIFFWithoutExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noext")
	writeWAV(t, path, 44100, 1, []int{0, 16384, 0, -16384})
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	b, err := Decode(f, "noext")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Channels) != 1 || b.Frames() != 4 || b.Channels[0][1] != 0.5 {
		t.Fatalf("decoded %v", b.Channels)
	}
}

func TestLoadFileErrorsAreWrapped(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil || !strings.Contains(err.Error(), "open sample") {
		t.Fatalf("err = %v", err)
	}
	bad := filepath.Join(t.TempDir(), "bad.wav")
	os.WriteFile(bad, []byte("definitely not audio"), 0o644)
	if _, err := LoadFile(bad); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadKitSurvivesFailingSlot(t *testing.T) {
	load := func(path string) (*voice.Buffer, error) {
		if strings.Contains(path, "broken") {
			return nil, fmt.Errorf("decode %s: corrupt", path)
		}
		return voice.NewBuffer(path, 48000, make([]float32, 10)), nil
	}
	slots := []Slot{
		{Track: 0, Path: "kick.wav"},
		{Track: 1, Path: "broken_snare.wav"},
		{Track: 2, Path: "hat.wav"},
	}
	res := LoadKit(context.Background(), slots, KitOptions{Load: load, Concurrency: 2})
	if len(res) != 3 {
		t.Fatalf("results = %d", len(res))
	}
	if res[0].Err != nil || res[2].Err != nil || res[0].Buffer == nil || res[2].Buffer == nil {
		t.Fatalf("healthy slots failed: %+v", res)
	}
	if res[1].Err == nil || res[1].Buffer != nil || res[1].Track != 1 {
		t.Fatalf("failing slot = %+v", res[1])
	}

	res = LoadKit(context.Background(), slots, KitOptions{Load: load, Fallback: true, SampleRate: 8000})
	if !res[1].Fallback || res[1].Buffer == nil || res[1].Buffer.Name != "snare" {
		t.Fatalf("fallback slot = %+v", res[1])
	}
	if res[1].Err == nil {
		t.Fatalf("fallback should keep the original error")
	}
}

func TestLoadKitHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := 0
	res := LoadKit(ctx, []Slot{{Track: 0, Path: "a.wav"}}, KitOptions{Load: func(string) (*voice.Buffer, error) {
		called++
		return nil, nil
	}})
	if called != 0 || res[0].Err == nil {
		t.Fatalf("cancelled kit load ran the loader: called=%d err=%v", called, res[0].Err)
	}
}

func TestGuessKind(t *testing.T) {
	cases := map[string]Kind{
		"808_Kick.wav":   Kick,
		"snare-01.wav":   Snare,
		"open_hat.wav":   OpenHat,
		"closed_hat.wav": ClosedHat,
		"clap.mp3":       Clap,
	}
	for name, want := range cases {
		if got := GuessKind(name, 0); got != want {
			t.Errorf("GuessKind(%q) = %v, want %v", name, got, want)
		}
	}
	if got := GuessKind("zzz.wav", 1); got != Snare {
		t.Errorf("layout fallback for track 1 = %v", got)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	for k := Kick; k <= Rim; k++ {
		a := Generate(k, 8000)
		b := Generate(k, 8000)
		if a.Frames() == 0 || a.Frames() != b.Frames() {
			t.Fatalf("%v: frames %d vs %d", k, a.Frames(), b.Frames())
		}
		for i := range a.Channels[0] {
			if a.Channels[0][i] != b.Channels[0][i] {
				t.Fatalf("%v differs at %d", k, i)
			}
			if v := a.Channels[0][i]; v > 1 || v < -1 {
				t.Fatalf("%v clips at %d: %v", k, i, v)
			}
		}
	}
}
