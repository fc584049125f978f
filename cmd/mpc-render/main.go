package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	mpc "github.com/preslife/web-mpc-infinite-loop-sub000"
	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "path to the YAML config file")
		out        = flag.String("out", "mpc.wav", "output WAV path")
		stemsDir   = flag.String("stems", "", "also write one WAV per track into this directory")
		bars       = flag.Int("bars", 4, "number of passes of the sequencer length to render")
		bits       = flag.Int("bits", 16, "PCM bit depth 16|24|32, or 0 for 32-bit float")
		withFX     = flag.Bool("effects", false, "render EQ, filter, delay and reverb")
		tail       = flag.Bool("tail", false, "keep rendering until the last sound decays")
		patName    = flag.String("pattern", "", "pattern name from the library")
		songName   = flag.String("song", "", "chain name from the library")
		bpm        = flag.Float64("bpm", 0, "tempo in bpm (overrides config)")
		sampleRate = flag.Int("sample-rate", 0, "output sample rate (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Backend = "none"
	if *bpm > 0 {
		cfg.BPM = *bpm
	}
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
	}
	opts, err := mpc.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	e, err := mpc.NewEngine(cfg.SampleRate, append(opts, mpc.WithLogger(log.Default()))...)
	if err != nil {
		log.Fatal(err)
	}
	e.ApplyConfig(context.Background(), cfg)
	if err := e.SelectPattern(cfg, *patName, *songName); err != nil {
		log.Fatal(err)
	}

	r, err := e.RenderOffline(*bars, mpc.RenderOptions{Stems: *stemsDir != "", Effects: *withFX, Tail: *tail})
	if err != nil {
		log.Fatal(err)
	}
	if err := writeBuffer(*out, r.Mix, *bits); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %.2fs, peak %.3f\n", *out, r.Mix.Duration(), r.Mix.Peak())

	if *stemsDir == "" {
		return
	}
	if err := os.MkdirAll(*stemsDir, 0o755); err != nil {
		log.Fatal(err)
	}
	base := strings.TrimSuffix(filepath.Base(*out), filepath.Ext(*out))
	for track, st := range r.Stems {
		if st == nil {
			continue
		}
		path := filepath.Join(*stemsDir, fmt.Sprintf("%s_track%02d.wav", base, track+1))
		if err := writeBuffer(path, st, *bits); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s: peak %.3f\n", path, st.Peak())
	}
}

func writeBuffer(path string, b *mpc.AudioBuffer, bits int) error {
	if bits == 0 {
		return os.WriteFile(path, b.EncodeWAV(), 0o644)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.WriteWAV(f, bits); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
