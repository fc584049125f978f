package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mpc "github.com/preslife/web-mpc-infinite-loop-sub000"
	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "path to the YAML config file")
		backend    = flag.String("backend", "", "audio backend: ebiten|oto|none (overrides config)")
		bpm        = flag.Float64("bpm", 0, "tempo in bpm (overrides config)")
		swing      = flag.Float64("swing", -1, "swing 0..100 (overrides config)")
		volume     = flag.Float64("volume", -1, "master volume 0..1 (overrides config)")
		patName    = flag.String("pattern", "", "pattern name from the library")
		songName   = flag.String("song", "", "chain name from the library")
		bars       = flag.Int("bars", 0, "stop after N passes of the pattern (0 = loop forever)")
		verbose    = flag.Bool("v", false, "log engine diagnostics and print steps")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *bpm > 0 {
		cfg.BPM = *bpm
	}
	if *swing >= 0 {
		cfg.Swing = *swing
	}
	if *volume >= 0 {
		cfg.MasterVolume = *volume
	}

	opts, err := mpc.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if *verbose {
		opts = append(opts, mpc.WithLogger(log.Default()))
	}
	e, err := mpc.NewEngine(cfg.SampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, r := range e.ApplyConfig(ctx, cfg) {
		if r.Err != nil && !r.Fallback {
			log.Printf("track %d: %v", r.Track+1, r.Err)
		}
	}
	if err := e.SelectPattern(cfg, *patName, *songName); err != nil {
		log.Fatal(err)
	}

	ch := e.Watch()
	if err := e.Open(); err != nil {
		log.Fatal(err)
	}
	defer e.Close()
	e.Start()
	fmt.Printf("playing at %.0f bpm, swing %.0f%%, %d steps\n", e.Tempo(), e.Swing(), e.Length())

	passes := 0
	for {
		select {
		case <-ctx.Done():
			e.Stop()
			fmt.Println("stopped")
			return
		case ev := <-ch:
			switch ev.Kind {
			case mpc.EventStep:
				if *verbose {
					fmt.Printf("step %d\n", ev.Step)
				}
				if ev.Step != 0 {
					continue
				}
				passes++
				if *bars > 0 && passes > *bars {
					e.Stop()
					fmt.Printf("%d bars completed\n", *bars)
					return
				}
			case mpc.EventPatternChanged:
				fmt.Printf("song position %d\n", ev.Step)
			}
		}
	}
}
