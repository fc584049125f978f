// Package mpc is a drum machine engine: a 16-track step sequencer that
// triggers sample voices at exact frames, mixes them through per-track effect
// chains and renders the same arrangement offline for export.
package mpc

import (
	"errors"
	"io"
	"log"
	"math/rand"
	"sync"

	intaudio "github.com/preslife/web-mpc-infinite-loop-sub000/internal/audio"
	intmidi "github.com/preslife/web-mpc-infinite-loop-sub000/internal/midiin"
	intmix "github.com/preslife/web-mpc-infinite-loop-sub000/internal/mixer"
	intpat "github.com/preslife/web-mpc-infinite-loop-sub000/internal/pattern"
	intseq "github.com/preslife/web-mpc-infinite-loop-sub000/internal/sequencer"
	intvoice "github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

const (
	NumTracks = intmix.NumTracks
	MaxSteps  = intpat.MaxSteps
)

// Event carries transport, trigger and loading notifications from Watch().
type Event struct {
	Kind     EventKind
	Step     int
	Track    int
	Velocity int
	Frame    int64
	Err      error
}

type EventKind int

const (
	EventStep EventKind = iota
	EventTrigger
	EventStarted
	EventPaused
	EventStopped
	EventPatternChanged
	EventSampleLoaded
	EventSampleCleared
)

func (k EventKind) String() string {
	switch k {
	case EventStep:
		return "step"
	case EventTrigger:
		return "trigger"
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventStopped:
		return "stopped"
	case EventPatternChanged:
		return "pattern-changed"
	case EventSampleLoaded:
		return "sample-loaded"
	case EventSampleCleared:
		return "sample-cleared"
	}
	return "unknown"
}

// Backend selects the sound device used by Open.
type Backend = intaudio.Backend

const (
	OutputEbiten = intaudio.BackendEbiten
	OutputOto    = intaudio.BackendOto
	OutputNone   = intaudio.BackendNone
)

type EngineOption func(*engineConfig)

type engineConfig struct {
	output    Backend
	logger    *log.Logger
	seed      int64
	sampleTap func([]float32)
	master    float64
}

func defaultEngineConfig() engineConfig {
	return engineConfig{output: OutputEbiten, seed: 1, master: 1}
}

func WithOutput(b Backend) EngineOption {
	return func(cfg *engineConfig) {
		cfg.output = b
	}
}

// WithLogger routes load and transport diagnostics. The default discards them.
func WithLogger(l *log.Logger) EngineOption {
	return func(cfg *engineConfig) {
		cfg.logger = l
	}
}

// WithSeed fixes the randomizer and the reverb impulse noise.
func WithSeed(seed int64) EngineOption {
	return func(cfg *engineConfig) {
		cfg.seed = seed
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) EngineOption {
	return func(cfg *engineConfig) {
		cfg.sampleTap = tap
	}
}

func WithMasterVolume(v float64) EngineOption {
	return func(cfg *engineConfig) {
		cfg.master = v
	}
}

// Engine is the drum machine. One mutex serialises the audio pull, the step
// clock (which fires from inside Process) and every API call, so each step
// is evaluated against a single consistent state.
type Engine struct {
	mu         sync.Mutex
	sampleRate int
	logger     *log.Logger
	seed       int64
	rng        *rand.Rand

	frame  int64
	sched  *intseq.FrameScheduler
	clock  *intseq.StepClock
	bpm    float64
	swing  float64
	length int
	fired  bool // a step has fired since the last Stop
	pass   int

	tracks [NumTracks]intmix.Track
	mix    *intmix.Mixer
	master float64
	bufL   []float32
	bufR   []float32

	pattern *intpat.Pattern
	song    []*intpat.Pattern

	recording   bool
	recGrid     int
	recStrength float64

	loadGen [NumTracks]uint64
	midi    *intmidi.Translator

	backend   Backend
	out       intaudio.Output
	sampleTap func([]float32)

	eventCh   chan Event
	eventChMu sync.Mutex
}

func NewEngine(sampleRate int, opts ...EngineOption) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard, "", 0)
	}
	e := &Engine{
		sampleRate:  sampleRate,
		logger:      cfg.logger,
		seed:        cfg.seed,
		rng:         rand.New(rand.NewSource(cfg.seed)),
		sched:       intseq.NewFrameScheduler(),
		bpm:         intseq.DefaultBPM,
		length:      16,
		mix:         intmix.New(sampleRate, cfg.seed),
		master:      intmix.ClampMaster(cfg.master),
		pattern:     intpat.New("pattern-1"),
		recGrid:     1,
		recStrength: 100,
		midi:        intmidi.NewTranslator(),
		backend:     cfg.output,
		sampleTap:   cfg.sampleTap,
	}
	for i := range e.tracks {
		e.tracks[i] = intmix.DefaultTrack()
		e.mix.Configure(i, e.tracks[i])
	}
	e.clock = intseq.NewStepClock(e.sched, sampleRate, e.timing, e.onStep)
	return e, nil
}

func (e *Engine) SampleRate() int { return e.sampleRate }

// Open starts the configured audio backend, which then pulls Process
// continuously. Without Open the caller drives Process itself.
func (e *Engine) Open() error {
	e.mu.Lock()
	if e.out != nil {
		e.mu.Unlock()
		return nil
	}
	backend := e.backend
	e.mu.Unlock()

	out, err := intaudio.Open(backend, e.sampleRate, e)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.out != nil {
		e.mu.Unlock()
		return out.Close()
	}
	e.out = out
	e.mu.Unlock()
	out.Play()
	e.logger.Printf("audio output %s started at %d Hz", backend, e.sampleRate)
	return nil
}

// Close stops the transport and releases the audio backend.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.clock.Stop()
	out := e.out
	e.out = nil
	e.mu.Unlock()
	if out == nil {
		return nil
	}
	// Closing may wait for an in-flight Process, so the lock must be free.
	err := out.Close()
	e.logger.Printf("audio output closed")
	return err
}

// Process renders len(dst)/2 interleaved stereo frames. Scheduled steps fire
// at their exact frame: the block is split at every due task.
func (e *Engine) Process(dst []float32) {
	e.mu.Lock()
	frames := len(dst) / 2
	if cap(e.bufL) < frames {
		e.bufL = make([]float32, frames)
		e.bufR = make([]float32, frames)
	}
	pos := 0
	for pos < frames {
		e.sched.RunDue(e.frame)
		n := frames - pos
		if next, ok := e.sched.Next(); ok && next-e.frame < int64(n) {
			n = int(next - e.frame)
		}
		l, r := e.bufL[:n], e.bufR[:n]
		for i := range l {
			l[i], r[i] = 0, 0
		}
		e.mix.Render(l, r, &e.tracks, e.master)
		out := dst[pos*2 : (pos+n)*2]
		for i := 0; i < n; i++ {
			out[2*i] = l[i]
			out[2*i+1] = r[i]
		}
		e.frame += int64(n)
		pos += n
	}
	tap := e.sampleTap
	e.mu.Unlock()
	if tap != nil {
		tap(dst)
	}
}

// Frame returns the number of frames rendered so far.
func (e *Engine) Frame() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

func (e *Engine) timing() intseq.Timing {
	return intseq.Timing{BPM: e.bpm, Swing: e.swing, Length: e.length}
}

// onStep runs under e.mu from inside Process.
func (e *Engine) onStep(step int, frame int64) {
	if step == 0 && e.fired {
		e.pass++
		if len(e.song) > 0 {
			e.pattern = e.song[e.pass%len(e.song)]
			e.sendEvent(Event{Kind: EventPatternChanged, Step: e.pass % len(e.song), Frame: frame})
		}
	}
	e.fired = true
	e.sendEvent(Event{Kind: EventStep, Step: step, Frame: frame})
	for t := 0; t < NumTracks; t++ {
		st := e.pattern.At(t, step)
		if !st.Active {
			continue
		}
		e.trigger(t, st.Velocity, nil)
	}
}

// trigger starts a voice. gate overrides the sample's own gate flag when set.
func (e *Engine) trigger(track, velocity int, gate *bool) bool {
	if track < 0 || track >= NumTracks {
		return false
	}
	tr := e.tracks[track]
	if !tr.Loaded() || !intmix.Audible(e.tracks[:], track) {
		return false
	}
	g := tr.Sample.Params.Gate
	if gate != nil {
		g = *gate
	}
	velocity = intpat.ClampVelocity(velocity)
	e.mix.Start(track, intvoice.New(tr.Sample, velocity, e.sampleRate), g)
	e.sendEvent(Event{Kind: EventTrigger, Track: track, Velocity: velocity, Frame: e.frame})
	return true
}

// Trigger plays the track's sample now. It returns false when the track is
// empty or silenced by mute/solo. An optional gate overrides the sample's
// gate setting for this hit.
func (e *Engine) Trigger(track, velocity int, gate ...bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	var g *bool
	if len(gate) > 0 {
		g = &gate[0]
	}
	return e.trigger(track, velocity, g)
}

// StopAll silences every sounding voice and clears effect tails.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mix.StopAll()
}

// Sounding returns how many voices are playing on the track.
func (e *Engine) Sounding(track int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mix.Sounding(track)
}

func (e *Engine) sendEvent(ev Event) {
	e.eventChMu.Lock()
	ch := e.eventCh
	e.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// Watch returns a channel that receives engine events. The channel is
// buffered (cap 64) and events are dropped when it is full; receive in a
// goroutine. Only the most recent Watch() channel receives events.
func (e *Engine) Watch() <-chan Event {
	ch := make(chan Event, 64)
	e.eventChMu.Lock()
	e.eventCh = ch
	e.eventChMu.Unlock()
	return ch
}
