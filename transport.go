package mpc

import (
	intseq "github.com/preslife/web-mpc-infinite-loop-sub000/internal/sequencer"
)

// Start begins playback at the current audio frame. After Pause it resumes
// from the following step; after Stop it begins at step 0 and, with a song
// set, at the song's first pattern.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clock.Playing() {
		return
	}
	if e.clock.Current() < 0 {
		e.fired = false
		e.pass = 0
		if len(e.song) > 0 {
			e.pattern = e.song[0]
		}
	}
	e.clock.Start(e.frame)
	e.sendEvent(Event{Kind: EventStarted, Step: e.clock.Current(), Frame: e.frame})
}

// Pause holds the current step. Voices already sounding ring out.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.clock.Playing() {
		return
	}
	e.clock.Pause()
	e.sendEvent(Event{Kind: EventPaused, Step: e.clock.Current(), Frame: e.frame})
}

// Stop cancels the pending step, rewinds to step -1 and cuts every sounding
// voice along with delay and reverb tails. Pause is the ring-out variant.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mix.StopAll()
	if !e.clock.Playing() && e.clock.Current() < 0 {
		return
	}
	e.clock.Stop()
	e.fired = false
	e.pass = 0
	e.sendEvent(Event{Kind: EventStopped, Step: -1, Frame: e.frame})
}

func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Playing()
}

// CurrentStep returns the last fired step, or -1 when stopped.
func (e *Engine) CurrentStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Current()
}

// SetTempo clamps bpm to 60..200. The step already scheduled keeps its frame;
// the new tempo applies from the next one.
func (e *Engine) SetTempo(bpm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bpm = intseq.ClampBPM(bpm)
}

func (e *Engine) Tempo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bpm
}

// SetSwing clamps swing to 0..100 percent.
func (e *Engine) SetSwing(swing float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.swing = intseq.ClampSwing(swing)
}

func (e *Engine) Swing() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.swing
}

// SetLength snaps n to 8, 16, 32 or 64 steps. Pattern data past the new
// length is kept.
func (e *Engine) SetLength(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.length = intseq.ClampLength(n)
}

func (e *Engine) Length() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.length
}
