package mpc

import (
	"context"
	"errors"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/effects"
	intmix "github.com/preslife/web-mpc-infinite-loop-sub000/internal/mixer"
	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/sampleload"
	intvoice "github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

// ErrStaleLoad is returned by LoadSampleAsync when a newer load or clear on
// the same track superseded it. The track is left untouched.
var ErrStaleLoad = errors.New("sample load superseded")

// TrackInfo is a snapshot of one track.
type TrackInfo struct {
	Sample  *intvoice.Sample
	Volume  float64
	Pan     float64
	Mute    bool
	Solo    bool
	Effects effects.Settings
}

func validTrack(track int) bool {
	return track >= 0 && track < NumTracks
}

// Track returns a copy of the track's state.
func (e *Engine) Track(track int) (TrackInfo, bool) {
	if !validTrack(track) {
		return TrackInfo{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[track]
	return TrackInfo{Sample: t.Sample, Volume: t.Volume, Pan: t.Pan, Mute: t.Mute, Solo: t.Solo, Effects: t.Effects}, true
}

// Audible reports whether the track would play under the current mute/solo state.
func (e *Engine) Audible(track int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return intmix.Audible(e.tracks[:], track)
}

// SetTrackVolume sets 0..100. Sounding voices follow from the next block.
func (e *Engine) SetTrackVolume(track int, volume float64) {
	if !validTrack(track) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks[track].Volume = intmix.ClampVolume(volume)
}

func (e *Engine) SetTrackMute(track int, mute bool) {
	if !validTrack(track) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks[track].Mute = mute
}

func (e *Engine) SetTrackSolo(track int, solo bool) {
	if !validTrack(track) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks[track].Solo = solo
}

// SetTrackPan sets 0..100 with 50 at centre.
func (e *Engine) SetTrackPan(track int, pan float64) {
	if !validTrack(track) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks[track].Pan = intmix.ClampPan(pan)
	e.mix.Configure(track, e.tracks[track])
}

// SetMasterVolume sets the master gain, clamped to [0, 1].
func (e *Engine) SetMasterVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.master = intmix.ClampMaster(v)
}

func (e *Engine) MasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.master
}

// SetTrackEffect replaces one stage's parameters: p is an effects.EQ,
// effects.Filter, effects.Delay or effects.Reverb. Values are clamped.
func (e *Engine) SetTrackEffect(track int, p effects.Param) {
	if !validTrack(track) || p == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks[track].Effects = e.tracks[track].Effects.With(p).Clamp()
	e.mix.Configure(track, e.tracks[track])
}

// SetTrackEffects replaces every stage at once.
func (e *Engine) SetTrackEffects(track int, s effects.Settings) {
	if !validTrack(track) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks[track].Effects = s.Clamp()
	e.mix.Configure(track, e.tracks[track])
}

// LoadSample puts b on the track with default parameters, or with p when
// given. Voices of the previous sample keep playing.
func (e *Engine) LoadSample(track int, b *intvoice.Buffer, p ...intvoice.Params) {
	if !validTrack(track) || b == nil {
		return
	}
	params := intvoice.DefaultParams()
	if len(p) > 0 {
		params = p[0]
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadGen[track]++
	e.setSample(track, intvoice.NewSample(b, params))
}

func (e *Engine) setSample(track int, s *intvoice.Sample) {
	e.tracks[track].Sample = s
	e.logger.Printf("track %d: loaded %q (%d frames, %d Hz)", track+1, s.Buffer.Name, s.Buffer.Frames(), s.Buffer.SampleRate)
	e.sendEvent(Event{Kind: EventSampleLoaded, Track: track, Frame: e.frame})
}

// LoadSampleAsync runs load on its own goroutine and installs the result
// unless another load or clear on the track started in the meantime. The
// returned channel yields the outcome once: nil, ErrStaleLoad or the load
// error.
func (e *Engine) LoadSampleAsync(ctx context.Context, track int, load func(context.Context) (*intvoice.Buffer, error)) <-chan error {
	done := make(chan error, 1)
	if !validTrack(track) {
		done <- errors.New("track out of range")
		return done
	}
	e.mu.Lock()
	e.loadGen[track]++
	gen := e.loadGen[track]
	e.mu.Unlock()

	go func() {
		b, err := load(ctx)
		if err == nil && b == nil {
			err = errors.New("loader returned no buffer")
		}
		if err == nil {
			err = ctx.Err()
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.loadGen[track] != gen {
			e.logger.Printf("track %d: discarding stale load", track+1)
			done <- ErrStaleLoad
			return
		}
		if err != nil {
			e.logger.Printf("track %d: load failed: %v", track+1, err)
			done <- err
			return
		}
		e.setSample(track, intvoice.NewSample(b, intvoice.DefaultParams()))
		done <- nil
	}()
	return done
}

// ClearSample empties the track. Pending async loads for it become stale.
func (e *Engine) ClearSample(track int) {
	if !validTrack(track) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadGen[track]++
	if e.tracks[track].Sample == nil {
		return
	}
	e.tracks[track].Sample = nil
	e.logger.Printf("track %d: cleared", track+1)
	e.sendEvent(Event{Kind: EventSampleCleared, Track: track, Frame: e.frame})
}

// SetSampleParams replaces the slice, pitch, reverse, gate and trim of the
// track's sample. Voices already sounding keep the parameters they started with.
func (e *Engine) SetSampleParams(track int, p intvoice.Params) bool {
	if !validTrack(track) {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.tracks[track].Sample
	if s == nil {
		return false
	}
	e.tracks[track].Sample = intvoice.NewSample(s.Buffer, p)
	return true
}

// LoadKit decodes the slots concurrently and installs every buffer that came
// back, including generated fallbacks. Failed slots are logged and leave
// their track untouched.
func (e *Engine) LoadKit(ctx context.Context, slots []sampleload.Slot, fallback bool) []sampleload.Result {
	res := sampleload.LoadKit(ctx, slots, sampleload.KitOptions{
		Fallback:   fallback,
		SampleRate: e.sampleRate,
		Logger:     e.logger,
	})
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range res {
		if r.Buffer == nil || !validTrack(r.Track) {
			continue
		}
		e.loadGen[r.Track]++
		e.setSample(r.Track, intvoice.NewSample(r.Buffer, intvoice.DefaultParams()))
	}
	return res
}
