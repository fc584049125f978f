package sampleload

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

// DefaultConcurrency bounds parallel decodes in LoadKit.
const DefaultConcurrency = 4

// Slot asks for one file to be loaded onto a track.
type Slot struct {
	Track int
	Path  string
}

// Result is the outcome of one slot. Buffer is nil only when Err is set and
// no fallback was generated.
type Result struct {
	Track    int
	Path     string
	Buffer   *voice.Buffer
	Err      error
	Fallback bool
}

type KitOptions struct {
	Concurrency int
	// Fallback replaces a failed slot with a generated drum picked from the
	// file name.
	Fallback   bool
	SampleRate int
	Logger     *log.Logger
	// Load overrides LoadFile, mainly for tests.
	Load func(path string) (*voice.Buffer, error)
}

// LoadKit decodes every slot concurrently. A failing slot never stops the
// others; its error is reported in its Result. Results keep slot order.
func LoadKit(ctx context.Context, slots []Slot, opts KitOptions) []Result {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Load == nil {
		opts.Load = LoadFile
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 48000
	}

	results := make([]Result, len(slots))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, s := range slots {
		i, s := i, s
		g.Go(func() error {
			res := Result{Track: s.Track, Path: s.Path}
			if err := ctx.Err(); err != nil {
				res.Err = err
			} else {
				res.Buffer, res.Err = opts.Load(s.Path)
			}
			if res.Err != nil {
				opts.Logger.Printf("track %d: %v", s.Track, res.Err)
				if opts.Fallback {
					res.Buffer = Generate(GuessKind(s.Path, s.Track), opts.SampleRate)
					res.Fallback = true
					opts.Logger.Printf("track %d: using generated %s", s.Track, GuessKind(s.Path, s.Track))
				}
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()
	return results
}

// GuessKind picks a generated drum for a slot from its file name, or from
// its position in a standard kit layout.
func GuessKind(path string, track int) Kind {
	base := strings.ToLower(filepath.Base(path))
	for _, k := range []Kind{Kick, Snare, Clap, OpenHat, ClosedHat, Tom, Rim} {
		for _, word := range k.keywords() {
			if strings.Contains(base, word) {
				return k
			}
		}
	}
	layout := []Kind{Kick, Snare, ClosedHat, OpenHat, Tom, Tom, Tom, Clap}
	if track >= 0 {
		return layout[track%len(layout)]
	}
	return Kick
}
