package mpc

import (
	"context"
	"os"

	"github.com/pkg/errors"

	intaudio "github.com/preslife/web-mpc-infinite-loop-sub000/internal/audio"
	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/config"
	intpat "github.com/preslife/web-mpc-infinite-loop-sub000/internal/pattern"
	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/sampleload"
)

// generatedKit is loaded when the config names no samples.
var generatedKit = []sampleload.Kind{
	sampleload.Kick,
	sampleload.Snare,
	sampleload.ClosedHat,
	sampleload.OpenHat,
	sampleload.Tom,
	sampleload.Clap,
	sampleload.Rim,
}

// OptionsFromConfig maps the file settings onto engine options.
func OptionsFromConfig(cfg config.Config) ([]EngineOption, error) {
	b, err := intaudio.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return []EngineOption{
		WithOutput(b),
		WithSeed(cfg.Seed),
		WithMasterVolume(cfg.MasterVolume),
	}, nil
}

// ApplyConfig sets transport values and loads the configured kit. With an
// empty kit and fallback enabled a generated kit fills the first tracks.
func (e *Engine) ApplyConfig(ctx context.Context, cfg config.Config) []sampleload.Result {
	e.SetTempo(cfg.BPM)
	e.SetSwing(cfg.Swing)
	e.SetLength(cfg.Length)
	e.SetMIDIChannel(cfg.MIDIChannel)

	slots := cfg.Slots()
	if len(slots) == 0 {
		if cfg.KitFallback {
			for track, k := range generatedKit {
				e.LoadSample(track, sampleload.Generate(k, e.sampleRate))
			}
		}
		return nil
	}
	return e.LoadKit(ctx, slots, cfg.KitFallback)
}

// LoadLibrary reads a pattern library file. A missing file gives an empty
// library.
func LoadLibrary(path string) (*intpat.Library, error) {
	p, err := config.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expand %s", path)
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return intpat.NewLibrary(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open library")
	}
	defer f.Close()
	lib, err := intpat.ReadLibrary(f)
	return lib, errors.Wrapf(err, "read library %s", p)
}

// SaveLibrary writes lib to path.
func SaveLibrary(path string, lib *intpat.Library) error {
	p, err := config.ExpandPath(path)
	if err != nil {
		return errors.Wrapf(err, "expand %s", path)
	}
	f, err := os.Create(p)
	if err != nil {
		return errors.Wrap(err, "create library")
	}
	if err := lib.Write(f); err != nil {
		f.Close()
		return errors.Wrap(err, "write library")
	}
	return f.Close()
}

// UseLibrary selects what plays from lib: the named song chain when song is
// set, otherwise the named pattern.
func (e *Engine) UseLibrary(lib *intpat.Library, pattern, song string) error {
	if song != "" {
		chain, err := lib.Chain(song)
		if err != nil {
			return err
		}
		e.SetSong(chain)
		return nil
	}
	p, ok := lib.Get(pattern)
	if !ok {
		return errors.Errorf("pattern %q not in library", pattern)
	}
	e.SetPattern(p)
	return nil
}

// SelectPattern plays the named pattern or song from the configured library,
// or a basic beat when neither is named.
func (e *Engine) SelectPattern(cfg config.Config, pattern, song string) error {
	if pattern == "" && song == "" {
		e.SetPattern(intpat.BasicBeat(e.Length()))
		return nil
	}
	if cfg.Library == "" {
		return errors.New("a pattern or song needs a library in the config")
	}
	lib, err := LoadLibrary(cfg.Library)
	if err != nil {
		return err
	}
	return e.UseLibrary(lib, pattern, song)
}
