// Package config reads and writes the YAML settings file.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/sampleload"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "~/.config/web-mpc/config.yaml"

type Config struct {
	SampleRate   int     `yaml:"sample_rate"`
	Backend      string  `yaml:"backend"`
	BPM          float64 `yaml:"bpm"`
	Swing        float64 `yaml:"swing"`
	Length       int     `yaml:"length"`
	MasterVolume float64 `yaml:"master_volume"`
	Seed         int64   `yaml:"seed"`

	// Kit maps track index to a sample file.
	Kit         map[int]string `yaml:"kit,omitempty"`
	KitFallback bool           `yaml:"kit_fallback"`
	Library     string         `yaml:"library,omitempty"`
	MIDIChannel int            `yaml:"midi_channel"`
}

func Default() Config {
	return Config{
		SampleRate:   48000,
		Backend:      "ebiten",
		BPM:          120,
		Length:       16,
		MasterVolume: 0.8,
		Seed:         1,
		KitFallback:  true,
		MIDIChannel:  -1,
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "expand %s", path)
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), errors.Wrapf(err, "parse %s", p)
	}
	return cfg, nil
}

// Save writes c to path, creating parent directories.
func (c Config) Save(path string) error {
	if path == "" {
		path = DefaultPath
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return errors.Wrapf(err, "expand %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(p, data, 0o644), "write config")
}

// ExpandPath resolves ~ in a kit or library path.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// Slots lists the kit in track order, skipping tracks outside 0..15 and
// blank paths.
func (c Config) Slots() []sampleload.Slot {
	var slots []sampleload.Slot
	for track, path := range c.Kit {
		if track < 0 || track > 15 || path == "" {
			continue
		}
		slots = append(slots, sampleload.Slot{Track: track, Path: path})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Track < slots[j].Track })
	return slots
}
