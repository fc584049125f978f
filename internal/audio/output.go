package audio

import (
	"fmt"
	"strings"
)

// Output is a started-on-demand sound device fed by a SampleSource.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Backend names an Output implementation.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
	// BackendNone pulls the source on a timer without a device, so the clock
	// still runs in headless use.
	BackendNone Backend = "none"
)

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendEbiten, BackendOto, BackendNone:
		return b, nil
	case "":
		return BackendEbiten, nil
	}
	return "", fmt.Errorf("unknown audio backend %q (want ebiten, oto or none)", s)
}

// Open creates an output of the given backend pulling from source.
func Open(b Backend, sampleRate int, source SampleSource) (Output, error) {
	switch b {
	case BackendEbiten, "":
		return NewEbitenOutput(sampleRate, source)
	case BackendOto:
		return NewOtoOutput(sampleRate, source)
	case BackendNone:
		return NewNullOutput(sampleRate, source), nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", b)
}
