package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// EbitenOutput plays through an ebiten audio context.
type EbitenOutput struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// ebiten allows one context per process; every output shares it.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewEbitenOutput(sampleRate int, source SampleSource) (*EbitenOutput, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	pl.SetBufferSize(20 * time.Millisecond)
	return &EbitenOutput{player: pl, reader: reader}, nil
}

func (p *EbitenOutput) Play()           { p.player.Play() }
func (p *EbitenOutput) Pause()          { p.player.Pause() }
func (p *EbitenOutput) IsPlaying() bool { return p.player.IsPlaying() }

func (p *EbitenOutput) Close() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
