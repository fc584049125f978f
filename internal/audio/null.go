package audio

import (
	"sync"
	"time"
)

// nullPeriod is how much audio a NullOutput pulls per tick.
const nullPeriod = 10 * time.Millisecond

// NullOutput discards audio but pulls it in real time.
type NullOutput struct {
	source SampleSource
	frames int

	mu      sync.Mutex
	playing bool
	stop    chan struct{}
	done    chan struct{}
}

func NewNullOutput(sampleRate int, source SampleSource) *NullOutput {
	frames := int(int64(sampleRate) * int64(nullPeriod) / int64(time.Second))
	if frames < 1 {
		frames = 1
	}
	return &NullOutput{source: source, frames: frames}
}

func (o *NullOutput) Play() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.playing {
		return
	}
	o.playing = true
	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go o.run(o.stop, o.done)
}

func (o *NullOutput) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]float32, o.frames*2)
	ticker := time.NewTicker(nullPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for i := range buf {
				buf[i] = 0
			}
			o.source.Process(buf)
		}
	}
}

func (o *NullOutput) Pause() {
	o.mu.Lock()
	if !o.playing {
		o.mu.Unlock()
		return
	}
	o.playing = false
	stop, done := o.stop, o.done
	o.mu.Unlock()
	close(stop)
	<-done
}

func (o *NullOutput) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

func (o *NullOutput) Close() error {
	o.Pause()
	return nil
}
