package sequencer

// Timing is the transport state the clock reads each time it lays out a step.
type Timing struct {
	BPM    float64
	Swing  float64
	Length int
}

// StepClock turns tempo, swing and sequencer length into a self-rescheduling
// chain of step fires. It holds at most one pending Token.
//
// A StepClock is not safe for concurrent use; it is driven from the same
// goroutine (or under the same lock) as its Scheduler.
type StepClock struct {
	sched      Scheduler
	sampleRate int
	timing     func() Timing
	onStep     func(step int, frame int64)

	token     *Token
	playing   bool
	current   int
	origin    int64 // grid origin, frames
	index     int64 // grid position of the pending step relative to origin
	bpm       float64
	lastFrame int64
}

// NewStepClock creates a stopped clock. timing is consulted whenever a step is
// scheduled; onStep runs for every fired step.
func NewStepClock(sched Scheduler, sampleRate int, timing func() Timing, onStep func(step int, frame int64)) *StepClock {
	return &StepClock{
		sched:      sched,
		sampleRate: sampleRate,
		timing:     timing,
		onStep:     onStep,
		current:    -1,
	}
}

// Start begins firing at frame now, from step 0 or, after Pause, from the step
// following the last one fired. Starting a running clock is a no-op.
func (c *StepClock) Start(now int64) {
	if c.playing {
		return
	}
	c.playing = true
	t := c.timing()
	c.bpm = t.BPM
	c.origin = now
	c.index = 0
	c.schedule(c.next(t.Length), t)
}

// Pause cancels the pending step and keeps the current position.
func (c *StepClock) Pause() {
	if !c.playing {
		return
	}
	c.cancel()
	c.playing = false
}

// Stop cancels the pending step and rewinds to -1.
func (c *StepClock) Stop() {
	if !c.playing && c.current == -1 {
		return
	}
	c.cancel()
	c.playing = false
	c.current = -1
}

// Playing reports whether steps are being scheduled.
func (c *StepClock) Playing() bool { return c.playing }

// Current returns the last fired step, or -1 when stopped.
func (c *StepClock) Current() int { return c.current }

// Position returns the fractional step position at frame now, for recording.
func (c *StepClock) Position(now int64) float64 {
	if c.current < 0 {
		return 0
	}
	stepFrames := StepInterval(c.bpm) * float64(c.sampleRate)
	return float64(c.current) + float64(now-c.lastFrame)/stepFrames
}

func (c *StepClock) next(length int) int {
	if c.current < 0 || length <= 0 {
		return 0
	}
	return (c.current + 1) % length
}

func (c *StepClock) schedule(step int, t Timing) {
	frame := c.origin + StepFrame(c.index, step, c.bpm, t.Swing, c.sampleRate)
	c.token = c.sched.ScheduleAt(frame, c.fire)
}

func (c *StepClock) cancel() {
	if c.token != nil {
		c.token.Cancel()
		c.token = nil
	}
}

func (c *StepClock) fire(frame int64) {
	c.token = nil
	t := c.timing()
	c.current = c.next(t.Length)
	c.lastFrame = frame
	if c.onStep != nil {
		c.onStep(c.current, frame)
	}
	if !c.playing {
		return
	}
	t = c.timing()
	if t.BPM != c.bpm {
		// rebase so the new tempo starts from the step that just fired
		c.origin += StepFrame(c.index, 0, c.bpm, 0, c.sampleRate)
		c.index = 0
		c.bpm = t.BPM
	}
	c.index++
	c.schedule(c.next(t.Length), t)
}
