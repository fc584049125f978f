// Package pattern holds the step-grid data model and its pure mutations.
package pattern

import (
	"errors"
	"math"
	"math/rand"
)

const (
	NumTracks = 16
	MaxSteps  = 64

	MaxVelocity     = 127
	DefaultVelocity = 100
	FillVelocity    = 80

	// randomDensity is the threshold a uniform draw must exceed to activate a step.
	randomDensity = 0.7
)

// Validation failures. Operations returning them leave the pattern untouched.
var (
	ErrNoTracksLoaded  = errors.New("no tracks loaded")
	ErrNoTrackSelected = errors.New("no track selected")
	ErrTrackEmpty      = errors.New("track has no sample loaded")
	ErrBadSubdivision  = errors.New("fill subdivision must be 1, 2, 4 or 8")
)

// Subdivisions are the fill densities in steps: sixteenth, eighth, quarter and half note.
var Subdivisions = [...]int{1, 2, 4, 8}

type Step struct {
	Active   bool
	Velocity int
}

// Pattern is a fixed 16x64 grid. Only the first sequencer-length columns are
// played; the rest are kept so length changes are reversible.
type Pattern struct {
	Name  string
	Steps [NumTracks][MaxSteps]Step
}

// New returns an empty pattern with default velocities.
func New(name string) *Pattern {
	p := &Pattern{Name: name}
	for t := range p.Steps {
		for s := range p.Steps[t] {
			p.Steps[t][s].Velocity = DefaultVelocity
		}
	}
	return p
}

// Clone returns a deep copy.
func (p *Pattern) Clone() *Pattern {
	c := *p
	return &c
}

func inRange(track, step int) bool {
	return track >= 0 && track < NumTracks && step >= 0 && step < MaxSteps
}

// At returns the step at track, step. Out-of-range positions read as inactive.
func (p *Pattern) At(track, step int) Step {
	if !inRange(track, step) {
		return Step{}
	}
	return p.Steps[track][step]
}

// Set stores s with its velocity clamped to 0..127.
func (p *Pattern) Set(track, step int, s Step) {
	if !inRange(track, step) {
		return
	}
	s.Velocity = ClampVelocity(s.Velocity)
	p.Steps[track][step] = s
}

// Toggle flips the active flag and keeps the velocity.
func (p *Pattern) Toggle(track, step int) {
	if !inRange(track, step) {
		return
	}
	p.Steps[track][step].Active = !p.Steps[track][step].Active
}

// Clear deactivates every step of every track and keeps velocities.
func (p *Pattern) Clear() {
	for t := range p.Steps {
		for s := range p.Steps[t] {
			p.Steps[t][s].Active = false
		}
	}
}

// ActiveCount returns the number of active steps on track within length.
func (p *Pattern) ActiveCount(track, length int) int {
	n := 0
	for s := 0; s < length && s < MaxSteps; s++ {
		if p.At(track, s).Active {
			n++
		}
	}
	return n
}

// Randomize redraws the first length steps of every listed track: a step is
// active when its draw exceeds 0.7, and gets a velocity of floor(draw*127).
// Tracks not listed are untouched.
func (p *Pattern) Randomize(rng *rand.Rand, tracks []int, length int) error {
	if len(tracks) == 0 {
		return ErrNoTracksLoaded
	}
	length = clampLength(length)
	for _, t := range tracks {
		if t < 0 || t >= NumTracks {
			continue
		}
		for s := 0; s < length; s++ {
			p.Steps[t][s].Active = rng.Float64() > randomDensity
			p.Steps[t][s].Velocity = int(math.Floor(rng.Float64() * MaxVelocity))
		}
	}
	return nil
}

// Fill clears the first length steps of track and activates every nth one at
// velocity 80.
func (p *Pattern) Fill(track, every, length int) error {
	if track < 0 || track >= NumTracks {
		return ErrNoTrackSelected
	}
	if !validSubdivision(every) {
		return ErrBadSubdivision
	}
	length = clampLength(length)
	for s := 0; s < length; s++ {
		if s%every == 0 {
			p.Steps[track][s] = Step{Active: true, Velocity: FillVelocity}
		} else {
			p.Steps[track][s].Active = false
		}
	}
	return nil
}

// BasicBeat is a starter groove on the first three tracks of a standard kit:
// kick on quarters, snare on the backbeat and accented eighth hats.
func BasicBeat(length int) *Pattern {
	p := New("basic")
	length = clampLength(length)
	for s := 0; s < length; s++ {
		if s%4 == 0 {
			p.Set(0, s, Step{Active: true, Velocity: 120})
		}
		if s%8 == 4 {
			p.Set(1, s, Step{Active: true, Velocity: 110})
		}
		if s%2 == 0 {
			p.Set(2, s, Step{Active: true, Velocity: 70 + 20*((s/2)%2)})
		}
	}
	return p
}

func validSubdivision(n int) bool {
	for _, d := range Subdivisions {
		if d == n {
			return true
		}
	}
	return false
}

func clampLength(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxSteps {
		return MaxSteps
	}
	return n
}

// ClampVelocity limits v to the MIDI velocity range.
func ClampVelocity(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxVelocity {
		return MaxVelocity
	}
	return v
}
