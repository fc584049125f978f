package sequencer

import "math"

// Transport limits.
const (
	MinBPM     = 60
	MaxBPM     = 200
	DefaultBPM = 120
	MaxSwing   = 100
)

// Lengths lists the sequencer lengths a pattern can be played at.
var Lengths = [...]int{8, 16, 32, 64}

// swingDepth caps swing at a tenth of a step.
const swingDepth = 0.1

// StepInterval returns the duration of one sixteenth-note step in seconds.
func StepInterval(bpm float64) float64 {
	return 60 / bpm / 4
}

// SwingOffset returns how far step is pushed behind the grid, in seconds.
// Only odd steps are delayed; even steps always sit on the grid.
func SwingOffset(step int, bpm, swing float64) float64 {
	if step%2 == 0 {
		return 0
	}
	return swing / 100 * StepInterval(bpm) * swingDepth
}

// StepFrame returns the frame at which the step with grid position index fires,
// relative to the grid origin. step is the pattern column, used for swing parity.
func StepFrame(index int64, step int, bpm, swing float64, sampleRate int) int64 {
	sec := float64(index)*StepInterval(bpm) + SwingOffset(step, bpm, swing)
	return int64(math.Round(sec * float64(sampleRate)))
}

// ClampBPM limits bpm to the supported tempo range.
func ClampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) {
		return DefaultBPM
	}
	return math.Min(math.Max(bpm, MinBPM), MaxBPM)
}

// ClampSwing limits swing to 0..100 percent.
func ClampSwing(swing float64) float64 {
	if math.IsNaN(swing) {
		return 0
	}
	return math.Min(math.Max(swing, 0), MaxSwing)
}

// ClampLength snaps n to the nearest supported sequencer length.
func ClampLength(n int) int {
	best := Lengths[0]
	for _, l := range Lengths {
		if absInt(n-l) < absInt(n-best) {
			best = l
		}
	}
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
