package pattern

import "math"

// Quantize pulls a recorded step position toward the grid. grid is the cell
// size in steps (1, 2, 4 or 8; other values snap to the nearest, ties to the
// coarser grid), strength is 0..100 percent. The result is clamped into
// [0, length-1].
//
// At strength 0 the rounded raw position is returned; at 100 it lands exactly
// on the nearest grid cell.
func Quantize(raw float64, grid int, strength float64, length int) int {
	grid = nearestSubdivision(grid)
	s := math.Min(math.Max(strength, 0), 100) / 100
	snapped := roundHalfUp(raw/float64(grid)) * float64(grid)
	step := int(roundHalfUp(raw*(1-s) + snapped*s))
	if step < 0 {
		return 0
	}
	if length < 1 {
		length = 1
	}
	if step > length-1 {
		return length - 1
	}
	return step
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func nearestSubdivision(n int) int {
	best := Subdivisions[0]
	for _, d := range Subdivisions {
		if abs(n-d) <= abs(n-best) {
			best = d
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
