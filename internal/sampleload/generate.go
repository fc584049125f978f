package sampleload

import (
	"math"
	"math/rand"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

// Kind is a synthesized drum used when no sample file is available.
type Kind int

const (
	Kick Kind = iota
	Snare
	ClosedHat
	OpenHat
	Clap
	Tom
	Rim
)

func (k Kind) String() string {
	switch k {
	case Kick:
		return "kick"
	case Snare:
		return "snare"
	case ClosedHat:
		return "closed hat"
	case OpenHat:
		return "open hat"
	case Clap:
		return "clap"
	case Tom:
		return "tom"
	case Rim:
		return "rim"
	}
	return "unknown"
}

func (k Kind) keywords() []string {
	switch k {
	case Kick:
		return []string{"kick", "bd", "bass"}
	case Snare:
		return []string{"snare", "sd"}
	case ClosedHat:
		return []string{"hat", "hh", "ch"}
	case OpenHat:
		return []string{"open", "oh"}
	case Clap:
		return []string{"clap", "cp"}
	case Tom:
		return []string{"tom"}
	case Rim:
		return []string{"rim", "stick"}
	}
	return nil
}

// Generate renders a short mono hit. Noise is seeded per kind so the result
// is the same on every call.
func Generate(k Kind, sampleRate int) *voice.Buffer {
	sr := float64(sampleRate)
	rng := rand.New(rand.NewSource(int64(k) + 1))
	var dur float64
	switch k {
	case Kick, Tom:
		dur = 0.5
	case OpenHat:
		dur = 0.4
	case Snare, Clap:
		dur = 0.25
	default:
		dur = 0.08
	}
	n := int(sr * dur)
	out := make([]float32, n)
	var phase float64
	for i := range out {
		t := float64(i) / float64(n)
		var v float64
		switch k {
		case Kick:
			// decaying sine with a downward bend
			phase += 2 * math.Pi * (150 - 100*t) / sr
			v = math.Sin(phase) * math.Exp(-5*t)
		case Tom:
			phase += 2 * math.Pi * (220 - 60*t) / sr
			v = 0.85*math.Sin(phase)*math.Exp(-6*t) + (rng.Float64()*2-1)*0.1*math.Exp(-40*t)
		case Snare:
			phase += 2 * math.Pi * 180 / sr
			v = 0.4*math.Sin(phase)*math.Exp(-12*t) + 0.6*(rng.Float64()*2-1)*math.Exp(-8*t)
		case Clap:
			burst := math.Mod(t*dur, 0.012) < 0.006 && t*dur < 0.036
			amp := math.Exp(-10 * t)
			if burst {
				amp = 1
			}
			v = (rng.Float64()*2 - 1) * amp * 0.7
		case ClosedHat, OpenHat:
			v = (rng.Float64()*2 - 1) * math.Exp(-6*t) * 0.5
		case Rim:
			phase += 2 * math.Pi * 1700 / sr
			v = math.Sin(phase) * math.Exp(-30*t)
		}
		out[i] = float32(v)
	}
	return voice.NewBuffer(k.String(), sampleRate, out)
}
