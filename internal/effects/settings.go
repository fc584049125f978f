package effects

import "fmt"

const (
	MinEQGain = -12
	MaxEQGain = 12

	MinFilterFreq = 20
	MaxFilterFreq = 20000
	MinFilterQ    = 0.1
	MaxFilterQ    = 20

	MinDelayTime = 0.01
	MaxDelayTime = 1.0
	MaxFeedback  = 0.9

	MinRoomSize = 0.01
	MaxRoomSize = 10
	MinDecay    = 0.1
	MaxDecay    = 10
)

type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
)

func (t FilterType) kind() biquadKind {
	switch t {
	case Highpass:
		return kindHighpass
	case Bandpass:
		return kindBandpass
	default:
		return kindLowpass
	}
}

func (t FilterType) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	}
	return fmt.Sprintf("FilterType(%d)", int(t))
}

// ParseFilterType accepts the names produced by String.
func ParseFilterType(s string) (FilterType, error) {
	switch s {
	case "lowpass", "":
		return Lowpass, nil
	case "highpass":
		return Highpass, nil
	case "bandpass":
		return Bandpass, nil
	}
	return Lowpass, fmt.Errorf("unknown filter type %q", s)
}

func (t FilterType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *FilterType) UnmarshalText(b []byte) error {
	v, err := ParseFilterType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Param is one of EQ, Filter, Delay or Reverb.
type Param interface {
	apply(s *Settings)
}

type EQ struct {
	Enabled bool    `yaml:"enabled"`
	Low     float64 `yaml:"low"`
	Mid     float64 `yaml:"mid"`
	High    float64 `yaml:"high"`
}

type Filter struct {
	Enabled bool       `yaml:"enabled"`
	Type    FilterType `yaml:"type"`
	Freq    float64    `yaml:"freq"`
	Q       float64    `yaml:"q"`
}

type Delay struct {
	Enabled  bool    `yaml:"enabled"`
	Time     float64 `yaml:"time"`
	Feedback float64 `yaml:"feedback"`
	Wet      float64 `yaml:"wet"`
}

type Reverb struct {
	Enabled  bool    `yaml:"enabled"`
	RoomSize float64 `yaml:"room_size"`
	Decay    float64 `yaml:"decay"`
	Wet      float64 `yaml:"wet"`
}

func (p EQ) apply(s *Settings)     { s.EQ = p }
func (p Filter) apply(s *Settings) { s.Filter = p }
func (p Delay) apply(s *Settings)  { s.Delay = p }
func (p Reverb) apply(s *Settings) { s.Reverb = p }

// Settings is the declarative per-track effect configuration. It is
// comparable, so callers detect changes with ==.
type Settings struct {
	EQ     EQ     `yaml:"eq"`
	Filter Filter `yaml:"filter"`
	Delay  Delay  `yaml:"delay"`
	Reverb Reverb `yaml:"reverb"`
}

func DefaultSettings() Settings {
	return Settings{
		Filter: Filter{Type: Lowpass, Freq: MaxFilterFreq, Q: 1},
		Delay:  Delay{Time: 0.25, Feedback: 0.3, Wet: 0.3},
		Reverb: Reverb{RoomSize: 2, Decay: 2, Wet: 0.3},
	}
}

// With returns s with one parameter group replaced.
func (s Settings) With(p Param) Settings {
	p.apply(&s)
	return s
}

// Clamp returns s with every value inside its range.
func (s Settings) Clamp() Settings {
	s.EQ.Low = clamp64(s.EQ.Low, MinEQGain, MaxEQGain)
	s.EQ.Mid = clamp64(s.EQ.Mid, MinEQGain, MaxEQGain)
	s.EQ.High = clamp64(s.EQ.High, MinEQGain, MaxEQGain)

	if s.Filter.Type < Lowpass || s.Filter.Type > Bandpass {
		s.Filter.Type = Lowpass
	}
	s.Filter.Freq = clamp64(s.Filter.Freq, MinFilterFreq, MaxFilterFreq)
	s.Filter.Q = clamp64(s.Filter.Q, MinFilterQ, MaxFilterQ)

	s.Delay.Time = clamp64(s.Delay.Time, MinDelayTime, MaxDelayTime)
	s.Delay.Feedback = clamp64(s.Delay.Feedback, 0, MaxFeedback)
	s.Delay.Wet = clamp64(s.Delay.Wet, 0, 1)

	s.Reverb.RoomSize = clamp64(s.Reverb.RoomSize, MinRoomSize, MaxRoomSize)
	s.Reverb.Decay = clamp64(s.Reverb.Decay, MinDecay, MaxDecay)
	s.Reverb.Wet = clamp64(s.Reverb.Wet, 0, 1)
	return s
}

// HasSends reports whether delay or reverb is enabled.
func (s Settings) HasSends() bool {
	return s.Delay.Enabled || s.Reverb.Enabled
}
