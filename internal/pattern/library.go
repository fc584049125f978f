package pattern

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library keeps named patterns and named chains of pattern names (songs).
type Library struct {
	Patterns map[string]*Pattern `yaml:"patterns"`
	Chains   map[string][]string `yaml:"chains,omitempty"`
}

func NewLibrary() *Library {
	return &Library{
		Patterns: map[string]*Pattern{},
		Chains:   map[string][]string{},
	}
}

// Save stores a copy of p under its name, replacing any previous entry.
func (l *Library) Save(p *Pattern) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pattern name is empty")
	}
	l.Patterns[p.Name] = p.Clone()
	return nil
}

// Get returns a copy of the named pattern.
func (l *Library) Get(name string) (*Pattern, bool) {
	p, ok := l.Patterns[name]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Delete removes a pattern. Chains that reference it are left as they are and
// fail to resolve until the pattern is saved again.
func (l *Library) Delete(name string) {
	delete(l.Patterns, name)
}

// Names returns the pattern names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.Patterns))
	for n := range l.Patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetChain stores an ordered list of pattern names. Every name must exist.
func (l *Library) SetChain(name string, patterns []string) error {
	if len(patterns) == 0 {
		return fmt.Errorf("chain %q is empty", name)
	}
	for _, p := range patterns {
		if _, ok := l.Patterns[p]; !ok {
			return fmt.Errorf("chain %q: unknown pattern %q", name, p)
		}
	}
	l.Chains[name] = append([]string(nil), patterns...)
	return nil
}

// Chain resolves a chain into copies of its patterns.
func (l *Library) Chain(name string) ([]*Pattern, error) {
	names, ok := l.Chains[name]
	if !ok {
		return nil, fmt.Errorf("unknown chain %q", name)
	}
	out := make([]*Pattern, 0, len(names))
	for _, n := range names {
		p, ok := l.Get(n)
		if !ok {
			return nil, fmt.Errorf("chain %q: unknown pattern %q", name, n)
		}
		out = append(out, p)
	}
	return out, nil
}

// Write encodes the library as YAML.
func (l *Library) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return err
	}
	return enc.Close()
}

// ReadLibrary decodes a library written by Write. Pattern names are taken
// from the map keys.
func ReadLibrary(r io.Reader) (*Library, error) {
	l := NewLibrary()
	if err := yaml.NewDecoder(r).Decode(l); err != nil {
		if err == io.EOF {
			return l, nil
		}
		return nil, err
	}
	if l.Patterns == nil {
		l.Patterns = map[string]*Pattern{}
	}
	if l.Chains == nil {
		l.Chains = map[string][]string{}
	}
	for name, p := range l.Patterns {
		if p == nil {
			p = New(name)
			l.Patterns[name] = p
		}
		p.Name = name
	}
	return l, nil
}

// trackYAML is one row: an x/. activity string and the row's velocities.
type trackYAML struct {
	Track    int    `yaml:"track"`
	Steps    string `yaml:"steps"`
	Velocity []int  `yaml:"velocity,flow"`
}

type patternYAML struct {
	Tracks []trackYAML `yaml:"tracks"`
}

// MarshalYAML writes only rows that differ from an empty default row.
func (p Pattern) MarshalYAML() (interface{}, error) {
	out := patternYAML{Tracks: []trackYAML{}}
	for t := range p.Steps {
		if isDefaultRow(p.Steps[t]) {
			continue
		}
		var sb strings.Builder
		vel := make([]int, MaxSteps)
		for s, st := range p.Steps[t] {
			if st.Active {
				sb.WriteByte('x')
			} else {
				sb.WriteByte('.')
			}
			vel[s] = st.Velocity
		}
		out.Tracks = append(out.Tracks, trackYAML{Track: t, Steps: sb.String(), Velocity: vel})
	}
	return out, nil
}

func (p *Pattern) UnmarshalYAML(node *yaml.Node) error {
	var in patternYAML
	if err := node.Decode(&in); err != nil {
		return err
	}
	*p = *New(p.Name)
	for _, row := range in.Tracks {
		if row.Track < 0 || row.Track >= NumTracks {
			return fmt.Errorf("line %d: track %d out of range", node.Line, row.Track)
		}
		if len(row.Steps) > MaxSteps || len(row.Velocity) > MaxSteps {
			return fmt.Errorf("line %d: track %d has more than %d steps", node.Line, row.Track, MaxSteps)
		}
		for s, c := range row.Steps {
			switch c {
			case 'x', 'X':
				p.Steps[row.Track][s].Active = true
			case '.', '-':
			default:
				return fmt.Errorf("line %d: track %d: bad step character %q", node.Line, row.Track, c)
			}
		}
		for s, v := range row.Velocity {
			p.Steps[row.Track][s].Velocity = ClampVelocity(v)
		}
	}
	return nil
}

func isDefaultRow(row [MaxSteps]Step) bool {
	for _, st := range row {
		if st.Active || st.Velocity != DefaultVelocity {
			return false
		}
	}
	return true
}
