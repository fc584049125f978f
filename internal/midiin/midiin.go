// Package midiin maps incoming MIDI notes onto pad triggers.
package midiin

import (
	"context"

	"gitlab.com/gomidi/midi/v2"
)

// AnyChannel makes a Translator accept notes on every channel.
const AnyChannel = -1

// GMNotes is the General MIDI drum note for each of the 16 pads.
var GMNotes = [16]uint8{
	36, 38, 42, 46, 41, 43, 45, 49,
	51, 39, 56, 75, 54, 69, 70, 37,
}

// Hit is a pad press decoded from a note-on.
type Hit struct {
	Track    int
	Velocity int
}

// Translator maps note numbers to tracks.
type Translator struct {
	Channel int
	notes   map[uint8]int
	tracks  [16]uint8
}

// NewTranslator uses the GM drum map on any channel.
func NewTranslator() *Translator {
	return NewTranslatorWithNotes(GMNotes)
}

func NewTranslatorWithNotes(notes [16]uint8) *Translator {
	t := &Translator{Channel: AnyChannel, notes: make(map[uint8]int, len(notes)), tracks: notes}
	for track, n := range notes {
		if _, dup := t.notes[n]; !dup {
			t.notes[n] = track
		}
	}
	return t
}

// Translate returns the hit for a note-on with non-zero velocity on an
// accepted channel. Everything else, including note-offs, is ignored.
func (t *Translator) Translate(msg midi.Message) (Hit, bool) {
	var ch, key, vel uint8
	if !msg.GetNoteStart(&ch, &key, &vel) {
		return Hit{}, false
	}
	if t.Channel != AnyChannel && int(ch) != t.Channel {
		return Hit{}, false
	}
	track, ok := t.notes[key]
	if !ok {
		return Hit{}, false
	}
	return Hit{Track: track, Velocity: int(vel)}, true
}

// Message builds the note-on a controller would send for track.
func (t *Translator) Message(track, velocity int) midi.Message {
	ch := uint8(0)
	if t.Channel != AnyChannel {
		ch = uint8(t.Channel)
	}
	if velocity < 1 {
		velocity = 1
	}
	if velocity > 127 {
		velocity = 127
	}
	return midi.NoteOn(ch, t.tracks[track&15], uint8(velocity))
}

// Sink receives decoded hits; the engine's Pad satisfies it.
type Sink interface {
	Pad(track, velocity int) bool
}

// Listen forwards hits from in to sink until ctx is done or in is closed.
// It returns the context error, or nil when in closes.
func (t *Translator) Listen(ctx context.Context, in <-chan midi.Message, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			if hit, ok := t.Translate(msg); ok {
				sink.Pad(hit.Track, hit.Velocity)
			}
		}
	}
}
