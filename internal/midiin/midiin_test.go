package midiin

import (
	"context"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
)

type recordingSink struct {
	hits []Hit
}

func (s *recordingSink) Pad(track, velocity int) bool {
	s.hits = append(s.hits, Hit{Track: track, Velocity: velocity})
	return true
}

func TestTranslateGMNotes(t *testing.T) {
	tr := NewTranslator()
	hit, ok := tr.Translate(midi.NoteOn(9, 38, 100))
	if !ok || hit.Track != 1 || hit.Velocity != 100 {
		t.Fatalf("snare note = %+v, %v", hit, ok)
	}
	if hit, ok := tr.Translate(midi.NoteOn(0, 37, 5)); !ok || hit.Track != 15 {
		t.Fatalf("side stick = %+v, %v", hit, ok)
	}
	if _, ok := tr.Translate(midi.NoteOn(9, 60, 100)); ok {
		t.Fatalf("unmapped note translated")
	}
	if _, ok := tr.Translate(midi.NoteOff(9, 36)); ok {
		t.Fatalf("note off translated")
	}
	if _, ok := tr.Translate(midi.NoteOn(9, 36, 0)); ok {
		t.Fatalf("zero velocity note on is a note off")
	}
}

func TestTranslateChannelFilter(t *testing.T) {
	tr := NewTranslator()
	tr.Channel = 9
	if _, ok := tr.Translate(midi.NoteOn(0, 36, 100)); ok {
		t.Fatalf("note on other channel accepted")
	}
	msg := tr.Message(4, 90)
	hit, ok := tr.Translate(msg)
	if !ok || hit.Track != 4 || hit.Velocity != 90 {
		t.Fatalf("round trip through Message = %+v, %v", hit, ok)
	}
}

func TestListenForwardsUntilClosed(t *testing.T) {
	tr := NewTranslator()
	in := make(chan midi.Message, 4)
	in <- midi.NoteOn(9, 36, 127)
	in <- midi.NoteOff(9, 36)
	in <- midi.NoteOn(9, 42, 64)
	close(in)
	sink := &recordingSink{}
	if err := tr.Listen(context.Background(), in, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.hits) != 2 || sink.hits[0].Track != 0 || sink.hits[1].Track != 2 {
		t.Fatalf("hits = %+v", sink.hits)
	}
}

func TestListenStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := NewTranslator().Listen(ctx, make(chan midi.Message), &recordingSink{})
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v", err)
	}
}
