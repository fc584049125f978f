// Package sampleload decodes audio files into voice buffers.
package sampleload

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	"github.com/preslife/web-mpc-infinite-loop-sub000/internal/voice"
)

// wavFormatFloat is the WAVE_FORMAT_IEEE_FLOAT format tag.
const wavFormatFloat = 3

// LoadFile expands ~ in path, then decodes it by extension.
func LoadFile(path string) (*voice.Buffer, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expand %s", path)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrap(err, "open sample")
	}
	defer f.Close()
	return Decode(f, p)
}

// Decode picks a decoder from the extension of name, falling back to the
// RIFF header when the extension is unknown.
func Decode(r io.ReadSeeker, name string) (*voice.Buffer, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".wave":
		return DecodeWAV(r, name)
	case ".mp3":
		return DecodeMP3(r, name)
	}
	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, errors.Wrapf(err, "%s: read header", name)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "%s: rewind", name)
	}
	if bytes.Equal(head, []byte("RIFF")) {
		return DecodeWAV(r, name)
	}
	return DecodeMP3(r, name)
}

// DecodeWAV reads 8/16/24/32-bit integer or 32-bit float PCM into planar
// float32 channels.
func DecodeWAV(r io.ReadSeeker, name string) (*voice.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.Errorf("%s: not a valid WAV file", name)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: decode WAV", name)
	}
	nch := buf.Format.NumChannels
	if nch < 1 {
		return nil, errors.Errorf("%s: no channels", name)
	}
	depth := int(dec.BitDepth)
	isFloat := dec.WavAudioFormat == wavFormatFloat
	if depth == 0 || (isFloat && depth != 32) {
		return nil, errors.Errorf("%s: unsupported bit depth %d", name, depth)
	}
	scale := float32(math.Pow(2, float64(depth-1)))

	frames := len(buf.Data) / nch
	out := make([][]float32, nch)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames*nch; i++ {
		v := buf.Data[i]
		var s float32
		switch {
		case isFloat:
			s = math.Float32frombits(uint32(int32(v)))
		case depth == 8:
			s = float32(v-128) / 128 // 8-bit WAV is unsigned
		default:
			s = float32(v) / scale
		}
		out[i%nch][i/nch] = s
	}
	return voice.NewBuffer(name, buf.Format.SampleRate, out...), nil
}

// DecodeMP3 reads an MP3 stream; the decoder always yields 16-bit stereo.
func DecodeMP3(r io.Reader, name string) (*voice.Buffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: open MP3", name)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: decode MP3", name)
	}
	frames := len(raw) / 4
	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left[i] = float32(int16(uint16(raw[4*i])|uint16(raw[4*i+1])<<8)) / 32768
		right[i] = float32(int16(uint16(raw[4*i+2])|uint16(raw[4*i+3])<<8)) / 32768
	}
	return voice.NewBuffer(name, dec.SampleRate(), left, right), nil
}
