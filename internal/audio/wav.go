// Package audio provides tone synthesis, WAV encoding, and capture and
// playback devices backed by external commands.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Buffer holds mono 16-bit PCM samples.
type Buffer struct {
	Samples []int16
	Rate    int
}

// Seconds returns the buffer duration.
func (b Buffer) Seconds() float64 {
	if b.Rate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.Rate)
}

type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

// WriteWAV encodes b as a canonical 44-byte-header PCM WAV stream.
func WriteWAV(w io.Writer, b Buffer) error {
	if b.Rate <= 0 {
		return fmt.Errorf("invalid sample rate %d", b.Rate)
	}
	dataSize := uint32(len(b.Samples) * 2)
	h := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		Channels:      1,
		SampleRate:    uint32(b.Rate),
		ByteRate:      uint32(b.Rate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, b.Samples)
}

// ReadWAV decodes a stream written by WriteWAV.
func ReadWAV(r io.Reader) (Buffer, error) {
	var h wavHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Buffer{}, fmt.Errorf("read wav header: %w", err)
	}
	if string(h.RIFF[:]) != "RIFF" || string(h.WAVE[:]) != "WAVE" || string(h.Data[:]) != "data" {
		return Buffer{}, fmt.Errorf("not a canonical wav stream")
	}
	if h.AudioFormat != 1 || h.Channels != 1 || h.BitsPerSample != 16 {
		return Buffer{}, fmt.Errorf("unsupported wav format %d/%dch/%dbit", h.AudioFormat, h.Channels, h.BitsPerSample)
	}
	samples := make([]int16, h.DataSize/2)
	if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
		return Buffer{}, fmt.Errorf("read wav data: %w", err)
	}
	return Buffer{Samples: samples, Rate: int(h.SampleRate)}, nil
}

// decodePCM16 converts raw little-endian samples, dropping a trailing odd byte.
func decodePCM16(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return out
}

// fit pads with silence or truncates samples to n.
func fit(samples []int16, n int) []int16 {
	if len(samples) >= n {
		return samples[:n]
	}
	return append(samples, make([]int16, n-len(samples))...)
}

func sampleCount(seconds float64, rate int) int {
	return int(math.Round(seconds * float64(rate)))
}
