package audio

import (
	"math"

	"github.com/verte-zerg/dualtask/internal/model"
)

// Oddball tone parameters.
const (
	NormalHz      = 523.25 // C5
	DeviantHz     = 880.00 // A5
	ToneSeconds   = 0.2
	ToneRate      = 44100
	toneAmplitude = 0.8
)

// Tone synthesizes a sine tone. The first and last 5 ms are ramped to
// avoid clicks.
func Tone(freq, seconds float64, rate int) Buffer {
	n := sampleCount(seconds, rate)
	ramp := min(n/2, rate/200)
	samples := make([]int16, n)
	for i := range samples {
		gain := toneAmplitude
		switch {
		case i < ramp:
			gain *= float64(i) / float64(ramp)
		case i >= n-ramp:
			gain *= float64(n-1-i) / float64(ramp)
		}
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
		samples[i] = int16(math.Round(v * gain * math.MaxInt16))
	}
	return Buffer{Samples: samples, Rate: rate}
}

// ToneFor returns the tone of an oddball type.
func ToneFor(t model.ToneType) Buffer {
	if t == model.ToneDeviant {
		return Tone(DeviantHz, ToneSeconds, ToneRate)
	}
	return Tone(NormalHz, ToneSeconds, ToneRate)
}
