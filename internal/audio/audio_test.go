package audio

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dualtask/internal/model"
)

func TestWAVRoundTrip(t *testing.T) {
	in := Buffer{Samples: []int16{0, 1, -1, math.MaxInt16, math.MinInt16}, Rate: 48000}
	var b bytes.Buffer
	require.NoError(t, WriteWAV(&b, in))
	assert.Equal(t, 44+2*len(in.Samples), b.Len())
	assert.Equal(t, "RIFF", string(b.Bytes()[:4]))

	out, err := ReadWAV(&b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Error(t, WriteWAV(&b, Buffer{}))
}

func TestToneShape(t *testing.T) {
	normal := ToneFor(model.ToneNormal)
	deviant := ToneFor(model.ToneDeviant)
	assert.Equal(t, ToneRate, normal.Rate)
	assert.Len(t, normal.Samples, 8820)
	assert.InDelta(t, ToneSeconds, deviant.Seconds(), 1e-9)
	assert.Equal(t, int16(0), normal.Samples[0])

	// A sine at f crosses zero upward about f*seconds times.
	crossings := func(b Buffer) int {
		n := 0
		for i := 1; i < len(b.Samples); i++ {
			if b.Samples[i-1] < 0 && b.Samples[i] >= 0 {
				n++
			}
		}
		return n
	}
	assert.InDelta(t, NormalHz*ToneSeconds, crossings(normal), 2)
	assert.InDelta(t, DeviantHz*ToneSeconds, crossings(deviant), 2)
}

func TestFitAndDecode(t *testing.T) {
	assert.Equal(t, []int16{1, 2, 0, 0}, fit([]int16{1, 2}, 4))
	assert.Equal(t, []int16{1}, fit([]int16{1, 2}, 1))
	assert.Equal(t, []int16{1, -2}, decodePCM16([]byte{1, 0, 0xfe, 0xff, 7}))
}

func TestSilentRecorder(t *testing.T) {
	dir := t.TempDir()
	r := &SilentRecorder{Dir: dir}
	c, err := r.Start(350.0/60.0, 48000)
	require.NoError(t, err)
	buf, err := r.Stop(c)
	require.NoError(t, err)
	assert.Len(t, buf.Samples, 280000)

	path, err := r.Persist(buf, "test_single_p01_01_7.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test_single_p01_01_7.wav"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(44+2*280000), info.Size())

	_, err = r.Persist(buf, "test_single_p01_01_7.wav")
	assert.Error(t, err, "existing recordings are never overwritten")
	_, err = r.Persist(buf, "../escape.wav")
	assert.Error(t, err)

	_, err = (&SilentRecorder{}).Persist(buf, "x.wav")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = r.Start(0, 48000)
	assert.Error(t, err)
}

func TestExecDevicesRejectMissingCommands(t *testing.T) {
	_, err := NewExecRecorder("", t.TempDir())
	assert.Error(t, err)
	_, err = NewExecRecorder("definitely-not-a-recorder-binary", t.TempDir())
	assert.Error(t, err)
	_, err = NewExecPlayer("definitely-not-a-player-binary", t.TempDir())
	assert.Error(t, err)
	assert.NoError(t, NullPlayer{}.Play(model.ToneDeviant))
}
