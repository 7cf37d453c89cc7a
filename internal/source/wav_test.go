package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestWAV writes a 16-bit PCM file and returns its path.
func writeTestWAV(t *testing.T, rate, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trace.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	err = enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	})
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenWAVDecodesTrace(t *testing.T) {
	const (
		rate      = 1000
		maxPCM    = 32767.0
		fullScale = 4.096
	)
	data := []int{0, 1000, -1000, 32767, -32767}
	path := writeTestWAV(t, rate, 1, data)

	w, err := OpenWAV(path, WAVConfig{})
	require.NoError(t, err)

	assert.Equal(t, float64(rate), w.SamplingRate())
	require.Equal(t, len(data), w.Len())

	for _, pcm := range data {
		v, err := w.ReadVoltage()
		require.NoError(t, err)
		assert.InDelta(t, float64(pcm)*fullScale/maxPCM, v, 1e-9)
	}
}

func TestOpenWAVCustomFullScale(t *testing.T) {
	path := writeTestWAV(t, 500, 1, []int{32767})

	w, err := OpenWAV(path, WAVConfig{FullScaleVolts: 2.5})
	require.NoError(t, err)

	v, err := w.ReadVoltage()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-4)
}

func TestWAVReadRaw(t *testing.T) {
	data := []int{12, -34, 56}
	path := writeTestWAV(t, 500, 1, data)

	w, err := OpenWAV(path, WAVConfig{})
	require.NoError(t, err)

	for _, want := range data {
		got, err := w.ReadRaw()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = w.ReadRaw()
	assert.ErrorIs(t, err, ErrEndOfRecording)
}

func TestWAVEndOfRecording(t *testing.T) {
	path := writeTestWAV(t, 500, 1, []int{1, 2, 3})

	w, err := OpenWAV(path, WAVConfig{})
	require.NoError(t, err)

	assert.Equal(t, 3, w.Buffered(), "whole trace available without pacing")

	for i := 0; i < 3; i++ {
		_, err := w.ReadVoltage()
		require.NoError(t, err)
	}

	// Exhausted: reads fail, and Buffered still reports a sample so the
	// consumer performs the failing read instead of waiting forever.
	_, err = w.ReadVoltage()
	assert.ErrorIs(t, err, ErrEndOfRecording)
	assert.Equal(t, 1, w.Buffered())
}

func TestOpenWAVRejectsStereo(t *testing.T) {
	path := writeTestWAV(t, 500, 2, []int{1, 1, 2, 2})

	_, err := OpenWAV(path, WAVConfig{})
	assert.ErrorContains(t, err, "mono")
}

func TestOpenWAVMissingFile(t *testing.T) {
	_, err := OpenWAV(filepath.Join(t.TempDir(), "nope.wav"), WAVConfig{})
	assert.Error(t, err)
}
