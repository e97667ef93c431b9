package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireWAV checks the canonical header and returns the decoded samples.
func requireWAV(t *testing.T, data []byte) []int16 {
	t.Helper()

	require.GreaterOrEqual(t, len(data), wavHeaderSize)
	require.Equal(t, "RIFF", string(data[0:4]))
	require.Equal(t, "WAVE", string(data[8:12]))
	require.Equal(t, "fmt ", string(data[12:16]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))
	require.Equal(t, uint32(sampleRate), binary.LittleEndian.Uint32(data[24:28]))
	require.Equal(t, uint16(bitsPerSample), binary.LittleEndian.Uint16(data[34:36]))
	require.Equal(t, "data", string(data[36:40]))

	dataSize := binary.LittleEndian.Uint32(data[40:44])
	require.Equal(t, len(data)-wavHeaderSize, int(dataSize))
	require.Equal(t, uint32(len(data)-8), binary.LittleEndian.Uint32(data[4:8]))

	samples := make([]int16, dataSize/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[wavHeaderSize+2*i:])) //nolint:gosec // PCM reinterpretation.
	}

	return samples
}

// peak returns the largest absolute sample in a window.
func peak(samples []int16) float64 {
	var top float64
	for _, s := range samples {
		top = math.Max(top, math.Abs(float64(s)))
	}

	return top / math.MaxInt16
}

// TestAlarmTone is one second long with sound then silence.
func TestAlarmTone(t *testing.T) {
	t.Parallel()

	samples := requireWAV(t, AlarmTone())
	require.InDelta(t, sampleRate, len(samples), 2)

	first := samples[:sampleRate/4]
	require.InDelta(t, alarmGain, peak(first), 0.01)

	tail := samples[len(samples)-sampleRate/4:]
	require.Zero(t, peak(tail))
}

// TestChimeTone lasts 0.3s and decays from 0.3 towards 0.01.
func TestChimeTone(t *testing.T) {
	t.Parallel()

	samples := requireWAV(t, ChimeTone())
	require.Len(t, samples, int(chimeLength*sampleRate))

	window := sampleRate / 100
	head := peak(samples[:window])
	tail := peak(samples[len(samples)-window:])

	require.InDelta(t, chimeStartGain, head, 0.02)
	require.Less(t, tail, 0.02)
	require.Greater(t, head, tail)
}

// TestExponentialRamp hits both ends.
func TestExponentialRamp(t *testing.T) {
	t.Parallel()

	require.InDelta(t, chimeStartHz, exponentialRamp(chimeStartHz, chimeEndHz, 0), 1e-9)
	require.InDelta(t, chimeEndHz, exponentialRamp(chimeStartHz, chimeEndHz, 1), 1e-9)
	require.InDelta(t, math.Sqrt(chimeStartHz*chimeEndHz), exponentialRamp(chimeStartHz, chimeEndHz, 0.5), 1e-9)
}
