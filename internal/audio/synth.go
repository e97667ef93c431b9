package audio

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	// sampleRate is the rate of every synthesized tone.
	sampleRate = 22050
	// bitsPerSample is the PCM sample width.
	bitsPerSample = 16
	// wavHeaderSize is the size of a canonical PCM WAV header.
	wavHeaderSize = 44
)

// beep is one tone segment of the alarm pattern followed by silence.
type beep struct {
	// frequency in Hz.
	frequency float64
	// tone is how long the tone sounds.
	tone float64
	// pause is the silence after the tone.
	pause float64
}

// alarmPattern is one second of the pulsed two-tone alarm, repeated by looping.
//
//nolint:gochecknoglobals // Constant table.
var alarmPattern = []beep{
	{frequency: 880, tone: 0.25, pause: 0.05},
	{frequency: 660, tone: 0.25, pause: 0.45},
}

const (
	// alarmGain is the peak amplitude of the alarm tone.
	alarmGain = 0.8
	// fadeSeconds smooths the edges of every beep.
	fadeSeconds = 0.005

	// chimeStartHz and chimeEndHz bound the rising sweep of the task chime.
	chimeStartHz = 800.0
	chimeEndHz   = 1200.0
	// chimeSweep is how long the frequency rises.
	chimeSweep = 0.1
	// chimeStartGain and chimeEndGain bound the decaying envelope.
	chimeStartGain = 0.3
	chimeEndGain   = 0.01
	// chimeLength is the total duration of the chime.
	chimeLength = 0.3
)

// AlarmTone returns one period of the builtin alarm as a WAV file.
func AlarmTone() []byte {
	var samples []float64

	for _, b := range alarmPattern {
		toneSamples := int(b.tone * sampleRate)
		fade := int(fadeSeconds * sampleRate)

		for i := range toneSamples {
			gain := alarmGain
			if i < fade {
				gain *= float64(i) / float64(fade)
			} else if rest := toneSamples - i; rest < fade {
				gain *= float64(rest) / float64(fade)
			}

			samples = append(samples, gain*math.Sin(2*math.Pi*b.frequency*float64(i)/sampleRate))
		}

		samples = append(samples, make([]float64, int(b.pause*sampleRate))...)
	}

	return encodeWAV(samples)
}

// ChimeTone returns the task completion chime as a WAV file: an exponential
// sweep from 800 to 1200 Hz over 0.1s under a gain falling from 0.3 to 0.01
// over 0.3s.
func ChimeTone() []byte {
	total := int(chimeLength * sampleRate)
	samples := make([]float64, total)
	phase := 0.0

	for i := range total {
		t := float64(i) / sampleRate

		frequency := chimeEndHz
		if t < chimeSweep {
			frequency = exponentialRamp(chimeStartHz, chimeEndHz, t/chimeSweep)
		}

		gain := exponentialRamp(chimeStartGain, chimeEndGain, t/chimeLength)

		samples[i] = gain * math.Sin(phase)
		phase += 2 * math.Pi * frequency / sampleRate
	}

	return encodeWAV(samples)
}

// exponentialRamp interpolates from start to end at progress in [0, 1].
func exponentialRamp(start, end, progress float64) float64 {
	return start * math.Pow(end/start, progress)
}

// encodeWAV writes mono 16-bit PCM samples in [-1, 1] as a WAV file.
func encodeWAV(samples []float64) []byte {
	const (
		channels   = 1
		blockAlign = channels * bitsPerSample / 8
		pcmFormat  = 1
		fmtSize    = 16
	)

	dataSize := uint32(len(samples) * blockAlign) //nolint:gosec // Tones are a few seconds long.

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+int(dataSize)))

	buf.WriteString("RIFF")
	writeLE(buf, uint32(wavHeaderSize-8)+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeLE(buf, uint32(fmtSize))
	writeLE(buf, uint16(pcmFormat))
	writeLE(buf, uint16(channels))
	writeLE(buf, uint32(sampleRate))
	writeLE(buf, uint32(sampleRate*blockAlign))
	writeLE(buf, uint16(blockAlign))
	writeLE(buf, uint16(bitsPerSample))
	buf.WriteString("data")
	writeLE(buf, dataSize)

	for _, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		writeLE(buf, int16(math.Round(s*math.MaxInt16)))
	}

	return buf.Bytes()
}

// writeLE appends a fixed-size little-endian value; bytes.Buffer writes never fail.
func writeLE(buf *bytes.Buffer, v any) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}
