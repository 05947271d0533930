package audio

import (
	"bytes"
	"fmt"
	"math"

	"github.com/tosone/minimp3"
)

// FramesFromMP3 runs the full C1 MP3 pipeline described in spec §4.1:
// decode -> mono -> low-pass 3400 Hz -> high-pass 120 Hz -> resample to
// 8 kHz -> peak-normalize to -3 dBFS -> soft compression -> 8 ms fades ->
// 20 ms silent pre/post pad -> μ-law -> 160-byte frames, tail-padded to a
// full frame with silence.
func FramesFromMP3(data []byte) ([][]byte, error) {
	samples, sampleRate, channels, err := decodeMP3(data)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	mono := toMono(samples, channels)
	mono = lowPass(mono, sampleRate, 3400)
	mono = highPass(mono, sampleRate, 120)
	mono = Resample(mono, sampleRate, SampleRate)
	mono = peakNormalize(mono, -3)
	mono = softCompress(mono, -18, 2.0, msToSamples(5, SampleRate), msToSamples(50, SampleRate))
	mono = applyFades(mono, msToSamples(8, SampleRate))

	pad := msToSamples(20, SampleRate)
	mono = padSilence(mono, pad, pad)

	ulaw := PCM16ToMulaw(mono)
	ulaw = PadToFrame(ulaw)
	return SplitFrames(ulaw), nil
}

func decodeMP3(data []byte) ([]int16, int, int, error) {
	dec, err := minimp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	defer dec.Close()
	<-dec.Started

	var pcm []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	if len(pcm) < 2 {
		return nil, 0, 0, fmt.Errorf("no audio decoded")
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
	}

	sampleRate := dec.SampleRate
	channels := dec.Channels
	if sampleRate == 0 {
		sampleRate = 44100
	}
	if channels == 0 {
		channels = 1
	}
	return samples, sampleRate, channels, nil
}

func toMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	out := make([]int16, len(samples)/channels)
	for i := range out {
		var sum int32
		for c := 0; c < channels; c++ {
			sum += int32(samples[i*channels+c])
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}

// newLowPass / newHighPass build RBJ cookbook second-order filters, run as a
// single-stage biquad in direct form I.
type biquad struct {
	b0, b1, b2, a1, a2     float64
	x1, x2, y1, y2         float64
}

func (f *biquad) process(samples []int16) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		x0 := float64(s)
		y0 := f.b0*x0 + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x0
		f.y2, f.y1 = f.y1, y0
		out[i] = clampInt16(y0)
	}
	return out
}

func newLowPass(sampleRate int, cutoffHz float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / float64(sampleRate)
	alpha := math.Sin(w0) / math.Sqrt2
	cosw0 := math.Cos(w0)
	b0 := (1 - cosw0) / 2
	b1 := 1 - cosw0
	b2 := (1 - cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	return &biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func newHighPass(sampleRate int, cutoffHz float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / float64(sampleRate)
	alpha := math.Sin(w0) / math.Sqrt2
	cosw0 := math.Cos(w0)
	b0 := (1 + cosw0) / 2
	b1 := -(1 + cosw0)
	b2 := (1 + cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	return &biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func lowPass(samples []int16, sampleRate int, cutoffHz float64) []int16 {
	return newLowPass(sampleRate, cutoffHz).process(samples)
}

func highPass(samples []int16, sampleRate int, cutoffHz float64) []int16 {
	return newHighPass(sampleRate, cutoffHz).process(samples)
}

func clampInt16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

func linearToDB(lin float64) float64 {
	if lin <= 0 {
		return -120
	}
	return 20 * math.Log10(lin)
}

// peakNormalize scales samples so the loudest sample sits at targetDBFS.
func peakNormalize(samples []int16, targetDBFS float64) []int16 {
	var peak float64
	for _, s := range samples {
		a := math.Abs(float64(s))
		if a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return samples
	}
	currentDB := linearToDB(peak / math.MaxInt16)
	gain := dbToLinear(targetDBFS - currentDB)
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = clampInt16(float64(s) * gain)
	}
	return out
}

// softCompress applies a feed-forward compressor with the given threshold
// (dBFS), ratio, and attack/release time constants expressed in samples.
func softCompress(samples []int16, thresholdDB, ratio float64, attackSamples, releaseSamples int) []int16 {
	threshold := dbToLinear(thresholdDB) * math.MaxInt16
	out := make([]int16, len(samples))
	envelope := 0.0
	attackCoeff := timeConstant(attackSamples)
	releaseCoeff := timeConstant(releaseSamples)
	for i, s := range samples {
		level := math.Abs(float64(s))
		if level > envelope {
			envelope = attackCoeff*envelope + (1-attackCoeff)*level
		} else {
			envelope = releaseCoeff*envelope + (1-releaseCoeff)*level
		}
		gain := 1.0
		if envelope > threshold {
			over := envelope - threshold
			compressed := threshold + over/ratio
			gain = compressed / envelope
		}
		out[i] = clampInt16(float64(s) * gain)
	}
	return out
}

func timeConstant(samples int) float64 {
	if samples <= 0 {
		return 0
	}
	return math.Exp(-1.0 / float64(samples))
}

func msToSamples(ms float64, sampleRate int) int {
	return int(ms / 1000 * float64(sampleRate))
}

// applyFades ramps the first and last n samples linearly to/from silence.
func applyFades(samples []int16, n int) []int16 {
	if n <= 0 || len(samples) == 0 {
		return samples
	}
	if n > len(samples)/2 {
		n = len(samples) / 2
	}
	out := make([]int16, len(samples))
	copy(out, samples)
	for i := 0; i < n; i++ {
		g := float64(i) / float64(n)
		out[i] = clampInt16(float64(out[i]) * g)
		j := len(out) - 1 - i
		out[j] = clampInt16(float64(out[j]) * g)
	}
	return out
}

func padSilence(samples []int16, pre, post int) []int16 {
	out := make([]int16, pre+len(samples)+post)
	copy(out[pre:], samples)
	return out
}
