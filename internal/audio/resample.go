package audio

// UpsampleLinear2x converts 8 kHz PCM16 samples to 16 kHz float32 samples in
// [-1, 1] by 2x linear interpolation: each input sample is followed by the
// midpoint to its successor. The last sample has no successor and is
// repeated; the first sample appears once and is not duplicated.
func UpsampleLinear2x(samples []int16) []float32 {
	if len(samples) == 0 {
		return nil
	}
	out := make([]float32, 0, len(samples)*2)
	for i, s := range samples {
		cur := normalize(s)
		out = append(out, cur)
		var next float32
		if i+1 < len(samples) {
			next = normalize(samples[i+1])
		} else {
			next = cur
		}
		out = append(out, (cur+next)/2)
	}
	return out
}

func normalize(s int16) float32 {
	return float32(s) / 32768.0
}

// Resample converts PCM16 samples from srcRate to dstRate via linear
// interpolation. Used by the MP3 decode pipeline (C1) to bring arbitrary
// source rates down to the carrier's 8 kHz.
func Resample(samples []int16, srcRate, dstRate int) []int16 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]int16, outLen)
	for i := range outLen {
		srcIdx := float64(i) * ratio
		idx := int(srcIdx)
		frac := srcIdx - float64(idx)
		out[i] = interpolateInt16(samples, idx, frac)
	}
	return out
}

func interpolateInt16(samples []int16, idx int, frac float64) int16 {
	if idx+1 >= len(samples) {
		return samples[len(samples)-1]
	}
	a, b := float64(samples[idx]), float64(samples[idx+1])
	return int16(a*(1-frac) + b*frac)
}
