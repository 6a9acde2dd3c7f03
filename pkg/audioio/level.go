package audioio

import "math"

// ReferenceBlock is the block length VolumeNorm is calibrated to: 512
// samples, 32ms at 16kHz.
const ReferenceBlock = 512

// VolumeNorm returns the loudness of a block of PCM16 samples: the L2 norm
// of a ReferenceBlock-long block at the same RMS, with samples scaled to
// [-1, 1], times 10. The result does not depend on the block length.
//
// A full-scale sine reads about 160 and a full-scale square wave about 226.
// Speech at a desk microphone (RMS 0.05 to 0.1 of full scale) reads 11 to 23;
// room noise stays below 5.
func VolumeNorm(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return rms * math.Sqrt(ReferenceBlock) * 10
}
