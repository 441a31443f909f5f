package data

import (
	"math"
	"math/rand"
)

// SyntheticConfig shapes a gaussian-blob benchmark: numClasses isotropic
// gaussians in dim dimensions, samplesPerClass points each, with class
// means drawn on a sphere of radius spread.
type SyntheticConfig struct {
	NumClasses      int
	Dim             int
	SamplesPerClass int
	TestPerClass    int
	Spread          float32
	Noise           float32
	Seed            int64
}

// DefaultSyntheticConfig is a small benchmark that trains in seconds.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		NumClasses:      10,
		Dim:             16,
		SamplesPerClass: 100,
		TestPerClass:    20,
		Spread:          4.0,
		Noise:           1.0,
		Seed:            1,
	}
}

// Synthetic generates train and test splits of well-separated gaussian
// clusters. Useful for end-to-end runs and tests where MNIST files are
// not available.
func Synthetic(cfg SyntheticConfig) (train, test *Dataset) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	means := make([][]float32, cfg.NumClasses)
	for c := range means {
		mean := make([]float32, cfg.Dim)
		var norm float32
		for j := range mean {
			mean[j] = float32(rng.NormFloat64())
			norm += mean[j] * mean[j]
		}
		scale := cfg.Spread / float32(math.Sqrt(float64(norm)))
		for j := range mean {
			mean[j] *= scale
		}
		means[c] = mean
	}

	sample := func(perClass int) *Dataset {
		samples := make([][]float32, 0, perClass*cfg.NumClasses)
		labels := make([]int32, 0, perClass*cfg.NumClasses)
		for c := 0; c < cfg.NumClasses; c++ {
			for i := 0; i < perClass; i++ {
				x := make([]float32, cfg.Dim)
				for j := range x {
					x[j] = means[c][j] + cfg.Noise*float32(rng.NormFloat64())
				}
				samples = append(samples, x)
				labels = append(labels, int32(c))
			}
		}
		return &Dataset{Samples: samples, Labels: labels}
	}

	return sample(cfg.SamplesPerClass), sample(cfg.TestPerClass)
}
