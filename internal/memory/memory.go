// Package memory implements the bounded rehearsal buffer of a
// class-incremental learner: a per-class set of exemplars chosen by
// herding, shrunk as new classes arrive so the whole buffer stays within
// budget.
package memory

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/rehearsal-ml/rehearsal/internal/common"
	"github.com/rehearsal-ml/rehearsal/internal/data"
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Policy fixes how the per-class quota is derived.
type Policy int

const (
	// PolicyFixedTotal divides a fixed total budget evenly across all
	// classes seen so far; the quota shrinks as classes accumulate.
	PolicyFixedTotal Policy = iota
	// PolicyPerClass keeps a constant number of exemplars per class; the
	// buffer grows linearly with the class count.
	PolicyPerClass
)

// Extractor maps a [n, dim] input batch to its [n, featDim] feature
// representation. Rebuild uses the freshly trained model's extractor so
// exemplars are chosen in the current feature space.
type Extractor func(x *tensor.Tensor) (*tensor.Tensor, error)

// Store holds the rehearsal exemplars, grouped per class in herding
// order: truncating a class list to any prefix keeps the best-herded
// exemplars.
type Store struct {
	policy  Policy
	total   int // PolicyFixedTotal budget.
	per     int // PolicyPerClass quota.
	log     zerolog.Logger
	byClass [][][]float32
}

// New validates that exactly one budget policy is active: memorySize > 0
// selects PolicyFixedTotal, memoryPerClass > 0 selects PolicyPerClass.
// Setting both, or neither, is a ConfigurationError.
func New(memorySize, memoryPerClass int, log zerolog.Logger) (*Store, error) {
	switch {
	case memorySize > 0 && memoryPerClass > 0:
		return nil, common.NewConfigurationError("memory",
			"memory_size (%d) and memory_per_class (%d) are mutually exclusive", memorySize, memoryPerClass)
	case memorySize > 0:
		return &Store{policy: PolicyFixedTotal, total: memorySize, log: log}, nil
	case memoryPerClass > 0:
		return &Store{policy: PolicyPerClass, per: memoryPerClass, log: log}, nil
	default:
		return nil, common.NewConfigurationError("memory",
			"one of memory_size or memory_per_class must be positive")
	}
}

// SamplesPerClass returns the quota when totalClasses classes have been
// seen. Under PolicyFixedTotal a quota rounded down to zero is allowed
// but logged, since it silently disables rehearsal.
func (s *Store) SamplesPerClass(totalClasses int) int {
	if s.policy == PolicyPerClass {
		return s.per
	}
	if totalClasses == 0 {
		return 0
	}
	q := s.total / totalClasses
	if q == 0 {
		s.log.Warn().
			Int("memory_size", s.total).
			Int("total_classes", totalClasses).
			Msg("per-class exemplar quota rounded down to zero; rehearsal is effectively disabled")
	}
	return q
}

// NumClasses returns the number of classes with stored exemplars.
func (s *Store) NumClasses() int {
	return len(s.byClass)
}

// Size returns the total number of stored exemplars.
func (s *Store) Size() int {
	n := 0
	for _, ex := range s.byClass {
		n += len(ex)
	}
	return n
}

// Exemplars flattens the buffer into a dataset for use as a rehearsal
// appendent. Returns nil when the buffer is empty.
func (s *Store) Exemplars() *data.Dataset {
	n := s.Size()
	if n == 0 {
		return nil
	}
	samples := make([][]float32, 0, n)
	labels := make([]int32, 0, n)
	for c, ex := range s.byClass {
		for _, x := range ex {
			samples = append(samples, x)
			labels = append(labels, int32(c))
		}
	}
	return &data.Dataset{Samples: samples, Labels: labels}
}

// Rebuild recomputes the buffer after a task finished training classes
// [known, total): existing class lists are truncated to the new quota
// (herding order makes the prefix the right subset), and each new class
// is herded from its training samples in the extractor's feature space.
//
// The store is only mutated once every class succeeded; an error leaves
// the previous buffer intact.
func (s *Store) Rebuild(dm data.Manager, extract Extractor, known, total int) error {
	if known < 0 || total < known {
		return common.NewStateError("memory rebuild", "invalid class range [%d, %d)", known, total)
	}
	quota := s.SamplesPerClass(total)

	next := make([][][]float32, total)

	// Old classes shrink to the new quota.
	for c := 0; c < known && c < len(s.byClass); c++ {
		keep := quota
		if keep > len(s.byClass[c]) {
			keep = len(s.byClass[c])
		}
		next[c] = s.byClass[c][:keep]
	}

	// New classes are herded fresh.
	for c := known; c < total; c++ {
		ds, err := dm.Dataset(c, c+1, data.SourceTrain, data.ModeTest, nil)
		if err != nil {
			return err
		}
		chosen, err := herd(ds.Samples, extract, quota)
		if err != nil {
			return err
		}
		next[c] = chosen
	}

	s.byClass = next
	s.log.Info().
		Int("known_classes", known).
		Int("total_classes", total).
		Int("per_class", quota).
		Int("exemplars", s.Size()).
		Msg("rehearsal memory rebuilt")
	return nil
}

// herd greedily selects up to quota samples whose running feature mean
// tracks the class feature mean, the iCaRL selection rule.
func herd(samples [][]float32, extract Extractor, quota int) ([][]float32, error) {
	if quota <= 0 || len(samples) == 0 {
		return nil, nil
	}
	if quota > len(samples) {
		quota = len(samples)
	}

	x, err := tensor.FromRows(samples)
	if err != nil {
		return nil, err
	}
	feats, err := extract(x)
	if err != nil {
		return nil, err
	}

	n := feats.Rows()
	d := feats.Cols()
	mean := make([]float64, d)
	for i := 0; i < n; i++ {
		row := feats.Row(i)
		for j := 0; j < d; j++ {
			mean[j] += float64(row[j])
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	selected := make([]int, 0, quota)
	taken := make([]bool, n)
	sum := make([]float64, d)

	for k := 1; k <= quota; k++ {
		best := -1
		bestDist := math.Inf(1)
		for i := 0; i < n; i++ {
			if taken[i] {
				continue
			}
			row := feats.Row(i)
			var dist float64
			for j := 0; j < d; j++ {
				diff := mean[j] - (sum[j]+float64(row[j]))/float64(k)
				dist += diff * diff
			}
			if dist < bestDist {
				bestDist = dist
				best = i
			}
		}
		row := feats.Row(best)
		for j := 0; j < d; j++ {
			sum[j] += float64(row[j])
		}
		taken[best] = true
		selected = append(selected, best)
	}

	out := make([][]float32, len(selected))
	for i, idx := range selected {
		out[i] = samples[idx]
	}
	return out, nil
}
