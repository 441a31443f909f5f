package data

import (
	"math/rand"

	"github.com/rehearsal-ml/rehearsal/internal/common"
	"github.com/rehearsal-ml/rehearsal/internal/device"
	"github.com/rehearsal-ml/rehearsal/internal/indexing"
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Batch is one mini-batch: a [n, dim] feature tensor and its labels.
type Batch struct {
	X *tensor.Tensor
	Y []int32
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int {
	return len(b.Y)
}

// Loader yields mini-batches from a dataset. In training mode each call
// to Batches reshuffles with the loader's own seeded generator, so epoch
// order is deterministic for a given seed but varies across epochs. In
// test mode the dataset order is preserved and the final short batch is
// kept.
type Loader struct {
	dataset   *Dataset
	batchSize int
	mode      Mode
	dev       device.Config
	rng       *rand.Rand
}

// NewLoader validates the batch size and fixes the shuffle seed.
func NewLoader(ds *Dataset, batchSize int, mode Mode, seed int64, dev device.Config) (*Loader, error) {
	if batchSize <= 0 {
		return nil, common.NewConfigurationError("batch_size", "must be positive, got %d", batchSize)
	}
	if !dev.Device.IsCPU() {
		return nil, common.NewConfigurationError("device", "unsupported device %q", dev.Device)
	}
	return &Loader{
		dataset:   ds,
		batchSize: batchSize,
		mode:      mode,
		dev:       dev,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Len returns the number of samples the loader iterates over.
func (l *Loader) Len() int {
	return l.dataset.Len()
}

// Batches materializes one epoch of mini-batches.
func (l *Loader) Batches() ([]Batch, error) {
	n := l.dataset.Len()
	pos := make([]int, n)
	for i := range pos {
		pos[i] = i
	}
	if l.mode == ModeTrain {
		l.rng.Shuffle(n, func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	}

	batches := make([]Batch, 0, (n+l.batchSize-1)/l.batchSize)
	for start := 0; start < n; start += l.batchSize {
		end := start + l.batchSize
		if end > n {
			end = n
		}
		chunk := pos[start:end]

		rows := indexing.Take(l.dataset.Samples, chunk)
		x, err := tensor.FromRows(rows)
		if err != nil {
			return nil, err
		}
		placed, err := device.ToDevice(x, l.dev.Device)
		if err != nil {
			return nil, err
		}

		batches = append(batches, Batch{
			X: placed.(*tensor.Tensor),
			Y: indexing.Take(l.dataset.Labels, chunk),
		})
	}
	return batches, nil
}
