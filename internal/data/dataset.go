// Package data provides labeled datasets and the task-split machinery
// for class-incremental training: a Manager partitions the class space
// into tasks and serves per-task train and test sets, optionally merged
// with rehearsal exemplars from earlier tasks.
package data

import (
	"github.com/rehearsal-ml/rehearsal/internal/common"
	"github.com/rehearsal-ml/rehearsal/internal/indexing"
)

// Source selects which underlying split a dataset is drawn from.
type Source int

const (
	// SourceTrain draws from the training split.
	SourceTrain Source = iota
	// SourceTest draws from the held-out test split.
	SourceTest
)

// String names the source.
func (s Source) String() string {
	if s == SourceTest {
		return "test"
	}
	return "train"
}

// Mode selects how a loader built on the dataset behaves: training mode
// shuffles, test mode preserves order.
type Mode int

const (
	// ModeTrain shuffles each epoch.
	ModeTrain Mode = iota
	// ModeTest iterates in stable order.
	ModeTest
)

// Dataset is a dense labeled dataset: one feature vector per row, one
// label per row.
type Dataset struct {
	Samples [][]float32
	Labels  []int32
}

// NewDataset validates that samples and labels agree in length.
func NewDataset(samples [][]float32, labels []int32) (*Dataset, error) {
	if len(samples) != len(labels) {
		return nil, common.NewDataConsistencyError(
			"samples and labels disagree in length: %d vs %d", len(samples), len(labels))
	}
	return &Dataset{Samples: samples, Labels: labels}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Index returns sample i as a (features, label) pair, satisfying the
// generic container contract.
func (d *Dataset) Index(i int) any {
	return [2]any{d.Samples[i], d.Labels[i]}
}

// Dim returns the feature dimensionality, or 0 for an empty dataset.
func (d *Dataset) Dim() int {
	if len(d.Samples) == 0 {
		return 0
	}
	return len(d.Samples[0])
}

// Subset returns a new dataset holding the given positions. The
// underlying sample vectors are shared, not copied.
func (d *Dataset) Subset(pos []int) *Dataset {
	return &Dataset{
		Samples: indexing.Take(d.Samples, pos),
		Labels:  indexing.Take(d.Labels, pos),
	}
}

// Concat appends other's samples after d's, sharing underlying vectors.
func (d *Dataset) Concat(other *Dataset) *Dataset {
	if other == nil || other.Len() == 0 {
		return d
	}
	out := &Dataset{
		Samples: make([][]float32, 0, d.Len()+other.Len()),
		Labels:  make([]int32, 0, d.Len()+other.Len()),
	}
	out.Samples = append(append(out.Samples, d.Samples...), other.Samples...)
	out.Labels = append(append(out.Labels, d.Labels...), other.Labels...)
	return out
}

// NumClasses returns one past the highest label, the conventional class
// count for labels drawn from [0, C).
func (d *Dataset) NumClasses() int {
	max := int32(-1)
	for _, y := range d.Labels {
		if y > max {
			max = y
		}
	}
	return int(max) + 1
}

// Manager serves the per-task view of a class-incremental benchmark.
//
// Classes are presented in a fixed order; task t covers the half-open
// label range [lo, hi) with ranges disjoint across tasks.
type Manager interface {
	// NumTasks returns the number of tasks in the schedule.
	NumTasks() int

	// TaskSize returns the number of new classes task t introduces.
	TaskSize(t int) (int, error)

	// Dataset returns the samples whose labels fall in [lo, hi) from the
	// requested source, optionally concatenated with appendent (rehearsal
	// exemplars from earlier classes). Mode is carried through so loaders
	// built on the result know whether to shuffle.
	Dataset(lo, hi int, source Source, mode Mode, appendent *Dataset) (*Dataset, error)
}
