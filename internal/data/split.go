package data

import (
	"github.com/rehearsal-ml/rehearsal/internal/common"
)

// SplitManager partitions a benchmark's class space into a task
// schedule: an initial task of initClasses classes followed by tasks of
// incClasses classes each, over the classes both splits contain.
//
// Per-class sample positions are indexed once at construction, so
// serving a task is a gather, not a scan.
type SplitManager struct {
	train *Dataset
	test  *Dataset

	taskSizes []int

	trainByClass [][]int
	testByClass  [][]int
}

// NewSplitManager builds the schedule. The initial task size may differ
// from the increment, matching benchmarks like "B50-10" (50 base classes
// then 10 per task). A zero initClasses means the schedule is uniform in
// incClasses.
func NewSplitManager(train, test *Dataset, initClasses, incClasses int) (*SplitManager, error) {
	if incClasses <= 0 {
		return nil, common.NewConfigurationError("increment", "classes per task must be positive, got %d", incClasses)
	}
	if initClasses < 0 {
		return nil, common.NewConfigurationError("init_classes", "initial task size cannot be negative, got %d", initClasses)
	}

	numClasses := train.NumClasses()
	if tc := test.NumClasses(); tc > numClasses {
		return nil, common.NewDataConsistencyError(
			"test split contains class %d beyond the training split's %d classes", tc-1, numClasses)
	}
	if initClasses == 0 {
		initClasses = incClasses
	}
	if initClasses > numClasses {
		return nil, common.NewConfigurationError("init_classes",
			"initial task wants %d classes but the benchmark has %d", initClasses, numClasses)
	}

	sizes := []int{initClasses}
	for covered := initClasses; covered < numClasses; covered += incClasses {
		n := incClasses
		if covered+n > numClasses {
			n = numClasses - covered
		}
		sizes = append(sizes, n)
	}

	return &SplitManager{
		train:        train,
		test:         test,
		taskSizes:    sizes,
		trainByClass: classIndex(train, numClasses),
		testByClass:  classIndex(test, numClasses),
	}, nil
}

func classIndex(d *Dataset, numClasses int) [][]int {
	byClass := make([][]int, numClasses)
	for i, y := range d.Labels {
		byClass[y] = append(byClass[y], i)
	}
	return byClass
}

// NumTasks returns the length of the task schedule.
func (m *SplitManager) NumTasks() int {
	return len(m.taskSizes)
}

// NumClasses returns the total number of classes across all tasks.
func (m *SplitManager) NumClasses() int {
	return len(m.trainByClass)
}

// TaskSize returns the number of classes task t introduces.
func (m *SplitManager) TaskSize(t int) (int, error) {
	if t < 0 || t >= len(m.taskSizes) {
		return 0, common.NewDataConsistencyError("task %d out of range, schedule has %d tasks", t, len(m.taskSizes))
	}
	return m.taskSizes[t], nil
}

// Dataset gathers the samples of classes [lo, hi) from the requested
// source and appends the rehearsal exemplars, if any.
func (m *SplitManager) Dataset(lo, hi int, source Source, mode Mode, appendent *Dataset) (*Dataset, error) {
	if lo < 0 || hi > len(m.trainByClass) || lo >= hi {
		return nil, common.NewDataConsistencyError(
			"class range [%d, %d) invalid for a benchmark of %d classes", lo, hi, len(m.trainByClass))
	}

	base := m.train
	byClass := m.trainByClass
	if source == SourceTest {
		base = m.test
		byClass = m.testByClass
	}

	var pos []int
	for c := lo; c < hi; c++ {
		pos = append(pos, byClass[c]...)
	}

	out := base.Subset(pos)
	return out.Concat(appendent), nil
}
