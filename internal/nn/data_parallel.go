package nn

import (
	"github.com/rehearsal-ml/rehearsal/internal/parallel"
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// DataParallel wraps a Network and shards its pure inference passes
// (InferLogits, InferFeatures) across goroutines, one contiguous row
// range per worker. The training path stays sequential: gradient steps
// mutate shared parameters and have exactly one writer.
//
// The orchestrator wraps the network for a task's training phase and
// must unwrap it (Module) before memory selection or any other use.
type DataParallel struct {
	inner Network
	cfg   parallel.Config
}

// NewDataParallel wraps inner with replicas inference workers.
func NewDataParallel(inner Network, replicas int) *DataParallel {
	return &DataParallel{
		inner: inner,
		cfg: parallel.Config{
			Enabled:      replicas > 1,
			NumWorkers:   replicas,
			MinChunkSize: 1,
		},
	}
}

// Module returns the wrapped single-replica network.
func (d *DataParallel) Module() Network {
	return d.inner
}

// InferLogits shards the batch rows across workers.
func (d *DataParallel) InferLogits(input *tensor.Tensor) *tensor.Tensor {
	return d.sharded(input, d.inner.Classes(), d.inner.InferLogits)
}

// InferFeatures shards the batch rows across workers.
func (d *DataParallel) InferFeatures(input *tensor.Tensor) *tensor.Tensor {
	return d.sharded(input, d.inner.FeatureDim(), d.inner.InferFeatures)
}

func (d *DataParallel) sharded(input *tensor.Tensor, outCols int, run func(*tensor.Tensor) *tensor.Tensor) *tensor.Tensor {
	rows, cols := input.Rows(), input.Cols()
	out := tensor.New(tensor.Shape{rows, outCols})
	parallel.ForRanges(rows, func(start, end int) {
		chunk, err := tensor.FromSlice(input.Data()[start*cols:end*cols], tensor.Shape{end - start, cols})
		if err != nil {
			panic(err)
		}
		res := run(chunk)
		copy(out.Data()[start*outCols:end*outCols], res.Data())
	}, d.cfg)
	return out
}

// Forward delegates to the wrapped network (sequential training path).
func (d *DataParallel) Forward(input *tensor.Tensor) Output {
	return d.inner.Forward(input)
}

// Backward delegates to the wrapped network.
func (d *DataParallel) Backward(dLogits *tensor.Tensor) {
	d.inner.Backward(dLogits)
}

// UpdateFC delegates to the wrapped network.
func (d *DataParallel) UpdateFC(totalClasses int) {
	d.inner.UpdateFC(totalClasses)
}

// Parameters delegates to the wrapped network.
func (d *DataParallel) Parameters() []*Parameter {
	return d.inner.Parameters()
}

// SetTraining delegates to the wrapped network.
func (d *DataParallel) SetTraining(training bool) {
	d.inner.SetTraining(training)
}

// FeatureDim delegates to the wrapped network.
func (d *DataParallel) FeatureDim() int {
	return d.inner.FeatureDim()
}

// Classes delegates to the wrapped network.
func (d *DataParallel) Classes() int {
	return d.inner.Classes()
}

// Modules delegates to the wrapped network.
func (d *DataParallel) Modules() []Module {
	return d.inner.Modules()
}
