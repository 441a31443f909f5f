package nn

import (
	"fmt"
	"math"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// BatchNorm1d normalizes each feature over the batch dimension:
// y = gamma * (x - mean) / sqrt(var + eps) + beta.
//
// In training mode the batch statistics are used and the running
// estimates are updated with exponential momentum; in evaluation mode
// the running estimates are used and left untouched. The running
// variance update uses the unbiased batch variance, the normalization
// itself the biased one.
type BatchNorm1d struct {
	numFeatures int
	momentum    float32
	eps         float32

	gamma *Parameter // [features], initialized to ones
	beta  *Parameter // [features], initialized to zeros

	runningMean    *tensor.Tensor // [features]
	runningVar     *tensor.Tensor // [features]
	batchesTracked int64

	training bool

	// Backward caches.
	xhat   *tensor.Tensor
	invStd []float32
}

// NewBatchNorm1d creates a batch normalization layer over numFeatures
// features with momentum 0.1 and eps 1e-5.
func NewBatchNorm1d(numFeatures int) *BatchNorm1d {
	return &BatchNorm1d{
		numFeatures: numFeatures,
		momentum:    0.1,
		eps:         1e-5,
		gamma:       NewParameter("gamma", tensor.Ones(tensor.Shape{numFeatures})),
		beta:        NewParameter("beta", tensor.New(tensor.Shape{numFeatures})),
		runningMean: tensor.New(tensor.Shape{numFeatures}),
		runningVar:  tensor.Ones(tensor.Shape{numFeatures}),
		training:    true,
	}
}

// SetTraining switches between batch statistics and running statistics.
func (b *BatchNorm1d) SetTraining(training bool) {
	b.training = training
}

// Forward normalizes the input. In training mode it also updates the
// running statistics and caches what Backward needs.
func (b *BatchNorm1d) Forward(input *tensor.Tensor) *tensor.Tensor {
	b.checkShape(input)
	if !b.training {
		return b.Infer(input)
	}

	n := input.Rows()
	f := b.numFeatures
	data := input.Data()

	mean := make([]float32, f)
	variance := make([]float32, f)
	for i := 0; i < n; i++ {
		row := data[i*f : (i+1)*f]
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float32(n)
	}
	for i := 0; i < n; i++ {
		row := data[i*f : (i+1)*f]
		for j, v := range row {
			d := v - mean[j]
			variance[j] += d * d
		}
	}
	for j := range variance {
		variance[j] /= float32(n)
	}

	// Running estimates: unbiased variance, exponential momentum.
	rm := b.runningMean.Data()
	rv := b.runningVar.Data()
	unbias := float32(1)
	if n > 1 {
		unbias = float32(n) / float32(n-1)
	}
	for j := 0; j < f; j++ {
		rm[j] = (1-b.momentum)*rm[j] + b.momentum*mean[j]
		rv[j] = (1-b.momentum)*rv[j] + b.momentum*variance[j]*unbias
	}
	b.batchesTracked++

	b.invStd = make([]float32, f)
	for j := 0; j < f; j++ {
		b.invStd[j] = 1 / float32(math.Sqrt(float64(variance[j]+b.eps)))
	}

	b.xhat = tensor.New(input.Shape())
	xhat := b.xhat.Data()
	out := tensor.New(input.Shape())
	outData := out.Data()
	gamma := b.gamma.Tensor().Data()
	beta := b.beta.Tensor().Data()
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			k := i*f + j
			xhat[k] = (data[k] - mean[j]) * b.invStd[j]
			outData[k] = gamma[j]*xhat[k] + beta[j]
		}
	}
	return out
}

// Infer normalizes with the running statistics and writes no state.
func (b *BatchNorm1d) Infer(input *tensor.Tensor) *tensor.Tensor {
	b.checkShape(input)
	n := input.Rows()
	f := b.numFeatures
	data := input.Data()

	rm := b.runningMean.Data()
	rv := b.runningVar.Data()
	gamma := b.gamma.Tensor().Data()
	beta := b.beta.Tensor().Data()

	out := tensor.New(input.Shape())
	outData := out.Data()
	for j := 0; j < f; j++ {
		invStd := 1 / float32(math.Sqrt(float64(rv[j]+b.eps)))
		for i := 0; i < n; i++ {
			k := i*f + j
			outData[k] = gamma[j]*(data[k]-rm[j])*invStd + beta[j]
		}
	}
	return out
}

// Backward computes the batch-norm gradient:
//
//	dx = gamma * invStd / n * (n*dy - sum(dy) - xhat * sum(dy*xhat))
func (b *BatchNorm1d) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if b.xhat == nil {
		panic("BatchNorm1d: Backward called before a training-mode Forward")
	}

	n := grad.Rows()
	f := b.numFeatures
	dy := grad.Data()
	xhat := b.xhat.Data()

	sumDy := make([]float32, f)
	sumDyXhat := make([]float32, f)
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			k := i*f + j
			sumDy[j] += dy[k]
			sumDyXhat[j] += dy[k] * xhat[k]
		}
	}

	dGamma, err := tensor.FromSlice(append([]float32(nil), sumDyXhat...), tensor.Shape{f})
	if err != nil {
		panic(err)
	}
	dBeta, err := tensor.FromSlice(append([]float32(nil), sumDy...), tensor.Shape{f})
	if err != nil {
		panic(err)
	}
	b.gamma.AccumGrad(dGamma)
	b.beta.AccumGrad(dBeta)

	gamma := b.gamma.Tensor().Data()
	out := tensor.New(grad.Shape())
	dx := out.Data()
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			k := i*f + j
			dx[k] = gamma[j] * b.invStd[j] / float32(n) *
				(float32(n)*dy[k] - sumDy[j] - xhat[k]*sumDyXhat[j])
		}
	}
	return out
}

// Parameters returns [gamma, beta].
func (b *BatchNorm1d) Parameters() []*Parameter {
	return []*Parameter{b.gamma, b.beta}
}

// NumFeatures returns the normalized feature count.
func (b *BatchNorm1d) NumFeatures() int {
	return b.numFeatures
}

// RunningMean returns the live running-mean tensor.
func (b *BatchNorm1d) RunningMean() *tensor.Tensor {
	return b.runningMean
}

// RunningVar returns the live running-variance tensor.
func (b *BatchNorm1d) RunningVar() *tensor.Tensor {
	return b.runningVar
}

// BatchesTracked returns the number of training batches seen.
func (b *BatchNorm1d) BatchesTracked() int64 {
	return b.batchesTracked
}

// SetBatchesTracked restores the batch counter. Used by BNController.
func (b *BatchNorm1d) SetBatchesTracked(n int64) {
	b.batchesTracked = n
}

func (b *BatchNorm1d) checkShape(input *tensor.Tensor) {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != b.numFeatures {
		panic(fmt.Sprintf("BatchNorm1d: expected input [batch, %d], got shape %v", b.numFeatures, shape))
	}
}
