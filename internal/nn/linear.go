package nn

import (
	"fmt"
	"math/rand"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W.T + b, with
// x [batch, in_features], W [out_features, in_features] and
// b [out_features].
//
// Weights use Xavier initialization, biases start at zero.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]

	input *tensor.Tensor // Cached by Forward for the backward pass.
}

// NewLinear creates a Linear layer with Xavier-initialized weights.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng)
	bias := tensor.New(tensor.Shape{outFeatures})

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
	}
}

// Forward computes y = x @ W.T + b and caches x for Backward.
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	l.input = input
	return l.apply(input)
}

// Infer computes the layer output without touching any caches.
func (l *Linear) Infer(input *tensor.Tensor) *tensor.Tensor {
	return l.apply(input)
}

func (l *Linear) apply(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear: expected input [batch, %d], got shape %v", l.inFeatures, shape))
	}

	out := input.MatMulTransB(l.weight.Tensor())
	bias := l.bias.Tensor().Data()
	data := out.Data()
	for i := 0; i < out.Rows(); i++ {
		row := data[i*l.outFeatures : (i+1)*l.outFeatures]
		for j := range row {
			row[j] += bias[j]
		}
	}
	return out
}

// Backward accumulates dW = dY.T @ X and dB = column-sum(dY), and
// returns dX = dY @ W.
func (l *Linear) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if l.input == nil {
		panic("Linear: Backward called before Forward")
	}

	dW := grad.MatMulTransA(l.input) // [out, in]
	dB := grad.SumRows()             // [out]

	l.weight.AccumGrad(dW)
	l.bias.AccumGrad(dB)

	return grad.MatMul(l.weight.Tensor()) // [batch, in]
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the input width.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output width.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
