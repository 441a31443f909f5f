package nn

import (
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// ReLU applies max(0, x) elementwise.
type ReLU struct {
	mask []bool // Cached by Forward: true where input > 0.
}

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward computes max(0, x) and caches the activation mask.
func (r *ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	out := input.Clone()
	data := out.Data()
	if cap(r.mask) < len(data) {
		r.mask = make([]bool, len(data))
	}
	r.mask = r.mask[:len(data)]
	for i, v := range data {
		if v > 0 {
			r.mask[i] = true
		} else {
			r.mask[i] = false
			data[i] = 0
		}
	}
	return out
}

// Infer computes max(0, x) without caching.
func (r *ReLU) Infer(input *tensor.Tensor) *tensor.Tensor {
	out := input.Clone()
	data := out.Data()
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return out
}

// Backward zeroes gradients where the forward input was non-positive.
func (r *ReLU) Backward(grad *tensor.Tensor) *tensor.Tensor {
	out := grad.Clone()
	data := out.Data()
	for i := range data {
		if !r.mask[i] {
			data[i] = 0
		}
	}
	return out
}

// Parameters returns nil: ReLU has no trainable state.
func (r *ReLU) Parameters() []*Parameter {
	return nil
}
