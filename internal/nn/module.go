// Package nn implements the neural network building blocks for the
// rehearsal continual-learning core.
//
// This package provides:
//   - Module interface: forward, backward, parameters
//   - Parameter: trainable tensors with accumulated gradients
//   - Linear, ReLU, BatchNorm1d, Sequential
//   - CrossEntropyLoss with an analytic backward pass
//   - IncrementalNet / DERNet: classifiers with expandable heads
//   - BNController: batch-norm running-statistics freeze/restore
//   - DataParallel: forward-only inference sharding
//
// Gradients are computed by layer-local backward passes: each module
// caches what it needs during Forward and produces the input gradient in
// Backward. There is no gradient tape; the control flow of a training
// step is Forward -> loss -> Backward -> optimizer.Step, strictly
// single-threaded per network.
package nn

import (
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Forward may cache activations needed by Backward, so a module must not
// be shared across concurrent training passes. Backward accumulates
// parameter gradients and returns the gradient with respect to the
// module input.
type Module interface {
	// Forward computes the module output for a [batch, features] input.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// Backward takes the gradient of the loss with respect to the module
	// output and returns the gradient with respect to the input.
	// Must be called after a matching Forward.
	Backward(grad *tensor.Tensor) *tensor.Tensor

	// Parameters returns all trainable parameters of this module,
	// including nested ones. Empty for stateless modules.
	Parameters() []*Parameter
}

// Inferer is the side-effect-free forward capability. Modules that
// implement it guarantee Infer writes no caches and reads no batch
// statistics, which makes it safe to call concurrently. All modules in
// this package implement Inferer.
type Inferer interface {
	Infer(input *tensor.Tensor) *tensor.Tensor
}

// Trainable is implemented by modules whose behavior differs between
// training and evaluation, such as BatchNorm1d.
type Trainable interface {
	SetTraining(training bool)
}

// Container is implemented by modules that hold child modules, so
// utilities like BNController can walk a network.
type Container interface {
	Children() []Module
}

// Sequential chains modules in order.
type Sequential struct {
	layers []Module
}

// NewSequential creates a container that runs the given modules in order.
func NewSequential(layers ...Module) *Sequential {
	return &Sequential{layers: layers}
}

// Forward runs the layers in order.
func (s *Sequential) Forward(input *tensor.Tensor) *tensor.Tensor {
	x := input
	for _, l := range s.layers {
		x = l.Forward(x)
	}
	return x
}

// Backward runs the layers in reverse order.
func (s *Sequential) Backward(grad *tensor.Tensor) *tensor.Tensor {
	g := grad
	for i := len(s.layers) - 1; i >= 0; i-- {
		g = s.layers[i].Backward(g)
	}
	return g
}

// Infer runs the side-effect-free forward path. Layers that do not
// implement Inferer fall back to Forward.
func (s *Sequential) Infer(input *tensor.Tensor) *tensor.Tensor {
	x := input
	for _, l := range s.layers {
		if inf, ok := l.(Inferer); ok {
			x = inf.Infer(x)
		} else {
			x = l.Forward(x)
		}
	}
	return x
}

// Parameters returns the concatenated parameters of all layers.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, l := range s.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// SetTraining propagates the training flag to all Trainable layers.
func (s *Sequential) SetTraining(training bool) {
	for _, l := range s.layers {
		if tr, ok := l.(Trainable); ok {
			tr.SetTraining(training)
		}
	}
}

// Children returns the contained layers.
func (s *Sequential) Children() []Module {
	return s.layers
}

// Len returns the number of layers.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// CountParameters sums element counts over params; with trainableOnly it
// skips frozen parameters.
func CountParameters(params []*Parameter, trainableOnly bool) int {
	total := 0
	for _, p := range params {
		if trainableOnly && !p.RequiresGrad() {
			continue
		}
		total += p.Tensor().NumElements()
	}
	return total
}
