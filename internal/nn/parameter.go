package nn

import (
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Parameter represents a trainable tensor in a neural network, typically
// a layer weight or bias.
type Parameter struct {
	name         string
	tensor       *tensor.Tensor
	grad         *tensor.Tensor // Allocated lazily on first accumulation.
	requiresGrad bool
}

// NewParameter creates a trainable parameter around an initialized tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:         name,
		tensor:       t,
		requiresGrad: true,
	}
}

// Name returns the parameter name (e.g. "fc.weight").
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the accumulated gradient, or nil before the first
// backward pass since the last ZeroGrad.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// AccumGrad adds g to the accumulated gradient, allocating it on first use.
func (p *Parameter) AccumGrad(g *tensor.Tensor) {
	if p.grad == nil {
		p.grad = g.Clone()
		return
	}
	p.grad.AddScaledInPlace(g, 1)
}

// ZeroGrad clears the accumulated gradient. Call before each training
// iteration to avoid mixing gradients across batches.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// RequiresGrad reports whether the optimizer should update this
// parameter. Frozen parameters (e.g. prior-task DER backbones) return
// false.
func (p *Parameter) RequiresGrad() bool {
	return p.requiresGrad
}

// SetRequiresGrad freezes or unfreezes the parameter.
func (p *Parameter) SetRequiresGrad(requires bool) {
	p.requiresGrad = requires
}
