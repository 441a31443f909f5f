package optim

import (
	"github.com/rehearsal-ml/rehearsal/internal/nn"
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum and
// L2 weight decay:
//
//	g = grad + weight_decay * param
//	v = momentum * v + g
//	param = param - lr * v
//
// Frozen parameters (RequiresGrad() == false) and parameters without an
// accumulated gradient are skipped.
type SGD struct {
	params     []*nn.Parameter
	lr         float32
	momentum   float32
	decay      float32
	velocities map[*nn.Parameter]*tensor.Tensor
}

// SGDConfig holds SGD hyperparameters.
type SGDConfig struct {
	LR          float32 // Learning rate (default 0.01)
	Momentum    float32 // Momentum factor in [0, 1)
	WeightDecay float32 // L2 penalty coefficient
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		decay:      config.WeightDecay,
		velocities: make(map[*nn.Parameter]*tensor.Tensor),
	}
}

// Step applies one update to every trainable parameter with a gradient.
func (s *SGD) Step() {
	for _, param := range s.params {
		if !param.RequiresGrad() || param.Grad() == nil {
			continue
		}

		g := param.Grad()
		if s.decay != 0 {
			g = g.Clone()
			g.AddScaledInPlace(param.Tensor(), s.decay)
		}

		if s.momentum == 0 {
			param.Tensor().AddScaledInPlace(g, -s.lr)
			continue
		}

		v, ok := s.velocities[param]
		if !ok {
			v = tensor.New(param.Tensor().Shape())
			s.velocities[param] = v
		}
		v.ScaleInPlace(s.momentum)
		v.AddScaledInPlace(g, 1)
		param.Tensor().AddScaledInPlace(v, -s.lr)
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (s *SGD) LR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}
