// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/rehearsal-ml/rehearsal/internal/nn"
	"github.com/rehearsal-ml/rehearsal/internal/optim"
)

// Optimizer is the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with momentum and weight decay.
type SGD = optim.SGD

// SGDConfig configures SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// MultiStepLR decays the learning rate by gamma at milestone epochs.
type MultiStepLR = optim.MultiStepLR

// NewMultiStepLR creates a milestone schedule over opt.
func NewMultiStepLR(opt Optimizer, milestones []int, gamma float32) (*MultiStepLR, error) {
	return optim.NewMultiStepLR(opt, milestones, gamma)
}
