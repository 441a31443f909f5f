package optim

import (
	"github.com/rehearsal-ml/rehearsal/internal/common"
)

// MultiStepLR decays the optimizer learning rate by gamma at each
// milestone epoch. Step is called once per epoch, after training it.
type MultiStepLR struct {
	opt        Optimizer
	milestones []int
	gamma      float32
	epoch      int
	next       int // Index of the next pending milestone.
}

// NewMultiStepLR creates a milestone schedule. Milestones must be a
// non-empty, strictly increasing list of positive epoch indices;
// anything else is a ConfigurationError.
func NewMultiStepLR(opt Optimizer, milestones []int, gamma float32) (*MultiStepLR, error) {
	if len(milestones) == 0 {
		return nil, common.NewConfigurationError("milestones", "empty milestone list")
	}
	prev := 0
	for i, m := range milestones {
		if m <= prev {
			return nil, common.NewConfigurationError("milestones",
				"must be strictly increasing and positive, got %v at index %d", milestones, i)
		}
		prev = m
	}
	if gamma <= 0 || gamma > 1 {
		return nil, common.NewConfigurationError("gamma", "decay factor must be in (0, 1], got %v", gamma)
	}
	return &MultiStepLR{opt: opt, milestones: milestones, gamma: gamma}, nil
}

// Step advances one epoch and applies the decay when a milestone is
// crossed.
func (s *MultiStepLR) Step() {
	s.epoch++
	for s.next < len(s.milestones) && s.epoch >= s.milestones[s.next] {
		s.opt.SetLR(s.opt.LR() * s.gamma)
		s.next++
	}
}

// Epoch returns the number of completed epochs.
func (s *MultiStepLR) Epoch() int {
	return s.epoch
}
