// Package optim implements the optimization algorithms for the
// rehearsal training core: SGD with momentum and weight decay, plus the
// milestone-based learning-rate schedule the incremental trainer uses.
//
// Optimizers and schedulers are scoped to a single task's training
// phase: the orchestrator constructs fresh ones per task and discards
// them afterwards, so no optimizer state leaks across tasks.
package optim

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies the accumulated parameter gradients.
	Step()

	// ZeroGrad clears all parameter gradients. Call before each backward
	// pass to prevent accumulation across iterations.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float32

	// SetLR updates the learning rate; used by schedulers.
	SetLR(lr float32)
}
