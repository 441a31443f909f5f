// Package ema maintains an exponential moving average of trainable
// parameters alongside the live values, for more stable evaluation.
//
// Usage during a training phase:
//
//	shadow := ema.New(net.Parameters(), 0.999)
//	shadow.Register()
//	for each step { ...; optimizer.Step(); shadow.Update() }
//	// Evaluation with averaged weights:
//	shadow.Apply()
//	evaluate(net)
//	shadow.Restore()
//
// Apply and Restore must appear in strict pairs: Apply twice without an
// intervening Restore, or Restore without a prior Apply, is a StateError.
package ema

import (
	"github.com/rehearsal-ml/rehearsal/internal/common"
	"github.com/rehearsal-ml/rehearsal/internal/nn"
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// EMA holds the shadow copies and, between Apply and Restore, the
// backed-up live values.
type EMA struct {
	params []*nn.Parameter
	decay  float32
	shadow map[*nn.Parameter]*tensor.Tensor
	backup map[*nn.Parameter]*tensor.Tensor
}

// New creates an EMA over params with the given decay in [0, 1).
// Only trainable parameters are tracked.
func New(params []*nn.Parameter, decay float32) *EMA {
	return &EMA{
		params: params,
		decay:  decay,
		shadow: make(map[*nn.Parameter]*tensor.Tensor),
		backup: make(map[*nn.Parameter]*tensor.Tensor),
	}
}

// Register snapshots the current trainable parameters as the initial
// shadow values.
func (e *EMA) Register() {
	for _, p := range e.params {
		if p.RequiresGrad() {
			e.shadow[p] = p.Tensor().Clone()
		}
	}
}

// Update folds the live values into the shadow:
//
//	shadow = decay*shadow + (1-decay)*live
//
// The direction matters: reversing it silently destroys the average.
// Updating a parameter that was never registered is a StateError.
func (e *EMA) Update() error {
	for _, p := range e.params {
		if !p.RequiresGrad() {
			continue
		}
		s, ok := e.shadow[p]
		if !ok {
			return common.NewStateError("ema update", "parameter %q not registered", p.Name())
		}
		s.ScaleInPlace(e.decay)
		s.AddScaledInPlace(p.Tensor(), 1-e.decay)
	}
	return nil
}

// Apply swaps the live parameters for the shadow values, retaining the
// originals for Restore.
func (e *EMA) Apply() error {
	if len(e.backup) != 0 {
		return common.NewStateError("ema apply", "apply called twice without restore")
	}
	for _, p := range e.params {
		if !p.RequiresGrad() {
			continue
		}
		s, ok := e.shadow[p]
		if !ok {
			return common.NewStateError("ema apply", "parameter %q not registered", p.Name())
		}
		e.backup[p] = p.Tensor().Clone()
		p.Tensor().CopyFrom(s)
	}
	return nil
}

// Restore puts the original live values back and clears the backup.
func (e *EMA) Restore() error {
	if len(e.backup) == 0 {
		return common.NewStateError("ema restore", "restore called without a prior apply")
	}
	for _, p := range e.params {
		if !p.RequiresGrad() {
			continue
		}
		b, ok := e.backup[p]
		if !ok {
			return common.NewStateError("ema restore", "no backup for parameter %q", p.Name())
		}
		p.Tensor().CopyFrom(b)
	}
	e.backup = make(map[*nn.Parameter]*tensor.Tensor)
	return nil
}
