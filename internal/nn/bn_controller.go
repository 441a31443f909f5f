package nn

import (
	"fmt"

	"github.com/rehearsal-ml/rehearsal/internal/common"
)

// BNController snapshots and restores the running statistics of every
// BatchNorm1d layer in a module tree, so a model can be used temporarily
// without perturbing those statistics.
//
// Freeze and Unfreeze must appear in strict pairs per controller.
type BNController struct {
	backup map[string]bnSnapshot
}

type bnSnapshot struct {
	mean     []float32
	variance []float32
	tracked  int64
}

// NewBNController creates a controller with an empty backup.
func NewBNController() *BNController {
	return &BNController{backup: make(map[string]bnSnapshot)}
}

// Freeze snapshots running mean, running variance and the batch counter
// of every BatchNorm1d reachable from mods. Freezing again without an
// intervening Unfreeze is a StateError.
func (c *BNController) Freeze(mods []Module) error {
	if len(c.backup) != 0 {
		return common.NewStateError("bn freeze", "freeze called with a pending snapshot; unfreeze first")
	}
	walkBatchNorms(mods, "", func(name string, bn *BatchNorm1d) {
		c.backup[name] = bnSnapshot{
			mean:     append([]float32(nil), bn.RunningMean().Data()...),
			variance: append([]float32(nil), bn.RunningVar().Data()...),
			tracked:  bn.BatchesTracked(),
		}
	})
	return nil
}

// Unfreeze restores the snapshotted statistics and clears the backup.
// Unfreezing without a prior Freeze is a StateError.
func (c *BNController) Unfreeze(mods []Module) error {
	if len(c.backup) == 0 {
		return common.NewStateError("bn unfreeze", "no snapshot to restore; freeze first")
	}
	var restoreErr error
	walkBatchNorms(mods, "", func(name string, bn *BatchNorm1d) {
		snap, ok := c.backup[name]
		if !ok {
			restoreErr = common.NewStateError("bn unfreeze",
				"layer %q was not present at freeze time", name)
			return
		}
		copy(bn.RunningMean().Data(), snap.mean)
		copy(bn.RunningVar().Data(), snap.variance)
		bn.SetBatchesTracked(snap.tracked)
	})
	c.backup = make(map[string]bnSnapshot)
	return restoreErr
}

// walkBatchNorms visits every BatchNorm1d in the module tree with a
// dotted positional name ("0.1", "2", ...).
func walkBatchNorms(mods []Module, prefix string, visit func(name string, bn *BatchNorm1d)) {
	for i, m := range mods {
		name := fmt.Sprintf("%d", i)
		if prefix != "" {
			name = prefix + "." + name
		}
		switch v := m.(type) {
		case *BatchNorm1d:
			visit(name, v)
		case Container:
			walkBatchNorms(v.Children(), name, visit)
		}
	}
}
