package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

func TestBatchNorm1d_TrainingNormalizes(t *testing.T) {
	bn := NewBatchNorm1d(2)
	x, _ := tensor.FromSlice([]float32{
		1, 10,
		3, 20,
		5, 30,
	}, tensor.Shape{3, 2})

	out := bn.Forward(x)

	// Each feature column of the output has mean ~0 and unit variance.
	for j := 0; j < 2; j++ {
		var mean, variance float64
		for i := 0; i < 3; i++ {
			mean += float64(out.At(i, j))
		}
		mean /= 3
		for i := 0; i < 3; i++ {
			d := float64(out.At(i, j)) - mean
			variance += d * d
		}
		variance /= 3
		assert.InDelta(t, 0, mean, 1e-5)
		assert.InDelta(t, 1, variance, 1e-3)
	}
	assert.Equal(t, int64(1), bn.BatchesTracked())
}

func TestBatchNorm1d_RunningStats(t *testing.T) {
	bn := NewBatchNorm1d(1)
	x, _ := tensor.FromSlice([]float32{2, 4, 6}, tensor.Shape{3, 1})

	bn.Forward(x)

	// momentum 0.1: running mean = 0.9*0 + 0.1*4 = 0.4
	assert.InDelta(t, 0.4, bn.RunningMean().At(0), 1e-5)
	// biased var = 8/3; unbiased = 4; running var = 0.9*1 + 0.1*4 = 1.3
	assert.InDelta(t, 1.3, bn.RunningVar().At(0), 1e-4)

	// Eval mode uses running stats and does not update them.
	bn.SetTraining(false)
	before := bn.RunningMean().At(0)
	y := bn.Forward(x)
	assert.Equal(t, before, bn.RunningMean().At(0))
	assert.Equal(t, int64(1), bn.BatchesTracked())

	// Eval output matches the closed form.
	want := (2 - 0.4) / float32(math.Sqrt(1.3+1e-5))
	assert.InDelta(t, want, y.At(0, 0), 1e-4)
}

func TestBatchNorm1d_BackwardNumeric(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	bn := NewBatchNorm1d(3)
	criterion := NewCrossEntropyLoss()

	x := tensor.Randn(tensor.Shape{6, 3}, rng)
	targets := []int32{0, 1, 2, 0, 1, 2}

	lossAt := func() float32 {
		// Recompute the training-mode forward (batch stats change with
		// the perturbed input of gamma/beta only, input is fixed here).
		return criterion.Forward(bn.Forward(x), targets)
	}

	criterion.Forward(bn.Forward(x), targets)
	bn.Backward(criterion.Backward())
	gGamma := append([]float32(nil), bn.gamma.Grad().Data()...)
	gBeta := append([]float32(nil), bn.beta.Grad().Data()...)

	const eps = 1e-3
	gamma := bn.gamma.Tensor().Data()
	for idx := 0; idx < 3; idx++ {
		orig := gamma[idx]
		gamma[idx] = orig + eps
		up := lossAt()
		gamma[idx] = orig - eps
		down := lossAt()
		gamma[idx] = orig

		numeric := (up - down) / (2 * eps)
		assert.InDelta(t, numeric, gGamma[idx], 5e-3, "gamma grad mismatch at %d", idx)
	}

	beta := bn.beta.Tensor().Data()
	for idx := 0; idx < 3; idx++ {
		orig := beta[idx]
		beta[idx] = orig + eps
		up := lossAt()
		beta[idx] = orig - eps
		down := lossAt()
		beta[idx] = orig

		numeric := (up - down) / (2 * eps)
		assert.InDelta(t, numeric, gBeta[idx], 5e-3, "beta grad mismatch at %d", idx)
	}
}

func TestBNController_Pairing(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	backbone, _ := NewMLP(4, []int{6}, rng)
	mods := []Module{backbone}

	ctl := NewBNController()

	// Unfreeze before freeze is a StateError.
	require.Error(t, ctl.Unfreeze(mods))

	require.NoError(t, ctl.Freeze(mods))

	// Nested freeze is a StateError.
	require.Error(t, ctl.Freeze(mods))

	require.NoError(t, ctl.Unfreeze(mods))
	// Pair completed; a new pair is allowed.
	require.NoError(t, ctl.Freeze(mods))
	require.NoError(t, ctl.Unfreeze(mods))
}

func TestBNController_RestoresStats(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	backbone, _ := NewMLP(4, []int{6}, rng)
	mods := []Module{backbone}

	// Drift the stats with one training batch.
	x := tensor.Randn(tensor.Shape{8, 4}, rng)
	backbone.Forward(x)

	var bn *BatchNorm1d
	walkBatchNorms(mods, "", func(_ string, b *BatchNorm1d) { bn = b })
	require.NotNil(t, bn)

	wantMean := append([]float32(nil), bn.RunningMean().Data()...)
	wantTracked := bn.BatchesTracked()

	ctl := NewBNController()
	require.NoError(t, ctl.Freeze(mods))

	// Perturb the model while frozen.
	backbone.Forward(tensor.Randn(tensor.Shape{8, 4}, rng))
	backbone.Forward(tensor.Randn(tensor.Shape{8, 4}, rng))

	require.NoError(t, ctl.Unfreeze(mods))

	assert.Equal(t, wantMean, bn.RunningMean().Data())
	assert.Equal(t, wantTracked, bn.BatchesTracked())
}
