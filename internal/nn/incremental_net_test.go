package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

func newTestNet(t *testing.T) *IncrementalNet {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	backbone, featDim := NewMLP(8, []int{16}, rng)
	return NewIncrementalNet(backbone, featDim, rng)
}

func TestIncrementalNet_UpdateFCWidth(t *testing.T) {
	net := newTestNet(t)

	assert.Equal(t, 0, net.Classes())

	net.UpdateFC(10)
	assert.Equal(t, 10, net.Classes())

	net.UpdateFC(20)
	assert.Equal(t, 20, net.Classes())
}

// Expansion must preserve existing output-unit weights bit for bit.
func TestIncrementalNet_UpdateFCPreservesWeights(t *testing.T) {
	net := newTestNet(t)
	net.UpdateFC(10)

	oldW := net.fc.Weight().Tensor().Clone()
	oldB := net.fc.Bias().Tensor().Clone()

	net.UpdateFC(15)

	newW := net.fc.Weight().Tensor()
	newB := net.fc.Bias().Tensor()
	for i := 0; i < 10; i++ {
		assert.Equal(t, oldW.Row(i), newW.Row(i), "weight row %d changed on expansion", i)
	}
	assert.Equal(t, oldB.Data()[:10], newB.Data()[:10])
}

func TestIncrementalNet_ForwardShapes(t *testing.T) {
	net := newTestNet(t)
	net.UpdateFC(5)

	x := tensor.Randn(tensor.Shape{3, 8}, rand.New(rand.NewSource(1)))
	out := net.Forward(x)

	require.True(t, out.Logits.Shape().Equal(tensor.Shape{3, 5}))
	require.True(t, out.Features.Shape().Equal(tensor.Shape{3, 16}))
	assert.Equal(t, 16, net.FeatureDim())
}

func TestIncrementalNet_InferMatchesEvalForward(t *testing.T) {
	net := newTestNet(t)
	net.UpdateFC(5)
	net.SetTraining(false)

	x := tensor.Randn(tensor.Shape{4, 8}, rand.New(rand.NewSource(2)))

	fwd := net.Forward(x)
	inf := net.InferLogits(x)

	assert.Equal(t, fwd.Logits.Data(), inf.Data())
}

func TestDERNet_ExpansionAndFreezing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	factory := func(r *rand.Rand) (*Sequential, int) {
		return NewMLP(6, []int{4}, r)
	}
	net := NewDERNet(factory, rng)

	net.UpdateFC(3)
	assert.Equal(t, 1, net.TaskCount())
	assert.Equal(t, 4, net.FeatureDim())

	oldW := net.fc.Weight().Tensor().Clone()
	oldB := net.fc.Bias().Tensor().Clone()

	net.UpdateFC(6)
	assert.Equal(t, 2, net.TaskCount())
	assert.Equal(t, 8, net.FeatureDim())
	assert.Equal(t, 6, net.Classes())

	// Old class rows keep their old-column weights.
	newW := net.fc.Weight().Tensor()
	for i := 0; i < 3; i++ {
		assert.Equal(t, oldW.Row(i), newW.Row(i)[:4], "old weight block changed for class %d", i)
	}
	assert.Equal(t, oldB.Data()[:3], net.fc.Bias().Tensor().Data()[:3])

	// First backbone is frozen: trainable params did not double.
	total := CountParameters(net.Parameters(), false)
	trainable := CountParameters(net.Parameters(), true)
	assert.Less(t, trainable, total)
	assert.Greater(t, trainable, 0)

	x := tensor.Randn(tensor.Shape{2, 6}, rng)
	out := net.Forward(x)
	require.True(t, out.Logits.Shape().Equal(tensor.Shape{2, 6}))
	require.True(t, out.Features.Shape().Equal(tensor.Shape{2, 8}))
}

func TestDataParallel_MatchesSequential(t *testing.T) {
	net := newTestNet(t)
	net.UpdateFC(7)
	net.SetTraining(false)

	x := tensor.Randn(tensor.Shape{65, 8}, rand.New(rand.NewSource(3)))
	want := net.InferLogits(x)

	dp := NewDataParallel(net, 4)
	got := dp.InferLogits(x)

	assert.Equal(t, want.Data(), got.Data())
	assert.Same(t, net, dp.Module())

	feats := dp.InferFeatures(x)
	assert.True(t, feats.Shape().Equal(tensor.Shape{65, 16}))
}
