package nn

import (
	"fmt"
	"math/rand"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// DERNet implements the dynamically expandable representation: one
// backbone per task, prior-task backbones frozen, features concatenated
// and classified by a single head over the concatenation.
//
// On expansion the head's old weight block (old classes x old feature
// columns) is preserved; columns for the new backbone and rows for the
// new classes start fresh.
type DERNet struct {
	factory   func(rng *rand.Rand) (*Sequential, int)
	backbones []*Sequential
	featDim   int // Per-backbone feature width, fixed by the factory.
	fc        *Linear
	rng       *rand.Rand
}

// NewDERNet creates an expandable multi-backbone network. The factory
// must produce backbones with a stable feature width.
func NewDERNet(factory func(rng *rand.Rand) (*Sequential, int), rng *rand.Rand) *DERNet {
	return &DERNet{factory: factory, rng: rng}
}

// UpdateFC appends a fresh backbone, freezes all prior ones, and
// rebuilds the head over the widened feature concatenation while
// preserving the old weight block.
func (n *DERNet) UpdateFC(totalClasses int) {
	backbone, featDim := n.factory(n.rng)
	if n.featDim == 0 {
		n.featDim = featDim
	} else if featDim != n.featDim {
		panic(fmt.Sprintf("DERNet: factory feature width changed: %d != %d", featDim, n.featDim))
	}

	for _, old := range n.backbones {
		for _, p := range old.Parameters() {
			p.SetRequiresGrad(false)
		}
		old.SetTraining(false)
	}
	n.backbones = append(n.backbones, backbone)

	newFC := NewLinear(len(n.backbones)*n.featDim, totalClasses, n.rng)
	if n.fc != nil {
		oldClasses := min(n.fc.OutFeatures(), totalClasses)
		oldCols := n.fc.InFeatures()
		oldW := n.fc.Weight().Tensor()
		newW := newFC.Weight().Tensor()
		for i := 0; i < oldClasses; i++ {
			copy(newW.Row(i)[:oldCols], oldW.Row(i))
		}
		copy(newFC.Bias().Tensor().Data()[:oldClasses], n.fc.Bias().Tensor().Data()[:oldClasses])
	}
	n.fc = newFC
}

// Forward concatenates per-backbone features and classifies them.
func (n *DERNet) Forward(input *tensor.Tensor) Output {
	n.requireHead("Forward")
	features := n.concat(input, func(b *Sequential, x *tensor.Tensor) *tensor.Tensor {
		return b.Forward(x)
	})
	logits := n.fc.Forward(features)
	return Output{Logits: logits, Features: features}
}

// Backward propagates through the head and the newest backbone only;
// frozen backbones receive no updates and are skipped.
func (n *DERNet) Backward(dLogits *tensor.Tensor) {
	n.requireHead("Backward")
	dConcat := n.fc.Backward(dLogits)

	last := len(n.backbones) - 1
	batch := dConcat.Rows()
	slice := tensor.New(tensor.Shape{batch, n.featDim})
	for i := 0; i < batch; i++ {
		copy(slice.Row(i), dConcat.Row(i)[last*n.featDim:(last+1)*n.featDim])
	}
	n.backbones[last].Backward(slice)
}

// InferLogits runs the pure inference path.
func (n *DERNet) InferLogits(input *tensor.Tensor) *tensor.Tensor {
	n.requireHead("InferLogits")
	return n.fc.Infer(n.InferFeatures(input))
}

// InferFeatures concatenates per-backbone features on the pure path.
func (n *DERNet) InferFeatures(input *tensor.Tensor) *tensor.Tensor {
	return n.concat(input, func(b *Sequential, x *tensor.Tensor) *tensor.Tensor {
		return b.Infer(x)
	})
}

func (n *DERNet) concat(input *tensor.Tensor, run func(*Sequential, *tensor.Tensor) *tensor.Tensor) *tensor.Tensor {
	if len(n.backbones) == 0 {
		panic("DERNet: no backbones before UpdateFC")
	}
	batch := input.Rows()
	out := tensor.New(tensor.Shape{batch, len(n.backbones) * n.featDim})
	for bi, backbone := range n.backbones {
		f := run(backbone, input)
		for i := 0; i < batch; i++ {
			copy(out.Row(i)[bi*n.featDim:(bi+1)*n.featDim], f.Row(i))
		}
	}
	return out
}

// Parameters returns every backbone's parameters plus the head's,
// frozen ones included.
func (n *DERNet) Parameters() []*Parameter {
	var params []*Parameter
	for _, b := range n.backbones {
		params = append(params, b.Parameters()...)
	}
	if n.fc != nil {
		params = append(params, n.fc.Parameters()...)
	}
	return params
}

// SetTraining switches only the newest backbone; frozen backbones stay
// in evaluation mode so their normalization statistics never move.
func (n *DERNet) SetTraining(training bool) {
	if len(n.backbones) == 0 {
		return
	}
	n.backbones[len(n.backbones)-1].SetTraining(training)
}

// FeatureDim returns the concatenated feature width.
func (n *DERNet) FeatureDim() int {
	return len(n.backbones) * n.featDim
}

// Classes returns the current classifier width, 0 before any UpdateFC.
func (n *DERNet) Classes() int {
	if n.fc == nil {
		return 0
	}
	return n.fc.OutFeatures()
}

// TaskCount returns the number of backbones grown so far.
func (n *DERNet) TaskCount() int {
	return len(n.backbones)
}

// Modules returns all backbones and, once created, the head.
func (n *DERNet) Modules() []Module {
	mods := make([]Module, 0, len(n.backbones)+1)
	for _, b := range n.backbones {
		mods = append(mods, b)
	}
	if n.fc != nil {
		mods = append(mods, n.fc)
	}
	return mods
}

func (n *DERNet) requireHead(op string) {
	if n.fc == nil {
		panic(fmt.Sprintf("DERNet: %s before UpdateFC", op))
	}
}
