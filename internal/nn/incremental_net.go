package nn

import (
	"fmt"
	"math/rand"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Output bundles a classifier forward pass: the logits over all known
// classes and the backbone features that produced them.
type Output struct {
	Logits   *tensor.Tensor // [batch, total_classes]
	Features *tensor.Tensor // [batch, feature_dim]
}

// Network is the model contract the incremental-learning orchestrator
// drives: a feature extractor with a classifier head that can grow as
// tasks introduce new classes.
//
// UpdateFC must preserve the weights of surviving output units exactly,
// so decision boundaries learned for prior classes carry over.
type Network interface {
	// Forward runs the training path, caching activations for Backward.
	Forward(input *tensor.Tensor) Output

	// Backward propagates the logits gradient through the whole network.
	Backward(dLogits *tensor.Tensor)

	// InferLogits runs the pure inference path (safe for concurrent use).
	InferLogits(input *tensor.Tensor) *tensor.Tensor

	// InferFeatures extracts backbone features on the pure path.
	InferFeatures(input *tensor.Tensor) *tensor.Tensor

	// UpdateFC grows the classifier head to totalClasses outputs.
	UpdateFC(totalClasses int)

	// Parameters returns every parameter, frozen ones included.
	Parameters() []*Parameter

	// SetTraining switches train/eval behavior (batch norm et al).
	SetTraining(training bool)

	// FeatureDim is the width of the feature vector fed to the head.
	FeatureDim() int

	// Classes is the current classifier width (0 before the first task).
	Classes() int

	// Modules exposes the network tree for utilities such as BNController.
	Modules() []Module
}

// IncrementalNet is a single shared backbone with an expandable linear
// classifier head.
type IncrementalNet struct {
	backbone *Sequential
	featDim  int
	fc       *Linear // nil until the first UpdateFC
	rng      *rand.Rand
}

// NewIncrementalNet wraps a backbone producing featDim-wide features.
// The classifier head is created on the first UpdateFC call.
func NewIncrementalNet(backbone *Sequential, featDim int, rng *rand.Rand) *IncrementalNet {
	return &IncrementalNet{backbone: backbone, featDim: featDim, rng: rng}
}

// NewMLP builds a Linear -> BatchNorm1d -> ReLU stack per hidden width
// and returns it with its output feature dimension. This is the default
// backbone for the flat-vector datasets in this module.
func NewMLP(inDim int, hidden []int, rng *rand.Rand) (*Sequential, int) {
	if len(hidden) == 0 {
		panic("NewMLP: at least one hidden width required")
	}
	var layers []Module
	prev := inDim
	for _, h := range hidden {
		layers = append(layers,
			NewLinear(prev, h, rng),
			NewBatchNorm1d(h),
			NewReLU(),
		)
		prev = h
	}
	return NewSequential(layers...), prev
}

// Forward runs backbone and head on the training path.
func (n *IncrementalNet) Forward(input *tensor.Tensor) Output {
	n.requireHead("Forward")
	features := n.backbone.Forward(input)
	logits := n.fc.Forward(features)
	return Output{Logits: logits, Features: features}
}

// Backward propagates the logits gradient through head and backbone.
func (n *IncrementalNet) Backward(dLogits *tensor.Tensor) {
	n.requireHead("Backward")
	dFeatures := n.fc.Backward(dLogits)
	n.backbone.Backward(dFeatures)
}

// InferLogits runs the pure inference path.
func (n *IncrementalNet) InferLogits(input *tensor.Tensor) *tensor.Tensor {
	n.requireHead("InferLogits")
	return n.fc.Infer(n.backbone.Infer(input))
}

// InferFeatures extracts features on the pure inference path.
func (n *IncrementalNet) InferFeatures(input *tensor.Tensor) *tensor.Tensor {
	return n.backbone.Infer(input)
}

// UpdateFC grows the head to totalClasses outputs, copying the weights
// and biases of existing output units bit for bit.
func (n *IncrementalNet) UpdateFC(totalClasses int) {
	newFC := NewLinear(n.featDim, totalClasses, n.rng)
	if n.fc != nil {
		copyHead(n.fc, newFC)
	}
	n.fc = newFC
}

// copyHead copies the surviving output-unit rows of old into new.
func copyHead(old, fresh *Linear) {
	rows := min(old.OutFeatures(), fresh.OutFeatures())
	oldW := old.Weight().Tensor()
	newW := fresh.Weight().Tensor()
	for i := 0; i < rows; i++ {
		copy(newW.Row(i), oldW.Row(i))
	}
	copy(fresh.Bias().Tensor().Data()[:rows], old.Bias().Tensor().Data()[:rows])
}

// Parameters returns backbone and head parameters.
func (n *IncrementalNet) Parameters() []*Parameter {
	params := n.backbone.Parameters()
	if n.fc != nil {
		params = append(params, n.fc.Parameters()...)
	}
	return params
}

// SetTraining propagates the training flag.
func (n *IncrementalNet) SetTraining(training bool) {
	n.backbone.SetTraining(training)
}

// FeatureDim returns the backbone output width.
func (n *IncrementalNet) FeatureDim() int {
	return n.featDim
}

// Classes returns the current classifier width, 0 before any UpdateFC.
func (n *IncrementalNet) Classes() int {
	if n.fc == nil {
		return 0
	}
	return n.fc.OutFeatures()
}

// Modules returns the backbone and, once created, the head.
func (n *IncrementalNet) Modules() []Module {
	mods := []Module{n.backbone}
	if n.fc != nil {
		mods = append(mods, n.fc)
	}
	return mods
}

func (n *IncrementalNet) requireHead(op string) {
	if n.fc == nil {
		panic(fmt.Sprintf("IncrementalNet: %s before UpdateFC", op))
	}
}
