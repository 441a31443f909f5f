// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/rehearsal-ml/rehearsal/internal/nn"
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Module is the training-path contract every layer implements.
type Module = nn.Module

// Inferer is the pure inference path, safe for concurrent use.
type Inferer = nn.Inferer

// Trainable is implemented by layers with train/eval behavior.
type Trainable = nn.Trainable

// Container exposes a module's children for tree walks.
type Container = nn.Container

// Parameter is a named trainable tensor with an accumulated gradient.
type Parameter = nn.Parameter

// NewParameter creates a trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Sequential chains modules in order.
type Sequential = nn.Sequential

// NewSequential builds a sequential container.
func NewSequential(layers ...Module) *Sequential {
	return nn.NewSequential(layers...)
}

// Linear is a fully connected layer.
type Linear = nn.Linear

// NewLinear creates a Linear layer with Xavier-initialized weights.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// ReLU is the rectified linear activation.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// BatchNorm1d normalizes features using batch statistics in training and
// running statistics in evaluation.
type BatchNorm1d = nn.BatchNorm1d

// NewBatchNorm1d creates a BatchNorm1d layer over numFeatures.
func NewBatchNorm1d(numFeatures int) *BatchNorm1d {
	return nn.NewBatchNorm1d(numFeatures)
}

// CrossEntropyLoss is softmax cross-entropy with integer targets.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates the loss.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return nn.NewCrossEntropyLoss()
}

// Accuracy returns the fraction of rows whose argmax matches the target.
func Accuracy(logits *tensor.Tensor, targets []int32) float32 {
	return nn.Accuracy(logits, targets)
}

// Output bundles the logits and backbone features of a forward pass.
type Output = nn.Output

// Network is the growable classifier contract the orchestrator drives.
type Network = nn.Network

// IncrementalNet is a shared backbone with an expandable head.
type IncrementalNet = nn.IncrementalNet

// NewIncrementalNet wraps a backbone producing featDim-wide features.
func NewIncrementalNet(backbone *Sequential, featDim int, rng *rand.Rand) *IncrementalNet {
	return nn.NewIncrementalNet(backbone, featDim, rng)
}

// NewMLP builds a Linear -> BatchNorm1d -> ReLU stack per hidden width.
func NewMLP(inDim int, hidden []int, rng *rand.Rand) (*Sequential, int) {
	return nn.NewMLP(inDim, hidden, rng)
}

// DERNet grows one frozen backbone per task.
type DERNet = nn.DERNet

// NewDERNet creates a DERNet; factory builds one backbone per task.
func NewDERNet(factory func(rng *rand.Rand) (*Sequential, int), rng *rand.Rand) *DERNet {
	return nn.NewDERNet(factory, rng)
}

// DataParallel shards pure inference across goroutines.
type DataParallel = nn.DataParallel

// NewDataParallel wraps inner with replicas inference workers.
func NewDataParallel(inner Network, replicas int) *DataParallel {
	return nn.NewDataParallel(inner, replicas)
}

// BNController snapshots and restores batch-norm running statistics.
type BNController = nn.BNController

// NewBNController creates a controller with an empty backup.
func NewBNController() *BNController {
	return nn.NewBNController()
}

// CountParameters sums parameter element counts, optionally only the
// trainable ones.
func CountParameters(params []*Parameter, trainableOnly bool) int {
	return nn.CountParameters(params, trainableOnly)
}
