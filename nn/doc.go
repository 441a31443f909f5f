// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks and the growable
// classifier networks used for class-incremental learning.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, BatchNorm1d, ReLU, composed with Sequential
//   - CrossEntropyLoss with its backward pass
//   - IncrementalNet: shared backbone, expandable classifier head
//   - DERNet: one frozen backbone per task, concatenated features
//   - DataParallel: sharded inference across goroutines
//   - BNController: snapshot/restore of batch-norm running statistics
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(1))
//	backbone, featDim := nn.NewMLP(784, []int{128}, rng)
//	net := nn.NewIncrementalNet(backbone, featDim, rng)
//
//	net.UpdateFC(10) // first task: 10 classes
//
//	out := net.Forward(x)
//	loss := criterion.Forward(out.Logits, labels)
//	net.Backward(criterion.Backward())
//
// Each layer caches what its backward pass needs during Forward; Infer
// is the pure path that caches nothing and is safe for concurrent use.
package nn
