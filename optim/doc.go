// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training.
//
// # Overview
//
// This package contains:
//   - SGD: stochastic gradient descent with momentum and weight decay
//   - MultiStepLR: milestone-based learning rate decay
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	optimizer := optim.NewSGD(
//	    model.Parameters(),
//	    optim.SGDConfig{
//	        LR:       0.1,
//	        Momentum: 0.9,
//	    },
//	)
//	scheduler, err := optim.NewMultiStepLR(optimizer, []int{60, 80}, 0.1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for epoch := 1; epoch <= numEpochs; epoch++ {
//	    for _, batch := range batches {
//	        optimizer.ZeroGrad()
//	        // ... forward, backward ...
//	        optimizer.Step()
//	    }
//	    scheduler.Step()
//	}
//
// Optimizers live for one training phase: the incremental learner
// creates a fresh one per task.
package optim
