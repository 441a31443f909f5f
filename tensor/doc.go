// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float32 tensors the framework
// computes with.
//
// # Overview
//
// Tensors are row-major float32 arrays with a small shape header. The
// matrix products behind Linear layers dispatch to the CPU backend,
// which picks a blocked, parallel kernel when AVX2 is available.
//
// # Basic Usage
//
//	x, err := tensor.FromRows([][]float32{
//	    {1, 2, 3},
//	    {4, 5, 6},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	w := tensor.Randn(tensor.Shape{3, 4}, rng)
//	y := x.MatMul(w) // [2, 4]
//
// Shape errors inside computations panic: they are programming errors,
// not runtime conditions to recover from. Constructors taking external
// data return errors instead.
package tensor
