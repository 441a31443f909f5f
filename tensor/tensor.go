// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Tensor is a dense row-major float32 tensor.
type Tensor = tensor.Tensor

// Shape describes tensor dimensions.
type Shape = tensor.Shape

// New creates a zero-filled tensor of the given shape.
func New(shape Shape) *Tensor {
	return tensor.New(shape)
}

// FromSlice wraps data in a tensor of the given shape without copying.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromRows builds a [len(rows), len(rows[0])] tensor, copying the rows.
func FromRows(rows [][]float32) (*Tensor, error) {
	return tensor.FromRows(rows)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a one-filled tensor.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	return tensor.Full(shape, value)
}

// Randn creates a tensor of standard normal samples drawn from rng.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	return tensor.Randn(shape, rng)
}
