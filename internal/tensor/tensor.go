// Package tensor implements the dense float32 tensors used by the
// rehearsal training core.
//
// The package keeps to a single dtype and a single execution device:
// class-incremental training on fully connected networks needs nothing
// else, and a single dtype keeps the layer-local backward passes simple.
// Matrix products dispatch through the cpu backend, which selects a
// blocked parallel kernel when the host supports AVX2.
//
// Shape violations inside the math core panic rather than return errors:
// they are programming mistakes, not runtime conditions, and every caller
// in this module constructs shapes statically. Constructors that accept
// caller data (FromSlice, FromRows) return errors instead.
package tensor

import (
	"fmt"
	"math/rand"
)

// Tensor is a dense, row-major float32 tensor.
type Tensor struct {
	shape Shape
	data  []float32
}

// New creates a zero-filled tensor of the given shape.
func New(shape Shape) *Tensor {
	if err := shape.validate(); err != nil {
		panic(err)
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float32, shape.NumElements()),
	}
}

// FromSlice creates a tensor that takes ownership of data.
//
// Returns an error when the data length does not match the shape.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	return &Tensor{shape: shape.Clone(), data: data}, nil
}

// FromRows creates a 2D tensor by copying the given rows.
//
// Returns an error when rows have inconsistent lengths.
func FromRows(rows [][]float32) (*Tensor, error) {
	if len(rows) == 0 {
		return New(Shape{0, 0}), nil
	}
	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("tensor: row %d has length %d, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Tensor{shape: Shape{len(rows), cols}, data: data}, nil
}

// Shape returns the tensor shape. Callers must not mutate it.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total element count.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying storage. Mutations are visible to every
// view of the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Rows returns the first dimension of a 2D tensor.
func (t *Tensor) Rows() int {
	t.require2D("Rows")
	return t.shape[0]
}

// Cols returns the second dimension of a 2D tensor.
func (t *Tensor) Cols() int {
	t.require2D("Cols")
	return t.shape[1]
}

// Row returns a view of row i of a 2D tensor.
func (t *Tensor) Row(i int) []float32 {
	t.require2D("Row")
	cols := t.shape[1]
	return t.data[i*cols : (i+1)*cols]
}

// At returns the element at the given indices.
func (t *Tensor) At(indices ...int) float32 {
	return t.data[t.offset(indices)]
}

// Set writes the element at the given indices.
func (t *Tensor) Set(value float32, indices ...int) {
	t.data[t.offset(indices)] = value
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// CopyFrom copies other's elements into t. Shapes must match.
func (t *Tensor) CopyFrom(other *Tensor) {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("tensor: CopyFrom shape mismatch: %v vs %v", t.shape, other.shape))
	}
	copy(t.data, other.data)
}

// Fill sets every element to value.
func (t *Tensor) Fill(value float32) {
	for i := range t.data {
		t.data[i] = value
	}
}

// Zero sets every element to zero.
func (t *Tensor) Zero() {
	t.Fill(0)
}

// String formats the tensor header for debugging.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v)", t.shape)
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("tensor: got %d indices for shape %v", len(indices), t.shape))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d of shape %v", idx, i, t.shape))
		}
		off = off*t.shape[i] + idx
	}
	return off
}

func (t *Tensor) require2D(op string) {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: %s requires a 2D tensor, got shape %v", op, t.shape))
	}
}

// Randn creates a tensor with values drawn from N(0, 1) using rng.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = float32(rng.NormFloat64())
	}
	return t
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	t := New(shape)
	t.Fill(value)
	return t
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Zeros creates a zero-filled tensor. Alias of New, kept for symmetry
// with Ones and Full at call sites.
func Zeros(shape Shape) *Tensor {
	return New(shape)
}
