package tensor

import (
	"fmt"

	"github.com/rehearsal-ml/rehearsal/internal/backend/cpu"
)

// Add returns t + other elementwise.
func (t *Tensor) Add(other *Tensor) *Tensor {
	t.requireSameShape("Add", other)
	out := t.Clone()
	for i, v := range other.data {
		out.data[i] += v
	}
	return out
}

// Sub returns t - other elementwise.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	t.requireSameShape("Sub", other)
	out := t.Clone()
	for i, v := range other.data {
		out.data[i] -= v
	}
	return out
}

// Mul returns t * other elementwise.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	t.requireSameShape("Mul", other)
	out := t.Clone()
	for i, v := range other.data {
		out.data[i] *= v
	}
	return out
}

// Scale returns t * s.
func (t *Tensor) Scale(s float32) *Tensor {
	out := t.Clone()
	for i := range out.data {
		out.data[i] *= s
	}
	return out
}

// AddScaledInPlace computes t += s * other in place. Used on the hot
// paths of the optimizer and the EMA update.
func (t *Tensor) AddScaledInPlace(other *Tensor, s float32) {
	t.requireSameShape("AddScaledInPlace", other)
	for i, v := range other.data {
		t.data[i] += s * v
	}
}

// ScaleInPlace computes t *= s in place.
func (t *Tensor) ScaleInPlace(s float32) {
	for i := range t.data {
		t.data[i] *= s
	}
}

// MatMul returns t @ other for 2D tensors [m, k] @ [k, n] -> [m, n].
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	t.require2D("MatMul")
	other.require2D("MatMul")
	m, k := t.shape[0], t.shape[1]
	if other.shape[0] != k {
		panic(fmt.Sprintf("tensor: MatMul shape mismatch: %v @ %v", t.shape, other.shape))
	}
	n := other.shape[1]
	out := New(Shape{m, n})
	cpu.MatMul(t.data, other.data, out.data, m, k, n)
	return out
}

// MatMulTransB returns t @ other.T for t [m, k] and other [n, k].
func (t *Tensor) MatMulTransB(other *Tensor) *Tensor {
	t.require2D("MatMulTransB")
	other.require2D("MatMulTransB")
	m, k := t.shape[0], t.shape[1]
	if other.shape[1] != k {
		panic(fmt.Sprintf("tensor: MatMulTransB shape mismatch: %v @ %v.T", t.shape, other.shape))
	}
	n := other.shape[0]
	out := New(Shape{m, n})
	cpu.MatMulTransB(t.data, other.data, out.data, m, k, n)
	return out
}

// MatMulTransA returns t.T @ other for t [k, m] and other [k, n].
func (t *Tensor) MatMulTransA(other *Tensor) *Tensor {
	t.require2D("MatMulTransA")
	other.require2D("MatMulTransA")
	k, m := t.shape[0], t.shape[1]
	if other.shape[0] != k {
		panic(fmt.Sprintf("tensor: MatMulTransA shape mismatch: %v.T @ %v", t.shape, other.shape))
	}
	n := other.shape[1]
	out := New(Shape{m, n})
	cpu.MatMulTransA(t.data, other.data, out.data, m, k, n)
	return out
}

// Transpose returns the transpose of a 2D tensor.
func (t *Tensor) Transpose() *Tensor {
	t.require2D("Transpose")
	rows, cols := t.shape[0], t.shape[1]
	out := New(Shape{cols, rows})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return out
}

// ArgmaxRows returns the column index of the maximum value in each row
// of a 2D tensor. Used for top-1 predictions.
func (t *Tensor) ArgmaxRows() []int {
	t.require2D("ArgmaxRows")
	rows, cols := t.shape[0], t.shape[1]
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		row := t.data[i*cols : (i+1)*cols]
		best := 0
		for j := 1; j < cols; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		out[i] = best
	}
	return out
}

// SumRows returns the column-wise sum of a 2D tensor as a [cols] vector.
func (t *Tensor) SumRows() *Tensor {
	t.require2D("SumRows")
	rows, cols := t.shape[0], t.shape[1]
	out := New(Shape{cols})
	for i := 0; i < rows; i++ {
		row := t.data[i*cols : (i+1)*cols]
		for j, v := range row {
			out.data[j] += v
		}
	}
	return out
}

// MeanRows returns the column-wise mean of a 2D tensor as a [cols] vector.
func (t *Tensor) MeanRows() *Tensor {
	out := t.SumRows()
	rows := t.shape[0]
	if rows > 0 {
		out.ScaleInPlace(1 / float32(rows))
	}
	return out
}

func (t *Tensor) requireSameShape(op string, other *Tensor) {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("tensor: %s shape mismatch: %v vs %v", op, t.shape, other.shape))
	}
}
