package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)

	assert.True(t, x.Shape().Equal(Shape{2, 3}))
	assert.Equal(t, float32(6), x.At(1, 2))
}

func TestFromSlice_LengthMismatch(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2})
	require.Error(t, err)
}

func TestFromRows_Inconsistent(t *testing.T) {
	_, err := FromRows([][]float32{{1, 2}, {3}})
	require.Error(t, err)
}

func TestClone_Independent(t *testing.T) {
	x, err := FromSlice([]float32{1, 2, 3}, Shape{3})
	require.NoError(t, err)

	y := x.Clone()
	y.Set(9, 0)

	assert.Equal(t, float32(1), x.At(0))
	assert.Equal(t, float32(9), y.At(0))
}

func TestAddSubMulScale(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	b, _ := FromSlice([]float32{4, 3, 2, 1}, Shape{2, 2})

	assert.Equal(t, []float32{5, 5, 5, 5}, a.Add(b).Data())
	assert.Equal(t, []float32{-3, -1, 1, 3}, a.Sub(b).Data())
	assert.Equal(t, []float32{4, 6, 6, 4}, a.Mul(b).Data())
	assert.Equal(t, []float32{2, 4, 6, 8}, a.Scale(2).Data())
	// Originals untouched.
	assert.Equal(t, []float32{1, 2, 3, 4}, a.Data())
}

func TestAddScaledInPlace(t *testing.T) {
	a, _ := FromSlice([]float32{1, 1}, Shape{2})
	b, _ := FromSlice([]float32{2, 4}, Shape{2})

	a.AddScaledInPlace(b, 0.5)

	assert.Equal(t, []float32{2, 3}, a.Data())
}

func TestMatMul(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	b, _ := FromSlice([]float32{7, 8, 9, 10, 11, 12}, Shape{3, 2})

	out := a.MatMul(b)

	assert.True(t, out.Shape().Equal(Shape{2, 2}))
	assert.Equal(t, []float32{58, 64, 139, 154}, out.Data())
}

func TestMatMulTransB_AgreesWithMatMul(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := Randn(Shape{5, 7}, rng)
	w := Randn(Shape{4, 7}, rng) // [out, in]

	got := a.MatMulTransB(w)
	want := a.MatMul(w.Transpose())

	require.True(t, got.Shape().Equal(want.Shape()))
	for i := range want.Data() {
		assert.InDelta(t, want.Data()[i], got.Data()[i], 1e-4)
	}
}

func TestMatMulTransA_AgreesWithMatMul(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := Randn(Shape{6, 3}, rng)
	b := Randn(Shape{6, 4}, rng)

	got := a.MatMulTransA(b)
	want := a.Transpose().MatMul(b)

	require.True(t, got.Shape().Equal(want.Shape()))
	for i := range want.Data() {
		assert.InDelta(t, want.Data()[i], got.Data()[i], 1e-4)
	}
}

func TestArgmaxRows(t *testing.T) {
	x, _ := FromSlice([]float32{0.1, 0.9, 0.0, 0.7, 0.2, 0.1}, Shape{2, 3})
	assert.Equal(t, []int{1, 0}, x.ArgmaxRows())
}

func TestMeanRows(t *testing.T) {
	x, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	assert.Equal(t, []float32{2, 3}, x.MeanRows().Data())
}

func TestShapeMismatchPanics(t *testing.T) {
	a := New(Shape{2, 2})
	b := New(Shape{2, 3})
	assert.Panics(t, func() { a.Add(b) })
	assert.Panics(t, func() { b.MatMul(a) }) // [2,3] @ [2,2]: inner dims disagree
}
