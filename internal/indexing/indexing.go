// Package indexing selects sub-elements from heterogeneous containers —
// plain slices, string-keyed maps, sparse matrices, nested sequences,
// column frames, and dataset objects — given a single index expression.
//
// Dispatch is a closed match over a fixed Kind enumeration; there is no
// open-ended runtime probing. Boolean masks and integer index vectors
// are normalized to plain position lists before dispatch, so every
// branch only ever sees positions.
package indexing

import (
	"github.com/rehearsal-ml/rehearsal/internal/common"
)

// Kind enumerates the supported container shapes.
type Kind int

const (
	// KindAbsent marks a nil container; selection yields nil.
	KindAbsent Kind = iota
	// KindDataset marks a Dataset implementation; direct subscript.
	KindDataset
	// KindMap marks map[string]any; selection applies per key.
	KindMap
	// KindSparse marks *CSR; selected rows materialize densely.
	KindSparse
	// KindNested marks []any whose elements are themselves containers;
	// selection recurses per element.
	KindNested
	// KindFrame marks *Frame; selection picks rows across all columns.
	KindFrame
	// KindOther marks flat slices indexed positionally.
	KindOther
)

// String names the kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindDataset:
		return "dataset"
	case KindMap:
		return "map"
	case KindSparse:
		return "sparse"
	case KindNested:
		return "nested"
	case KindFrame:
		return "frame"
	default:
		return "other"
	}
}

// Dataset is the dataset-like container shape: anything addressable by
// position with a known length.
type Dataset interface {
	Len() int
	Index(i int) any
}

// Classify maps a container to its Kind. The match is closed: anything
// outside the enumeration falls into KindOther and either matches a
// supported flat slice in Select or fails there with a
// DataConsistencyError.
func Classify(data any) Kind {
	switch v := data.(type) {
	case nil:
		return KindAbsent
	case Dataset:
		return KindDataset
	case map[string]any:
		return KindMap
	case *CSR:
		return KindSparse
	case *Frame:
		return KindFrame
	case []any:
		// A sequence of sub-containers recurses; a sequence of scalars
		// is handled by the generic branch.
		for _, e := range v {
			if Classify(e) != KindOther {
				return KindNested
			}
			if _, ok := flatLen(e); ok {
				return KindNested
			}
		}
		return KindOther
	default:
		return KindOther
	}
}

// Select returns the sub-elements of data addressed by ix, preserving
// the container's shape where feasible: maps stay maps, frames stay
// frames, nested sequences stay sequences.
func Select(data any, ix Index) (any, error) {
	kind := Classify(data)
	if kind == KindAbsent {
		return nil, nil
	}

	n, err := Length(data)
	if err != nil {
		return nil, err
	}
	pos, err := ix.Positions(n)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindDataset:
		ds := data.(Dataset)
		out := make([]any, len(pos))
		for i, p := range pos {
			out[i] = ds.Index(p)
		}
		return out, nil

	case KindMap:
		m := data.(map[string]any)
		out := make(map[string]any, len(m))
		for k, v := range m {
			sel, err := selectPositions(v, pos)
			if err != nil {
				return nil, err
			}
			out[k] = sel
		}
		return out, nil

	case KindSparse:
		return data.(*CSR).Rows(pos), nil

	case KindFrame:
		return data.(*Frame).SelectRows(pos), nil

	case KindNested:
		seq := data.([]any)
		out := make([]any, len(seq))
		for i, e := range seq {
			sel, err := selectPositions(e, pos)
			if err != nil {
				return nil, err
			}
			out[i] = sel
		}
		return out, nil

	default:
		return selectFlat(data, pos)
	}
}

// selectPositions dispatches with pre-normalized positions, so nested
// containers of differing lengths still fail loudly via Length.
func selectPositions(data any, pos []int) (any, error) {
	if Classify(data) == KindOther {
		return selectFlat(data, pos)
	}
	return Select(data, List(pos))
}

// selectFlat indexes the supported flat slice types positionally.
func selectFlat(data any, pos []int) (any, error) {
	switch v := data.(type) {
	case []float32:
		return Take(v, pos), nil
	case []float64:
		return Take(v, pos), nil
	case []int:
		return Take(v, pos), nil
	case []int32:
		return Take(v, pos), nil
	case []string:
		return Take(v, pos), nil
	case []bool:
		return Take(v, pos), nil
	case [][]float32:
		return Take(v, pos), nil
	case []any:
		return Take(v, pos), nil
	default:
		return nil, common.NewDataConsistencyError("cannot index container of type %T", data)
	}
}

// Take returns xs at the given positions. Positions must be in range;
// out-of-range positions panic like any Go slice access.
func Take[T any](xs []T, pos []int) []T {
	out := make([]T, len(pos))
	for i, p := range pos {
		out[i] = xs[p]
	}
	return out
}

// Length returns the consistent leading length of data, walking maps and
// nested sequences. Disagreeing lengths across parallel structures are a
// DataConsistencyError.
func Length(data any) (int, error) {
	lens := map[int]struct{}{}
	if err := collectLens(data, lens); err != nil {
		return 0, err
	}
	switch len(lens) {
	case 0:
		return 0, nil
	case 1:
		for n := range lens {
			return n, nil
		}
	}
	return 0, common.NewDataConsistencyError("container does not have consistent lengths: %v", keys(lens))
}

func collectLens(data any, lens map[int]struct{}) error {
	switch Classify(data) {
	case KindAbsent:
		return nil
	case KindDataset:
		lens[data.(Dataset).Len()] = struct{}{}
	case KindMap:
		for _, v := range data.(map[string]any) {
			if err := collectLens(v, lens); err != nil {
				return err
			}
		}
	case KindSparse:
		lens[data.(*CSR).NumRows()] = struct{}{}
	case KindFrame:
		lens[data.(*Frame).NumRows()] = struct{}{}
	case KindNested:
		for _, e := range data.([]any) {
			if err := collectLens(e, lens); err != nil {
				return err
			}
		}
	default:
		n, ok := flatLen(data)
		if !ok {
			return common.NewDataConsistencyError("cannot get the length of container type %T", data)
		}
		lens[n] = struct{}{}
	}
	return nil
}

func flatLen(data any) (int, bool) {
	switch v := data.(type) {
	case []float32:
		return len(v), true
	case []float64:
		return len(v), true
	case []int:
		return len(v), true
	case []int32:
		return len(v), true
	case []string:
		return len(v), true
	case []bool:
		return len(v), true
	case [][]float32:
		return len(v), true
	case []any:
		return len(v), true
	default:
		return 0, false
	}
}

func keys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
