package indexing

import (
	"github.com/rehearsal-ml/rehearsal/internal/common"
)

// Index is a single selection expression: one position, a list of
// positions, a boolean mask, or a half-open span. Positions normalizes
// any form into a plain position list against a container length.
type Index struct {
	kind   indexKind
	at     int
	list   []int
	mask   []bool
	lo, hi int
}

type indexKind int

const (
	indexAt indexKind = iota
	indexList
	indexMask
	indexSpan
)

// At selects a single position.
func At(i int) Index {
	return Index{kind: indexAt, at: i}
}

// List selects the given positions in order. Repeats are allowed.
func List(pos []int) Index {
	return Index{kind: indexList, list: pos}
}

// Mask selects positions where the mask is true. The mask length must
// equal the container length at normalization time.
func Mask(mask []bool) Index {
	return Index{kind: indexMask, mask: mask}
}

// Span selects the half-open range [lo, hi).
func Span(lo, hi int) Index {
	return Index{kind: indexSpan, lo: lo, hi: hi}
}

// Positions normalizes the index against a container of length n.
// Out-of-range positions and mask length mismatches are
// DataConsistencyErrors.
func (ix Index) Positions(n int) ([]int, error) {
	switch ix.kind {
	case indexAt:
		if ix.at < 0 || ix.at >= n {
			return nil, common.NewDataConsistencyError("index %d out of range for length %d", ix.at, n)
		}
		return []int{ix.at}, nil

	case indexList:
		for _, p := range ix.list {
			if p < 0 || p >= n {
				return nil, common.NewDataConsistencyError("index %d out of range for length %d", p, n)
			}
		}
		out := make([]int, len(ix.list))
		copy(out, ix.list)
		return out, nil

	case indexMask:
		if len(ix.mask) != n {
			return nil, common.NewDataConsistencyError(
				"boolean mask length %d does not match container length %d", len(ix.mask), n)
		}
		var out []int
		for i, keep := range ix.mask {
			if keep {
				out = append(out, i)
			}
		}
		return out, nil

	default:
		if ix.lo < 0 || ix.hi > n || ix.lo > ix.hi {
			return nil, common.NewDataConsistencyError("span [%d, %d) out of range for length %d", ix.lo, ix.hi, n)
		}
		out := make([]int, 0, ix.hi-ix.lo)
		for i := ix.lo; i < ix.hi; i++ {
			out = append(out, i)
		}
		return out, nil
	}
}
