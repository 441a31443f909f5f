package tensor

import (
	"fmt"
	"strings"
)

// Shape describes tensor dimensions, e.g. Shape{32, 784} for a batch of
// 32 flattened images.
type Shape []int

// NumElements returns the total number of elements a tensor of this
// shape holds.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i, d := range s {
		if d != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// String formats the shape as [d0, d1, ...].
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s Shape) validate() error {
	for i, d := range s {
		if d < 0 {
			return fmt.Errorf("shape %v: negative dimension at axis %d", s, i)
		}
	}
	return nil
}
