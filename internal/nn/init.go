package nn

import (
	"math"
	"math/rand"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Xavier (Glorot) uniform initialization.
//
// Draws values from U(-b, b) with b = sqrt(6 / (fan_in + fan_out)),
// which keeps activation variance stable across layers. The rng is
// passed explicitly so experiment seeds fully determine the weights.
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.New(shape)
	data := t.Data()
	for i := range data {
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return t
}
