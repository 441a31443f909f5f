package nn

import (
	"fmt"
	"math"

	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// CrossEntropyLoss computes mean cross-entropy over a batch from raw
// logits, using the log-sum-exp trick for numerical stability.
//
// Forward caches the softmax probabilities so Backward can produce the
// classic gradient softmax(z) - onehot(target), averaged over the batch.
type CrossEntropyLoss struct {
	probs   *tensor.Tensor
	targets []int32
}

// NewCrossEntropyLoss creates a cross-entropy criterion.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return &CrossEntropyLoss{}
}

// Forward returns the mean loss for logits [batch, classes] and targets
// [batch] of class indices.
func (c *CrossEntropyLoss) Forward(logits *tensor.Tensor, targets []int32) float32 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("CrossEntropyLoss: logits must be 2D, got shape %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if len(targets) != batch {
		panic(fmt.Sprintf("CrossEntropyLoss: %d targets for batch of %d", len(targets), batch))
	}

	data := logits.Data()
	c.probs = tensor.New(shape)
	probs := c.probs.Data()
	c.targets = targets

	var total float32
	for i := 0; i < batch; i++ {
		row := data[i*classes : (i+1)*classes]
		pRow := probs[i*classes : (i+1)*classes]

		maxZ := row[0]
		for _, v := range row[1:] {
			if v > maxZ {
				maxZ = v
			}
		}
		var sumExp float32
		for j, v := range row {
			e := float32(math.Exp(float64(v - maxZ)))
			pRow[j] = e
			sumExp += e
		}
		for j := range pRow {
			pRow[j] /= sumExp
		}

		target := int(c.targets[i])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("CrossEntropyLoss: target %d out of range [0, %d)", target, classes))
		}
		logSumExp := maxZ + float32(math.Log(float64(sumExp)))
		total += logSumExp - row[target]
	}

	return total / float32(batch)
}

// Backward returns the gradient of the mean loss with respect to the
// logits: (softmax - onehot) / batch.
func (c *CrossEntropyLoss) Backward() *tensor.Tensor {
	if c.probs == nil {
		panic("CrossEntropyLoss: Backward called before Forward")
	}

	grad := c.probs.Clone()
	shape := grad.Shape()
	batch, classes := shape[0], shape[1]
	data := grad.Data()
	inv := 1 / float32(batch)
	for i := 0; i < batch; i++ {
		data[i*classes+int(c.targets[i])] -= 1
	}
	for i := range data {
		data[i] *= inv
	}
	return grad
}

// Accuracy computes top-1 accuracy in [0, 1] for logits [batch, classes]
// against targets [batch].
func Accuracy(logits *tensor.Tensor, targets []int32) float32 {
	preds := logits.ArgmaxRows()
	if len(preds) == 0 {
		return 0
	}
	correct := 0
	for i, p := range preds {
		if int32(p) == targets[i] {
			correct++
		}
	}
	return float32(correct) / float32(len(preds))
}
