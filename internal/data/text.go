package data

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/rehearsal-ml/rehearsal/internal/common"
)

// TextEncoder turns raw text into fixed-width feature vectors by BPE
// tokenization followed by hashed bag-of-tokens: each token id is folded
// into one of dim buckets and counts are L1-normalized. This is the
// usual cheap featurization for text classification benchmarks where
// the classifier, not the representation, is under study.
type TextEncoder struct {
	enc *tiktoken.Tiktoken
	dim int
}

// NewTextEncoder builds an encoder over the named tiktoken encoding,
// e.g. "cl100k_base".
func NewTextEncoder(encoding string, dim int) (*TextEncoder, error) {
	if dim <= 0 {
		return nil, common.NewConfigurationError("dim", "feature width must be positive, got %d", dim)
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %q: %w", encoding, err)
	}
	return &TextEncoder{enc: enc, dim: dim}, nil
}

// Dim returns the feature width.
func (e *TextEncoder) Dim() int {
	return e.dim
}

// Encode featurizes one document.
func (e *TextEncoder) Encode(text string) []float32 {
	ids := e.enc.Encode(text, nil, nil)
	vec := make([]float32, e.dim)
	if len(ids) == 0 {
		return vec
	}
	for _, id := range ids {
		vec[id%e.dim]++
	}
	inv := 1 / float32(len(ids))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// TextDataset featurizes a labeled document collection.
func (e *TextEncoder) TextDataset(texts []string, labels []int32) (*Dataset, error) {
	if len(texts) != len(labels) {
		return nil, common.NewDataConsistencyError(
			"texts and labels disagree in length: %d vs %d", len(texts), len(labels))
	}
	samples := make([][]float32, len(texts))
	for i, t := range texts {
		samples[i] = e.Encode(t)
	}
	return NewDataset(samples, labels)
}
