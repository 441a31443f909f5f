package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearsal-ml/rehearsal/internal/common"
)

type tagged struct {
	dev Device
}

func (x *tagged) To(d Device) any { return &tagged{dev: d} }

func TestParse(t *testing.T) {
	d, err := Parse("cpu")
	require.NoError(t, err)
	assert.True(t, d.IsCPU())

	d, err = Parse("")
	require.NoError(t, err)
	assert.True(t, d.IsCPU())

	_, err = Parse("cuda:0")
	require.Error(t, err)
	var cfgErr *common.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestToDevice_Recurses(t *testing.T) {
	data := map[string]any{
		"x": &tagged{},
		"nested": []any{
			&tagged{},
			[]float32{1, 2},
		},
	}

	got, err := ToDevice(data, CPU)
	require.NoError(t, err)

	m := got.(map[string]any)
	assert.True(t, m["x"].(*tagged).dev.IsCPU())

	seq := m["nested"].([]any)
	assert.True(t, seq[0].(*tagged).dev.IsCPU())
	assert.Equal(t, []float32{1, 2}, seq[1])
}

func TestToDevice_PassThrough(t *testing.T) {
	got, err := ToDevice([]int32{1, 2, 3}, CPU)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, got)

	got, err = ToDevice(nil, CPU)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConfig_Describe(t *testing.T) {
	assert.Equal(t, "cpu", Config{Device: CPU}.Describe())
	assert.Equal(t, "cpu x4", Config{Device: CPU, Replicas: 4}.Describe())
}
