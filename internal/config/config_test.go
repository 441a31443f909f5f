package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearsal-ml/rehearsal/internal/common"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeTemp(t, "run.yaml", `
method: der
seed: 42
memory_size: 500
init:
  lr: 0.2
  epochs: 5
  milestones: [3]
  gamma: 0.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "der", cfg.Method)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 500, cfg.MemorySize)
	assert.InDelta(t, 0.2, cfg.Init.LR, 1e-6)
	assert.Equal(t, []int{3}, cfg.Init.Milestones)

	// Unset fields keep defaults.
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 10, cfg.EvalPeriod)
}

func TestLoad_JSON(t *testing.T) {
	path := writeTemp(t, "run.json", `{"method": "finetune", "batch_size": 64}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "finetune", cfg.Method)
	assert.Equal(t, 64, cfg.BatchSize)
}

func TestLoad_TOML(t *testing.T) {
	path := writeTemp(t, "run.toml", `
method = "replay"
increment = 5

[incremental]
lr = 0.01
epochs = 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Increment)
	assert.InDelta(t, 0.01, cfg.Incremental.LR, 1e-6)
	assert.Equal(t, 3, cfg.Incremental.Epochs)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "run.ini", "method=replay")

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *common.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	var cfgErr *common.ConfigurationError

	bad := Default()
	bad.BatchSize = 0
	assert.True(t, errors.As(bad.Validate(), &cfgErr))

	bad = Default()
	bad.Increment = -1
	assert.True(t, errors.As(bad.Validate(), &cfgErr))

	bad = Default()
	bad.EMADecay = 1.0
	assert.True(t, errors.As(bad.Validate(), &cfgErr))

	bad = Default()
	bad.Incremental.Epochs = 0
	assert.True(t, errors.As(bad.Validate(), &cfgErr))
}
