// Package config defines the run configuration and loads it from YAML,
// JSON, or TOML files, chosen by extension.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rehearsal-ml/rehearsal/internal/common"
)

// Schedule is one training phase: optimizer settings plus the milestone
// decay plan.
type Schedule struct {
	LR          float32 `yaml:"lr" json:"lr" toml:"lr"`
	Momentum    float32 `yaml:"momentum" json:"momentum" toml:"momentum"`
	WeightDecay float32 `yaml:"weight_decay" json:"weight_decay" toml:"weight_decay"`
	Epochs      int     `yaml:"epochs" json:"epochs" toml:"epochs"`
	Milestones  []int   `yaml:"milestones" json:"milestones" toml:"milestones"`
	Gamma       float32 `yaml:"gamma" json:"gamma" toml:"gamma"`
}

// Config is the full run configuration. The initial task trains with the
// Init schedule, every later task with Incremental.
type Config struct {
	Method string `yaml:"method" json:"method" toml:"method"`
	Seed   int64  `yaml:"seed" json:"seed" toml:"seed"`

	InitClasses int `yaml:"init_classes" json:"init_classes" toml:"init_classes"`
	Increment   int `yaml:"increment" json:"increment" toml:"increment"`

	BatchSize  int `yaml:"batch_size" json:"batch_size" toml:"batch_size"`
	EvalPeriod int `yaml:"eval_period" json:"eval_period" toml:"eval_period"`

	MemorySize     int `yaml:"memory_size" json:"memory_size" toml:"memory_size"`
	MemoryPerClass int `yaml:"memory_per_class" json:"memory_per_class" toml:"memory_per_class"`

	Device   string `yaml:"device" json:"device" toml:"device"`
	Replicas int    `yaml:"replicas" json:"replicas" toml:"replicas"`

	EMADecay float32 `yaml:"ema_decay" json:"ema_decay" toml:"ema_decay"`

	Hidden []int `yaml:"hidden" json:"hidden" toml:"hidden"`

	Init        Schedule `yaml:"init" json:"init" toml:"init"`
	Incremental Schedule `yaml:"incremental" json:"incremental" toml:"incremental"`
}

// Default returns a configuration that runs the synthetic benchmark out
// of the box.
func Default() Config {
	return Config{
		Method:     "replay",
		Seed:       1,
		Increment:  2,
		BatchSize:  32,
		EvalPeriod: 10,
		MemorySize: 200,
		Device:     "cpu",
		Replicas:   1,
		Hidden:     []int{64},
		Init: Schedule{
			LR:         0.1,
			Momentum:   0.9,
			Epochs:     20,
			Milestones: []int{10, 15},
			Gamma:      0.1,
		},
		Incremental: Schedule{
			LR:         0.05,
			Momentum:   0.9,
			Epochs:     10,
			Milestones: []int{6},
			Gamma:      0.1,
		},
	}
}

// Load reads a config file, dispatching on extension: .yaml/.yml, .json,
// or .toml. Fields absent from the file keep their Default values.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	case ".json":
		err = json.Unmarshal(raw, &cfg)
	case ".toml":
		err = toml.Unmarshal(raw, &cfg)
	default:
		return cfg, common.NewConfigurationError("path",
			"unsupported config format %q (want .yaml, .json, or .toml)", filepath.Ext(path))
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the cross-field constraints a schema cannot express.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return common.NewConfigurationError("batch_size", "must be positive, got %d", c.BatchSize)
	}
	if c.Increment <= 0 {
		return common.NewConfigurationError("increment", "must be positive, got %d", c.Increment)
	}
	if c.InitClasses < 0 {
		return common.NewConfigurationError("init_classes", "cannot be negative, got %d", c.InitClasses)
	}
	if c.EvalPeriod <= 0 {
		return common.NewConfigurationError("eval_period", "must be positive, got %d", c.EvalPeriod)
	}
	if c.Replicas < 0 {
		return common.NewConfigurationError("replicas", "cannot be negative, got %d", c.Replicas)
	}
	if c.EMADecay < 0 || c.EMADecay >= 1 {
		return common.NewConfigurationError("ema_decay", "must be in [0, 1), got %v", c.EMADecay)
	}
	for _, name := range []string{"init", "incremental"} {
		s := c.Init
		if name == "incremental" {
			s = c.Incremental
		}
		if s.Epochs <= 0 {
			return common.NewConfigurationError(name+".epochs", "must be positive, got %d", s.Epochs)
		}
		if s.LR <= 0 {
			return common.NewConfigurationError(name+".lr", "must be positive, got %v", s.LR)
		}
	}
	return nil
}
