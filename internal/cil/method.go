// Package cil orchestrates class-incremental learning: a sequence of
// tasks, each introducing new classes, trained one after another on a
// single growing network while a bounded exemplar memory rehearses what
// earlier tasks taught.
package cil

import (
	"math/rand"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rehearsal-ml/rehearsal/internal/common"
	"github.com/rehearsal-ml/rehearsal/internal/config"
	"github.com/rehearsal-ml/rehearsal/internal/data"
	"github.com/rehearsal-ml/rehearsal/internal/device"
	"github.com/rehearsal-ml/rehearsal/internal/memory"
	"github.com/rehearsal-ml/rehearsal/internal/nn"
)

// Method identifies a continual-learning algorithm. The set is closed:
// construction is an exhaustive switch, not a string-keyed registry, so
// adding a method is a compile-visible change.
type Method int

const (
	// MethodFineTune trains on each task's new classes only. The lower
	// baseline: it forgets freely.
	MethodFineTune Method = iota
	// MethodReplay rehearses stored exemplars alongside new-task data.
	MethodReplay
	// MethodDER grows a frozen backbone per task and trains a head over
	// the concatenated features (dynamically expandable representation).
	MethodDER
)

// String returns the canonical method name.
func (m Method) String() string {
	switch m {
	case MethodFineTune:
		return "finetune"
	case MethodReplay:
		return "replay"
	case MethodDER:
		return "der"
	default:
		return "unknown"
	}
}

// ParseMethod resolves a method name, case-insensitively. Unknown names
// are an UnsupportedMethodError.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "finetune":
		return MethodFineTune, nil
	case "replay":
		return MethodReplay, nil
	case "der":
		return MethodDER, nil
	default:
		return 0, &common.UnsupportedMethodError{Name: name}
	}
}

// New builds the learner for cfg over the given benchmark. inputDim is
// the feature width of the benchmark's samples.
func New(cfg config.Config, dm data.Manager, inputDim int, log zerolog.Logger) (Algorithm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	method, err := ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}
	dev, err := device.Parse(cfg.Device)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	base := &learner{
		cfg:     cfg,
		dm:      dm,
		dev:     device.Config{Device: dev, Replicas: cfg.Replicas},
		log:     log.With().Str("method", method.String()).Logger(),
		curTask: -1,
	}

	switch method {
	case MethodFineTune:
		backbone, featDim := nn.NewMLP(inputDim, cfg.Hidden, rng)
		base.net = nn.NewIncrementalNet(backbone, featDim, rng)
		return &FineTune{learner: base}, nil

	case MethodReplay:
		backbone, featDim := nn.NewMLP(inputDim, cfg.Hidden, rng)
		base.net = nn.NewIncrementalNet(backbone, featDim, rng)
		base.memory, err = memory.New(cfg.MemorySize, cfg.MemoryPerClass, base.log)
		if err != nil {
			return nil, err
		}
		return &Replay{learner: base}, nil

	case MethodDER:
		der := nn.NewDERNet(func(r *rand.Rand) (*nn.Sequential, int) {
			return nn.NewMLP(inputDim, cfg.Hidden, r)
		}, rng)
		base.net = der
		base.memory, err = memory.New(cfg.MemorySize, cfg.MemoryPerClass, base.log)
		if err != nil {
			return nil, err
		}
		base.onExpand = func(total int) {
			all := nn.CountParameters(der.Parameters(), false)
			trainable := nn.CountParameters(der.Parameters(), true)
			base.log.Info().
				Int("backbones", der.TaskCount()).
				Int("total_classes", total).
				Int("parameters", all).
				Int("trainable", trainable).
				Msg("representation expanded")
		}
		return &DER{learner: base}, nil
	}

	// Unreachable: ParseMethod already rejected unknown names.
	return nil, &common.UnsupportedMethodError{Name: cfg.Method}
}

// FineTune is the no-rehearsal baseline.
type FineTune struct {
	*learner
}

// Replay rehearses exemplars from a bounded memory.
type Replay struct {
	*learner
}

// DER expands the representation with one frozen backbone per task.
type DER struct {
	*learner
}
