// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cil

import (
	"github.com/rs/zerolog"

	"github.com/rehearsal-ml/rehearsal/internal/cil"
	"github.com/rehearsal-ml/rehearsal/internal/config"
	"github.com/rehearsal-ml/rehearsal/internal/data"
)

// Method identifies a continual-learning algorithm.
type Method = cil.Method

// The supported methods.
const (
	MethodFineTune = cil.MethodFineTune
	MethodReplay   = cil.MethodReplay
	MethodDER      = cil.MethodDER
)

// ParseMethod resolves a method name, case-insensitively.
func ParseMethod(name string) (Method, error) {
	return cil.ParseMethod(name)
}

// Algorithm is one class-incremental learner driving a task sequence.
type Algorithm = cil.Algorithm

// Result summarizes one completed task.
type Result = cil.Result

// New builds the learner for cfg over the given benchmark.
func New(cfg config.Config, dm data.Manager, inputDim int, log zerolog.Logger) (Algorithm, error) {
	return cil.New(cfg, dm, inputDim, log)
}
