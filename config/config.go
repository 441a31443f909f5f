// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config exposes the run configuration: training schedules,
// memory budgets, and device placement, loadable from YAML, JSON, or
// TOML files.
package config

import (
	"github.com/rehearsal-ml/rehearsal/internal/config"
)

// Config is the full run configuration.
type Config = config.Config

// Schedule is one training phase's optimizer and decay settings.
type Schedule = config.Schedule

// Default returns a configuration that runs the synthetic benchmark out
// of the box.
func Default() Config {
	return config.Default()
}

// Load reads a config file, dispatching on its extension.
func Load(path string) (Config, error) {
	return config.Load(path)
}
