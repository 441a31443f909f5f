// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data exposes labeled datasets and the task-split machinery of
// class-incremental benchmarks.
package data

import (
	"github.com/rehearsal-ml/rehearsal/internal/data"
)

// Dataset is a dense labeled dataset.
type Dataset = data.Dataset

// NewDataset validates that samples and labels agree in length.
func NewDataset(samples [][]float32, labels []int32) (*Dataset, error) {
	return data.NewDataset(samples, labels)
}

// Manager serves the per-task view of a benchmark.
type Manager = data.Manager

// SplitManager partitions a class space into a task schedule.
type SplitManager = data.SplitManager

// NewSplitManager builds a schedule of initClasses then incClasses-sized
// tasks over the classes both splits contain.
func NewSplitManager(train, test *Dataset, initClasses, incClasses int) (*SplitManager, error) {
	return data.NewSplitManager(train, test, initClasses, incClasses)
}

// Source selects the training or test split.
type Source = data.Source

// Mode selects shuffling (train) or stable order (test).
type Mode = data.Mode

// The split sources and loader modes.
const (
	SourceTrain = data.SourceTrain
	SourceTest  = data.SourceTest
	ModeTrain   = data.ModeTrain
	ModeTest    = data.ModeTest
)

// LoadMNIST loads the official MNIST IDX files from dataDir.
func LoadMNIST(dataDir string) (train, test *Dataset, err error) {
	return data.LoadMNIST(dataDir)
}

// SyntheticConfig shapes a gaussian-blob benchmark.
type SyntheticConfig = data.SyntheticConfig

// DefaultSyntheticConfig is a small benchmark that trains in seconds.
func DefaultSyntheticConfig() SyntheticConfig {
	return data.DefaultSyntheticConfig()
}

// Synthetic generates train and test splits of gaussian clusters.
func Synthetic(cfg SyntheticConfig) (train, test *Dataset) {
	return data.Synthetic(cfg)
}
