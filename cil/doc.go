// Copyright 2025 Rehearsal ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cil runs class-incremental learning: a classifier trained over
// a sequence of tasks, each introducing new classes, with a bounded
// exemplar memory rehearsing what earlier tasks taught.
//
// # Overview
//
// Three methods are provided:
//   - finetune: trains on each task's new classes only (forgets freely)
//   - replay: rehearses herded exemplars from a bounded memory
//   - der: grows a frozen backbone per task, trains a joint head
//
// # Basic Usage
//
//	cfg := config.Default()
//	cfg.Method = "replay"
//
//	dm, err := data.NewSplitManager(train, test, 0, cfg.Increment)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("bad benchmark")
//	}
//
//	alg, err := cil.New(cfg, dm, train.Dim(), logger)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("bad config")
//	}
//
//	for task := 0; task < dm.NumTasks(); task++ {
//	    res, err := alg.RunTask()
//	    if err != nil {
//	        log.Fatal().Err(err).Msg("task failed")
//	    }
//	    alg.FinalizeTask()
//	    fmt.Printf("task %d: acc %.3f\n", res.Task, res.TestAcc)
//	}
//
// RunTask is transactional: a failed task leaves the learner's visible
// state (task counter, class counts, exemplar memory) untouched.
package cil
