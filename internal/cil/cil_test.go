package cil

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearsal-ml/rehearsal/internal/common"
	"github.com/rehearsal-ml/rehearsal/internal/config"
	"github.com/rehearsal-ml/rehearsal/internal/data"
)

func testConfig(method string) config.Config {
	cfg := config.Default()
	cfg.Method = method
	cfg.Increment = 2
	cfg.BatchSize = 16
	cfg.MemorySize = 24
	cfg.Hidden = []int{8}
	cfg.Init = config.Schedule{LR: 0.1, Momentum: 0.9, Epochs: 3, Milestones: []int{2}, Gamma: 0.1}
	cfg.Incremental = config.Schedule{LR: 0.05, Momentum: 0.9, Epochs: 2, Milestones: []int{2}, Gamma: 0.1}
	return cfg
}

func testBenchmark(t *testing.T, numClasses, initClasses, increment int) (data.Manager, int) {
	t.Helper()
	scfg := data.DefaultSyntheticConfig()
	scfg.NumClasses = numClasses
	scfg.Dim = 8
	scfg.SamplesPerClass = 20
	scfg.TestPerClass = 5

	train, test := data.Synthetic(scfg)
	dm, err := data.NewSplitManager(train, test, initClasses, increment)
	require.NoError(t, err)
	return dm, scfg.Dim
}

func TestParseMethod(t *testing.T) {
	for name, want := range map[string]Method{
		"finetune": MethodFineTune,
		"replay":   MethodReplay,
		"DER":      MethodDER,
	} {
		got, err := ParseMethod(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMethod("icarl")
	require.Error(t, err)

	var unsupported *common.UnsupportedMethodError
	assert.True(t, errors.As(err, &unsupported))
}

func TestNew_UnknownMethod(t *testing.T) {
	dm, dim := testBenchmark(t, 4, 0, 2)

	cfg := testConfig("gradient-descent-by-vibes")
	_, err := New(cfg, dm, dim, zerolog.Nop())
	require.Error(t, err)

	var unsupported *common.UnsupportedMethodError
	assert.True(t, errors.As(err, &unsupported))
}

func TestReplay_TaskCycle(t *testing.T) {
	dm, dim := testBenchmark(t, 6, 0, 2)

	alg, err := New(testConfig("replay"), dm, dim, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, -1, alg.CurTask())
	assert.Equal(t, 0, alg.KnownClasses())

	wantTotals := []int{2, 4, 6}
	for task := 0; task < 3; task++ {
		res, err := alg.RunTask()
		require.NoError(t, err, "task %d", task)

		assert.Equal(t, task, res.Task)
		assert.Equal(t, wantTotals[task], res.TotalClasses)
		assert.Equal(t, task, alg.CurTask())
		assert.Equal(t, wantTotals[task], alg.TotalClasses())

		// Known classes lag until the task is finalized.
		if task == 0 {
			assert.Equal(t, 0, alg.KnownClasses())
		} else {
			assert.Equal(t, wantTotals[task-1], alg.KnownClasses())
		}

		// Memory stays within budget and covers every trained class.
		assert.LessOrEqual(t, res.Exemplars, 24)
		assert.Greater(t, res.Exemplars, 0)

		alg.FinalizeTask()
		assert.Equal(t, wantTotals[task], alg.KnownClasses())
	}

	// Schedule exhausted.
	_, err = alg.RunTask()
	require.Error(t, err)
	var stateErr *common.StateError
	assert.True(t, errors.As(err, &stateErr))

	// The grown head covers every class.
	assert.Equal(t, 6, alg.Network().Classes())
}

func TestReplay_MemoryCoversOldClasses(t *testing.T) {
	dm, dim := testBenchmark(t, 4, 0, 2)

	alg, err := New(testConfig("replay"), dm, dim, zerolog.Nop())
	require.NoError(t, err)

	for task := 0; task < 2; task++ {
		_, err := alg.RunTask()
		require.NoError(t, err)
		alg.FinalizeTask()
	}

	mem := alg.(*Replay).memory.Exemplars()
	require.NotNil(t, mem)

	seen := map[int32]bool{}
	for _, y := range mem.Labels {
		seen[y] = true
	}
	for c := int32(0); c < 4; c++ {
		assert.True(t, seen[c], "class %d missing from rehearsal memory", c)
	}
}

func TestFineTune_NoMemory(t *testing.T) {
	dm, dim := testBenchmark(t, 4, 0, 2)

	alg, err := New(testConfig("finetune"), dm, dim, zerolog.Nop())
	require.NoError(t, err)

	res, err := alg.RunTask()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Exemplars)
	assert.Nil(t, alg.(*FineTune).memory)

	alg.FinalizeTask()
	assert.Equal(t, 2, alg.KnownClasses())
}

func TestDER_ExpandsPerTask(t *testing.T) {
	dm, dim := testBenchmark(t, 4, 0, 2)

	alg, err := New(testConfig("der"), dm, dim, zerolog.Nop())
	require.NoError(t, err)

	for task := 0; task < 2; task++ {
		_, err := alg.RunTask()
		require.NoError(t, err)
		alg.FinalizeTask()
	}

	net := alg.Network()
	assert.Equal(t, 4, net.Classes())
	// One backbone per task: feature width doubled.
	assert.Equal(t, 16, net.FeatureDim())
}

func TestRunTask_FailureLeavesStateIntact(t *testing.T) {
	dm, dim := testBenchmark(t, 4, 0, 2)

	cfg := testConfig("replay")
	// Valid for the initial task; the incremental schedule is broken and
	// must fail before any state is committed.
	cfg.Incremental.Milestones = []int{5, 3}

	alg, err := New(cfg, dm, dim, zerolog.Nop())
	require.NoError(t, err)

	res, err := alg.RunTask()
	require.NoError(t, err)
	alg.FinalizeTask()
	memBefore := res.Exemplars

	_, err = alg.RunTask()
	require.Error(t, err)

	assert.Equal(t, 0, alg.CurTask())
	assert.Equal(t, 2, alg.KnownClasses())
	assert.Equal(t, 2, alg.TotalClasses())
	assert.Equal(t, memBefore, alg.(*Replay).memory.Size())
}

func TestReplay_TenClassTasks(t *testing.T) {
	// Three tasks of 10 classes each: known grows 10, 20, 30.
	scfg := data.DefaultSyntheticConfig()
	scfg.NumClasses = 30
	scfg.Dim = 8
	scfg.SamplesPerClass = 8
	scfg.TestPerClass = 2
	train, test := data.Synthetic(scfg)
	dm, err := data.NewSplitManager(train, test, 0, 10)
	require.NoError(t, err)

	cfg := testConfig("replay")
	cfg.MemorySize = 60
	cfg.Init.Epochs = 1
	cfg.Init.Milestones = []int{1}
	cfg.Incremental.Epochs = 1
	cfg.Incremental.Milestones = []int{1}

	alg, err := New(cfg, dm, scfg.Dim, zerolog.Nop())
	require.NoError(t, err)

	for task, wantKnown := range []int{10, 20, 30} {
		_, err := alg.RunTask()
		require.NoError(t, err, "task %d", task)
		alg.FinalizeTask()
		assert.Equal(t, wantKnown, alg.KnownClasses())
		assert.LessOrEqual(t, alg.ExemplarSize(), 60)

		if task == 1 {
			// Memory covers every class in [0, 10) within capacity.
			mem := alg.(*Replay).memory.Exemplars()
			require.NotNil(t, mem)
			seen := map[int32]bool{}
			for _, y := range mem.Labels {
				seen[y] = true
			}
			for c := int32(0); c < 10; c++ {
				assert.True(t, seen[c], "class %d missing", c)
			}
		}
	}
}

func TestLearner_InitialTaskSize(t *testing.T) {
	// B4-1 style schedule: 4 base classes, then 1 per task.
	dm, dim := testBenchmark(t, 6, 4, 1)

	alg, err := New(testConfig("replay"), dm, dim, zerolog.Nop())
	require.NoError(t, err)

	res, err := alg.RunTask()
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalClasses)
	alg.FinalizeTask()

	res, err = alg.RunTask()
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalClasses)
}

func TestEMA_WiredIntoTraining(t *testing.T) {
	dm, dim := testBenchmark(t, 4, 0, 2)

	cfg := testConfig("replay")
	cfg.EMADecay = 0.9

	alg, err := New(cfg, dm, dim, zerolog.Nop())
	require.NoError(t, err)

	res, err := alg.RunTask()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.TestAcc, float32(0))
	alg.FinalizeTask()

	// A second task still trains cleanly with the shadow rebuilt.
	_, err = alg.RunTask()
	require.NoError(t, err)
}

func TestReplicas_ShardedEvaluation(t *testing.T) {
	dm, dim := testBenchmark(t, 4, 0, 2)

	cfg := testConfig("replay")
	cfg.Replicas = 4

	alg, err := New(cfg, dm, dim, zerolog.Nop())
	require.NoError(t, err)

	res, err := alg.RunTask()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.TestAcc, float32(0))
	assert.LessOrEqual(t, res.TestAcc, float32(1))
}
