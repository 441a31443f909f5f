package cil

import (
	"github.com/rs/zerolog"

	"github.com/rehearsal-ml/rehearsal/internal/common"
	"github.com/rehearsal-ml/rehearsal/internal/config"
	"github.com/rehearsal-ml/rehearsal/internal/data"
	"github.com/rehearsal-ml/rehearsal/internal/device"
	"github.com/rehearsal-ml/rehearsal/internal/ema"
	"github.com/rehearsal-ml/rehearsal/internal/memory"
	"github.com/rehearsal-ml/rehearsal/internal/nn"
	"github.com/rehearsal-ml/rehearsal/internal/optim"
	"github.com/rehearsal-ml/rehearsal/internal/tensor"
)

// Result summarizes one completed task.
type Result struct {
	Task         int
	TotalClasses int
	TrainLoss    float64
	TrainAcc     float32
	TestAcc      float32
	Exemplars    int
}

// Algorithm is one class-incremental learner driving a task sequence.
//
// The cycle per task is RunTask followed by FinalizeTask. RunTask is
// transactional: the learner's visible state (current task, class
// counts, exemplar memory) only changes once every step of the task
// succeeded, so a failed task leaves the learner where it was.
type Algorithm interface {
	// RunTask trains the next task in the schedule.
	RunTask() (Result, error)

	// FinalizeTask absorbs the trained classes: known classes catch up
	// with the total and the task becomes history.
	FinalizeTask()

	// CurTask is the index of the last task RunTask completed, -1 before
	// the first.
	CurTask() int

	// KnownClasses counts classes finalized by FinalizeTask.
	KnownClasses() int

	// TotalClasses counts classes trained so far, finalized or not.
	TotalClasses() int

	// ExemplarSize is the current rehearsal memory size, 0 for methods
	// without one.
	ExemplarSize() int

	// Network exposes the underlying model for evaluation.
	Network() nn.Network
}

// learner carries the shared task cycle; the method variants differ only
// in network construction, memory use, and expansion hooks.
type learner struct {
	cfg config.Config
	dm  data.Manager
	net nn.Network
	dev device.Config
	log zerolog.Logger

	memory   *memory.Store   // nil for the no-rehearsal baseline
	onExpand func(total int) // optional, runs after the head grows

	curTask      int // last completed task, -1 initially
	knownClasses int
	totalClasses int
}

// RunTask trains task curTask+1: expand the head, assemble loaders
// (with rehearsal exemplars when a memory is present), train under the
// task's schedule, rebuild the memory with the freshly trained extractor,
// and only then commit the new task state.
func (l *learner) RunTask() (Result, error) {
	task := l.curTask + 1
	if task >= l.dm.NumTasks() {
		return Result{}, common.NewStateError("run task",
			"schedule exhausted: all %d tasks trained", l.dm.NumTasks())
	}

	size, err := l.dm.TaskSize(task)
	if err != nil {
		return Result{}, err
	}
	total := l.knownClasses + size

	l.log.Info().
		Int("task", task).
		Int("known_classes", l.knownClasses).
		Int("total_classes", total).
		Msg("starting task")

	l.net.UpdateFC(total)
	if l.onExpand != nil {
		l.onExpand(total)
	}

	var appendent *data.Dataset
	if l.memory != nil {
		appendent = l.memory.Exemplars()
	}
	trainSet, err := l.dm.Dataset(l.knownClasses, total, data.SourceTrain, data.ModeTrain, appendent)
	if err != nil {
		return Result{}, err
	}
	testSet, err := l.dm.Dataset(0, total, data.SourceTest, data.ModeTest, nil)
	if err != nil {
		return Result{}, err
	}

	trainLoader, err := data.NewLoader(trainSet, l.cfg.BatchSize, data.ModeTrain, l.cfg.Seed+int64(task), l.dev)
	if err != nil {
		return Result{}, err
	}
	testLoader, err := data.NewLoader(testSet, l.cfg.BatchSize, data.ModeTest, l.cfg.Seed, l.dev)
	if err != nil {
		return Result{}, err
	}

	sched := l.cfg.Init
	if task > 0 {
		sched = l.cfg.Incremental
	}
	res, err := l.trainPhase(task, sched, trainLoader, testLoader)
	if err != nil {
		return Result{}, err
	}

	if l.memory != nil {
		extract := func(x *tensor.Tensor) (*tensor.Tensor, error) {
			return l.net.InferFeatures(x), nil
		}
		if err := l.memory.Rebuild(l.dm, extract, l.knownClasses, total); err != nil {
			return Result{}, err
		}
		res.Exemplars = l.memory.Size()
	}

	l.curTask = task
	l.totalClasses = total
	res.Task = task
	res.TotalClasses = total
	return res, nil
}

// FinalizeTask folds the trained classes into the known set.
func (l *learner) FinalizeTask() {
	l.knownClasses = l.totalClasses
	ev := l.log.Info().
		Int("task", l.curTask).
		Int("known_classes", l.knownClasses)
	if l.memory != nil {
		ev = ev.Int("exemplars", l.memory.Size())
	}
	ev.Msg("task finalized")
}

// trainPhase runs one task's epochs. Inference passes go through a
// data-parallel wrapper when replicas are configured; the gradient path
// is always sequential.
func (l *learner) trainPhase(task int, sched config.Schedule, trainLoader, testLoader *data.Loader) (Result, error) {
	var net nn.Network = l.net
	if l.dev.Replicas > 1 {
		net = nn.NewDataParallel(l.net, l.dev.Replicas)
	}

	opt := optim.NewSGD(net.Parameters(), optim.SGDConfig{
		LR:          sched.LR,
		Momentum:    sched.Momentum,
		WeightDecay: sched.WeightDecay,
	})
	var lrSched *optim.MultiStepLR
	if len(sched.Milestones) > 0 {
		var err error
		lrSched, err = optim.NewMultiStepLR(opt, sched.Milestones, sched.Gamma)
		if err != nil {
			return Result{}, err
		}
	}

	var shadow *ema.EMA
	if l.cfg.EMADecay > 0 {
		shadow = ema.New(net.Parameters(), l.cfg.EMADecay)
		shadow.Register()
	}
	bn := nn.NewBNController()

	loss := nn.NewCrossEntropyLoss()
	var res Result

	for epoch := 1; epoch <= sched.Epochs; epoch++ {
		net.SetTraining(true)

		batches, err := trainLoader.Batches()
		if err != nil {
			return Result{}, err
		}

		var lossSum float64
		var correct, seen int
		for _, b := range batches {
			out := net.Forward(b.X)
			lv := loss.Forward(out.Logits, b.Y)

			opt.ZeroGrad()
			net.Backward(loss.Backward())
			opt.Step()
			if shadow != nil {
				if err := shadow.Update(); err != nil {
					return Result{}, err
				}
			}

			lossSum += float64(lv) * float64(b.Size())
			for i, p := range out.Logits.ArgmaxRows() {
				if int32(p) == b.Y[i] {
					correct++
				}
			}
			seen += b.Size()
		}
		if lrSched != nil {
			lrSched.Step()
		}

		res.TrainLoss = lossSum / float64(seen)
		res.TrainAcc = float32(correct) / float32(seen)

		if epoch%l.cfg.EvalPeriod == 0 || epoch == sched.Epochs {
			testAcc, err := l.evaluate(net, testLoader, shadow, bn)
			if err != nil {
				return Result{}, err
			}
			res.TestAcc = testAcc

			l.log.Info().
				Int("task", task).
				Int("epoch", epoch).
				Float64("loss", res.TrainLoss).
				Float32("train_acc", res.TrainAcc).
				Float32("test_acc", testAcc).
				Float32("lr", opt.LR()).
				Msg("training progress")
		}
	}
	return res, nil
}

// evaluate measures accuracy on the loader. When an EMA shadow exists,
// evaluation runs under the averaged weights with batch-norm statistics
// frozen, and both are restored before returning.
func (l *learner) evaluate(net nn.Network, loader *data.Loader, shadow *ema.EMA, bn *nn.BNController) (float32, error) {
	net.SetTraining(false)
	defer net.SetTraining(true)

	if shadow != nil {
		if err := bn.Freeze(net.Modules()); err != nil {
			return 0, err
		}
		if err := shadow.Apply(); err != nil {
			return 0, err
		}
		defer func() {
			_ = shadow.Restore()
			_ = bn.Unfreeze(net.Modules())
		}()
	}

	batches, err := loader.Batches()
	if err != nil {
		return 0, err
	}
	var correct, seen int
	for _, b := range batches {
		logits := net.InferLogits(b.X)
		for i, p := range logits.ArgmaxRows() {
			if int32(p) == b.Y[i] {
				correct++
			}
		}
		seen += b.Size()
	}
	if seen == 0 {
		return 0, nil
	}
	return float32(correct) / float32(seen), nil
}

// Evaluate measures test accuracy over all classes trained so far.
func (l *learner) Evaluate() (float32, error) {
	if l.totalClasses == 0 {
		return 0, common.NewStateError("evaluate", "no classes trained yet")
	}
	testSet, err := l.dm.Dataset(0, l.totalClasses, data.SourceTest, data.ModeTest, nil)
	if err != nil {
		return 0, err
	}
	loader, err := data.NewLoader(testSet, l.cfg.BatchSize, data.ModeTest, l.cfg.Seed, l.dev)
	if err != nil {
		return 0, err
	}
	return l.evaluate(l.net, loader, nil, nil)
}

// CurTask returns the last completed task index, -1 before the first.
func (l *learner) CurTask() int {
	return l.curTask
}

// KnownClasses returns the number of finalized classes.
func (l *learner) KnownClasses() int {
	return l.knownClasses
}

// TotalClasses returns the number of classes trained so far.
func (l *learner) TotalClasses() int {
	return l.totalClasses
}

// ExemplarSize returns the rehearsal memory size, 0 without a memory.
func (l *learner) ExemplarSize() int {
	if l.memory == nil {
		return 0
	}
	return l.memory.Size()
}

// Network returns the underlying model.
func (l *learner) Network() nn.Network {
	return l.net
}
