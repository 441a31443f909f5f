// Package main provides the rehearsal CLI: class-incremental training
// runs driven by a config file.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rehearsal-ml/rehearsal/internal/cil"
	"github.com/rehearsal-ml/rehearsal/internal/config"
	"github.com/rehearsal-ml/rehearsal/internal/data"
)

const version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rehearsal",
		Short: "Class-incremental learning with rehearsal memory",
		Long: `rehearsal trains a classifier over a sequence of tasks, each
introducing new classes, while a bounded exemplar memory replays
earlier classes to limit forgetting.`,
		SilenceUsage: true,
	}
	root.AddCommand(newTrainCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rehearsal %s\n", version)
		},
	}
}

func newTrainCmd() *cobra.Command {
	var (
		configPath string
		dataset    string
		dataDir    string
		method     string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run an incremental training schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)

			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			if method != "" {
				cfg.Method = method
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			train, test, err := loadBenchmark(dataset, dataDir, cfg.Seed)
			if err != nil {
				return err
			}
			dm, err := data.NewSplitManager(train, test, cfg.InitClasses, cfg.Increment)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			log = log.With().Str("run_id", runID).Logger()
			log.Info().
				Str("method", cfg.Method).
				Str("dataset", dataset).
				Int("num_tasks", dm.NumTasks()).
				Int("num_classes", dm.NumClasses()).
				Int64("seed", cfg.Seed).
				Msg("starting run")

			alg, err := cil.New(cfg, dm, train.Dim(), log)
			if err != nil {
				return err
			}

			started := time.Now()
			for task := 0; task < dm.NumTasks(); task++ {
				res, err := alg.RunTask()
				if err != nil {
					return err
				}
				alg.FinalizeTask()
				log.Info().
					Int("task", res.Task).
					Int("total_classes", res.TotalClasses).
					Float32("test_acc", res.TestAcc).
					Int("exemplars", res.Exemplars).
					Msg("task complete")
			}

			log.Info().
				Dur("elapsed", time.Since(started)).
				Int("known_classes", alg.KnownClasses()).
				Msg("run complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.yaml, .json, or .toml)")
	cmd.Flags().StringVar(&dataset, "dataset", "synthetic", "benchmark dataset: synthetic or mnist")
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory holding MNIST IDX files")
	cmd.Flags().StringVar(&method, "method", "", "override the configured method (finetune, replay, der)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func loadBenchmark(dataset, dataDir string, seed int64) (train, test *data.Dataset, err error) {
	switch dataset {
	case "synthetic":
		cfg := data.DefaultSyntheticConfig()
		cfg.Seed = seed
		train, test = data.Synthetic(cfg)
		return train, test, nil
	case "mnist":
		return data.LoadMNIST(dataDir)
	default:
		return nil, nil, fmt.Errorf("unknown dataset %q (want synthetic or mnist)", dataset)
	}
}
