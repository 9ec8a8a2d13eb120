package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/protonn/trainer"
)

var errUsage = errors.New("protonn: invalid flags")

// config is the validated command line.
type config struct {
	DataDir       string
	Synthetic     bool
	ProjectionDim int
	NumPrototypes int
	Gamma         float64 // ≤ 0 ⇒ median heuristic
	RegW, RegB    float64
	RegZ          float64
	SpW, SpB, SpZ float64
	LearningRate  float64
	Epochs        int
	BatchSize     int
	PrintStep     int
	Loss          trainer.LossType
	Seed          int64
	Shuffle       bool
	PerEpoch      bool
	LogLevel      zerolog.Level
}

// parseConfig parses args (without the program name) into a config.
func parseConfig(args []string) (config, error) {
	var (
		cfg         config
		loss, level string
		fs          = flag.NewFlagSet("protonn", flag.ContinueOnError)
	)
	fs.StringVar(&cfg.DataDir, "data-dir", "", "directory holding train/test .npy or .csv files")
	fs.BoolVar(&cfg.Synthetic, "synthetic", false, "train on generated Gaussian blobs instead of -data-dir")
	fs.IntVar(&cfg.ProjectionDim, "projection-dim", 10, "projection dimension d")
	fs.IntVar(&cfg.NumPrototypes, "num-prototypes", 20, "number of prototypes m")
	fs.Float64Var(&cfg.Gamma, "gamma", 0, "RBF width; ≤0 estimates it with the median heuristic")
	fs.Float64Var(&cfg.RegW, "rW", 0, "L2 regularizer on W")
	fs.Float64Var(&cfg.RegB, "rB", 0, "L2 regularizer on B")
	fs.Float64Var(&cfg.RegZ, "rZ", 0, "L2 regularizer on Z")
	fs.Float64Var(&cfg.SpW, "sW", 1, "fraction of non-zeros kept in W")
	fs.Float64Var(&cfg.SpB, "sB", 1, "fraction of non-zeros kept in B")
	fs.Float64Var(&cfg.SpZ, "sZ", 1, "fraction of non-zeros kept in Z")
	fs.Float64Var(&cfg.LearningRate, "learning-rate", 0.1, "Adam step size")
	fs.IntVar(&cfg.Epochs, "epochs", 200, "number of epochs")
	fs.IntVar(&cfg.BatchSize, "batch-size", 16, "mini-batch size")
	fs.IntVar(&cfg.PrintStep, "print-step", 200, "log every N batches (0 disables)")
	fs.StringVar(&loss, "loss", string(trainer.CrossEntropy), "loss type: xentropy or l2")
	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed (0 = fixed default, -1 = time based)")
	fs.BoolVar(&cfg.Shuffle, "shuffle", false, "shuffle training rows every epoch")
	fs.BoolVar(&cfg.PerEpoch, "project-per-epoch", false, "hard-threshold once per epoch instead of per batch")
	fs.StringVar(&level, "log-level", "info", "zerolog level")
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w: %w", errUsage, err)
	}

	var err error
	if cfg.Loss, err = trainer.ParseLossType(loss); err != nil {
		return cfg, err
	}
	if cfg.LogLevel, err = zerolog.ParseLevel(level); err != nil {
		return cfg, fmt.Errorf("%w: -log-level: %v", errUsage, err)
	}
	if cfg.Seed == -1 {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg, cfg.validate()
}

// validate checks what the flag package cannot. Model and trainer parameters
// are validated again by their packages.
func (c config) validate() error {
	switch {
	case !c.Synthetic && c.DataDir == "":
		return fmt.Errorf("%w: -data-dir is required unless -synthetic is set", errUsage)
	case c.ProjectionDim <= 0, c.NumPrototypes <= 0:
		return fmt.Errorf("%w: -projection-dim and -num-prototypes must be positive", errUsage)
	case c.Epochs < 0, c.BatchSize <= 0, c.PrintStep < 0:
		return fmt.Errorf("%w: -epochs ≥ 0, -batch-size > 0, -print-step ≥ 0", errUsage)
	}
	return nil
}

// trainerOptions maps the flags onto trainer.Options.
func (c config) trainerOptions(log zerolog.Logger) trainer.Options {
	opts := trainer.DefaultOptions()
	opts.RegW, opts.RegB, opts.RegZ = c.RegW, c.RegB, c.RegZ
	opts.SparsityW, opts.SparsityB, opts.SparsityZ = c.SpW, c.SpB, c.SpZ
	opts.LearningRate = c.LearningRate
	opts.LossType = c.Loss
	opts.Shuffle = c.Shuffle
	opts.Seed = c.Seed
	if c.PerEpoch {
		opts.ProjectEvery = trainer.PerEpoch
	}
	opts.Logger = log
	return opts
}
