// Command protonn trains a ProtoNN classifier and reports its test accuracy
// and model size.
//
//	protonn -data-dir ./curet -projection-dim 60 -num-prototypes 80 -gamma 0.0015 -learning-rate 0.1
//	protonn -synthetic -projection-dim 5 -num-prototypes 8 -epochs 50
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/katalvlaran/protonn/dataset"
	"github.com/katalvlaran/protonn/gamma"
	"github.com/katalvlaran/protonn/matrix"
	"github.com/katalvlaran/protonn/model"
	"github.com/katalvlaran/protonn/modelsize"
	"github.com/katalvlaran/protonn/trainer"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := parseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("protonn: configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	if err = run(cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("protonn: run failed")
	}
}

// run executes one training session end to end.
func run(cfg config, logger zerolog.Logger) error {
	ds, err := loadData(cfg)
	if err != nil {
		return err
	}
	logger.Info().
		Int("data_dim", ds.DataDim).
		Int("num_classes", ds.NumClasses).
		Int("train_rows", ds.Train.X.Rows()).
		Int("test_rows", ds.Test.X.Rows()).
		Msg("protonn: data loaded")

	mcfg := model.Config{
		DataDim:       ds.DataDim,
		ProjectionDim: cfg.ProjectionDim,
		NumPrototypes: cfg.NumPrototypes,
		NumClasses:    ds.NumClasses,
		Gamma:         cfg.Gamma,
	}

	var initer model.Init = model.RandomInit{Seed: cfg.Seed}
	if cfg.Gamma <= 0 {
		if gamma.ProjectionExceedsData(cfg.ProjectionDim, ds.DataDim) {
			logger.Warn().
				Int("projection_dim", cfg.ProjectionDim).
				Int("data_dim", ds.DataDim).
				Msg("protonn: projection dimension exceeds data dimension; the gamma estimate may be poor, consider passing -gamma")
		}
		gopts := gamma.DefaultOptions()
		gopts.Seed = cfg.Seed
		est, err := gamma.MedianHeuristic(ds.Train.X, cfg.ProjectionDim, cfg.NumPrototypes, gopts)
		if err != nil {
			return err
		}
		logger.Info().Float64("gamma", est.Gamma).Float64("median", est.Median).Msg("protonn: median heuristic")
		mcfg.Gamma = est.Gamma
		initer = model.SeededInit{W: est.W, B: est.B, Seed: cfg.Seed}
	}

	m, err := model.New(mcfg, initer)
	if err != nil {
		return err
	}
	tr, err := trainer.New(m, cfg.trainerOptions(logger))
	if err != nil {
		return err
	}
	hist, err := tr.Train(cfg.BatchSize, cfg.Epochs, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, cfg.PrintStep)
	if err != nil {
		return err
	}

	acc, err := m.Accuracy(ds.Test.X, ds.Test.Y)
	if err != nil {
		return err
	}
	w, b, z, _ := m.Matrices()
	mats := []matrix.Matrix{w, b, z}
	sps := []float64{cfg.SpW, cfg.SpB, cfg.SpZ}
	expected, err := modelsize.Expected(mats, sps, modelsize.DefaultBytesPerVar)
	if err != nil {
		return err
	}
	actual, err := modelsize.Actual(mats, sps, modelsize.DefaultBytesPerVar)
	if err != nil {
		return err
	}

	logger.Info().
		Float64("test_accuracy", acc).
		Float64("final_mean_loss", hist.Last().MeanLoss).
		Int("constraint_bytes", expected.Bytes).
		Int("constraint_nnz", expected.NonZeros).
		Int("actual_bytes", actual.Bytes).
		Int("actual_nnz", actual.NonZeros).
		Bool("sparse", actual.HasSparse).
		Msg("protonn: done")
	return nil
}

func loadData(cfg config) (*dataset.Dataset, error) {
	if cfg.Synthetic {
		opts := dataset.DefaultBlobOptions()
		opts.Seed = cfg.Seed
		return dataset.Blobs(opts)
	}
	return dataset.LoadDir(cfg.DataDir)
}
