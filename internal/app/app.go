package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"

	"github.com/born-ml/miniflow/internal/config"
	"github.com/born-ml/miniflow/internal/ctxlog"
	"github.com/born-ml/miniflow/internal/dataset"
	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/network"
	"github.com/born-ml/miniflow/internal/optim"
	"github.com/born-ml/miniflow/internal/train"
)

// App encapsulates the application's dependencies and configuration.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loader  config.Loader
	history *train.History
}

// NewApp is the constructor for the main application. The logger writes to
// outW and is not installed as the global logger.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: appConfig,
		loader: loader,
	}
}

// History returns the history of the last completed run, or nil.
func (a *App) History() *train.History {
	return a.history
}

// Run loads the configuration and the dataset, builds the network and trains
// it.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	model, err := a.loader.Load(ctx, a.config.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	training := a.applyOverrides(model.Training)

	if model.Dataset == nil {
		return fmt.Errorf("configuration has no dataset block")
	}
	ds, err := dataset.LoadCSV(model.Dataset.Path, dataset.Options{
		Target:   model.Dataset.Target,
		Features: model.Dataset.Features,
	})
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if model.Dataset.Normalize {
		ds.Normalize()
	}
	a.logger.Info("Dataset loaded.", "path", model.Dataset.Path, "samples", ds.Len(), "features", ds.Features, "target", ds.Target)

	rng := rand.New(rand.NewSource(training.Seed))
	net, err := network.Build(model, ds.NumFeatures(), rng)
	if err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}
	if net.Features == network.NoNode || net.Targets == network.NoNode {
		return fmt.Errorf("network needs an input fed with %q and one fed with %q", config.FeedFeatures, config.FeedTargets)
	}
	if kind, err := net.Graph.Kind(net.Cost); err != nil || kind != graph.KindMSE {
		return fmt.Errorf("cost node %s must be an mse node", net.Graph.String(net.Cost))
	}
	a.logger.Debug("Network built.", "nodes", net.Graph.Len(), "parameters", len(net.Params), "cost", net.Graph.String(net.Cost))

	if a.config.LoadPath != "" {
		metadata, err := net.LoadCheckpoint(a.config.LoadPath)
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		a.logger.Info("Checkpoint loaded.", "path", a.config.LoadPath, "run_id", metadata["run_id"])
	}

	opt, err := optim.New(training.Optimizer, net.Graph, net.Params, optim.Options{
		LR:       training.LearningRate,
		Momentum: training.Momentum,
	})
	if err != nil {
		return err
	}

	trainer, err := train.New(net.Graph, train.Model{
		Features: net.Features,
		Targets:  net.Targets,
		Cost:     net.Cost,
	}, opt, train.Config{
		Epochs:     training.Epochs,
		BatchSize:  training.BatchSize,
		Reschedule: training.Reschedule,
		LogEvery:   a.config.LogEvery,
	})
	if err != nil {
		return err
	}

	history, err := trainer.Run(ctx, ds, rng)
	a.history = history
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if a.config.SavePath != "" {
		metadata := map[string]string{
			"run_id": history.RunID,
			"epochs": strconv.Itoa(len(history.Loss)),
		}
		if n := len(history.Loss); n > 0 {
			metadata["loss"] = strconv.FormatFloat(history.Loss[n-1], 'g', -1, 64)
		}
		if err := net.SaveCheckpoint(a.config.SavePath, metadata); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		a.logger.Info("Checkpoint saved.", "path", a.config.SavePath)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// applyOverrides returns the training settings with the command-line
// overrides applied.
func (a *App) applyOverrides(training *config.Training) *config.Training {
	t := *config.DefaultTraining()
	if training != nil {
		t = *training
	}
	if a.config.Epochs > 0 {
		t.Epochs = a.config.Epochs
	}
	if a.config.Seed != nil {
		t.Seed = *a.config.Seed
	}
	return &t
}
