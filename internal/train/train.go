// Package train runs the gradient descent loop over a dataset:
//
//	for each epoch:
//	    for each step:
//	        feed a batch to the features and targets inputs
//	        forward, backward, optimizer step
//
// Each run is tagged with a random id in the logs.
package train

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/born-ml/miniflow/internal/ctxlog"
	"github.com/born-ml/miniflow/internal/dataset"
	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/optim"
)

// ErrCostNotScalar is returned when the cost node does not evaluate to a
// single value.
var ErrCostNotScalar = errors.New("cost is not a scalar")

// Config holds the training loop settings.
type Config struct {
	Epochs int
	// BatchSize is the number of samples drawn with replacement per step,
	// with len(dataset)/BatchSize steps per epoch. 0 trains on the whole
	// shuffled dataset once per epoch.
	BatchSize int
	// Reschedule computes a new evaluation order every step instead of
	// refreshing the input values of the first one.
	Reschedule bool
	// LogEvery logs the loss at Info level every LogEvery epochs. 0 logs
	// every epoch.
	LogEvery int
}

// Model names the graph nodes the trainer drives.
type Model struct {
	Features graph.NodeID // Source fed with a [batch k] matrix
	Targets  graph.NodeID // Source fed with a [batch] vector
	Cost     graph.NodeID // Scalar cost, the sink of the schedule
}

// History records a run.
type History struct {
	RunID string
	Loss  []float64 // Mean step cost per completed epoch
}

// Trainer fits the trainable nodes of a graph to a dataset.
type Trainer struct {
	g     *graph.Graph
	model Model
	opt   optim.Optimizer
	cfg   Config
}

// New creates a trainer. The optimizer must update the graph's parameters.
func New(g *graph.Graph, model Model, opt optim.Optimizer, cfg Config) (*Trainer, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("epochs must be positive, got %d", cfg.Epochs)
	}
	if cfg.BatchSize < 0 {
		return nil, fmt.Errorf("batch size must not be negative, got %d", cfg.BatchSize)
	}
	for _, input := range []graph.NodeID{model.Features, model.Targets} {
		kind, err := g.Kind(input)
		if err != nil {
			return nil, fmt.Errorf("training input: %w", err)
		}
		if kind != graph.KindSource {
			return nil, fmt.Errorf("training input %s is a %s node", g.String(input), kind)
		}
	}
	if _, err := g.Kind(model.Cost); err != nil {
		return nil, fmt.Errorf("training cost: %w", err)
	}

	return &Trainer{g: g, model: model, opt: opt, cfg: cfg}, nil
}

// Run trains on ds for the configured number of epochs. ds is not modified.
//
// Cancelling ctx stops the run between steps; the history of the completed
// epochs is returned with the context's error.
func (t *Trainer) Run(ctx context.Context, ds *dataset.Dataset, rng *rand.Rand) (*History, error) {
	if ds.Len() == 0 {
		return nil, dataset.ErrEmpty
	}

	history := &History{RunID: uuid.NewString()}
	logger := ctxlog.FromContext(ctx).With("run_id", history.RunID)

	steps := 1
	if t.cfg.BatchSize > 0 {
		steps = max(1, ds.Len()/t.cfg.BatchSize)
	}
	logger.Info("Training started.",
		"epochs", t.cfg.Epochs,
		"samples", ds.Len(),
		"batch_size", t.cfg.BatchSize,
		"steps_per_epoch", steps,
		"learning_rate", t.opt.GetLR(),
	)

	work := ds.Clone()
	var order graph.Order

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		total := 0.0
		for step := 0; step < steps; step++ {
			if err := ctx.Err(); err != nil {
				logger.Warn("Training cancelled.", "epoch", epoch, "error", err)
				return history, err
			}

			loss, err := t.step(&order, t.batch(work, rng))
			if err != nil {
				return history, fmt.Errorf("epoch %d step %d: %w", epoch, step+1, err)
			}
			total += loss
		}

		loss := total / float64(steps)
		history.Loss = append(history.Loss, loss)
		if t.cfg.LogEvery <= 1 || epoch%t.cfg.LogEvery == 0 || epoch == t.cfg.Epochs {
			logger.Info("Epoch finished.", "epoch", epoch, "loss", loss)
		} else {
			logger.Debug("Epoch finished.", "epoch", epoch, "loss", loss)
		}
	}

	logger.Info("Training finished.", "final_loss", history.Loss[len(history.Loss)-1])
	return history, nil
}

// batch returns the samples of the next step.
func (t *Trainer) batch(work *dataset.Dataset, rng *rand.Rand) *dataset.Dataset {
	if t.cfg.BatchSize == 0 {
		work.Shuffle(rng)
		return work
	}
	return work.Resample(rng, t.cfg.BatchSize)
}

// step feeds one batch, runs forward and backward, and updates the
// parameters. It returns the batch cost before the update.
func (t *Trainer) step(order *graph.Order, batch *dataset.Dataset) (float64, error) {
	x, y, err := batch.Tensors()
	if err != nil {
		return 0, err
	}

	if *order == nil || t.cfg.Reschedule {
		if *order, err = t.schedule(graph.Feed{t.model.Features: x, t.model.Targets: y}); err != nil {
			return 0, err
		}
	} else if err := t.g.Refresh(graph.Feed{t.model.Features: x, t.model.Targets: y}); err != nil {
		return 0, err
	}

	if _, err := t.g.Forward(*order); err != nil {
		return 0, err
	}
	cost := t.g.Value(t.model.Cost)
	if cost.NumElements() != 1 {
		return 0, fmt.Errorf("%w: %s has shape %v", ErrCostNotScalar, t.g.String(t.model.Cost), cost.Shape())
	}
	loss := cost.Item()

	if err := t.g.Backward(*order); err != nil {
		return 0, err
	}
	if err := t.opt.Step(); err != nil {
		return 0, err
	}
	return loss, nil
}

// schedule orders the graph for a feed of the batch plus the current value of
// every other valued Source.
func (t *Trainer) schedule(batch graph.Feed) (graph.Order, error) {
	feed := make(graph.Feed)
	for _, id := range t.g.Sources() {
		if v := t.g.Value(id); v != nil {
			feed[id] = v
		}
	}
	for id, v := range batch {
		feed[id] = v
	}

	order, err := t.g.Schedule(feed)
	if err != nil {
		return nil, err
	}
	if order.Sink() != t.model.Cost {
		return nil, fmt.Errorf("cost %s is not the last scheduled node %s",
			t.g.String(t.model.Cost), t.g.String(order.Sink()))
	}
	return order, nil
}
