package train

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/miniflow/internal/ctxlog"
	"github.com/born-ml/miniflow/internal/dataset"
	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/nn"
	"github.com/born-ml/miniflow/internal/optim"
)

// linearData samples y = 2·x1 - x2 + 0.5 and normalizes the features.
func linearData(t *testing.T, m int, rng *rand.Rand) *dataset.Dataset {
	t.Helper()
	rows := make([][]float64, m)
	y := make([]float64, m)
	for i := range rows {
		x1, x2 := rng.NormFloat64(), rng.NormFloat64()
		rows[i] = []float64{x1, x2}
		y[i] = 2*x1 - x2 + 0.5
	}
	ds, err := dataset.New([]string{"x1", "x2"}, "y", rows, y)
	require.NoError(t, err)
	ds.Normalize()
	return ds
}

// linearModel wires cost = mse(y, X·W + b) with zero initial parameters.
func linearModel(t *testing.T) (*graph.Graph, Model, []graph.NodeID) {
	t.Helper()
	g := graph.New()
	x, y := g.Source("X"), g.Source("y")

	layer := nn.NewLinear("fc", 2, 1, nn.Zeros, rand.New(rand.NewSource(1)))
	out, err := layer.Forward(g, x)
	require.NoError(t, err)
	cost, err := nn.MSELoss(g, y, out)
	require.NoError(t, err)

	return g, Model{Features: x, Targets: y, Cost: cost}, nn.Nodes(layer.Parameters())
}

func TestRunFullBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ds := linearData(t, 64, rng)
	first := ds.X.At(0, 0)

	g, model, params := linearModel(t)
	opt := optim.NewSGD(g, params, optim.SGDConfig{LR: 0.05})
	trainer, err := New(g, model, opt, Config{Epochs: 200})
	require.NoError(t, err)

	history, err := trainer.Run(context.Background(), ds, rng)
	require.NoError(t, err)

	require.Len(t, history.Loss, 200)
	assert.NotEmpty(t, history.RunID)
	for i := 1; i < len(history.Loss); i++ {
		assert.LessOrEqual(t, history.Loss[i], history.Loss[i-1]+1e-12, "epoch %d", i+1)
	}
	assert.Less(t, history.Loss[199], history.Loss[0]/100)
	assert.Equal(t, first, ds.X.At(0, 0), "the dataset is not shuffled in place")
}

func TestRunMiniBatchRescheduled(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ds := linearData(t, 64, rng)

	g, model, params := linearModel(t)
	opt := optim.NewSGD(g, params, optim.SGDConfig{LR: 0.02, Momentum: 0.5})
	trainer, err := New(g, model, opt, Config{Epochs: 30, BatchSize: 16, Reschedule: true})
	require.NoError(t, err)

	history, err := trainer.Run(context.Background(), ds, rng)
	require.NoError(t, err)
	require.Len(t, history.Loss, 30)
	assert.Less(t, history.Loss[29], history.Loss[0]/10)
}

func TestRunLogsWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	rng := rand.New(rand.NewSource(1))
	g, model, params := linearModel(t)
	trainer, err := New(g, model, optim.NewSGD(g, params, optim.SGDConfig{}), Config{Epochs: 4, LogEvery: 2})
	require.NoError(t, err)

	history, err := trainer.Run(ctx, linearData(t, 8, rng), rng)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, history.RunID)
	assert.Contains(t, out, "Training started.")
	assert.Contains(t, out, "Training finished.")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("Epoch finished.")), "epochs 2 and 4")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rng := rand.New(rand.NewSource(1))
	g, model, params := linearModel(t)
	trainer, err := New(g, model, optim.NewSGD(g, params, optim.SGDConfig{}), Config{Epochs: 10})
	require.NoError(t, err)

	history, err := trainer.Run(ctx, linearData(t, 8, rng), rng)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, history)
	assert.Empty(t, history.Loss)
}

func TestRunRequiresCostSink(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g, model, params := linearModel(t)
	g.Sigmoid(model.Targets) // a later sink

	trainer, err := New(g, model, optim.NewSGD(g, params, optim.SGDConfig{}), Config{Epochs: 1})
	require.NoError(t, err)

	_, err = trainer.Run(context.Background(), linearData(t, 8, rng), rng)
	assert.Error(t, err)
}

func TestRunRejectsNonScalarCost(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := graph.New()
	x, y := g.Source("X"), g.Source("y")

	layer := nn.NewLinear("fc", 2, 1, nn.Zeros, rng)
	out, err := layer.Forward(g, x)
	require.NoError(t, err)
	model := Model{Features: x, Targets: y, Cost: out}

	trainer, err := New(g, model, optim.NewSGD(g, nn.Nodes(layer.Parameters()), optim.SGDConfig{}), Config{Epochs: 1})
	require.NoError(t, err)

	_, err = trainer.Run(context.Background(), linearData(t, 8, rng), rng)
	assert.ErrorIs(t, err, ErrCostNotScalar)
}

func TestNewErrors(t *testing.T) {
	g, model, params := linearModel(t)
	opt := optim.NewSGD(g, params, optim.SGDConfig{})

	_, err := New(g, model, opt, Config{})
	assert.Error(t, err, "no epochs")

	_, err = New(g, model, opt, Config{Epochs: 1, BatchSize: -1})
	assert.Error(t, err)

	bad := model
	bad.Features = model.Cost
	_, err = New(g, bad, opt, Config{Epochs: 1})
	assert.Error(t, err, "features must be a source")

	bad = model
	bad.Cost = graph.NodeID(100)
	_, err = New(g, bad, opt, Config{Epochs: 1})
	assert.ErrorIs(t, err, graph.ErrUnknownNode)
}
