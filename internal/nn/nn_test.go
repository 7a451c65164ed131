package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/nn"
	"github.com/born-ml/miniflow/internal/optim"
	"github.com/born-ml/miniflow/internal/tensor"
)

// TestParameter tests Parameter creation and binding.
func TestParameter(t *testing.T) {
	initial := tensor.Vector(1, 2, 3)
	param := nn.NewParameter("test_param", initial)

	assert.Equal(t, "test_param", param.Name())
	assert.Same(t, initial, param.Init())
	assert.Same(t, initial, param.Value(), "unbound parameters report their initial value")

	_, bound := param.Node()
	assert.False(t, bound)

	g := graph.New()
	id, err := param.Bind(g)
	require.NoError(t, err)
	assert.True(t, g.IsTrainable(id))
	assert.Equal(t, "test_param", g.Name(id))
	assert.Same(t, initial, g.Value(id))

	again, err := param.Bind(g)
	require.NoError(t, err)
	assert.Equal(t, id, again, "binding twice reuses the node")
	assert.Equal(t, 1, g.Len())

	_, err = param.Bind(graph.New())
	assert.Error(t, err)
}

func TestInitializers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	shape := tensor.Shape{20, 30}

	xavier := nn.Xavier(shape, 20, 30, rng)
	bound := math.Sqrt(6.0 / 50.0)
	for _, v := range xavier.Data() {
		assert.LessOrEqual(t, math.Abs(v), bound)
	}

	assert.Equal(t, 0.0, nn.Zeros(shape, 20, 30, rng).Sum())
	assert.Equal(t, 600.0, nn.Ones(shape, 20, 30, rng).Sum())

	randn := nn.Randn(shape, 20, 30, rng)
	assert.InDelta(t, 0.0, randn.Mean(), 0.2)

	for _, name := range []string{"xavier", "Randn", "zeros", "ones", "glorot", "normal"} {
		_, err := nn.InitializerByName(name)
		assert.NoError(t, err, name)
	}
	_, err := nn.InitializerByName("orthogonal")
	assert.Error(t, err)
}

func TestLinear(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layer := nn.NewLinear("l1", 3, 2, nn.Xavier, rng)

	assert.Equal(t, 3, layer.InFeatures())
	assert.Equal(t, 2, layer.OutFeatures())
	assert.Equal(t, tensor.Shape{3, 2}, layer.Weight().Init().Shape())
	assert.Equal(t, tensor.Shape{2}, layer.Bias().Init().Shape())
	assert.Len(t, layer.Parameters(), 2)

	g := graph.New()
	x := g.Source("x")
	out, err := layer.Forward(g, x)
	require.NoError(t, err)

	kind, err := g.Kind(out)
	require.NoError(t, err)
	assert.Equal(t, graph.KindLinear, kind)
	assert.Equal(t, "l1", g.Name(out))

	feed := nn.Feed(layer.Parameters())
	feed[x] = tensor.Ones(tensor.Shape{4, 3})
	order, err := g.Schedule(feed)
	require.NoError(t, err)

	value, err := g.Forward(order)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 2}, value.Shape())

	// Each row is the column sums of W since x is all ones and b is zero.
	w := layer.Weight().Init()
	wantRow, err := tensor.Ones(tensor.Shape{3}).MatMul(w)
	require.NoError(t, err)
	assert.InDeltaSlice(t, wantRow.Data(), value.Data()[:2], 1e-12)
}

func TestLinearSharesWeights(t *testing.T) {
	layer := nn.NewLinear("shared", 2, 2, nn.Ones, rand.New(rand.NewSource(1)))
	g := graph.New()
	x := g.Source("x")

	h, err := layer.Forward(g, x)
	require.NoError(t, err)
	_, err = layer.Forward(g, h)
	require.NoError(t, err)

	assert.Len(t, g.Trainables(), 2)
	assert.Len(t, nn.Nodes(layer.Parameters()), 2)
}

func TestSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	model := nn.NewSequential(
		nn.NewLinear("l1", 4, 3, nn.Xavier, rng),
		nn.NewSigmoid(),
	)
	model.Add(nn.NewLinear("l2", 3, 1, nn.Xavier, rng))

	assert.Equal(t, 3, model.Len())
	assert.Len(t, model.Parameters(), 4)
	assert.IsType(t, &nn.Sigmoid{}, model.Module(1))
	assert.Panics(t, func() { model.Module(3) })

	g := graph.New()
	x := g.Source("x")
	out, err := model.Forward(g, x)
	require.NoError(t, err)
	assert.Equal(t, "l2", g.Name(out))
}

func TestSequentialReportsFailingModule(t *testing.T) {
	model := nn.NewSequential(nn.NewSigmoid())
	_, err := model.Forward(graph.New(), graph.NodeID(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrUnknownNode)
	assert.Contains(t, err.Error(), "sequential module 0")
}

func TestRegressionLearns(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// y = 2·x1 - x2 + 0.5
	xs := make([][]float64, 32)
	ys := make([]float64, 32)
	for i := range xs {
		x1, x2 := rng.Float64()*2-1, rng.Float64()*2-1
		xs[i] = []float64{x1, x2}
		ys[i] = 2*x1 - x2 + 0.5
	}
	xv, err := tensor.FromRows(xs)
	require.NoError(t, err)
	yv := tensor.Vector(ys...)

	g := graph.New()
	reg, err := nn.NewRegression(g, nn.NewRegressor(2, 8, rng))
	require.NoError(t, err)
	assert.Len(t, reg.Params, 4)
	assert.Equal(t, "cost", g.Name(reg.Cost))

	feed := nn.Feed(reg.Params)
	feed[reg.X] = xv
	feed[reg.Y] = yv
	order, err := g.Schedule(feed)
	require.NoError(t, err)
	assert.Equal(t, reg.Cost, order.Sink())

	opt := optim.NewSGD(g, nn.Nodes(reg.Params), optim.SGDConfig{LR: 0.05, Momentum: 0.9})

	first, err := g.Forward(order)
	require.NoError(t, err)
	last := first
	for i := 0; i < 300; i++ {
		require.NoError(t, g.Backward(order))
		require.NoError(t, opt.Step())
		last, err = g.Forward(order)
		require.NoError(t, err)
	}

	assert.Less(t, last.Item(), first.Item()/4)
}
