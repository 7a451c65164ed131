package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/miniflow/internal/tensor"
)

func TestLinearForward(t *testing.T) {
	g := New()
	x, w, b := g.Source("x"), g.Source("w"), g.Source("b")
	g.Linear(x, w, b)

	order, err := g.Schedule(Feed{
		x: mustRows(t, [][]float64{{-1, -2}, {-1, -2}}),
		w: mustRows(t, [][]float64{{2, -3}, {2, -3}}),
		b: tensor.Vector(-3, -5),
	})
	require.NoError(t, err)

	out, err := g.Forward(order)
	require.NoError(t, err)
	assert.True(t, out.Equal(mustRows(t, [][]float64{{-9, 4}, {-9, 4}})), "got %v", out)
}

func TestLinearForwardShapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		x, w, b *tensor.Tensor
	}{
		{"inner dimension", tensor.Zeros(tensor.Shape{2, 3}), tensor.Zeros(tensor.Shape{2, 2}), tensor.Zeros(tensor.Shape{2})},
		{"vector weights", tensor.Zeros(tensor.Shape{2, 3}), tensor.Zeros(tensor.Shape{3}), tensor.Zeros(tensor.Shape{1})},
		{"bias width", tensor.Zeros(tensor.Shape{2, 3}), tensor.Zeros(tensor.Shape{3, 2}), tensor.Zeros(tensor.Shape{3})},
		{"bias grows output", tensor.Zeros(tensor.Shape{1, 3}), tensor.Zeros(tensor.Shape{3, 2}), tensor.Zeros(tensor.Shape{4, 2})},
		{"scalar input", tensor.Scalar(1), tensor.Zeros(tensor.Shape{1, 2}), tensor.Zeros(tensor.Shape{2})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			x, w, b := g.Source("x"), g.Source("w"), g.Source("b")
			g.Linear(x, w, b)

			order, err := g.Schedule(Feed{x: tt.x, w: tt.w, b: tt.b})
			require.NoError(t, err)

			_, err = g.Forward(order)
			assert.ErrorIs(t, err, ErrArityMismatch)

			var shapeErr *ShapeError
			assert.ErrorAs(t, err, &shapeErr)
		})
	}
}

func TestWeightedSumForward(t *testing.T) {
	g := New()
	x, y, z := g.Source("x"), g.Source("y"), g.Source("z")
	wx, wy, wz := g.Source("wx"), g.Source("wy"), g.Source("wz")
	bias := g.Source("bias")
	g.WeightedSum([]NodeID{x, y, z}, []NodeID{wx, wy, wz}, bias)

	order, err := g.Schedule(Feed{
		x: tensor.Scalar(6), y: tensor.Scalar(14), z: tensor.Scalar(3),
		wx: tensor.Scalar(0.5), wy: tensor.Scalar(0.25), wz: tensor.Scalar(1.4),
		bias: tensor.Scalar(2),
	})
	require.NoError(t, err)

	out, err := g.Forward(order)
	require.NoError(t, err)
	assert.InDelta(t, 12.7, out.Item(), 1e-12)
}

func TestSigmoidForward(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0.5},
		{50, 1},
		{-50, 0},
		{-1000, 0},
		{1000, 1},
	}

	for _, tt := range tests {
		g := New()
		x := g.Source("x")
		g.Sigmoid(x)

		order, err := g.Schedule(Feed{x: tensor.Scalar(tt.in)})
		require.NoError(t, err)

		out, err := g.Forward(order)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(out.Item()))
		assert.InDelta(t, tt.want, out.Item(), 1e-12, "sigmoid(%v)", tt.in)
	}
}

func TestMSEForward(t *testing.T) {
	tests := []struct {
		name string
		y, a *tensor.Tensor
		want float64
	}{
		{"equal", tensor.Vector(1, 2, 3), tensor.Vector(1, 2, 3), 0},
		{"ones against zeros", tensor.Vector(1, 1, 1), tensor.Vector(0, 0, 0), 1},
		{"vector against column", tensor.Vector(1, 2), tensor.Zeros(tensor.Shape{2, 1}), 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			y, a := g.Source("y"), g.Source("a")
			g.MSE(y, a)

			order, err := g.Schedule(Feed{y: tt.y, a: tt.a})
			require.NoError(t, err)

			out, err := g.Forward(order)
			require.NoError(t, err)
			assert.Equal(t, 0, out.Rank())
			assert.InDelta(t, tt.want, out.Item(), 1e-12)
		})
	}

	t.Run("element count mismatch", func(t *testing.T) {
		g := New()
		y, a := g.Source("y"), g.Source("a")
		g.MSE(y, a)

		order, err := g.Schedule(Feed{y: tensor.Vector(1, 2, 3), a: tensor.Vector(1, 2)})
		require.NoError(t, err)

		_, err = g.Forward(order)
		assert.ErrorIs(t, err, ErrArityMismatch)
	})
}

func TestForwardIsIdempotent(t *testing.T) {
	n := newNetwork(t)
	order, err := n.g.Schedule(n.feed())
	require.NoError(t, err)

	first, err := n.g.Forward(order)
	require.NoError(t, err)
	second, err := n.g.Forward(order)
	require.NoError(t, err)
	assert.Equal(t, first.Item(), second.Item())
}

func TestForwardErrors(t *testing.T) {
	g := New()
	x := g.Source("x")
	s := g.Sigmoid(x)

	_, err := g.Forward(nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = g.Forward(Order{x, s})
	assert.ErrorIs(t, err, ErrMissingValue, "x was never assigned")

	_, err = g.Forward(Order{NodeID(12)})
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestBackwardRequiresCurrentForward(t *testing.T) {
	n := newNetwork(t)
	order, err := n.g.Schedule(n.feed())
	require.NoError(t, err)

	assert.ErrorIs(t, n.g.Backward(order), ErrNotEvaluated)
	assert.ErrorIs(t, n.g.Backward(nil), ErrEmptyOrder)

	_, err = n.g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, n.g.SetValue(n.x, n.xv.Scale(2)))
	assert.ErrorIs(t, n.g.Backward(order), ErrNotEvaluated, "x changed since the forward pass")

	_, err = n.g.Forward(order)
	require.NoError(t, err)
	assert.NoError(t, n.g.Backward(order))
}

func TestBackwardSeedsSinkWithOnes(t *testing.T) {
	n := newNetwork(t)
	order, err := n.g.Schedule(n.feed())
	require.NoError(t, err)
	_, err = n.g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, n.g.Backward(order))

	grad, err := n.g.Gradient(n.cost)
	require.NoError(t, err)
	assert.Equal(t, 1.0, grad.Item())

	// Source gradients are shaped like their values.
	for _, id := range []NodeID{n.x, n.y, n.w1, n.b1, n.w2, n.b2} {
		grad, err := n.g.Gradient(id)
		require.NoError(t, err)
		assert.Equal(t, n.g.Value(id).Shape(), grad.Shape(), "gradient of %s", n.g.String(id))
	}
}

// numericGradient differentiates the cost with respect to one Source by
// central finite differences over its flattened value.
func numericGradient(t *testing.T, g *Graph, order Order, id NodeID) []float64 {
	t.Helper()
	orig := g.Value(id)
	shape := orig.Shape()

	cost := func(p []float64) float64 {
		v, err := tensor.FromSlice(p, shape)
		require.NoError(t, err)
		require.NoError(t, g.SetValue(id, v))
		out, err := g.Forward(order)
		require.NoError(t, err)
		return out.Item()
	}
	grad := fd.Gradient(nil, cost, orig.Data(), &fd.Settings{Formula: fd.Central})

	require.NoError(t, g.SetValue(id, orig))
	return grad
}

func analyticGradient(t *testing.T, g *Graph, order Order, id NodeID) []float64 {
	t.Helper()
	_, err := g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, g.Backward(order))
	grad, err := g.Gradient(id)
	require.NoError(t, err)
	return grad.Data()
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	n := newNetwork(t)
	order, err := n.g.Schedule(n.feed())
	require.NoError(t, err)

	for _, id := range []NodeID{n.x, n.y, n.w1, n.b1, n.w2, n.b2} {
		t.Run(n.g.Name(id), func(t *testing.T) {
			want := numericGradient(t, n.g, order, id)
			got := analyticGradient(t, n.g, order, id)
			assert.InDeltaSlice(t, want, got, 1e-6)
		})
	}
}

func TestWeightedSumGradients(t *testing.T) {
	g := New()
	x, y := g.Source("x"), g.Source("y")
	wx, wy := g.Source("wx"), g.Source("wy")
	bias := g.Source("bias")
	target := g.Source("target")
	ws := g.WeightedSum([]NodeID{x, y}, []NodeID{wx, wy}, bias)
	g.MSE(target, g.Sigmoid(ws))

	order, err := g.Schedule(Feed{
		x: tensor.Scalar(0.6), y: tensor.Scalar(-1.4),
		wx: tensor.Scalar(0.5), wy: tensor.Scalar(0.25),
		bias: tensor.Scalar(0.2), target: tensor.Scalar(1),
	})
	require.NoError(t, err)

	for _, id := range []NodeID{x, y, wx, wy, bias} {
		t.Run(g.Name(id), func(t *testing.T) {
			want := numericGradient(t, g, order, id)
			got := analyticGradient(t, g, order, id)
			assert.InDeltaSlice(t, want, got, 1e-6)
		})
	}

	// Scalar rules directly: d(ws)/dx = wx and d(ws)/dwx = x.
	_, err = g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, g.Backward(order))
	upstream, err := g.Gradient(ws)
	require.NoError(t, err)
	dx, err := g.PartialGradient(ws, x)
	require.NoError(t, err)
	dwx, err := g.PartialGradient(ws, wx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*upstream.Item(), dx.Item(), 1e-12)
	assert.InDelta(t, 0.6*upstream.Item(), dwx.Item(), 1e-12)
}

func TestFanOutAccumulatesGradients(t *testing.T) {
	g := New()
	a := g.Source("a")
	target := g.Source("target")
	sum := g.Add(g.Sigmoid(a), g.Sigmoid(a), a, a)
	g.MSE(target, sum)

	order, err := g.Schedule(Feed{a: tensor.Vector(0.3, -0.8), target: tensor.Vector(1, 2)})
	require.NoError(t, err)

	want := numericGradient(t, g, order, a)
	got := analyticGradient(t, g, order, a)
	assert.InDeltaSlice(t, want, got, 1e-6)

	upstream, err := g.Gradient(sum)
	require.NoError(t, err)
	partial, err := g.PartialGradient(sum, a)
	require.NoError(t, err)
	assert.InDeltaSlice(t, upstream.Scale(2).Data(), partial.Data(), 1e-12, "a occupies two positions of the sum")

	_, err = g.PartialGradient(sum, target)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestAddBroadcastGradient(t *testing.T) {
	g := New()
	m, v := g.Source("m"), g.Source("v")
	sum := g.Add(m, v)

	order, err := g.Schedule(Feed{m: tensor.Zeros(tensor.Shape{3, 2}), v: tensor.Vector(1, 2)})
	require.NoError(t, err)
	_, err = g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, g.Backward(order))

	dv, err := g.PartialGradient(sum, v)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, dv.Shape())
	assert.Equal(t, []float64{3, 3}, dv.Data())
}

func TestApplyGradientStep(t *testing.T) {
	n := newNetwork(t)
	order, err := n.g.Schedule(n.feed())
	require.NoError(t, err)
	_, err = n.g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, n.g.Backward(order))

	const rate = 0.1
	params := n.g.Trainables()
	want := make(map[NodeID]*tensor.Tensor, len(params))
	for _, id := range params {
		grad, err := n.g.Gradient(id)
		require.NoError(t, err)
		next, err := n.g.Value(id).Sub(grad.Scale(rate))
		require.NoError(t, err)
		want[id] = next
	}

	require.NoError(t, n.g.ApplyGradientStep(params, rate))
	for _, id := range params {
		assert.True(t, want[id].Equal(n.g.Value(id)), "%s: got %v, want %v", n.g.String(id), n.g.Value(id), want[id])
	}

	// The inputs are not trainable and were left alone.
	assert.Same(t, n.xv, n.g.Value(n.x))
}

func TestApplyGradientStepScalar(t *testing.T) {
	g := New()
	w := g.Source("w")
	target := g.Source("target")
	g.MSE(target, w)
	require.NoError(t, g.SetTrainable(w))

	order, err := g.Schedule(Feed{w: tensor.Scalar(3), target: tensor.Scalar(1)})
	require.NoError(t, err)
	_, err = g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, g.Backward(order))

	// d/dw (1 - w)² = -2(1 - w) = 4 at w = 3.
	require.NoError(t, g.ApplyGradientStep([]NodeID{w}, 0.25))
	assert.Equal(t, 3-0.25*4.0, g.Value(w).Item())
}

func TestApplyGradientStepErrors(t *testing.T) {
	n := newNetwork(t)
	order, err := n.g.Schedule(n.feed())
	require.NoError(t, err)

	assert.ErrorIs(t, n.g.ApplyGradientStep(n.g.Trainables(), 0.1), ErrStaleGradient, "no backward yet")

	_, err = n.g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, n.g.Backward(order))

	assert.ErrorIs(t, n.g.ApplyGradientStep([]NodeID{n.w1, n.x}, 0.1), ErrNotTrainable)
	assert.True(t, n.w1v.Equal(n.g.Value(n.w1)), "a failed step must not update any node")

	require.NoError(t, n.g.ApplyGradientStep(n.g.Trainables(), 0.1))
	assert.ErrorIs(t, n.g.ApplyGradientStep(n.g.Trainables(), 0.1), ErrStaleGradient, "gradients were consumed")

	_, err = n.g.Gradient(n.w1)
	assert.ErrorIs(t, err, ErrStaleGradient)

	_, err = n.g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, n.g.Backward(order))
	require.NoError(t, n.g.Refresh(Feed{n.x: n.xv}))
	assert.ErrorIs(t, n.g.ApplyGradientStep(n.g.Trainables(), 0.1), ErrStaleGradient, "sources changed after backward")
}

func TestGradientDescentReducesConvexCost(t *testing.T) {
	// cost(w, b) = mean((y - (x·w + b))²) is a convex quadratic in w and b.
	g := New()
	x, y := g.Source("x"), g.Source("y")
	w, b := g.Source("w"), g.Source("b")
	g.MSE(y, g.Linear(x, w, b))
	require.NoError(t, g.SetTrainable(w))
	require.NoError(t, g.SetTrainable(b))

	order, err := g.Schedule(Feed{
		x: mustRows(t, [][]float64{{1}, {2}, {3}}),
		y: tensor.Vector(2, 4, 6),
		w: tensor.Zeros(tensor.Shape{1, 1}),
		b: tensor.Zeros(tensor.Shape{1}),
	})
	require.NoError(t, err)

	prev := math.Inf(1)
	first := 0.0
	for step := 0; step < 400; step++ {
		cost, err := g.Forward(order)
		require.NoError(t, err)
		if step == 0 {
			first = cost.Item()
		}
		assert.LessOrEqual(t, cost.Item(), prev+1e-12, "step %d", step)
		prev = cost.Item()

		require.NoError(t, g.Backward(order))
		require.NoError(t, g.ApplyGradientStep(g.Trainables(), 0.05))
	}

	assert.Less(t, prev, first/100)
}

func TestMultipleSinksOnlySeedLast(t *testing.T) {
	g := New()
	a := g.Source("a")
	side := g.Sigmoid(a)
	target := g.Source("target")
	cost := g.MSE(target, a)

	order, err := g.Schedule(Feed{a: tensor.Scalar(2), target: tensor.Scalar(0)})
	require.NoError(t, err)
	assert.Equal(t, cost, order.Sink())

	_, err = g.Forward(order)
	require.NoError(t, err)
	require.NoError(t, g.Backward(order))

	sideGrad, err := g.Gradient(side)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sideGrad.Item())

	da, err := g.Gradient(a)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, da.Item(), 1e-12)
}
