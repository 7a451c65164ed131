package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/miniflow/internal/tensor"
)

var (
	squareKind = MustRegister(Rule{
		Name:  "test_square",
		Arity: exactly(1),
		Forward: func(in []*tensor.Tensor) (*tensor.Tensor, error) {
			return in[0].Mul(in[0])
		},
		Backward: func(in []*tensor.Tensor, _, upstream *tensor.Tensor) ([]*tensor.Tensor, error) {
			g, err := upstream.Mul(in[0].Scale(2))
			return []*tensor.Tensor{g}, err
		},
	})
	forwardOnlyKind = MustRegister(Rule{
		Name:  "test_forward_only",
		Arity: exactly(1),
		Forward: func(in []*tensor.Tensor) (*tensor.Tensor, error) {
			return in[0], nil
		},
	})
	opaqueKind = MustRegister(Rule{Name: "test_opaque", Arity: exactly(1)})
)

func mustRows(t *testing.T, rows [][]float64) *tensor.Tensor {
	t.Helper()
	m, err := tensor.FromRows(rows)
	require.NoError(t, err)
	return m
}

func TestConstructTracksConsumers(t *testing.T) {
	g := New()
	x := g.Source("x")
	w := g.Source("w")
	b := g.Source("b")
	l := g.Linear(x, w, b)
	s := g.Sigmoid(l)
	sum := g.Add(s, s)

	assert.Equal(t, 6, g.Len())
	assert.Equal(t, []NodeID{x, w, b}, g.Inputs(l))
	assert.Equal(t, []NodeID{l}, g.Consumers(x))
	assert.Equal(t, []NodeID{sum, sum}, g.Consumers(s), "one consumer entry per input occurrence")
	assert.Empty(t, g.Consumers(sum))

	kind, err := g.Kind(l)
	require.NoError(t, err)
	assert.Equal(t, KindLinear, kind)
	assert.Equal(t, "linear", kind.String())
	assert.Equal(t, "x", g.Name(x))
}

func TestConstructErrors(t *testing.T) {
	g := New()
	x := g.Source("x")
	w := g.Source("w")

	tests := []struct {
		name   string
		kind   Kind
		inputs []NodeID
		want   error
	}{
		{"linear with two inputs", KindLinear, []NodeID{x, w}, ErrArityMismatch},
		{"sigmoid with two inputs", KindSigmoid, []NodeID{x, w}, ErrArityMismatch},
		{"mse with one input", KindMSE, []NodeID{x}, ErrArityMismatch},
		{"add with one input", KindAdd, []NodeID{x}, ErrArityMismatch},
		{"weighted sum with even inputs", KindWeightedSum, []NodeID{x, w}, ErrArityMismatch},
		{"source with inputs", KindSource, []NodeID{x}, ErrArityMismatch},
		{"unknown input", KindSigmoid, []NodeID{NodeID(42)}, ErrUnknownNode},
		{"negative input", KindSigmoid, []NodeID{NodeID(-1)}, ErrUnknownNode},
		{"unknown kind", Kind(999), []NodeID{x}, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Construct(tt.kind, tt.inputs...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 2, g.Len(), "failed constructions must not add nodes")
	assert.Empty(t, g.Consumers(x))
}

func TestTypedHelpersPanicOnMisuse(t *testing.T) {
	g := New()
	x := g.Source("x")

	assert.Panics(t, func() { g.Sigmoid(NodeID(7)) })
	assert.Panics(t, func() { g.Add(x) })
	assert.Panics(t, func() { g.WeightedSum([]NodeID{x}, nil, x) })
}

func TestSetTrainable(t *testing.T) {
	g := New()
	w := g.Source("w")
	s := g.Sigmoid(w)

	require.NoError(t, g.SetTrainable(w))
	assert.True(t, g.IsTrainable(w))
	assert.Equal(t, []NodeID{w}, g.Trainables())
	assert.Equal(t, []NodeID{w}, g.Sources())

	assert.ErrorIs(t, g.SetTrainable(s), ErrNotTrainable)
	assert.ErrorIs(t, g.SetTrainable(NodeID(10)), ErrUnknownNode)
	assert.False(t, g.IsTrainable(s))
}

func TestSetValueRequiresSource(t *testing.T) {
	g := New()
	x := g.Source("x")
	s := g.Sigmoid(x)

	require.NoError(t, g.SetValue(x, tensor.Scalar(1)))
	assert.Equal(t, 1.0, g.Value(x).Item())

	assert.ErrorIs(t, g.SetValue(s, tensor.Scalar(1)), ErrUnknownSource)
	assert.ErrorIs(t, g.SetValue(x, nil), ErrMissingValue)
	assert.Nil(t, g.Value(NodeID(5)))
}

func TestNodeLabels(t *testing.T) {
	g := New()
	x := g.Source("x")
	s := g.Sigmoid(x)

	assert.Equal(t, `"x"`, g.String(x))
	assert.Equal(t, "<id: 1, kind: sigmoid>", g.String(s))
	assert.Equal(t, "<nil>", g.String(NodeID(3)))

	require.NoError(t, g.SetName(s, "activation"))
	assert.Equal(t, `"activation"`, g.String(s))
}

func TestRegister(t *testing.T) {
	_, err := Register(Rule{Name: "test_square", Arity: exactly(1)})
	assert.Error(t, err, "duplicate names are rejected")

	_, err = Register(Rule{Arity: exactly(1)})
	assert.Error(t, err)

	_, err = Register(Rule{Name: "test_no_arity"})
	assert.Error(t, err)

	kind, ok := KindByName("test_square")
	require.True(t, ok)
	assert.Equal(t, squareKind, kind)
	assert.Equal(t, "test_square", squareKind.String())
	assert.Equal(t, "kind(999)", Kind(999).String())
}

func TestRegisteredKindEvaluates(t *testing.T) {
	g := New()
	x := g.Source("x")
	sq, err := g.Construct(squareKind, x)
	require.NoError(t, err)

	order, err := g.Schedule(Feed{x: tensor.Vector(1, -2, 3)})
	require.NoError(t, err)

	out, err := g.Forward(order)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 9}, out.Data())

	require.NoError(t, g.Backward(order))
	grad, err := g.PartialGradient(sq, x)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -4, 6}, grad.Data())
}

func TestMissingRules(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		g := New()
		x := g.Source("x")
		_, err := g.Construct(opaqueKind, x)
		require.NoError(t, err)

		order, err := g.Schedule(Feed{x: tensor.Scalar(1)})
		require.NoError(t, err)

		_, err = g.Forward(order)
		assert.ErrorIs(t, err, ErrMissingForward)
	})

	t.Run("backward", func(t *testing.T) {
		g := New()
		x := g.Source("x")
		_, err := g.Construct(forwardOnlyKind, x)
		require.NoError(t, err)

		order, err := g.Schedule(Feed{x: tensor.Scalar(1)})
		require.NoError(t, err)

		_, err = g.Forward(order)
		require.NoError(t, err)
		assert.ErrorIs(t, g.Backward(order), ErrMissingBackward)
	})
}
