package graph

import (
	"github.com/pkg/errors"

	"github.com/born-ml/miniflow/internal/tensor"
)

// UpdateFunc computes a trainable node's new value from its current value
// and its gradient ∂cost/∂node.
type UpdateFunc func(id NodeID, value, grad *tensor.Tensor) (*tensor.Tensor, error)

// Forward evaluates every node of the order in sequence and returns the value
// of the sink (the last node).
//
// Source nodes must already hold a value, normally assigned by Schedule or
// Refresh. Every other node is computed by its kind's forward rule from its
// inputs' values, which the order guarantees are current.
func (g *Graph) Forward(order Order) (*tensor.Tensor, error) {
	if len(order) == 0 {
		return nil, ErrEmptyOrder
	}

	g.evaluated = false
	g.hasGrads = false
	g.grads = nil

	for _, id := range order {
		if !g.valid(id) {
			return nil, errors.Wrapf(ErrUnknownNode, "forward: node %d", id)
		}
		n := &g.nodes[id]
		if n.kind == KindSource {
			if n.value == nil {
				return nil, errors.Wrapf(ErrMissingValue, "forward: source %s", n.label(id))
			}
			continue
		}

		rule, ok := lookup(n.kind)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownKind, "forward %s", n.label(id))
		}
		if rule.Forward == nil {
			return nil, errors.Wrapf(ErrMissingForward, "forward %s", n.label(id))
		}

		inputs, err := g.inputValues(id)
		if err != nil {
			return nil, err
		}
		out, err := rule.Forward(inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "forward %s", n.label(id))
		}
		n.value = out
	}

	g.evaluated = true
	g.forwardVersion = g.version
	return g.nodes[order.Sink()].value, nil
}

// Backward walks the order in reverse after a Forward over the same values
// and records, for every node, ∂cost/∂node and the partial derivatives with
// respect to each of its inputs. The sink is the cost: its upstream gradient
// is a tensor of ones.
//
// The upstream gradient of any other node is the sum, over its consumers in
// the order, of the gradient each consumer propagated to it. Source nodes only
// accumulate; they have no inputs to propagate to.
//
// Gradient records are allocated fresh on every call, so no gradient from an
// earlier pass survives.
func (g *Graph) Backward(order Order) error {
	if len(order) == 0 {
		return ErrEmptyOrder
	}
	if !g.evaluated || g.forwardVersion != g.version {
		return errors.Wrap(ErrNotEvaluated, "backward requires a forward pass over the current values")
	}

	position := make([]int, len(g.nodes))
	for i := range position {
		position[i] = -1
	}
	for i, id := range order {
		if !g.valid(id) {
			return errors.Wrapf(ErrUnknownNode, "backward: node %d", id)
		}
		if g.nodes[id].value == nil {
			return errors.Wrapf(ErrNotEvaluated, "backward: %s has no value", g.nodes[id].label(id))
		}
		position[id] = i
	}

	g.hasGrads = false
	grads := make([]gradRecord, len(g.nodes))
	sink := order.Sink()

	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		n := &g.nodes[id]

		upstream, err := g.upstream(id, sink, position, grads)
		if err != nil {
			return err
		}
		grads[id].self = upstream

		if n.kind == KindSource {
			continue
		}

		rule, ok := lookup(n.kind)
		if !ok {
			return errors.Wrapf(ErrUnknownKind, "backward %s", n.label(id))
		}
		if rule.Backward == nil {
			return errors.Wrapf(ErrMissingBackward, "backward %s", n.label(id))
		}

		inputs, err := g.inputValues(id)
		if err != nil {
			return err
		}
		wrt, err := rule.Backward(inputs, n.value, upstream)
		if err != nil {
			return errors.Wrapf(err, "backward %s", n.label(id))
		}
		if len(wrt) != len(n.inputs) {
			return errors.Errorf("backward %s: rule returned %d gradients for %d inputs",
				n.label(id), len(wrt), len(n.inputs))
		}
		grads[id].wrt = wrt
	}

	g.grads = grads
	g.gradVersion = g.version
	g.hasGrads = true
	return nil
}

// upstream sums the gradients that id's consumers propagated to it.
func (g *Graph) upstream(id, sink NodeID, position []int, grads []gradRecord) (*tensor.Tensor, error) {
	n := &g.nodes[id]
	if id == sink {
		return tensor.OnesLike(n.value), nil
	}

	var total *tensor.Tensor
	for i, c := range n.consumers {
		if position[c] < 0 {
			continue // Consumer was not evaluated in this order
		}
		// A consumer that takes id more than once appears once per occurrence;
		// all occurrences are summed the first time it is seen.
		if containsBefore(n.consumers, i, c) {
			continue
		}
		for k, in := range g.nodes[c].inputs {
			if in != id {
				continue
			}
			contribution := grads[c].wrt[k]
			if total == nil {
				total = contribution
				continue
			}
			sum, err := total.Add(contribution)
			if err != nil {
				return nil, errors.Wrapf(shapeError("backward", err), "accumulate gradient of %s", n.label(id))
			}
			total = sum
		}
	}

	if total == nil {
		return tensor.ZerosLike(n.value), nil
	}
	return total, nil
}

func containsBefore(ids []NodeID, end int, id NodeID) bool {
	for _, x := range ids[:end] {
		if x == id {
			return true
		}
	}
	return false
}

// inputValues collects the current values of a node's inputs.
func (g *Graph) inputValues(id NodeID) ([]*tensor.Tensor, error) {
	n := &g.nodes[id]
	values := make([]*tensor.Tensor, len(n.inputs))
	for k, in := range n.inputs {
		v := g.nodes[in].value
		if v == nil {
			return nil, errors.Wrapf(ErrMissingValue, "input %s of %s has no value",
				g.nodes[in].label(in), n.label(id))
		}
		values[k] = v
	}
	return values, nil
}

// Gradient returns ∂cost/∂id from the last Backward.
func (g *Graph) Gradient(id NodeID) (*tensor.Tensor, error) {
	if err := g.checkGrads(); err != nil {
		return nil, err
	}
	if !g.valid(id) {
		return nil, errors.Wrapf(ErrUnknownNode, "gradient %d", id)
	}
	grad := g.grads[id].self
	if grad == nil {
		return nil, errors.Wrapf(ErrNotEvaluated, "gradient: %s was not in the backward order", g.nodes[id].label(id))
	}
	return grad, nil
}

// PartialGradient returns the gradient that node propagated to one of its
// inputs in the last Backward, summed over every position the input occupies.
func (g *Graph) PartialGradient(node, input NodeID) (*tensor.Tensor, error) {
	if err := g.checkGrads(); err != nil {
		return nil, err
	}
	if !g.valid(node) || !g.valid(input) {
		return nil, errors.Wrapf(ErrUnknownNode, "partial gradient of %d with respect to %d", node, input)
	}

	rec := g.grads[node]
	if rec.wrt == nil {
		return nil, errors.Wrapf(ErrNotEvaluated, "partial gradient: %s has no input gradients", g.nodes[node].label(node))
	}

	var total *tensor.Tensor
	for k, in := range g.nodes[node].inputs {
		if in != input {
			continue
		}
		if total == nil {
			total = rec.wrt[k]
			continue
		}
		sum, err := total.Add(rec.wrt[k])
		if err != nil {
			return nil, shapeError("partial gradient", err)
		}
		total = sum
	}
	if total == nil {
		return nil, errors.Wrapf(ErrUnknownNode, "%s is not an input of %s",
			g.nodes[input].label(input), g.nodes[node].label(node))
	}
	return total, nil
}

// UpdateTrainables replaces the value of every listed trainable node with
// update(id, value, ∂cost/∂node). All new values are computed before any is
// assigned, so a failing update leaves the graph unchanged.
//
// The gradients are consumed: a second update requires another Forward and
// Backward.
func (g *Graph) UpdateTrainables(ids []NodeID, update UpdateFunc) error {
	if err := g.checkGrads(); err != nil {
		return err
	}

	next := make([]*tensor.Tensor, len(ids))
	for i, id := range ids {
		if !g.valid(id) {
			return errors.Wrapf(ErrUnknownNode, "update %d", id)
		}
		n := &g.nodes[id]
		if !n.trainable {
			return errors.Wrapf(ErrNotTrainable, "update %s", n.label(id))
		}
		grad := g.grads[id].self
		if grad == nil {
			return errors.Wrapf(ErrNotEvaluated, "update: %s was not in the backward order", n.label(id))
		}

		v, err := update(id, n.value, grad)
		if err != nil {
			return errors.Wrapf(err, "update %s", n.label(id))
		}
		if !v.Shape().Equal(n.value.Shape()) {
			return errors.Wrapf(ErrArityMismatch, "update %s: new value has shape %v, want %v",
				n.label(id), v.Shape(), n.value.Shape())
		}
		next[i] = v
	}

	for i, id := range ids {
		g.nodes[id].value = next[i]
	}
	g.version++
	g.hasGrads = false
	return nil
}

// ApplyGradientStep performs one gradient-descent step on the trainable nodes:
//
//	value = value - learningRate * ∂cost/∂node
func (g *Graph) ApplyGradientStep(trainables []NodeID, learningRate float64) error {
	return g.UpdateTrainables(trainables, func(_ NodeID, value, grad *tensor.Tensor) (*tensor.Tensor, error) {
		return value.Sub(grad.Scale(learningRate))
	})
}

// checkGrads fails unless the last Backward ran against the current values
// and its gradients have not been consumed by an update.
func (g *Graph) checkGrads() error {
	if !g.hasGrads {
		return errors.Wrap(ErrStaleGradient, "no gradients since the last forward pass or update")
	}
	if g.gradVersion != g.version {
		return errors.Wrap(ErrStaleGradient, "source values changed after the backward pass")
	}
	return nil
}
