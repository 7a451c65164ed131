package graph

import (
	"fmt"

	"github.com/born-ml/miniflow/internal/tensor"
)

// NodeID is the handle of a node: its index in the graph's arena.
type NodeID int

// node is an arena entry. Edges are stored in both directions as index lists.
type node struct {
	kind      Kind
	name      string
	inputs    []NodeID // ordered, as passed to Construct
	consumers []NodeID // one entry per input occurrence in a later node
	value     *tensor.Tensor
	trainable bool
}

// gradRecord holds the partial derivatives computed for one node during a
// backward pass: self is ∂cost/∂node and wrt[k] is the contribution to
// ∂cost/∂inputs[k] flowing through this node.
type gradRecord struct {
	self *tensor.Tensor
	wrt  []*tensor.Tensor
}

// label renders a node for error messages. Named nodes print their name;
// anonymous nodes print their id and kind.
func (n *node) label(id NodeID) string {
	if n.name != "" {
		return fmt.Sprintf("%q", n.name)
	}
	return fmt.Sprintf("<id: %d, kind: %s>", id, n.kind)
}
