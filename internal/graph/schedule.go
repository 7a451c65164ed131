package graph

import (
	"container/heap"
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/miniflow/internal/tensor"
)

// Feed maps Source nodes to their externally supplied values.
// Its keys are also the roots from which the scheduler discovers the graph.
type Feed map[NodeID]*tensor.Tensor

// Order is a topological evaluation order: every node appears after all of
// its inputs. The last node is the sink whose value Forward returns.
type Order []NodeID

// Sink returns the last node of the order. Panics on an empty order.
func (o Order) Sink() NodeID {
	return o[len(o)-1]
}

// Index returns the position of id in the order, or -1.
func (o Order) Index(id NodeID) int {
	return slices.Index(o, id)
}

// Schedule assigns the feed values to their Source nodes and returns a
// topological order of every node reachable from them, using Kahn's algorithm.
//
// Algorithm:
//  1. Breadth-first discovery from the roots along consumer edges, counting
//     each reachable node's incoming edges from other reachable nodes
//  2. Start the ready set with the roots
//  3. Repeatedly emit the ready node with the lowest NodeID, assign its feed
//     value if it is a Source, and release consumers whose count reaches zero
//  4. Fail if fewer nodes were emitted than discovered
//
// Ties between ready nodes are broken by lowest NodeID, so the order is
// deterministic for a given graph and feed.
//
// Errors:
//   - ErrUnknownSource if a feed key is not a Source node
//   - ErrMissingValue if a feed value is nil, or a reachable node depends on
//     a node that is not reachable from the feed
//   - ErrCycleDetected if the reachable subgraph contains a cycle
func (g *Graph) Schedule(feed Feed) (Order, error) {
	roots, err := g.checkFeed(feed)
	if err != nil {
		return nil, err
	}

	reachable, inDegree, count := g.discover(roots)

	for i := range g.nodes {
		if !reachable[i] {
			continue
		}
		for _, in := range g.nodes[i].inputs {
			if reachable[in] {
				continue
			}
			n := &g.nodes[i]
			if g.nodes[in].kind == KindSource {
				return nil, errors.Wrapf(ErrMissingValue, "%s depends on source %s which is not in the feed",
					n.label(NodeID(i)), g.nodes[in].label(in))
			}
			return nil, errors.Wrapf(ErrMissingValue, "%s depends on %s which is not reachable from the feed",
				n.label(NodeID(i)), g.nodes[in].label(in))
		}
	}

	ready := make(readyQueue, 0, len(roots))
	for _, id := range roots {
		heap.Push(&ready, id)
	}

	order := make(Order, 0, count)
	for ready.Len() > 0 {
		id := heap.Pop(&ready).(NodeID)
		order = append(order, id)

		for _, c := range g.nodes[id].consumers {
			inDegree[c]--
			if inDegree[c] == 0 {
				heap.Push(&ready, c)
			}
		}
	}
	if len(order) != count {
		return nil, errors.Wrapf(ErrCycleDetected, "scheduled %d of %d reachable nodes", len(order), count)
	}

	// Sources have no inputs, so the reachable ones are exactly the roots.
	for _, id := range roots {
		g.nodes[id].value = feed[id]
	}
	g.version++
	return order, nil
}

// Refresh re-supplies Source values so that an existing order can be
// evaluated again without rescheduling.
func (g *Graph) Refresh(feed Feed) error {
	if _, err := g.checkFeed(feed); err != nil {
		return err
	}
	for id, v := range feed {
		g.nodes[id].value = v
	}
	g.version++
	return nil
}

// checkFeed validates the feed and returns its keys in ascending order.
func (g *Graph) checkFeed(feed Feed) ([]NodeID, error) {
	if len(feed) == 0 {
		return nil, errors.Wrap(ErrMissingValue, "feed is empty")
	}

	roots := make([]NodeID, 0, len(feed))
	for id := range feed {
		roots = append(roots, id)
	}
	slices.Sort(roots)

	for _, id := range roots {
		if err := g.checkSource(id, feed[id]); err != nil {
			return nil, err
		}
	}
	return roots, nil
}

// discover walks consumer edges breadth-first from the roots. It returns the
// reachable set, the number of incoming edges each reachable node receives
// from reachable nodes, and the reachable node count.
func (g *Graph) discover(roots []NodeID) ([]bool, []int, int) {
	reachable := make([]bool, len(g.nodes))
	inDegree := make([]int, len(g.nodes))

	queue := make([]NodeID, 0, len(g.nodes))
	for _, id := range roots {
		reachable[id] = true
		queue = append(queue, id)
	}
	count := len(roots)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range g.nodes[id].consumers {
			inDegree[c]++
			if !reachable[c] {
				reachable[c] = true
				count++
				queue = append(queue, c)
			}
		}
	}
	return reachable, inDegree, count
}

// readyQueue is a min-heap of node ids.
type readyQueue []NodeID

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) {
	*q = append(*q, x.(NodeID))
}

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	id := old[n-1]
	*q = old[:n-1]
	return id
}
