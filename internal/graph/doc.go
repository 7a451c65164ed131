// Package graph implements the computation-graph engine: an arena of
// differentiable nodes, a deterministic topological scheduler and the
// forward/backward executor.
//
// Nodes are addressed by NodeID, their index in the arena. Each node records
// its ordered inputs and the nodes that consume it, so the scheduler can walk
// the graph from its Source nodes without any other bookkeeping.
//
// A training iteration always runs the same steps:
//
//	order, err := g.Schedule(feed)   // or g.Refresh(feed) to reuse an order
//	cost, err := g.Forward(order)
//	err = g.Backward(order)
//	err = g.ApplyGradientStep(g.Trainables(), 0.01)
//
// The graph tracks which Source values each pass ran against. Backward refuses
// to run on values that changed since the last Forward, and gradients are
// consumed by the update that uses them, so a stale gradient is never applied.
//
// The computation of each node kind lives in a dispatch table. Linear,
// Sigmoid, MSE, Add and WeightedSum are built in; Register adds more.
//
// A Graph is not safe for concurrent use.
package graph
