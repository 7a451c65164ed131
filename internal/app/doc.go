// Package app wires configuration loading, dataset preparation, graph
// construction and training into a single run.
package app
