package graph

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/miniflow/internal/tensor"
)

// Kind identifies the computation a node performs.
//
// Built-in kinds form a closed set. Extensions add kinds with Register, which
// assigns the next free Kind and stores the computation rule in the dispatch
// table consulted by Forward and Backward.
type Kind uint16

// Built-in node kinds.
const (
	KindSource      Kind = iota // graph input, value supplied by a Feed
	KindLinear                  // X·W + b
	KindSigmoid                 // 1 / (1 + e^-x)
	KindMSE                     // mean((y - a)²)
	KindAdd                     // x1 + x2 + ... + xn
	KindWeightedSum             // Σ xi·wi + b over scalar-valued inputs
)

// ForwardFunc computes a node's value from its input values.
type ForwardFunc func(inputs []*tensor.Tensor) (*tensor.Tensor, error)

// BackwardFunc computes the partial derivative of the cost with respect to
// each input, given the node's forward output and the upstream gradient
// ∂cost/∂output. It returns one gradient per input, shaped like that input.
type BackwardFunc func(inputs []*tensor.Tensor, output, upstream *tensor.Tensor) ([]*tensor.Tensor, error)

// Rule is the dispatch-table entry for a node kind.
type Rule struct {
	Name     string
	Arity    func(n int) bool // Reports whether n inputs are acceptable
	Forward  ForwardFunc
	Backward BackwardFunc
}

var (
	rulesMu sync.RWMutex
	rules   = []Rule{
		KindSource:      {Name: "source", Arity: exactly(0)},
		KindLinear:      linearRule,
		KindSigmoid:     sigmoidRule,
		KindMSE:         mseRule,
		KindAdd:         addRule,
		KindWeightedSum: weightedSumRule,
	}
)

// Register adds a node kind to the dispatch table and returns its Kind.
//
// Forward and Backward may be nil; evaluating such a node then fails with
// ErrMissingForward or ErrMissingBackward.
//
// Example:
//
//	square, err := graph.Register(graph.Rule{
//	    Name:  "square",
//	    Arity: func(n int) bool { return n == 1 },
//	    Forward: func(in []*tensor.Tensor) (*tensor.Tensor, error) {
//	        return in[0].Mul(in[0])
//	    },
//	})
func Register(rule Rule) (Kind, error) {
	if rule.Name == "" {
		return 0, errors.New("register: rule name is empty")
	}
	if rule.Arity == nil {
		return 0, errors.Errorf("register %q: arity check is nil", rule.Name)
	}

	rulesMu.Lock()
	defer rulesMu.Unlock()

	for _, r := range rules {
		if r.Name == rule.Name {
			return 0, errors.Errorf("register %q: kind already registered", rule.Name)
		}
	}
	rules = append(rules, rule)
	return Kind(len(rules) - 1), nil
}

// MustRegister is like Register but panics on error.
func MustRegister(rule Rule) Kind {
	k, err := Register(rule)
	if err != nil {
		panic(err)
	}
	return k
}

// KindByName returns the registered kind with the given rule name.
func KindByName(name string) (Kind, bool) {
	rulesMu.RLock()
	defer rulesMu.RUnlock()

	for i, r := range rules {
		if r.Name == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// lookup returns the dispatch-table entry for k.
func lookup(k Kind) (Rule, bool) {
	rulesMu.RLock()
	defer rulesMu.RUnlock()

	if int(k) >= len(rules) {
		return Rule{}, false
	}
	return rules[k], true
}

// String returns the rule name of the kind.
func (k Kind) String() string {
	if r, ok := lookup(k); ok {
		return r.Name
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

func exactly(n int) func(int) bool {
	return func(got int) bool { return got == n }
}

func atLeast(n int) func(int) bool {
	return func(got int) bool { return got >= n }
}
