package network

import (
	"fmt"
	"sort"

	"github.com/born-ml/miniflow/internal/serialization"
	"github.com/born-ml/miniflow/internal/tensor"
)

// Parameters returns the current values of the trainable inputs, keyed by
// node name.
func (n *Network) Parameters() map[string]*tensor.Tensor {
	params := make(map[string]*tensor.Tensor, len(n.Params))
	for _, id := range n.Params {
		params[n.Graph.Name(id)] = n.Graph.Value(id)
	}
	return params
}

// LoadParameters replaces the values of the trainable inputs.
//
// Every trainable input must be present with its current shape, and no
// unknown names are accepted. Nothing is assigned when validation fails.
func (n *Network) LoadParameters(params map[string]*tensor.Tensor) error {
	byName := make(map[string]bool, len(n.Params))
	for _, id := range n.Params {
		name := n.Graph.Name(id)
		byName[name] = true

		value, ok := params[name]
		if !ok || value == nil {
			return fmt.Errorf("parameter %q missing", name)
		}
		if current := n.Graph.Value(id); current != nil && !current.Shape().Equal(value.Shape()) {
			return fmt.Errorf("parameter %q: shape %v, want %v", name, value.Shape(), current.Shape())
		}
	}

	var unknown []string
	for name := range params {
		if !byName[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown parameters %v", unknown)
	}

	for _, id := range n.Params {
		if err := n.Graph.SetValue(id, params[n.Graph.Name(id)]); err != nil {
			return err
		}
	}
	return nil
}

// SaveCheckpoint writes the trainable inputs to a SafeTensors file.
func (n *Network) SaveCheckpoint(path string, metadata map[string]string) error {
	return serialization.WriteSafeTensors(path, n.Parameters(), metadata)
}

// LoadCheckpoint reads trainable input values from a SafeTensors file.
func (n *Network) LoadCheckpoint(path string) (map[string]string, error) {
	params, metadata, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return nil, err
	}
	if err := n.LoadParameters(params); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return metadata, nil
}
