package hclconfig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/born-ml/miniflow/internal/config"
	"github.com/born-ml/miniflow/internal/ctxlog"
)

func translateDataset(b *datasetBlock, dir string) *config.Dataset {
	path := b.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return &config.Dataset{
		Path:      path,
		Target:    b.Target,
		Features:  b.Features,
		Normalize: b.Normalize,
	}
}

// translateTraining overlays the attributes present in b on the defaults.
func translateTraining(b *trainingBlock) *config.Training {
	t := config.DefaultTraining()
	if b.Epochs != nil {
		t.Epochs = *b.Epochs
	}
	if b.BatchSize != nil {
		t.BatchSize = *b.BatchSize
	}
	if b.LearningRate != nil {
		t.LearningRate = *b.LearningRate
	}
	if b.Optimizer != nil {
		t.Optimizer = *b.Optimizer
	}
	if b.Momentum != nil {
		t.Momentum = *b.Momentum
	}
	if b.Seed != nil {
		t.Seed = *b.Seed
	}
	if b.Reschedule != nil {
		t.Reschedule = *b.Reschedule
	}
	return t
}

// translateNode decodes a node block. References are collected as names and
// resolved later by the network builder.
func (l *Loader) translateNode(ctx context.Context, block *hcl.Block) (*config.Node, error) {
	logger := ctxlog.FromContext(ctx)
	node := &config.Node{Kind: config.NodeKind(block.Type), Name: block.Labels[0]}
	logger.Debug("Translating node block.", "kind", block.Type, "name", node.Name)

	var refs refCollector
	switch node.Kind {
	case config.KindInput:
		var b inputBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		node.Feed = b.Feed
		node.Shape = b.Shape
		node.Init = b.Init
		node.Trainable = b.Trainable
		if isExprDefined(ctx, b.Value, "value") {
			lit, err := literalFromExpr(b.Value)
			if err != nil {
				return nil, fmt.Errorf("input %q: %w", node.Name, err)
			}
			node.Value = lit
		}

	case config.KindLinear:
		var b linearBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		refs.one("input", b.Input)
		refs.one("weights", b.Weights)
		refs.one("bias", b.Bias)

	case config.KindDense:
		var b denseBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		refs.one("input", b.Input)
		node.Units = b.Units
		node.Init = b.Init

	case config.KindSigmoid:
		var b sigmoidBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		refs.one("input", b.Input)

	case config.KindAdd:
		var b addBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		refs.list("inputs", b.Inputs)

	case config.KindWeightedSum:
		var b weightedSumBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		refs.list("inputs", b.Inputs)
		refs.list("weights", b.Weights)
		refs.one("bias", b.Bias)

	case config.KindMSE:
		var b mseBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		refs.one("y", b.Y)
		refs.one("a", b.A)

	default:
		return nil, fmt.Errorf("unsupported block type %q", block.Type)
	}

	if refs.err != nil {
		return nil, fmt.Errorf("%s %q: %w", node.Kind, node.Name, refs.err)
	}
	node.Refs = refs.refs
	return node, nil
}

// refCollector accumulates references, keeping the first error.
type refCollector struct {
	refs []config.Ref
	err  error
}

func (c *refCollector) one(role string, expr hcl.Expression) {
	if c.err != nil {
		return
	}
	name, err := referenceName(expr)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", role, err)
		return
	}
	c.refs = append(c.refs, config.Ref{Role: role, Names: []string{name}})
}

func (c *refCollector) list(role string, expr hcl.Expression) {
	if c.err != nil {
		return
	}
	names, err := referenceList(expr)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", role, err)
		return
	}
	c.refs = append(c.refs, config.Ref{Role: role, Names: names})
}
