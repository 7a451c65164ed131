package hclconfig

import "github.com/hashicorp/hcl/v2"

// rootSchema lists every top-level block. Blocks are read through the schema
// rather than decoded into slices so that their declaration order survives.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "dataset"},
		{Type: "training"},
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "linear", LabelNames: []string{"name"}},
		{Type: "dense", LabelNames: []string{"name"}},
		{Type: "sigmoid", LabelNames: []string{"name"}},
		{Type: "add", LabelNames: []string{"name"}},
		{Type: "weighted_sum", LabelNames: []string{"name"}},
		{Type: "mse", LabelNames: []string{"name"}},
	},
}

// datasetBlock is the `dataset` block.
type datasetBlock struct {
	Path      string   `hcl:"path"`
	Target    string   `hcl:"target,optional"`
	Features  []string `hcl:"features,optional"`
	Normalize bool     `hcl:"normalize,optional"`
}

// trainingBlock is the `training` block. Omitted attributes keep their
// defaults.
type trainingBlock struct {
	Epochs       *int     `hcl:"epochs,optional"`
	BatchSize    *int     `hcl:"batch_size,optional"`
	LearningRate *float64 `hcl:"learning_rate,optional"`
	Optimizer    *string  `hcl:"optimizer,optional"`
	Momentum     *float64 `hcl:"momentum,optional"`
	Seed         *int64   `hcl:"seed,optional"`
	Reschedule   *bool    `hcl:"reschedule,optional"`
}

// inputBlock declares a Source node.
type inputBlock struct {
	Feed      string         `hcl:"feed,optional"`
	Shape     []int          `hcl:"shape,optional"`
	Value     hcl.Expression `hcl:"value,optional"`
	Init      string         `hcl:"init,optional"`
	Trainable bool           `hcl:"trainable,optional"`
}

type linearBlock struct {
	Input   hcl.Expression `hcl:"input"`
	Weights hcl.Expression `hcl:"weights"`
	Bias    hcl.Expression `hcl:"bias"`
}

// denseBlock declares a Linear node with its own weight and bias inputs.
type denseBlock struct {
	Input hcl.Expression `hcl:"input"`
	Units int            `hcl:"units"`
	Init  string         `hcl:"init,optional"`
}

type sigmoidBlock struct {
	Input hcl.Expression `hcl:"input"`
}

type addBlock struct {
	Inputs hcl.Expression `hcl:"inputs"`
}

type weightedSumBlock struct {
	Inputs  hcl.Expression `hcl:"inputs"`
	Weights hcl.Expression `hcl:"weights"`
	Bias    hcl.Expression `hcl:"bias"`
}

type mseBlock struct {
	Y hcl.Expression `hcl:"y"`
	A hcl.Expression `hcl:"a"`
}
