// Package dataset loads tabular regression data and prepares it for training:
// CSV decoding, z-score normalization, shuffling and batch resampling.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/miniflow/internal/tensor"
)

// ErrEmpty is returned for a dataset without samples.
var ErrEmpty = errors.New("dataset has no samples")

// Dataset holds m samples of k numeric features and one numeric target.
type Dataset struct {
	Features []string   // Feature column names, len k
	Target   string     // Target column name
	X        *mat.Dense // [m k]
	Y        []float64  // [m]
}

// Stats holds the per-feature statistics used by Normalize.
type Stats struct {
	Mean []float64
	Std  []float64
}

// New creates a dataset from feature rows and targets. The data is copied.
func New(features []string, target string, rows [][]float64, y []float64) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	if len(rows) != len(y) {
		return nil, fmt.Errorf("%d feature rows for %d targets", len(rows), len(y))
	}
	k := len(rows[0])
	if k == 0 {
		return nil, fmt.Errorf("dataset has no features")
	}
	if features != nil && len(features) != k {
		return nil, fmt.Errorf("%d feature names for %d columns", len(features), k)
	}

	x := mat.NewDense(len(rows), k, nil)
	for i, row := range rows {
		if len(row) != k {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), k)
		}
		x.SetRow(i, row)
	}

	return &Dataset{
		Features: features,
		Target:   target,
		X:        x,
		Y:        append([]float64(nil), y...),
	}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Y)
}

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int {
	_, k := d.X.Dims()
	return k
}

// Normalize rescales every feature column in place to zero mean and unit
// variance, using the population standard deviation:
//
//	x = (x - mean(x)) / std(x)
//
// Constant columns are only centred. Returns the statistics used.
func (d *Dataset) Normalize() Stats {
	m, k := d.X.Dims()
	stats := Stats{Mean: make([]float64, k), Std: make([]float64, k)}

	col := make([]float64, m)
	for j := 0; j < k; j++ {
		mat.Col(col, j, d.X)
		mean, std := stat.PopMeanStdDev(col, nil)
		stats.Mean[j], stats.Std[j] = mean, std

		scale := 1.0
		if std > 0 {
			scale = 1 / std
		}
		for i := range col {
			col[i] = (col[i] - mean) * scale
		}
		d.X.SetCol(j, col)
	}
	return stats
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	return &Dataset{
		Features: append([]string(nil), d.Features...),
		Target:   d.Target,
		X:        mat.DenseCopyOf(d.X),
		Y:        append([]float64(nil), d.Y...),
	}
}

// Shuffle permutes the samples in place, keeping each row with its target.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	perm := rng.Perm(d.Len())
	d.X, d.Y = d.gather(perm)
}

// Resample draws n samples with replacement into a new dataset.
// n <= 0 draws Len() samples.
func (d *Dataset) Resample(rng *rand.Rand, n int) *Dataset {
	if n <= 0 {
		n = d.Len()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(d.Len())
	}

	x, y := d.gather(idx)
	return &Dataset{Features: d.Features, Target: d.Target, X: x, Y: y}
}

// gather copies the given rows, in order.
func (d *Dataset) gather(idx []int) (*mat.Dense, []float64) {
	_, k := d.X.Dims()
	x := mat.NewDense(len(idx), k, nil)
	y := make([]float64, len(idx))
	for i, src := range idx {
		x.SetRow(i, d.X.RawRowView(src))
		y[i] = d.Y[src]
	}
	return x, y
}

// Tensors returns the features as a matrix [m k] and the targets as a
// vector [m].
func (d *Dataset) Tensors() (*tensor.Tensor, *tensor.Tensor, error) {
	if d.Len() == 0 {
		return nil, nil, ErrEmpty
	}
	y, err := tensor.FromSlice(d.Y, tensor.Shape{d.Len()})
	if err != nil {
		return nil, nil, err
	}
	return tensor.FromDense(d.X), y, nil
}
