// Package dataset prepares ProtoNN inputs: it loads labelled rows, standardizes
// the features with train-split statistics and one-hot encodes the labels.
//
// Row layout:
//
//	[label, f_0, f_1, …, f_{D-1}]
//
// Labels are integers. Both splits are one-hot encoded over the union of their
// label ranges: NumClasses = max − min + 1 over all labels and every label is
// shifted by the union minimum, so the same raw label always maps to the same
// class column. When both splits span the same range this equals the per-split
// width max − min + 1.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/protonn/matrix"
)

// StdFloor replaces a column standard deviation below it with 1, so constant
// features are centred but not scaled.
const StdFloor = 1e-6

// labelTol is the largest distance from an integer still accepted as a label.
const labelTol = 1e-9

// ErrMalformed indicates empty, ragged or inconsistent input rows.
var ErrMalformed = errors.New("dataset: malformed data")

// Split is one partition, ready for training.
type Split struct {
	X      *matrix.Dense // n×D standardized features
	Y      *matrix.Dense // n×L one-hot labels
	Labels []int         // shifted class index per row
}

// Dataset holds both partitions and their shared metadata.
type Dataset struct {
	Train, Test Split
	DataDim     int
	NumClasses  int
	MinLabel    int       // raw label mapped to class 0
	Means, Stds []float64 // train statistics used for standardization
}

// FromRows builds a Dataset from raw train and test rows laid out as
// [label, features…].
//
// Errors: ErrMalformed for fewer than two columns, zero rows, a column count
// that differs between splits, or a non-integral label.
func FromRows(train, test mat.Matrix) (*Dataset, error) {
	trX, trL, err := splitRows("train", train)
	if err != nil {
		return nil, err
	}
	teX, teL, err := splitRows("test", test)
	if err != nil {
		return nil, err
	}
	if trX.Cols() != teX.Cols() {
		return nil, fmt.Errorf("%w: train has %d features, test has %d", ErrMalformed, trX.Cols(), teX.Cols())
	}

	minLabel, numClasses := labelRange(trL, teL)

	trS, teS, means, stds, err := Standardize(trX, teX)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		DataDim:    trX.Cols(),
		NumClasses: numClasses,
		MinLabel:   minLabel,
		Means:      means,
		Stds:       stds,
	}
	if ds.Train, err = newSplit(trS, trL, minLabel, numClasses); err != nil {
		return nil, err
	}
	if ds.Test, err = newSplit(teS, teL, minLabel, numClasses); err != nil {
		return nil, err
	}
	return ds, nil
}

func newSplit(x *matrix.Dense, raw []int, minLabel, numClasses int) (Split, error) {
	labels := make([]int, len(raw))
	for i, v := range raw {
		labels[i] = v - minLabel
	}
	y, err := OneHot(labels, numClasses)
	if err != nil {
		return Split{}, err
	}
	return Split{X: x, Y: y, Labels: labels}, nil
}

// splitRows separates the label column from the features.
func splitRows(name string, rows mat.Matrix) (*matrix.Dense, []int, error) {
	if rows == nil {
		return nil, nil, fmt.Errorf("%w: %s split is nil", ErrMalformed, name)
	}
	n, c := rows.Dims()
	if n == 0 || c < 2 {
		return nil, nil, fmt.Errorf("%w: %s split is %d×%d", ErrMalformed, name, n, c)
	}
	x, err := matrix.NewDense(n, c-1)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		v := rows.At(i, 0)
		r := math.Round(v)
		if math.IsNaN(v) || math.Abs(v-r) > labelTol {
			return nil, nil, fmt.Errorf("%w: %s row %d: label %v is not an integer", ErrMalformed, name, i, v)
		}
		labels[i] = int(r)
		xi := x.Row(i)
		for j := 1; j < c; j++ {
			xi[j-1] = rows.At(i, j)
		}
	}
	if err = matrix.ValidateFinite(x); err != nil {
		return nil, nil, fmt.Errorf("%w: %s features: %v", ErrMalformed, name, err)
	}
	return x, labels, nil
}

// labelRange returns the minimum and the width (max − min + 1) of the union
// of all label sets.
func labelRange(splits ...[]int) (minLabel, numClasses int) {
	minLabel, maxLabel := math.MaxInt, math.MinInt
	for _, s := range splits {
		for _, v := range s {
			if v < minLabel {
				minLabel = v
			}
			if v > maxLabel {
				maxLabel = v
			}
		}
	}
	return minLabel, maxLabel - minLabel + 1
}

// OneHot encodes class indices in [0, numClasses) as an n×numClasses matrix.
//
// Errors: ErrMalformed for an index outside the range or numClasses ≤ 0.
func OneHot(labels []int, numClasses int) (*matrix.Dense, error) {
	if numClasses <= 0 || len(labels) == 0 {
		return nil, fmt.Errorf("%w: %d labels, %d classes", ErrMalformed, len(labels), numClasses)
	}
	y, err := matrix.NewDense(len(labels), numClasses)
	if err != nil {
		return nil, err
	}
	for i, l := range labels {
		if l < 0 || l >= numClasses {
			return nil, fmt.Errorf("%w: label %d outside [0,%d)", ErrMalformed, l, numClasses)
		}
		y.Row(i)[l] = 1
	}
	return y, nil
}

// Standardize centres and scales both splits with the population mean and
// standard deviation of each train column. A deviation below StdFloor is
// replaced by 1. The inputs are not modified.
//
// Errors: matrix.ErrNilMatrix, matrix.ErrDimensionMismatch when the column
// counts differ.
func Standardize(train, test matrix.Matrix) (trainStd, testStd *matrix.Dense, means, stds []float64, err error) {
	tr, err := matrix.AsDense(train)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err = matrix.ValidateNotNil(test); err != nil {
		return nil, nil, nil, nil, err
	}
	if test.Cols() != tr.Cols() {
		return nil, nil, nil, nil, fmt.Errorf("dataset: standardize: %w", matrix.ErrDimensionMismatch)
	}

	n, d := tr.Shape()
	view := mat.NewDense(n, d, tr.RawData())
	means = make([]float64, d)
	stds = make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, view)
		means[j], stds[j] = stat.PopMeanStdDev(col, nil)
	}

	if trainStd, err = matrix.StandardizeColumns(tr, means, stds, StdFloor); err != nil {
		return nil, nil, nil, nil, err
	}
	if testStd, err = matrix.StandardizeColumns(test, means, stds, StdFloor); err != nil {
		return nil, nil, nil, nil, err
	}
	return trainStd, testStd, means, stds, nil
}
