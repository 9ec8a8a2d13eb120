package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// File names looked up by LoadDir, in order of preference.
const (
	TrainNPY = "train.npy"
	TestNPY  = "test.npy"
	TrainCSV = "train.csv"
	TestCSV  = "test.csv"
)

// LoadDir reads the train and test splits from dir and prepares them with
// FromRows. Each split is read from its .npy file when present, otherwise from
// the .csv file of the same name.
//
// Errors:
//   - fs.ErrNotExist (wrapped) when neither file of a split exists.
//   - ErrMalformed for unreadable or inconsistent content.
func LoadDir(dir string) (*Dataset, error) {
	train, err := loadSplit(dir, TrainNPY, TrainCSV)
	if err != nil {
		return nil, err
	}
	test, err := loadSplit(dir, TestNPY, TestCSV)
	if err != nil {
		return nil, err
	}
	return FromRows(train, test)
}

func loadSplit(dir, npyName, csvName string) (*mat.Dense, error) {
	path := filepath.Join(dir, npyName)
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		return ReadNPY(f)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	path = filepath.Join(dir, csvName)
	f, err = os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: neither %s nor %s found in %s: %w", npyName, csvName, dir, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadNPY decodes a two-dimensional float array in NumPy .npy format.
func ReadNPY(r io.Reader) (*mat.Dense, error) {
	var m mat.Dense
	if err := npyio.Read(r, &m); err != nil {
		return nil, fmt.Errorf("%w: npy: %v", ErrMalformed, err)
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("%w: npy: empty array", ErrMalformed)
	}
	return &m, nil
}

// WriteNPY encodes m in NumPy .npy format.
func WriteNPY(w io.Writer, m *mat.Dense) error {
	return npyio.Write(w, m)
}

// ReadCSV decodes comma-separated numeric rows. Blank lines are skipped, every
// record must have the same number of fields and a '#' starts a comment line.
func ReadCSV(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var (
		data []float64
		cols int
		rows int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", ErrMalformed, err)
		}
		if rows == 0 {
			cols = len(rec)
		}
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: csv row %d col %d: %v", ErrMalformed, rows, j, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: csv: no rows", ErrMalformed)
	}
	return mat.NewDense(rows, cols, data), nil
}
