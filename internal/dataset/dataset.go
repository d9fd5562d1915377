// Package dataset loads training samples from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/triton/internal/input"
)

// ErrEmpty is returned when a file has no data rows.
var ErrEmpty = errors.New("dataset: no data rows")

// Dataset represents a collection of samples and labels.
type Dataset struct {
	Samples [][]float64
	Labels  [][]float64
}

// LoadCSV loads data from a CSV file.
// labelCols specifies the indices of columns to be used as labels.
// All other columns are used as features.
// hasHeader skips the first line if true.
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, labelCols, hasHeader)
}

// ReadCSV parses CSV records from r. See LoadCSV.
func ReadCSV(r io.Reader, labelCols []int, hasHeader bool) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, ErrEmpty
	}

	numCols := len(records[startRow])
	isLabelCol := make(map[int]bool)
	for _, col := range labelCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("label column %d out of range for %d columns", col, numCols)
		}
		isLabelCol[col] = true
	}

	numSamples := len(records) - startRow
	d := &Dataset{
		Samples: make([][]float64, numSamples),
		Labels:  make([][]float64, numSamples),
	}

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		sample := make([]float64, 0, numCols-len(isLabelCol))
		values := make([]float64, numCols)
		for j, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			values[j] = v
			if !isLabelCol[j] {
				sample = append(sample, v)
			}
		}

		// labels keep the order given in labelCols
		label := make([]float64, 0, len(labelCols))
		for _, col := range labelCols {
			label = append(label, values[col])
		}

		d.Samples[i-startRow] = sample
		d.Labels[i-startRow] = label
	}

	return d, nil
}

// Normalize performs min-max normalization on the samples in place.
func (d *Dataset) Normalize() {
	if len(d.Samples) == 0 {
		return
	}

	numFeatures := len(d.Samples[0])
	lo := append([]float64(nil), d.Samples[0]...)
	hi := append([]float64(nil), d.Samples[0]...)

	for _, sample := range d.Samples {
		for i := 0; i < numFeatures; i++ {
			if sample[i] < lo[i] {
				lo[i] = sample[i]
			}
			if sample[i] > hi[i] {
				hi[i] = sample[i]
			}
		}
	}

	for _, sample := range d.Samples {
		for i := 0; i < numFeatures; i++ {
			if diff := hi[i] - lo[i]; diff != 0 {
				sample[i] = (sample[i] - lo[i]) / diff
			} else {
				sample[i] = 0
			}
		}
	}
}

// Shuffle permutes samples and labels together.
func (d *Dataset) Shuffle(src rand.Source) {
	rnd := rand.New(src)
	rnd.Shuffle(len(d.Samples), func(i, j int) {
		d.Samples[i], d.Samples[j] = d.Samples[j], d.Samples[i]
		d.Labels[i], d.Labels[j] = d.Labels[j], d.Labels[i]
	})
}

// Split splits the dataset into two based on the given ratio (0.0 to 1.0).
// Returns two new Datasets (train, test).
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset) {
	if ratio <= 0 {
		return &Dataset{}, d
	}
	if ratio >= 1 {
		return d, &Dataset{}
	}

	splitIdx := int(float64(len(d.Samples)) * ratio)

	train := &Dataset{
		Samples: d.Samples[:splitIdx],
		Labels:  d.Labels[:splitIdx],
	}
	test := &Dataset{
		Samples: d.Samples[splitIdx:],
		Labels:  d.Labels[splitIdx:],
	}
	return train, test
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Inputs wraps the samples and labels for a network.
func (d *Dataset) Inputs() (samples, labels []input.Input) {
	return input.Vectors(d.Samples), input.Vectors(d.Labels)
}
