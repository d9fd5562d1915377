package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/triton/internal/dataset"
)

func samples(n int) *dataset.Dataset {
	d := &dataset.Dataset{}
	for i := 0; i < n; i++ {
		d.Samples = append(d.Samples, []float64{float64(i)})
		d.Labels = append(d.Labels, []float64{float64(i) * 2})
	}
	return d
}

// TestPrepareSplit tests holding samples out for evaluation.
func TestPrepareSplit(t *testing.T) {
	train, test, err := prepare(samples(10), false, 0.8, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, test.Len())
	assert.Equal(t, []float64{8}, test.Samples[0])

	train, test, err = prepare(samples(10), false, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, train.Len())
	assert.Equal(t, 0, test.Len())
}

// TestPrepareShuffle tests that shuffling is seeded and keeps pairs aligned.
func TestPrepareShuffle(t *testing.T) {
	a, _, err := prepare(samples(20), true, 1, 7)
	require.NoError(t, err)
	b, _, err := prepare(samples(20), true, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, a.Samples, b.Samples)
	assert.NotEqual(t, samples(20).Samples, a.Samples)

	for i := range a.Samples {
		assert.Equal(t, a.Samples[i][0]*2, a.Labels[i][0])
	}
}

// TestPrepareInvalidSplit tests ratios that leave nothing to train on.
func TestPrepareInvalidSplit(t *testing.T) {
	for _, ratio := range []float64{0, -1, 1.5, 0.05} {
		_, _, err := prepare(samples(10), false, ratio, 1)
		assert.Error(t, err, "ratio %v", ratio)
	}
}

// TestParseColumns tests the label column flag.
func TestParseColumns(t *testing.T) {
	cols, err := parseColumns(" 2, 0 ,")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, cols)

	_, err = parseColumns("")
	assert.Error(t, err)
	_, err = parseColumns("a")
	assert.Error(t, err)
}
