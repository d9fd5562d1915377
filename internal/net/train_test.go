package net

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/triton/internal/activations"
	"github.com/FlavioCFOliveira/triton/internal/layer"
	"github.com/FlavioCFOliveira/triton/internal/loss"
)

// TestParseMode tests loss aggregation names.
func TestParseMode(t *testing.T) {
	tests := []struct {
		name string
		want Mode
	}{
		{"", ModeAvg},
		{"avg", ModeAvg},
		{"Mean", ModeAvg},
		{"max", ModeMax},
	}
	for _, tt := range tests {
		m, err := ParseMode(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, m)
	}

	_, err := ParseMode("median")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "max", ModeMax.String())
}

// TestTrainToLossConverges tests stopping once the target loss is reached.
func TestTrainToLossConverges(t *testing.T) {
	n := build(t, []int{2, 3, 1}, activations.Sigmoid, 0.5, WithSeed(4), WithIterations(100), WithUpdateInputLayer(true))

	report, err := n.TrainToLoss(xorIn, orOut, TrainConfig{
		TargetLoss: 0.05,
		MaxRounds:  200,
		Mode:       ModeMax,
	})
	require.NoError(t, err)
	assert.True(t, report.Converged, "report %+v", report)
	assert.LessOrEqual(t, report.Loss, 0.05)
	assert.Less(t, report.Rounds, 200)

	avg, err := n.Evaluate(xorIn, orOut)
	require.NoError(t, err)
	assert.LessOrEqual(t, avg, report.Loss, "mean loss cannot exceed the max loss")
}

// TestTrainToLossMaxRounds tests the round bound and the per-round callbacks.
func TestTrainToLossMaxRounds(t *testing.T) {
	rec := &recorder{}
	n := build(t, []int{2, 3, 1}, activations.Sigmoid, 0.1, WithSeed(4), WithIterations(1), WithCallbacks(rec))

	report, err := n.TrainToLoss(xorIn, xorOut, TrainConfig{MaxRounds: 3})
	require.NoError(t, err)
	assert.False(t, report.Converged)
	assert.Equal(t, 3, report.Rounds)
	assert.Len(t, rec.losses, 3)
	assert.Equal(t, report.Loss, rec.losses[2])
}

// TestTrainToLossDecay tests learning-rate decay on a plateau.
func TestTrainToLossDecay(t *testing.T) {
	n := build(t, []int{2, 3, 1}, activations.Sigmoid, 0.0, WithSeed(4), WithIterations(1))

	report, err := n.TrainToLoss(xorIn, xorOut, TrainConfig{
		MaxRounds: 5,
		Decay:     0.5,
		Patience:  1,
	})
	require.NoError(t, err)
	// with a zero learning rate the loss never improves after the first round
	assert.Equal(t, 4, report.Reductions)
}

// TestTrainToLossDecayReachesLayers tests that decay changes the layers' rates.
func TestTrainToLossDecayReachesLayers(t *testing.T) {
	// layer 0 writes the output layer with a zero rate and layer 1 writes
	// nothing, so the loss stays flat while layer 1 still holds a rate to decay
	n := New(WithLogger(zerolog.Nop()), WithSeed(4), WithIterations(1))
	require.NoError(t, n.AddLayer(layer.Dense(2, activations.Sigmoid, 0)))
	require.NoError(t, n.AddLayer(layer.Dense(3, activations.Sigmoid, 0.4)))
	require.NoError(t, n.AddLayer(layer.Dense(1, activations.Sigmoid, 0.4)))
	require.NoError(t, n.Compile())

	report, err := n.TrainToLoss(xorIn, xorOut, TrainConfig{MaxRounds: 3, Decay: 0.5, Patience: 1})
	require.NoError(t, err)
	require.Equal(t, 2, report.Reductions)

	rates := make([]float64, 0, 2)
	for _, l := range n.Layers() {
		d, ok := l.(*layer.DenseLayer)
		require.True(t, ok)
		rates = append(rates, d.LearningRate())
	}
	assert.InDeltaSlice(t, []float64{0, 0.1}, rates, 1e-12)
}

// TestTrainToLossInvalid tests configuration checks.
func TestTrainToLossInvalid(t *testing.T) {
	n := build(t, []int{2, 3, 1}, activations.Sigmoid, 0.1)

	_, err := n.TrainToLoss(xorIn, xorOut, TrainConfig{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = n.TrainToLoss(xorIn, xorOut, TrainConfig{MaxRounds: 1, TargetLoss: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = n.TrainToLoss(xorIn, xorOut[:2], TrainConfig{MaxRounds: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// TestIterationsMustBePositive tests that an epoch without updates is rejected.
func TestIterationsMustBePositive(t *testing.T) {
	for _, iterations := range []int{0, -3} {
		rec := &recorder{}
		n := build(t, []int{2, 3, 1}, activations.Sigmoid, 0.1, WithIterations(iterations), WithCallbacks(rec))

		assert.ErrorIs(t, n.Fit(xorIn, xorOut, 1), ErrInvalidInput)
		_, err := n.TrainToLoss(xorIn, xorOut, TrainConfig{MaxRounds: 1})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Zero(t, rec.begun, "no callback runs for a rejected call")
		assert.Empty(t, rec.losses)
	}
}

// TestCSVLogger tests the epoch log file.
func TestCSVLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	n := build(t, []int{2, 3, 1}, activations.Sigmoid, 0.1, WithIterations(1), WithCallbacks(NewCSVLogger(path, false)))
	require.NoError(t, n.Fit(xorIn, xorOut, 3))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"network", "epoch", "loss", "time_seconds"}, records[0])
	assert.Equal(t, n.ID(), records[1][0])
	assert.Equal(t, "2", records[3][1])
}

// TestEvaluateWithLoss tests scoring with a configured loss.
func TestEvaluateWithLoss(t *testing.T) {
	mse := build(t, []int{2, 3, 1}, activations.Sigmoid, 0.1, WithSeed(9))
	l1 := build(t, []int{2, 3, 1}, activations.Sigmoid, 0.1, WithSeed(9), WithLoss(loss.L1Loss{}))

	squared, err := mse.Evaluate(xorIn, xorOut)
	require.NoError(t, err)
	absolute, err := l1.Evaluate(xorIn, xorOut)
	require.NoError(t, err)

	// every error is below one, so squaring shrinks it
	assert.Greater(t, absolute, squared)
}
