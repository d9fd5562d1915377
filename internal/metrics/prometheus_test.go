package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/triton/internal/activations"
	"github.com/FlavioCFOliveira/triton/internal/input"
	"github.com/FlavioCFOliveira/triton/internal/layer"
	"github.com/FlavioCFOliveira/triton/internal/net"
)

func TestTrainingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewTraining(reg)
	require.NoError(t, err)

	n := net.New(net.WithLogger(zerolog.Nop()), net.WithSeed(1), net.WithIterations(2), net.WithCallbacks(m))
	for _, size := range []int{2, 2, 1} {
		require.NoError(t, n.AddLayer(layer.Dense(size, activations.Sigmoid, 0.1)))
	}
	require.NoError(t, n.Compile())

	in := input.Vectors([][]float64{{0, 0}, {1, 1}})
	out := input.Vectors([][]float64{{0}, {1}})
	require.NoError(t, n.Fit(in, out, 3))

	id := n.ID()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(id)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Epochs.WithLabelValues(id)))

	loss := testutil.ToFloat64(m.Loss.WithLabelValues(id))
	assert.Greater(t, loss, 0.0)
	assert.Less(t, loss, 1.0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

func TestTrainingDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewTraining(reg)
	require.NoError(t, err)

	_, err = NewTraining(reg)
	assert.Error(t, err)

	m, err := NewTraining(nil)
	require.NoError(t, err)
	assert.NotNil(t, m.Loss)
}
