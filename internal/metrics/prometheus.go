// Package metrics exports training progress to prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FlavioCFOliveira/triton/internal/net"
)

const namespace = "triton"

// Training is a net.Callback that records training progress per network.
type Training struct {
	net.BaseCallback

	Runs          *prometheus.CounterVec
	Epochs        *prometheus.CounterVec
	Loss          *prometheus.GaugeVec
	EpochDuration *prometheus.HistogramVec

	start time.Time
}

// NewTraining creates the training collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewTraining(reg prometheus.Registerer) (*Training, error) {
	t := &Training{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "training_runs_total",
				Help:      "Number of Fit or TrainToLoss calls.",
			}, []string{"network"}),
		Epochs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "epochs_total",
				Help:      "Number of completed epochs or rounds.",
			}, []string{"network"}),
		Loss: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "loss",
				Help:      "Loss reported at the end of the last epoch.",
			}, []string{"network"}),
		EpochDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "epoch_duration_seconds",
				Help:      "Wall time of one epoch.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			}, []string{"network"}),
	}
	if reg == nil {
		return t, nil
	}
	for _, c := range []prometheus.Collector{t.Runs, t.Epochs, t.Loss, t.EpochDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Training) OnTrainBegin(n *net.Network) {
	t.Runs.WithLabelValues(n.ID()).Inc()
}

func (t *Training) OnEpochBegin(epoch int, n *net.Network) {
	t.start = time.Now()
}

func (t *Training) OnEpochEnd(epoch int, loss float64, n *net.Network) {
	id := n.ID()
	t.Epochs.WithLabelValues(id).Inc()
	t.Loss.WithLabelValues(id).Set(loss)
	if !t.start.IsZero() {
		t.EpochDuration.WithLabelValues(id).Observe(time.Since(t.start).Seconds())
	}
}
