// Package loss provides the loss functions used to score predictions.
package loss

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrLength is returned when predictions and targets differ in length.
	ErrLength = errors.New("loss: prediction and target must have same length")
	// ErrUnknown is returned by Parse for an unrecognised name.
	ErrUnknown = errors.New("loss: unknown loss")
)

// Loss scores a prediction against its target.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue []float64) (float64, error)
	Name() string
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes mean squared error: (1/n) * sum((y_pred - y_true)^2)
func (MSE) Forward(yPred, yTrue []float64) (float64, error) {
	if err := check(yPred, yTrue); err != nil {
		return 0, err
	}
	if len(yPred) == 0 {
		return 0, nil
	}
	d := floats.Distance(yPred, yTrue, 2)
	return d * d / float64(len(yPred)), nil
}

func (MSE) Name() string { return "mse" }

// L1Loss is the mean absolute error.
type L1Loss struct{}

// Forward computes (1/n) * sum(|y_pred - y_true|)
func (L1Loss) Forward(yPred, yTrue []float64) (float64, error) {
	if err := check(yPred, yTrue); err != nil {
		return 0, err
	}
	if len(yPred) == 0 {
		return 0, nil
	}
	return floats.Distance(yPred, yTrue, 1) / float64(len(yPred)), nil
}

func (L1Loss) Name() string { return "l1" }

// Huber loss for robust regression.
type Huber struct {
	Delta float64 // Threshold for quadratic/linear transition
}

// NewHuber creates a Huber loss with the given delta.
func NewHuber(delta float64) Huber {
	return Huber{Delta: delta}
}

func (h Huber) Forward(yPred, yTrue []float64) (float64, error) {
	if err := check(yPred, yTrue); err != nil {
		return 0, err
	}
	if len(yPred) == 0 {
		return 0, nil
	}
	var sum float64
	for i := range yPred {
		diff := math.Abs(yPred[i] - yTrue[i])
		if diff <= h.Delta {
			sum += 0.5 * diff * diff
		} else {
			sum += h.Delta * (diff - 0.5*h.Delta)
		}
	}
	return sum / float64(len(yPred)), nil
}

func (Huber) Name() string { return "huber" }

// BCELoss is binary cross entropy over probabilities in [0, 1].
type BCELoss struct{}

func (BCELoss) Forward(yPred, yTrue []float64) (float64, error) {
	if err := check(yPred, yTrue); err != nil {
		return 0, err
	}
	if len(yPred) == 0 {
		return 0, nil
	}
	const eps = 1e-12
	var sum float64
	for i, p := range yPred {
		p = math.Min(math.Max(p, eps), 1-eps)
		sum -= yTrue[i]*math.Log(p) + (1-yTrue[i])*math.Log(1-p)
	}
	return sum / float64(len(yPred)), nil
}

func (BCELoss) Name() string { return "bce" }

// Parse resolves a loss by name. An empty name resolves to MSE; "huber"
// uses a delta of 1.
func Parse(name string) (Loss, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mse":
		return MSE{}, nil
	case "l1", "mae":
		return L1Loss{}, nil
	case "huber":
		return NewHuber(1), nil
	case "bce":
		return BCELoss{}, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknown)
}

func check(yPred, yTrue []float64) error {
	if len(yPred) != len(yTrue) {
		return fmt.Errorf("%d predictions, %d targets: %w", len(yPred), len(yTrue), ErrLength)
	}
	return nil
}
