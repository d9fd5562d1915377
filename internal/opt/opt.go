// Package opt provides parameter update rules.
package opt

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/FlavioCFOliveira/triton/internal/matrix"
)

// ErrUnknown is returned for an unrecognised optimizer name.
var ErrUnknown = errors.New("opt: unknown optimizer")

// Optimizer updates one parameter matrix. Implementations may keep state
// between calls, so each parameter matrix needs its own instance.
type Optimizer interface {
	// Step returns param moved along direction, where direction points
	// toward lower loss. param is not modified.
	Step(param, direction matrix.Matrix) (matrix.Matrix, error)

	LearningRate() float64
	SetLearningRate(lr float64)
}

// Kind selects an update rule.
type Kind int

const (
	KindSGD Kind = iota
	KindAdam
)

func (k Kind) String() string {
	switch k {
	case KindSGD:
		return "sgd"
	case KindAdam:
		return "adam"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Parse resolves "sgd" or "adam". An empty name resolves to SGD.
func Parse(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sgd":
		return KindSGD, nil
	case "adam":
		return KindAdam, nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknown)
}

// New returns a fresh optimizer of the given kind.
func New(kind Kind, learningRate float64) Optimizer {
	if kind == KindAdam {
		return NewAdam(learningRate)
	}
	return &SGD{Rate: learningRate}
}

// SGD is the plain scaled-gradient step: param + lr * direction.
type SGD struct {
	Rate float64
}

// Step computes param + lr * direction.
func (s *SGD) Step(param, direction matrix.Matrix) (matrix.Matrix, error) {
	return param.Add(direction.Scale(s.Rate))
}

func (s *SGD) LearningRate() float64 { return s.Rate }

func (s *SGD) SetLearningRate(lr float64) { s.Rate = lr }

// Adam optimizer with bias-corrected first and second moment estimates.
type Adam struct {
	Rate    float64
	Beta1   float64 // Exponential decay rate for first moment
	Beta2   float64 // Exponential decay rate for second moment
	Epsilon float64 // Small constant for numerical stability
	Time    int

	m, v matrix.Matrix
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		Rate:    learningRate,
		Beta1:   0.9,
		Beta2:   0.999,
		Epsilon: 1e-10,
	}
}

// Step applies one Adam update. The moment estimates are reset whenever the
// parameter shape changes.
func (a *Adam) Step(param, direction matrix.Matrix) (matrix.Matrix, error) {
	rows, cols := direction.Shape()
	if a.m.Rows() != rows || a.m.Cols() != cols {
		a.m = matrix.New(rows, cols)
		a.v = matrix.New(rows, cols)
		a.Time = 0
	}
	a.Time++

	m, err := a.m.Scale(a.Beta1).Add(direction.Scale(1 - a.Beta1))
	if err != nil {
		return matrix.Matrix{}, err
	}
	sq, err := direction.DotMultiply(direction)
	if err != nil {
		return matrix.Matrix{}, err
	}
	v, err := a.v.Scale(a.Beta2).Add(sq.Scale(1 - a.Beta2))
	if err != nil {
		return matrix.Matrix{}, err
	}
	a.m, a.v = m, v

	c1 := 1 - math.Pow(a.Beta1, float64(a.Time))
	c2 := 1 - math.Pow(a.Beta2, float64(a.Time))
	step, err := m.Zip(v, func(mi, vi float64) float64 {
		return a.Rate * (mi / c1) / (math.Sqrt(vi/c2) + a.Epsilon)
	})
	if err != nil {
		return matrix.Matrix{}, err
	}
	return param.Add(step)
}

func (a *Adam) LearningRate() float64 { return a.Rate }

func (a *Adam) SetLearningRate(lr float64) { a.Rate = lr }
