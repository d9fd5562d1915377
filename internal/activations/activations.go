// Package activations provides activation functions addressed by a tag.
//
// Derivatives are evaluated on the activated output y = f(x), not on the
// pre-activation sum. Backward passes rely on this convention.
package activations

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknown is returned when an activation name or tag cannot be resolved.
var ErrUnknown = errors.New("activations: unknown activation")

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) expressed in terms of y = f(x)
	Derivative(y float64) float64
}

// Kind tags one of the supported activation functions.
type Kind int

const (
	Sigmoid Kind = iota
	ReLU
	Tanh
	Linear
)

var names = map[Kind]string{
	Sigmoid: "sigmoid",
	ReLU:    "relu",
	Tanh:    "tanh",
	Linear:  "linear",
}

// Function is a scalar activation and its derivative on the activated value.
type Function struct {
	F func(x float64) float64
	D func(y float64) float64
}

// Activate computes F(x).
func (f Function) Activate(x float64) float64 { return f.F(x) }

// Derivative computes D(y).
func (f Function) Derivative(y float64) float64 { return f.D(y) }

// Function resolves the tag to its function pair.
// Unknown tags resolve to the identity.
func (k Kind) Function() Function {
	switch k {
	case Sigmoid:
		return Function{F: sigmoid, D: func(y float64) float64 { return y * (1 - y) }}
	case ReLU:
		return Function{
			F: func(x float64) float64 { return math.Max(0, x) },
			D: func(y float64) float64 {
				if y > 0 {
					return 1
				}
				return 0
			},
		}
	case Tanh:
		return Function{F: math.Tanh, D: func(y float64) float64 { return 1 - y*y }}
	default:
		return Function{
			F: func(x float64) float64 { return x },
			D: func(float64) float64 { return 1 },
		}
	}
}

// Valid reports whether k is a known tag.
func (k Kind) Valid() bool {
	_, ok := names[k]
	return ok
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Parse resolves a case-insensitive name such as "sigmoid" to its tag.
func Parse(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, v := range names {
		if v == n {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknown)
}

// sigmoid computes 1 / (1 + e^-x)
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
