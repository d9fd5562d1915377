// Package layer provides neural network layer implementations.
package layer

import (
	"errors"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/triton/internal/activations"
	"github.com/FlavioCFOliveira/triton/internal/input"
	"github.com/FlavioCFOliveira/triton/internal/matrix"
)

// ErrInvalidSpec is returned when a layer cannot be built from its spec.
var ErrInvalidSpec = errors.New("layer: invalid spec")

// Layer is a neural network layer.
//
// Backward follows a write-one-ahead contract: the receiver computes new
// parameters for the layer after it (toward the output) from its own cached
// activation, and the caller stores them on that layer.
type Layer interface {
	// Forward consumes the previous layer's output as a row vector and
	// returns this layer's output as a row vector.
	Forward(in input.Input) (input.Input, error)

	// Backward returns updated parameters for the layer ahead together with
	// the gradients and errors to carry to the next call.
	Backward(targets, gradients, errors, aheadWeights, aheadBiases matrix.Matrix) (Step, error)

	Weights() matrix.Matrix
	SetWeights(w matrix.Matrix) error
	Bias() matrix.Matrix
	SetBias(b matrix.Matrix) error

	// Activation returns the layer's activation tag, or false for layer
	// kinds without one.
	Activation() (activations.Kind, bool)
	Loss() float64
	Rows() int
	Cols() int
	Shape() (int, int, int)
}

// Learner is implemented by layers that can update their own parameters
// from the activation that fed them.
type Learner interface {
	Learn(source, gradients, errors matrix.Matrix) error
}

// Step is the result of one Backward call.
type Step struct {
	Biases    matrix.Matrix
	Weights   matrix.Matrix
	Gradients matrix.Matrix
	Errors    matrix.Matrix
}

// Spec describes a layer before the network is compiled.
type Spec interface {
	// Size is the declared width of this layer.
	Size() int

	// Build instantiates the layer given the width of the following spec.
	Build(next int, src rand.Source) (Layer, error)
}
