package layer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/triton/internal/activations"
	"github.com/FlavioCFOliveira/triton/internal/input"
	"github.com/FlavioCFOliveira/triton/internal/matrix"
	"github.com/FlavioCFOliveira/triton/internal/opt"
)

// DenseSpec declares a dense layer of Units nodes.
type DenseSpec struct {
	Units        int
	Activation   activations.Kind
	LearningRate float64
	Optimizer    opt.Kind
}

// Dense returns a spec for a dense layer using plain SGD.
func Dense(units int, act activations.Kind, learningRate float64) DenseSpec {
	return DenseSpec{Units: units, Activation: act, LearningRate: learningRate}
}

// Size returns the declared width.
func (s DenseSpec) Size() int {
	return s.Units
}

// Build creates a dense layer mapping Units inputs onto next outputs.
func (s DenseSpec) Build(next int, src rand.Source) (Layer, error) {
	if s.Units <= 0 || next <= 0 {
		return nil, fmt.Errorf("dense %d -> %d: %w", s.Units, next, ErrInvalidSpec)
	}
	if !s.Activation.Valid() {
		return nil, fmt.Errorf("dense activation %v: %w", s.Activation, ErrInvalidSpec)
	}
	return NewDense(s.Units, next, s.Activation, s.LearningRate, s.Optimizer, src), nil
}

// DenseLayer is a fully connected layer: act(W·x + b).
//
// Weights are [next x size] and biases [next x 1]. The optimizer state it
// holds belongs to the parameters it writes during Backward, which are the
// ahead layer's.
type DenseLayer struct {
	weights matrix.Matrix
	biases  matrix.Matrix
	data    matrix.Matrix
	loss    float64

	act          activations.Kind
	fn           activations.Function
	learningRate float64

	optKind opt.Kind
	aheadW  opt.Optimizer
	aheadB  opt.Optimizer
	ownW    opt.Optimizer
	ownB    opt.Optimizer
}

// NewDense creates a dense layer with uniform [-1, 1] weights and biases.
func NewDense(size, next int, act activations.Kind, learningRate float64, optKind opt.Kind, src rand.Source) *DenseLayer {
	return &DenseLayer{
		weights:      matrix.NewRandom(next, size, src),
		biases:       matrix.NewRandom(next, 1, src),
		data:         matrix.Empty(),
		loss:         1.0,
		act:          act,
		fn:           act.Function(),
		learningRate: learningRate,
		optKind:      optKind,
		aheadW:       opt.New(optKind, learningRate),
		aheadB:       opt.New(optKind, learningRate),
	}
}

// Forward computes act(W · xᵀ + b), caches it and returns it as a row.
func (d *DenseLayer) Forward(in input.Input) (input.Input, error) {
	x, err := matrix.From(in.ToParam2D())
	if err != nil {
		return nil, err
	}
	z, err := d.weights.Mul(x.Transpose())
	if err != nil {
		return nil, fmt.Errorf("dense forward: %w", err)
	}
	z, err = z.Add(d.biases)
	if err != nil {
		return nil, fmt.Errorf("dense forward: %w", err)
	}
	d.data = z.Map(d.fn.F)
	return d.data.Transpose(), nil
}

// Backward computes the update for the ahead layer from this layer's cached
// activation. targets is part of the layer contract but unused by dense layers.
func (d *DenseLayer) Backward(targets, gradients, errors, aheadWeights, aheadBiases matrix.Matrix) (Step, error) {
	direction, err := gradients.DotMultiply(errors)
	if err != nil {
		return Step{}, fmt.Errorf("dense backward: %w", err)
	}
	delta, err := direction.Mul(d.data.Transpose())
	if err != nil {
		return Step{}, fmt.Errorf("dense backward: %w", err)
	}
	weights, err := d.aheadW.Step(aheadWeights, delta)
	if err != nil {
		return Step{}, fmt.Errorf("dense backward weights: %w", err)
	}
	biases, err := d.aheadB.Step(aheadBiases, direction)
	if err != nil {
		return Step{}, fmt.Errorf("dense backward biases: %w", err)
	}
	propagated, err := aheadWeights.Transpose().Mul(errors)
	if err != nil {
		return Step{}, fmt.Errorf("dense backward errors: %w", err)
	}

	d.loss = propagated.MeanSquare()

	return Step{
		Biases:    biases,
		Weights:   weights,
		Gradients: d.data.Map(d.fn.D),
		Errors:    propagated,
	}, nil
}

// Learn applies the Backward update rule to this layer's own parameters,
// given the column vector that was fed into it.
func (d *DenseLayer) Learn(source, gradients, errors matrix.Matrix) error {
	if d.ownW == nil {
		d.ownW = opt.New(d.optKind, d.learningRate)
		d.ownB = opt.New(d.optKind, d.learningRate)
	}
	direction, err := gradients.DotMultiply(errors)
	if err != nil {
		return fmt.Errorf("dense learn: %w", err)
	}
	delta, err := direction.Mul(source.Transpose())
	if err != nil {
		return fmt.Errorf("dense learn: %w", err)
	}
	weights, err := d.ownW.Step(d.weights, delta)
	if err != nil {
		return fmt.Errorf("dense learn weights: %w", err)
	}
	biases, err := d.ownB.Step(d.biases, direction)
	if err != nil {
		return fmt.Errorf("dense learn biases: %w", err)
	}
	d.weights, d.biases = weights, biases
	return nil
}

func (d *DenseLayer) Weights() matrix.Matrix {
	return d.weights.Clone()
}

// SetWeights replaces the weights. The shape must not change.
func (d *DenseLayer) SetWeights(w matrix.Matrix) error {
	if w.Rows() != d.weights.Rows() || w.Cols() != d.weights.Cols() {
		return fmt.Errorf("set weights %dx%d on %dx%d: %w", w.Rows(), w.Cols(), d.weights.Rows(), d.weights.Cols(), matrix.ErrDimensionMismatch)
	}
	d.weights = w.Clone()
	return nil
}

func (d *DenseLayer) Bias() matrix.Matrix {
	return d.biases.Clone()
}

// SetBias replaces the biases. The shape must not change.
func (d *DenseLayer) SetBias(b matrix.Matrix) error {
	if b.Rows() != d.biases.Rows() || b.Cols() != d.biases.Cols() {
		return fmt.Errorf("set bias %dx%d on %dx%d: %w", b.Rows(), b.Cols(), d.biases.Rows(), d.biases.Cols(), matrix.ErrDimensionMismatch)
	}
	d.biases = b.Clone()
	return nil
}

func (d *DenseLayer) Activation() (activations.Kind, bool) {
	return d.act, true
}

// Loss is the mean squared error propagated by the last Backward call.
func (d *DenseLayer) Loss() float64 {
	return d.loss
}

// Output returns a copy of the activation cached by the last Forward call.
func (d *DenseLayer) Output() matrix.Matrix {
	return d.data.Clone()
}

func (d *DenseLayer) Rows() int {
	return d.weights.Rows()
}

func (d *DenseLayer) Cols() int {
	return d.weights.Cols()
}

func (d *DenseLayer) Shape() (int, int, int) {
	return d.Rows(), d.Cols(), 0
}

func (d *DenseLayer) LearningRate() float64 {
	return d.learningRate
}

// SetLearningRate changes the rate used by every optimizer the layer holds.
func (d *DenseLayer) SetLearningRate(lr float64) {
	d.learningRate = lr
	for _, o := range []opt.Optimizer{d.aheadW, d.aheadB, d.ownW, d.ownB} {
		if o != nil {
			o.SetLearningRate(lr)
		}
	}
}
