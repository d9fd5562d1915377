// Package net provides the network that sequences layers during training.
package net

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/triton/internal/input"
	"github.com/FlavioCFOliveira/triton/internal/layer"
	"github.com/FlavioCFOliveira/triton/internal/loss"
	"github.com/FlavioCFOliveira/triton/internal/matrix"
)

// IterationsPerEpoch is how many passes over the training set one epoch runs.
const IterationsPerEpoch = 10000

var (
	// ErrInvalidInput is returned when an argument does not match the declared network shape.
	ErrInvalidInput = errors.New("net: invalid input")
	// ErrInvalidState is returned when an operation is called out of sequence.
	ErrInvalidState = errors.New("net: invalid state")
)

// Network owns an ordered sequence of layers.
//
// A network starts uncompiled and accepts AddLayer calls. Compile turns every
// spec except the last into a concrete layer; the last spec only declares the
// output width. A Network must not be used from more than one goroutine.
type Network struct {
	id       string
	sizes    []int
	specs    []layer.Spec
	layers   []layer.Layer
	compiled bool
	loss     float64

	src              rand.Source
	iterations       int
	updateInputLayer bool
	callbacks        []Callback
	metric           loss.Loss
	logger           zerolog.Logger

	lastInput matrix.Matrix
	fed       bool
	stopped   bool
}

// Option configures a Network.
type Option func(*Network)

// WithSeed seeds weight initialisation.
func WithSeed(seed uint64) Option {
	return func(n *Network) {
		n.src = rand.NewSource(seed)
	}
}

// WithSource sets the random source used for weight initialisation.
func WithSource(src rand.Source) Option {
	return func(n *Network) {
		n.src = src
	}
}

// WithIterations overrides IterationsPerEpoch. Fit and TrainToLoss reject
// values below one.
func WithIterations(iterations int) Option {
	return func(n *Network) {
		n.iterations = iterations
	}
}

// WithUpdateInputLayer makes BackPropagate also update the first layer from
// the raw input. Without it the first layer keeps its initial parameters.
func WithUpdateInputLayer(update bool) Option {
	return func(n *Network) {
		n.updateInputLayer = update
	}
}

// WithCallbacks registers training callbacks.
func WithCallbacks(callbacks ...Callback) Option {
	return func(n *Network) {
		n.callbacks = append(n.callbacks, callbacks...)
	}
}

// WithLoss sets the loss Evaluate and TrainToLoss score predictions with.
// It defaults to loss.MSE. Parameter updates always follow the squared error.
func WithLoss(l loss.Loss) Option {
	return func(n *Network) {
		n.metric = l
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(n *Network) {
		n.logger = logger
	}
}

// New creates an empty, uncompiled network.
func New(opts ...Option) *Network {
	n := &Network{
		id:         uuid.NewString(),
		loss:       1.0,
		iterations: IterationsPerEpoch,
		metric:     loss.MSE{},
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With().Str("network", n.id).Logger()
	return n
}

// AddLayer queues a layer spec. It fails once the network is compiled.
func (n *Network) AddLayer(spec layer.Spec) error {
	if n.compiled {
		return fmt.Errorf("add layer after compile: %w", ErrInvalidState)
	}
	if spec == nil || spec.Size() <= 0 {
		return fmt.Errorf("add layer: non-positive size: %w", ErrInvalidInput)
	}
	n.sizes = append(n.sizes, spec.Size())
	n.specs = append(n.specs, spec)
	return nil
}

// Compile builds the concrete layers. Spec i becomes a layer mapping
// sizes[i] onto sizes[i+1].
func (n *Network) Compile() error {
	if n.compiled {
		return fmt.Errorf("compile twice: %w", ErrInvalidState)
	}
	if len(n.specs) < 2 {
		return fmt.Errorf("compile with %d layer specs, need at least 2: %w", len(n.specs), ErrInvalidState)
	}

	layers := make([]layer.Layer, 0, len(n.specs)-1)
	for i := 0; i < len(n.specs)-1; i++ {
		l, err := n.specs[i].Build(n.sizes[i+1], n.src)
		if err != nil {
			return fmt.Errorf("compile layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}
	n.layers = layers
	n.compiled = true

	n.logger.Debug().Ints("sizes", n.sizes).Int("layers", len(n.layers)).Msg("compiled network")
	return nil
}

// FeedForward runs the input through every layer and returns the output vector.
func (n *Network) FeedForward(in input.Input) ([]float64, error) {
	if !n.compiled {
		return nil, fmt.Errorf("feed forward before compile: %w", ErrInvalidState)
	}
	values := in.ToParam()
	if len(values) != n.sizes[0] {
		return nil, fmt.Errorf("feed forward with %d inputs, network takes %d: %w", len(values), n.sizes[0], ErrInvalidInput)
	}

	var data input.Input = input.Vector(values)
	for i, l := range n.layers {
		out, err := l.Forward(data)
		if err != nil {
			return nil, fmt.Errorf("layer %d forward: %w", i, err)
		}
		data = out
	}

	n.lastInput = matrix.Column(values)
	n.fed = true
	return data.ToParam(), nil
}

// BackPropagate walks the layers from output to input and updates parameters.
//
// Layer i computes the new parameters of layer i+1, so the loop visits every
// layer but the last. The first layer is only updated when the network was
// created WithUpdateInputLayer.
func (n *Network) BackPropagate(outputs []float64, targets input.Input) error {
	if !n.compiled {
		return fmt.Errorf("back propagate before compile: %w", ErrInvalidState)
	}
	if !n.fed {
		return fmt.Errorf("back propagate before feed forward: %w", ErrInvalidState)
	}
	t := targets.ToParam()
	want := n.sizes[len(n.sizes)-1]
	if len(t) != want {
		return fmt.Errorf("%d targets, network outputs %d: %w", len(t), want, ErrInvalidInput)
	}
	if len(outputs) != want {
		return fmt.Errorf("%d outputs, network outputs %d: %w", len(outputs), want, ErrInvalidInput)
	}
	kind, ok := n.layers[len(n.layers)-1].Activation()
	if !ok {
		return fmt.Errorf("output layer is not dense: %w", ErrInvalidState)
	}

	parsed := matrix.Column(outputs)
	errs, err := matrix.Column(t).Sub(parsed)
	if err != nil {
		return err
	}
	gradients := parsed.Map(kind.Function().D)
	targetRow := matrix.Row(t)
	n.loss = errs.MeanSquare()

	for i := len(n.layers) - 2; i >= 0; i-- {
		ahead := n.layers[i+1]
		step, err := n.layers[i].Backward(targetRow, gradients, errs, ahead.Weights(), ahead.Bias())
		if err != nil {
			return fmt.Errorf("layer %d backward: %w", i, err)
		}
		if err := ahead.SetWeights(step.Weights); err != nil {
			return fmt.Errorf("layer %d weights: %w", i+1, err)
		}
		if err := ahead.SetBias(step.Biases); err != nil {
			return fmt.Errorf("layer %d biases: %w", i+1, err)
		}
		gradients, errs = step.Gradients, step.Errors
	}

	if n.updateInputLayer {
		if learner, ok := n.layers[0].(layer.Learner); ok {
			if err := learner.Learn(n.lastInput, gradients, errs); err != nil {
				return fmt.Errorf("layer 0 learn: %w", err)
			}
		}
	}
	return nil
}

// Fit trains the network for epochs x iterations passes over the samples,
// performing one FeedForward and BackPropagate per sample in dataset order.
func (n *Network) Fit(trainIn, trainOut []input.Input, epochs int) error {
	if err := n.checkTraining(trainIn, trainOut); err != nil {
		return err
	}
	if epochs < 0 {
		return fmt.Errorf("fit with %d epochs: %w", epochs, ErrInvalidInput)
	}
	if err := n.checkIterations(); err != nil {
		return err
	}

	n.stopped = false
	n.trainBegin()
	for epoch := 0; epoch < epochs && !n.stopped; epoch++ {
		n.epochBegin(epoch)
		loss, err := n.epoch(trainIn, trainOut)
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		n.epochEnd(epoch, loss)
	}
	n.trainEnd()

	n.logger.Info().Int("epochs", epochs).Float64("loss", n.loss).Msg("trained")
	return nil
}

// Evaluate returns the mean loss over a dataset without updating any
// parameter. See WithLoss.
func (n *Network) Evaluate(in, out []input.Input) (float64, error) {
	losses, err := n.sampleLosses(in, out)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, l := range losses {
		sum += l
	}
	if len(losses) == 0 {
		return 0, nil
	}
	return sum / float64(len(losses)), nil
}

// Stop asks a running Fit or TrainToLoss to return after the current epoch.
func (n *Network) Stop() {
	n.stopped = true
}

// ID identifies the network in logs and metrics.
func (n *Network) ID() string {
	return n.id
}

// Sizes returns the declared layer widths, including input and output.
func (n *Network) Sizes() []int {
	return append([]int(nil), n.sizes...)
}

// Layers returns the compiled layers in order.
func (n *Network) Layers() []layer.Layer {
	return append([]layer.Layer(nil), n.layers...)
}

// Compiled reports whether Compile has succeeded.
func (n *Network) Compiled() bool {
	return n.compiled
}

// Loss is the mean squared output error of the last BackPropagate call.
func (n *Network) Loss() float64 {
	return n.loss
}

// Logger returns the network's logger.
func (n *Network) Logger() *zerolog.Logger {
	return &n.logger
}

// epoch runs one epoch and returns the mean loss over its updates.
func (n *Network) epoch(trainIn, trainOut []input.Input) (float64, error) {
	var sum float64
	var count int
	for it := 0; it < n.iterations; it++ {
		for i := range trainIn {
			out, err := n.FeedForward(trainIn[i])
			if err != nil {
				return 0, fmt.Errorf("sample %d: %w", i, err)
			}
			if err := n.BackPropagate(out, trainOut[i]); err != nil {
				return 0, fmt.Errorf("sample %d: %w", i, err)
			}
			sum += n.loss
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

func (n *Network) sampleLosses(in, out []input.Input) ([]float64, error) {
	if err := n.checkTraining(in, out); err != nil {
		return nil, err
	}
	losses := make([]float64, len(in))
	for i := range in {
		pred, err := n.FeedForward(in[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		l, err := n.metric.Forward(pred, out[i].ToParam())
		if err != nil {
			return nil, fmt.Errorf("sample %d: %v: %w", i, err, ErrInvalidInput)
		}
		losses[i] = l
	}
	return losses, nil
}

func (n *Network) checkTraining(in, out []input.Input) error {
	if !n.compiled {
		return fmt.Errorf("train before compile: %w", ErrInvalidState)
	}
	if len(in) != len(out) {
		return fmt.Errorf("%d inputs and %d targets: %w", len(in), len(out), ErrInvalidInput)
	}
	return nil
}

func (n *Network) checkIterations() error {
	if n.iterations <= 0 {
		return fmt.Errorf("%d iterations per epoch: %w", n.iterations, ErrInvalidInput)
	}
	return nil
}
