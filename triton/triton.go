// Package triton re-exports the network, layer and input types for use
// outside this module.
package triton

import (
	"github.com/FlavioCFOliveira/triton/internal/activations"
	"github.com/FlavioCFOliveira/triton/internal/config"
	"github.com/FlavioCFOliveira/triton/internal/input"
	"github.com/FlavioCFOliveira/triton/internal/layer"
	"github.com/FlavioCFOliveira/triton/internal/matrix"
	"github.com/FlavioCFOliveira/triton/internal/net"
	"github.com/FlavioCFOliveira/triton/internal/opt"
)

// Re-export common types and functions for easier access
type (
	Network     = net.Network
	Option      = net.Option
	TrainConfig = net.TrainConfig
	Report      = net.Report
	Callback    = net.Callback
	Layer       = layer.Layer
	LayerSpec   = layer.Spec
	DenseSpec   = layer.DenseSpec
	Input       = input.Input
	Vector      = input.Vector
	OneHot      = input.OneHot
	Matrix      = matrix.Matrix
	Activation  = activations.Kind
	Optimizer   = opt.Kind
	Config      = config.Config
)

// Activations
const (
	Sigmoid = activations.Sigmoid
	ReLU    = activations.ReLU
	Tanh    = activations.Tanh
	Linear  = activations.Linear
)

// Optimizers
const (
	SGD  = opt.KindSGD
	Adam = opt.KindAdam
)

// Loss aggregation for TrainToLoss
const (
	ModeAvg = net.ModeAvg
	ModeMax = net.ModeMax
)

// Errors
var (
	ErrInvalidInput      = net.ErrInvalidInput
	ErrInvalidState      = net.ErrInvalidState
	ErrDimensionMismatch = matrix.ErrDimensionMismatch
	ErrInvalidSpec       = layer.ErrInvalidSpec
	ErrInvalidConfig     = config.ErrInvalid
)

// Network creation
func New(opts ...Option) *Network {
	return net.New(opts...)
}

func WithSeed(seed uint64) Option {
	return net.WithSeed(seed)
}

func WithIterations(iterations int) Option {
	return net.WithIterations(iterations)
}

func WithUpdateInputLayer(update bool) Option {
	return net.WithUpdateInputLayer(update)
}

func WithCallbacks(callbacks ...Callback) Option {
	return net.WithCallbacks(callbacks...)
}

// Layers
func Dense(units int, act Activation, learningRate float64) DenseSpec {
	return layer.Dense(units, act, learningRate)
}

// Inputs
func Vectors(data [][]float64) []Input {
	return input.Vectors(data)
}

// Configs
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Sequential adds the specs in order and compiles the network.
func Sequential(n *Network, specs ...LayerSpec) (*Network, error) {
	for _, s := range specs {
		if err := n.AddLayer(s); err != nil {
			return nil, err
		}
	}
	if err := n.Compile(); err != nil {
		return nil, err
	}
	return n, nil
}
