// Package config describes a network and its training run in YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/triton/internal/activations"
	"github.com/FlavioCFOliveira/triton/internal/layer"
	"github.com/FlavioCFOliveira/triton/internal/loss"
	"github.com/FlavioCFOliveira/triton/internal/net"
	"github.com/FlavioCFOliveira/triton/internal/opt"
)

// ErrInvalid is returned when a config fails validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the root of a network file.
type Config struct {
	// Seed makes weight initialisation reproducible when set.
	Seed             *uint64  `yaml:"seed,omitempty"`
	UpdateInputLayer bool     `yaml:"update_input_layer"`
	Layers           []Layer  `yaml:"layers"`
	Training         Training `yaml:"training"`
}

// Layer declares one layer. The last entry only sets the output width.
type Layer struct {
	Size         int     `yaml:"size"`
	Activation   string  `yaml:"activation"`
	LearningRate float64 `yaml:"learning_rate"`
	Optimizer    string  `yaml:"optimizer,omitempty"`
}

type Training struct {
	Epochs      int     `yaml:"epochs"`
	Iterations  int     `yaml:"iterations"`
	TargetLoss  float64 `yaml:"target_loss"`
	MaxRounds   int     `yaml:"max_rounds"`
	Mode        string  `yaml:"mode"`
	Loss        string  `yaml:"loss,omitempty"`
	Decay       float64 `yaml:"decay"`
	Patience    int     `yaml:"patience"`
	LogInterval int     `yaml:"log_interval"`
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not load config %s: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("path", path).Int("layers", len(c.Layers)).Msg("loaded config")
	return c, nil
}

// Parse decodes and validates a YAML document.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the layers and training block.
func (c *Config) Validate() error {
	if len(c.Layers) < 2 {
		return fmt.Errorf("%d layers, need at least 2: %w", len(c.Layers), ErrInvalid)
	}
	for i, l := range c.Layers {
		if l.Size <= 0 {
			return fmt.Errorf("layer %d: size %d: %w", i, l.Size, ErrInvalid)
		}
		if _, err := activations.Parse(l.Activation); err != nil {
			return fmt.Errorf("layer %d: %v: %w", i, err, ErrInvalid)
		}
		if _, err := opt.Parse(l.Optimizer); err != nil {
			return fmt.Errorf("layer %d: %v: %w", i, err, ErrInvalid)
		}
		if l.LearningRate < 0 {
			return fmt.Errorf("layer %d: learning rate %v: %w", i, l.LearningRate, ErrInvalid)
		}
	}

	t := c.Training
	if t.Epochs < 0 || t.Iterations < 0 || t.MaxRounds < 0 || t.Patience < 0 || t.LogInterval < 0 {
		return fmt.Errorf("training: negative count: %w", ErrInvalid)
	}
	if t.TargetLoss < 0 {
		return fmt.Errorf("training: target loss %v: %w", t.TargetLoss, ErrInvalid)
	}
	if t.Decay < 0 || t.Decay >= 1 {
		return fmt.Errorf("training: decay %v outside [0, 1): %w", t.Decay, ErrInvalid)
	}
	if _, err := net.ParseMode(t.Mode); err != nil {
		return fmt.Errorf("training: %v: %w", err, ErrInvalid)
	}
	if _, err := loss.Parse(t.Loss); err != nil {
		return fmt.Errorf("training: %v: %w", err, ErrInvalid)
	}
	return nil
}

// Build creates and compiles the network described by c. opts are applied
// after the options derived from the config.
func (c *Config) Build(opts ...net.Option) (*net.Network, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var base []net.Option
	if c.Seed != nil {
		base = append(base, net.WithSeed(*c.Seed))
	}
	if c.Training.Iterations > 0 {
		base = append(base, net.WithIterations(c.Training.Iterations))
	}
	metric, err := loss.Parse(c.Training.Loss)
	if err != nil {
		return nil, err
	}
	base = append(base, net.WithUpdateInputLayer(c.UpdateInputLayer), net.WithLoss(metric))

	n := net.New(append(base, opts...)...)
	for _, l := range c.Layers {
		spec, err := l.Spec()
		if err != nil {
			return nil, err
		}
		if err := n.AddLayer(spec); err != nil {
			return nil, err
		}
	}
	if err := n.Compile(); err != nil {
		return nil, err
	}
	return n, nil
}

// Spec converts the entry into a dense layer spec.
func (l Layer) Spec() (layer.DenseSpec, error) {
	act, err := activations.Parse(l.Activation)
	if err != nil {
		return layer.DenseSpec{}, err
	}
	kind, err := opt.Parse(l.Optimizer)
	if err != nil {
		return layer.DenseSpec{}, err
	}
	return layer.DenseSpec{
		Units:        l.Size,
		Activation:   act,
		LearningRate: l.LearningRate,
		Optimizer:    kind,
	}, nil
}

// Options converts the training block for net.Network.TrainToLoss.
func (t Training) Options() (net.TrainConfig, error) {
	mode, err := net.ParseMode(t.Mode)
	if err != nil {
		return net.TrainConfig{}, fmt.Errorf("training: %v: %w", err, ErrInvalid)
	}
	return net.TrainConfig{
		TargetLoss:  t.TargetLoss,
		MaxRounds:   t.MaxRounds,
		Mode:        mode,
		Decay:       t.Decay,
		Patience:    t.Patience,
		LogInterval: t.LogInterval,
	}, nil
}
