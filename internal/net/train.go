package net

import (
	"fmt"
	"strings"

	"github.com/FlavioCFOliveira/triton/internal/input"
	"github.com/FlavioCFOliveira/triton/internal/opt"
)

// Mode selects how per-sample losses are combined after a training round.
type Mode int

const (
	// ModeAvg uses the mean loss over all samples.
	ModeAvg Mode = iota
	// ModeMax uses the worst sample's loss.
	ModeMax
)

func (m Mode) String() string {
	switch m {
	case ModeAvg:
		return "avg"
	case ModeMax:
		return "max"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode resolves "avg" or "max". An empty name resolves to ModeAvg.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "avg", "average", "mean":
		return ModeAvg, nil
	case "max":
		return ModeMax, nil
	}
	return 0, fmt.Errorf("mode %q: %w", name, ErrInvalidInput)
}

// TrainConfig controls TrainToLoss.
type TrainConfig struct {
	// TargetLoss stops training once the round loss is at or below it.
	TargetLoss float64
	// MaxRounds bounds the number of rounds; each round is one epoch.
	MaxRounds int
	Mode      Mode
	// Decay multiplies every layer's learning rate when the round loss has
	// not improved for Patience rounds. Values outside (0, 1) disable decay.
	Decay    float64
	Patience int
	// LogInterval is the number of rounds between progress logs; 0 disables them.
	LogInterval int
}

// Report summarises a TrainToLoss run.
type Report struct {
	Rounds     int
	Loss       float64
	Converged  bool
	Reductions int
}

// TrainToLoss trains in rounds until the aggregated loss reaches
// cfg.TargetLoss, MaxRounds is exhausted or a callback stops the network.
func (n *Network) TrainToLoss(trainIn, trainOut []input.Input, cfg TrainConfig) (Report, error) {
	if err := n.checkTraining(trainIn, trainOut); err != nil {
		return Report{}, err
	}
	if err := n.checkIterations(); err != nil {
		return Report{}, err
	}
	if cfg.MaxRounds <= 0 {
		return Report{}, fmt.Errorf("max rounds %d: %w", cfg.MaxRounds, ErrInvalidInput)
	}
	if cfg.TargetLoss < 0 {
		return Report{}, fmt.Errorf("target loss %v: %w", cfg.TargetLoss, ErrInvalidInput)
	}

	var plateau *opt.Plateau
	if cfg.Decay > 0 && cfg.Decay < 1 && cfg.Patience > 0 {
		var tunables []opt.Tunable
		for _, l := range n.layers {
			if t, ok := l.(opt.Tunable); ok {
				tunables = append(tunables, t)
			}
		}
		plateau = opt.NewPlateau(cfg.Decay, cfg.Patience, 0, 0, tunables...)
	}

	var report Report
	n.stopped = false
	n.trainBegin()
	for round := 0; round < cfg.MaxRounds && !n.stopped; round++ {
		n.epochBegin(round)
		if _, err := n.epoch(trainIn, trainOut); err != nil {
			return report, fmt.Errorf("round %d: %w", round, err)
		}
		loss, err := n.roundLoss(trainIn, trainOut, cfg.Mode)
		if err != nil {
			return report, fmt.Errorf("round %d: %w", round, err)
		}
		report.Rounds = round + 1
		report.Loss = loss
		n.epochEnd(round, loss)

		if cfg.LogInterval > 0 && round%cfg.LogInterval == 0 {
			n.logger.Info().Int("round", round).Float64("loss", loss).Str("mode", cfg.Mode.String()).Msg("training")
		}
		if loss <= cfg.TargetLoss {
			report.Converged = true
			break
		}
		if plateau != nil && plateau.StepWithLoss(loss) {
			n.logger.Debug().Int("round", round).Float64("best", plateau.Best()).Msg("decayed learning rate")
		}
	}
	n.trainEnd()

	if plateau != nil {
		report.Reductions = plateau.Reductions()
	}
	n.logger.Info().
		Int("rounds", report.Rounds).
		Float64("loss", report.Loss).
		Bool("converged", report.Converged).
		Msg("trained")
	return report, nil
}

func (n *Network) roundLoss(in, out []input.Input, mode Mode) (float64, error) {
	losses, err := n.sampleLosses(in, out)
	if err != nil {
		return 0, err
	}
	if len(losses) == 0 {
		return 0, nil
	}
	var agg float64
	for _, l := range losses {
		switch mode {
		case ModeMax:
			if l > agg {
				agg = l
			}
		default:
			agg += l
		}
	}
	if mode != ModeMax {
		agg /= float64(len(losses))
	}
	return agg, nil
}
