package opt

import "math"

// Tunable is anything whose learning rate a scheduler may change.
type Tunable interface {
	LearningRate() float64
	SetLearningRate(lr float64)
}

// Plateau multiplies the learning rate of its targets by factor when the
// loss has not improved by more than threshold for patience steps.
type Plateau struct {
	targets   []Tunable
	factor    float64
	patience  int
	threshold float64
	minLR     float64

	bestLoss     float64
	numBadSteps  int
	numReduction int
}

// NewPlateau creates a plateau scheduler over the given targets.
func NewPlateau(factor float64, patience int, threshold, minLR float64, targets ...Tunable) *Plateau {
	return &Plateau{
		targets:   targets,
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		minLR:     minLR,
		bestLoss:  math.MaxFloat64,
	}
}

// StepWithLoss records a loss and reports whether the learning rates were reduced.
func (p *Plateau) StepWithLoss(loss float64) bool {
	if loss < p.bestLoss-p.threshold {
		p.bestLoss = loss
		p.numBadSteps = 0
		return false
	}
	p.numBadSteps++
	if p.patience <= 0 || p.numBadSteps < p.patience {
		return false
	}

	p.numBadSteps = 0
	p.numReduction++
	for _, t := range p.targets {
		lr := t.LearningRate() * p.factor
		if lr < p.minLR {
			lr = p.minLR
		}
		t.SetLearningRate(lr)
	}
	return true
}

// Best returns the lowest loss seen so far.
func (p *Plateau) Best() float64 {
	return p.bestLoss
}

// Reductions returns how many times the learning rates were reduced.
func (p *Plateau) Reductions() int {
	return p.numReduction
}
