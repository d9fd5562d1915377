package net

import "math"

// Callback defines the interface for training callbacks.
// Fit calls the epoch hooks once per epoch; TrainToLoss once per round.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(epoch int, loss float64, n *Network)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network)                        {}
func (c BaseCallback) OnTrainEnd(n *Network)                          {}
func (c BaseCallback) OnEpochBegin(epoch int, n *Network)             {}
func (c BaseCallback) OnEpochEnd(epoch int, loss float64, n *Network) {}

// EarlyStopping stops training when the epoch loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnTrainBegin(n *Network) {
	c.bestLoss = math.MaxFloat64
	c.numBadEpochs = 0
	c.Stopped = false
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss < c.bestLoss-c.Threshold {
		c.bestLoss = loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		n.Logger().Info().
			Int("epoch", epoch).
			Float64("loss", loss).
			Int("patience", c.Patience).
			Msg("early stopping")
		c.Stopped = true
		n.Stop()
	}
}

// Logger logs training progress through the network's logger.
type Logger struct {
	BaseCallback
	Interval int
}

func (c Logger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.Interval > 0 && epoch%c.Interval == 0 {
		n.Logger().Info().Int("epoch", epoch).Float64("loss", loss).Msg("epoch")
	}
}

func (n *Network) trainBegin() {
	for _, c := range n.callbacks {
		c.OnTrainBegin(n)
	}
}

func (n *Network) trainEnd() {
	for _, c := range n.callbacks {
		c.OnTrainEnd(n)
	}
}

func (n *Network) epochBegin(epoch int) {
	for _, c := range n.callbacks {
		c.OnEpochBegin(epoch, n)
	}
}

func (n *Network) epochEnd(epoch int, loss float64) {
	for _, c := range n.callbacks {
		c.OnEpochEnd(epoch, loss, n)
	}
}
