package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/FlavioCFOliveira/triton/internal/activations"
	"github.com/FlavioCFOliveira/triton/internal/input"
	"github.com/FlavioCFOliveira/triton/internal/layer"
	"github.com/FlavioCFOliveira/triton/internal/net"
)

const epochs = 5

var (
	trainX = [][]float64{
		{0, 0},
		{0, 1},
		{1, 0},
		{1, 1},
	}
	trainY = [][]float64{
		{0},
		{1},
		{1},
		{0},
	}
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func main() {
	fmt.Println("=== XOR Training Example ===")

	network, err := train(net.WithCallbacks(net.Logger{Interval: 1}))
	if err != nil {
		log.Fatal().Err(err).Msg("could not train network")
	}
	if err := network.Summary(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("could not print summary")
	}

	fmt.Println("\nTesting trained network:")
	for i := range trainX {
		pred, err := network.FeedForward(input.Vector(trainX[i]))
		if err != nil {
			log.Fatal().Err(err).Msg("could not predict")
		}
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n", trainX[i], pred[0], trainY[i][0])
	}
}

// train fits a 2 -> 3 -> 1 sigmoid network on XOR. XOR is not linearly
// separable, so the input layer has to learn as well.
func train(opts ...net.Option) (*net.Network, error) {
	opts = append([]net.Option{net.WithSeed(42), net.WithUpdateInputLayer(true)}, opts...)
	network := net.New(opts...)
	for _, size := range []int{2, 3, 1} {
		if err := network.AddLayer(layer.Dense(size, activations.Sigmoid, 0.1)); err != nil {
			return nil, err
		}
	}
	if err := network.Compile(); err != nil {
		return nil, err
	}
	if err := network.Fit(input.Vectors(trainX), input.Vectors(trainY), epochs); err != nil {
		return nil, err
	}
	return network, nil
}
