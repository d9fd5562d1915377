package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/triton/internal/config"
	"github.com/FlavioCFOliveira/triton/internal/dataset"
	"github.com/FlavioCFOliveira/triton/internal/metrics"
	"github.com/FlavioCFOliveira/triton/internal/net"
)

func main() {
	configPath := flag.String("config", "configs/xor.yaml", "Network and training config")
	dataPath := flag.String("data", "configs/xor.csv", "CSV file with training samples")
	labels := flag.String("labels", "2", "Comma separated label column indices")
	header := flag.Bool("header", true, "Skip the first CSV row")
	normalize := flag.Bool("normalize", false, "Min-max scale the sample columns")
	shuffle := flag.Bool("shuffle", false, "Shuffle the samples before splitting, seeded from the config")
	split := flag.Float64("split", 1, "Fraction of samples to train on; the rest is scored with Evaluate")
	metricsAddr := flag.String("metrics", "", "Serve prometheus metrics on this address, e.g. :6021")
	csvLog := flag.String("csv-log", "", "Write per-round losses to this CSV file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	opts := options{
		config:      *configPath,
		data:        *dataPath,
		labels:      *labels,
		header:      *header,
		normalize:   *normalize,
		shuffle:     *shuffle,
		split:       *split,
		metricsAddr: *metricsAddr,
		csvLog:      *csvLog,
	}
	if err := run(opts); err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
}

type options struct {
	config, data, labels string
	header, normalize    bool
	shuffle              bool
	split                float64
	metricsAddr, csvLog  string
}

func run(o options) error {
	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}
	trainCfg, err := cfg.Training.Options()
	if err != nil {
		return err
	}

	cols, err := parseColumns(o.labels)
	if err != nil {
		return err
	}
	data, err := dataset.LoadCSV(o.data, cols, o.header)
	if err != nil {
		return err
	}
	if o.normalize {
		data.Normalize()
	}
	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = uint64(time.Now().UnixNano())
	}
	trainSet, testSet, err := prepare(data, o.shuffle, o.split, seed)
	if err != nil {
		return err
	}
	log.Info().
		Str("path", o.data).
		Int("train", trainSet.Len()).
		Int("test", testSet.Len()).
		Msg("loaded dataset")

	var callbacks []net.Callback
	if o.metricsAddr != "" {
		m, err := metrics.NewTraining(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("could not register metrics: %w", err)
		}
		callbacks = append(callbacks, m)
		go serveMetrics(o.metricsAddr)
	}
	if o.csvLog != "" {
		callbacks = append(callbacks, net.NewCSVLogger(o.csvLog, false))
	}

	network, err := cfg.Build(net.WithCallbacks(callbacks...))
	if err != nil {
		return err
	}
	if err := network.Summary(os.Stdout); err != nil {
		return err
	}

	in, out := trainSet.Inputs()
	if cfg.Training.MaxRounds > 0 {
		report, err := network.TrainToLoss(in, out, trainCfg)
		if err != nil {
			return err
		}
		fmt.Printf("rounds: %d, loss: %.6f, converged: %v\n", report.Rounds, report.Loss, report.Converged)
	} else {
		if err := network.Fit(in, out, cfg.Training.Epochs); err != nil {
			return err
		}
	}

	for i := range in {
		pred, err := network.FeedForward(in[i])
		if err != nil {
			return err
		}
		fmt.Printf("input: %v, predicted: %.4f, target: %v\n", in[i].ToParam(), pred, out[i].ToParam())
	}

	if testSet.Len() > 0 {
		testIn, testOut := testSet.Inputs()
		loss, err := network.Evaluate(testIn, testOut)
		if err != nil {
			return err
		}
		fmt.Printf("held-out samples: %d, loss: %.6f\n", testSet.Len(), loss)
	}
	return nil
}

// prepare optionally shuffles data and splits it into train and test sets.
// ratio must be in (0, 1]; 1 keeps every sample for training.
func prepare(data *dataset.Dataset, shuffle bool, ratio float64, seed uint64) (train, test *dataset.Dataset, err error) {
	if ratio <= 0 || ratio > 1 {
		return nil, nil, fmt.Errorf("split %v outside (0, 1]", ratio)
	}
	if shuffle {
		data.Shuffle(rand.NewSource(seed))
	}
	train, test = data.Split(ratio)
	if train.Len() == 0 {
		return nil, nil, fmt.Errorf("split %v leaves no training samples", ratio)
	}
	return train, test, nil
}

func parseColumns(s string) ([]int, error) {
	var cols []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("label column %q: %w", part, err)
		}
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return nil, errors.New("no label columns")
	}
	return cols, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("could not serve metrics")
	}
}
