package net

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSVLogger logs training progress to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) OnTrainBegin(n *Network) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		n.Logger().Error().Err(err).Str("file", c.Filename).Msg("could not open csv log")
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	// header only for a fresh file
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.write(n, []string{"network", "epoch", "loss", "time_seconds"})
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.writer == nil {
		return
	}
	c.write(n, []string{
		n.ID(),
		strconv.Itoa(epoch),
		fmt.Sprintf("%.6f", loss),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
	})
}

func (c *CSVLogger) OnTrainEnd(n *Network) {
	if c.file == nil {
		return
	}
	c.writer.Flush()
	if err := c.file.Close(); err != nil {
		n.Logger().Error().Err(err).Str("file", c.Filename).Msg("could not close csv log")
	}
	c.file = nil
	c.writer = nil
}

func (c *CSVLogger) write(n *Network, record []string) {
	if err := c.writer.Write(record); err != nil {
		n.Logger().Error().Err(err).Str("file", c.Filename).Msg("could not write csv log")
		return
	}
	c.writer.Flush()
}
