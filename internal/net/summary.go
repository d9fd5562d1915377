package net

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Summary writes a table describing the compiled layers.
func (n *Network) Summary(w io.Writer) error {
	if !n.compiled {
		return fmt.Errorf("summary before compile: %w", ErrInvalidState)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Layer", "Activation", "Shape", "Params", "Loss"})

	total := 0
	for i, l := range n.layers {
		act := "-"
		if kind, ok := l.Activation(); ok {
			act = kind.String()
		}
		rows, cols, _ := l.Shape()
		params := rows*cols + l.Bias().Rows()*l.Bias().Cols()
		total += params
		table.Append([]string{
			strconv.Itoa(i),
			act,
			fmt.Sprintf("%d -> %d", cols, rows),
			strconv.Itoa(params),
			strconv.FormatFloat(l.Loss(), 'f', 6, 64),
		})
	}
	table.SetFooter([]string{"", "", "Total", strconv.Itoa(total), ""})
	table.Render()
	return nil
}
