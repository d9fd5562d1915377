// Package input decouples network code from a concrete input representation.
package input

import "fmt"

// Input converts a value into the numeric layouts a network consumes.
// matrix.Matrix satisfies Input as well.
type Input interface {
	// ToParam returns a flat numeric vector.
	ToParam() []float64

	// ToParam2D returns a row-major 2-D layout.
	ToParam2D() [][]float64
}

// Vector is a plain feature vector. Its 2-D layout is a single row.
type Vector []float64

// ToParam returns a copy of v.
func (v Vector) ToParam() []float64 {
	return append([]float64(nil), v...)
}

// ToParam2D returns v as a single row.
func (v Vector) ToParam2D() [][]float64 {
	return [][]float64{v.ToParam()}
}

// OneHot is a vector of Size zeros with a 1 at Index.
type OneHot struct {
	Index int
	Size  int
}

// ToParam returns the encoded vector. An out-of-range Index yields all zeros.
func (o OneHot) ToParam() []float64 {
	v := make([]float64, o.Size)
	if o.Index >= 0 && o.Index < o.Size {
		v[o.Index] = 1
	}
	return v
}

// ToParam2D returns the encoded vector as a single row.
func (o OneHot) ToParam2D() [][]float64 {
	return [][]float64{o.ToParam()}
}

func (o OneHot) String() string {
	return fmt.Sprintf("onehot(%d/%d)", o.Index, o.Size)
}

// Rows is a 2-D input. Its flat form concatenates the rows in order.
type Rows [][]float64

// ToParam flattens r row-major.
func (r Rows) ToParam() []float64 {
	var out []float64
	for _, row := range r {
		out = append(out, row...)
	}
	return out
}

// ToParam2D returns a deep copy of r.
func (r Rows) ToParam2D() [][]float64 {
	out := make([][]float64, len(r))
	for i, row := range r {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Vectors wraps each slice as a Vector.
func Vectors(data [][]float64) []Input {
	out := make([]Input, len(data))
	for i, v := range data {
		out[i] = Vector(v)
	}
	return out
}
