// Package matrix provides a dense 2-D matrix with value semantics.
//
// Every operation returns a new Matrix and never shares backing storage with
// its receiver or arguments. Storage and arithmetic are delegated to gonum.
package matrix

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDimensionMismatch is returned when operand shapes are incompatible.
var ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

// Matrix is a rows x cols matrix of float64 values stored row-major.
// The zero value is an empty 0x0 matrix.
type Matrix struct {
	rows, cols int
	// d is nil whenever rows or cols is zero; gonum does not allow empty Dense.
	d *mat.Dense
}

// New returns a rows x cols matrix of zeros.
func New(rows, cols int) Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("matrix: negative dimension %dx%d", rows, cols))
	}
	if rows == 0 || cols == 0 {
		return Matrix{rows: rows, cols: cols}
	}
	return Matrix{rows: rows, cols: cols, d: mat.NewDense(rows, cols, nil)}
}

// Empty returns a 0x0 matrix.
func Empty() Matrix {
	return Matrix{}
}

// NewRandom returns a rows x cols matrix with every cell drawn independently
// from the uniform distribution on [-1, 1]. A nil src uses the global source.
func NewRandom(rows, cols int, src rand.Source) Matrix {
	m := New(rows, cols)
	if m.d == nil {
		return m
	}
	dist := distuv.Uniform{Min: -1, Max: 1, Src: src}
	raw := m.d.RawMatrix()
	for i := 0; i < rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+cols]
		for j := range row {
			row[j] = dist.Rand()
		}
	}
	return m
}

// From builds a matrix from a nested row-major slice. Rows of unequal length
// are rejected with ErrDimensionMismatch. The input is copied.
func From(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 {
		return Empty(), nil
	}
	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), cols, ErrDimensionMismatch)
		}
	}
	m := New(len(rows), cols)
	if m.d == nil {
		return m, nil
	}
	for i, row := range rows {
		m.d.SetRow(i, row)
	}
	return m, nil
}

// Column builds a len(v) x 1 matrix from v.
func Column(v []float64) Matrix {
	m := New(len(v), 1)
	if m.d != nil {
		m.d.SetCol(0, v)
	}
	return m
}

// Row builds a 1 x len(v) matrix from v.
func Row(v []float64) Matrix {
	m := New(1, len(v))
	if m.d != nil {
		m.d.SetRow(0, v)
	}
	return m
}

// Must panics if err is non-nil and returns m otherwise.
func Must(m Matrix, err error) Matrix {
	if err != nil {
		panic(err)
	}
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m Matrix) Cols() int { return m.cols }

// Shape returns rows and columns.
func (m Matrix) Shape() (int, int) { return m.rows, m.cols }

// At returns the value at row i, column j.
func (m Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("matrix: index (%d, %d) out of range for %dx%d", i, j, m.rows, m.cols))
	}
	return m.d.At(i, j)
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	if m.d == nil {
		return Matrix{rows: m.rows, cols: m.cols}
	}
	return Matrix{rows: m.rows, cols: m.cols, d: mat.DenseCopyOf(m.d)}
}

// Transpose returns a new cols x rows matrix.
func (m Matrix) Transpose() Matrix {
	if m.d == nil {
		return Matrix{rows: m.cols, cols: m.rows}
	}
	return Matrix{rows: m.cols, cols: m.rows, d: mat.DenseCopyOf(m.d.T())}
}

// Map returns a new matrix with f applied to every cell.
func (m Matrix) Map(f func(float64) float64) Matrix {
	out := New(m.rows, m.cols)
	if m.d == nil {
		return out
	}
	out.d.Apply(func(_, _ int, v float64) float64 { return f(v) }, m.d)
	return out
}

// Scale returns s * m.
func (m Matrix) Scale(s float64) Matrix {
	out := New(m.rows, m.cols)
	if m.d == nil {
		return out
	}
	out.d.Scale(s, m.d)
	return out
}

// Add returns m + b.
func (m Matrix) Add(b Matrix) (Matrix, error) {
	if err := sameShape("add", m, b); err != nil {
		return Matrix{}, err
	}
	out := New(m.rows, m.cols)
	if out.d != nil {
		out.d.Add(m.d, b.d)
	}
	return out, nil
}

// Sub returns m - b.
func (m Matrix) Sub(b Matrix) (Matrix, error) {
	if err := sameShape("sub", m, b); err != nil {
		return Matrix{}, err
	}
	out := New(m.rows, m.cols)
	if out.d != nil {
		out.d.Sub(m.d, b.d)
	}
	return out, nil
}

// DotMultiply returns the element-wise (Hadamard) product of m and b.
func (m Matrix) DotMultiply(b Matrix) (Matrix, error) {
	if err := sameShape("dot multiply", m, b); err != nil {
		return Matrix{}, err
	}
	out := New(m.rows, m.cols)
	if out.d != nil {
		out.d.MulElem(m.d, b.d)
	}
	return out, nil
}

// Zip returns a new matrix whose cells are f(m[i][j], b[i][j]).
func (m Matrix) Zip(b Matrix, f func(x, y float64) float64) (Matrix, error) {
	if err := sameShape("zip", m, b); err != nil {
		return Matrix{}, err
	}
	out := New(m.rows, m.cols)
	if out.d != nil {
		out.d.Apply(func(i, j int, v float64) float64 { return f(v, b.d.At(i, j)) }, m.d)
	}
	return out, nil
}

// Mul returns the matrix product m * b. m.Cols() must equal b.Rows().
func (m Matrix) Mul(b Matrix) (Matrix, error) {
	if m.cols != b.rows {
		return Matrix{}, fmt.Errorf("mul %dx%d by %dx%d: %w", m.rows, m.cols, b.rows, b.cols, ErrDimensionMismatch)
	}
	out := New(m.rows, b.cols)
	if out.d != nil && m.cols > 0 {
		out.d.Mul(m.d, b.d)
	}
	return out, nil
}

// ToParam flattens the matrix row-major into a new slice.
func (m Matrix) ToParam() []float64 {
	out := make([]float64, 0, m.rows*m.cols)
	for i := 0; i < m.rows; i++ {
		if m.d != nil {
			out = append(out, m.d.RawRowView(i)...)
		}
	}
	return out
}

// ToParam2D returns a row-major nested copy of the matrix.
func (m Matrix) ToParam2D() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = make([]float64, m.cols)
		if m.d != nil {
			copy(out[i], m.d.RawRowView(i))
		}
	}
	return out
}

// MeanSquare returns the mean of the squared cells, or 0 for an empty matrix.
func (m Matrix) MeanSquare() float64 {
	if m.d == nil {
		return 0
	}
	var sum float64
	for i := 0; i < m.rows; i++ {
		row := m.d.RawRowView(i)
		sum += floats.Dot(row, row)
	}
	return sum / float64(m.rows*m.cols)
}

// Equal reports whether m and b have the same shape and identical cells.
func (m Matrix) Equal(b Matrix) bool {
	if m.rows != b.rows || m.cols != b.cols {
		return false
	}
	if m.d == nil {
		return true
	}
	return mat.Equal(m.d, b.d)
}

// EqualApprox reports whether m and b have the same shape and cells within tol.
func (m Matrix) EqualApprox(b Matrix, tol float64) bool {
	if m.rows != b.rows || m.cols != b.cols {
		return false
	}
	if m.d == nil {
		return true
	}
	return mat.EqualApprox(m.d, b.d, tol)
}

func (m Matrix) String() string {
	if m.d == nil {
		return fmt.Sprintf("[%dx%d]", m.rows, m.cols)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", mat.Formatted(m.d, mat.Squeeze())))
}

func sameShape(op string, a, b Matrix) error {
	if a.rows != b.rows || a.cols != b.cols {
		return fmt.Errorf("%s %dx%d and %dx%d: %w", op, a.rows, a.cols, b.rows, b.cols, ErrDimensionMismatch)
	}
	return nil
}
