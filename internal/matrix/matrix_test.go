package matrix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// TestFrom tests construction from nested slices.
func TestFrom(t *testing.T) {
	m, err := From([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, 6.0, m.At(1, 2))

	empty, err := From(nil)
	require.NoError(t, err)
	r, c := empty.Shape()
	assert.Zero(t, r)
	assert.Zero(t, c)
}

// TestFromRagged tests that rows of unequal length are rejected.
func TestFromRagged(t *testing.T) {
	_, err := From([][]float64{{1, 2}, {3}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

// TestFromCopiesInput tests that later writes to the source slice are not observed.
func TestFromCopiesInput(t *testing.T) {
	src := [][]float64{{1, 2}}
	m := Must(From(src))
	src[0][0] = 99
	assert.Equal(t, 1.0, m.At(0, 0))
}

// TestNewRandom tests shape, range and seeded determinism of random matrices.
func TestNewRandom(t *testing.T) {
	a := NewRandom(4, 5, rand.NewSource(7))
	b := NewRandom(4, 5, rand.NewSource(7))

	assert.Equal(t, 4, a.Rows())
	assert.Equal(t, 5, a.Cols())
	assert.True(t, a.Equal(b), "same seed must produce the same matrix")

	for _, v := range a.ToParam() {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	c := NewRandom(4, 5, rand.NewSource(8))
	assert.False(t, a.Equal(c))
}

// TestAddSubRoundTrip tests (A + B) - B == A over random matrices.
func TestAddSubRoundTrip(t *testing.T) {
	src := rand.NewSource(1)
	for i := 0; i < 20; i++ {
		rows, cols := 1+i%4, 1+i%3
		a := NewRandom(rows, cols, src)
		b := NewRandom(rows, cols, src)

		sum, err := a.Add(b)
		require.NoError(t, err)
		back, err := sum.Sub(b)
		require.NoError(t, err)
		assert.True(t, back.EqualApprox(a, 1e-12), "(A+B)-B != A for %v", a)
	}
}

// TestTransposeInvolution tests transpose(transpose(A)) == A.
func TestTransposeInvolution(t *testing.T) {
	src := rand.NewSource(2)
	for _, shape := range [][2]int{{1, 1}, {1, 4}, {3, 1}, {3, 5}, {0, 2}} {
		a := NewRandom(shape[0], shape[1], src)
		tr := a.Transpose()
		assert.Equal(t, a.Cols(), tr.Rows())
		assert.Equal(t, a.Rows(), tr.Cols())
		assert.True(t, tr.Transpose().Equal(a))
	}
}

// TestMul tests the product shape and values.
func TestMul(t *testing.T) {
	a := Must(From([][]float64{{1, 2}, {3, 4}, {5, 6}}))
	b := Must(From([][]float64{{1, 0, 2}, {0, 1, 3}}))

	p, err := a.Mul(b)
	require.NoError(t, err)
	r, c := p.Shape()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)

	want := Must(From([][]float64{{1, 2, 8}, {3, 4, 18}, {5, 6, 28}}))
	assert.True(t, p.Equal(want), "got %v", p)
}

// TestMulShapes tests that an m x k by k x n product is m x n.
func TestMulShapes(t *testing.T) {
	src := rand.NewSource(3)
	for m := 1; m <= 3; m++ {
		for k := 1; k <= 3; k++ {
			for n := 1; n <= 3; n++ {
				p, err := NewRandom(m, k, src).Mul(NewRandom(k, n, src))
				require.NoError(t, err)
				assert.Equal(t, m, p.Rows())
				assert.Equal(t, n, p.Cols())
			}
		}
	}
}

// TestDimensionMismatch tests that every binary operation rejects bad shapes.
func TestDimensionMismatch(t *testing.T) {
	a := New(2, 3)
	b := New(3, 2)

	tests := []struct {
		name string
		op   func() (Matrix, error)
	}{
		{"add", func() (Matrix, error) { return a.Add(b) }},
		{"sub", func() (Matrix, error) { return a.Sub(b) }},
		{"dot multiply", func() (Matrix, error) { return a.DotMultiply(b) }},
		{"mul", func() (Matrix, error) { return a.Mul(New(2, 2)) }},
		{"zip", func() (Matrix, error) { return a.Zip(b, func(x, y float64) float64 { return x }) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.op()
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

// TestDotMultiply tests the Hadamard product.
func TestDotMultiply(t *testing.T) {
	a := Must(From([][]float64{{1, 2}, {3, 4}}))
	b := Must(From([][]float64{{2, 2}, {0, -1}}))

	p, err := a.DotMultiply(b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 4}, {0, -4}}, p.ToParam2D())
}

// TestMapDoesNotAlias tests that Map leaves its source untouched.
func TestMapDoesNotAlias(t *testing.T) {
	a := Must(From([][]float64{{1, 2}, {3, 4}}))
	doubled := a.Map(func(v float64) float64 { return v * 2 })

	assert.Equal(t, [][]float64{{2, 4}, {6, 8}}, doubled.ToParam2D())
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, a.ToParam2D())
}

// TestResultsDoNotAlias tests that writes through exported views never reach the source.
func TestResultsDoNotAlias(t *testing.T) {
	a := Must(From([][]float64{{1, 2}, {3, 4}}))

	rows := a.ToParam2D()
	rows[0][0] = 100
	flat := a.ToParam()
	flat[1] = 100
	clone := a.Clone()
	scaled := a.Scale(1)

	assert.Equal(t, 1.0, a.At(0, 0))
	assert.Equal(t, 2.0, a.At(0, 1))
	assert.True(t, clone.Equal(a))
	assert.True(t, scaled.Equal(a))
}

// TestToParam tests row-major flattening.
func TestToParam(t *testing.T) {
	a := Must(From([][]float64{{1, 2, 3}, {4, 5, 6}}))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, a.ToParam())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, a.Transpose().ToParam())
}

// TestRowColumn tests the vector constructors.
func TestRowColumn(t *testing.T) {
	col := Column([]float64{1, 2, 3})
	row := Row([]float64{1, 2, 3})

	assert.Equal(t, 3, col.Rows())
	assert.Equal(t, 1, col.Cols())
	assert.True(t, col.Transpose().Equal(row))
}

// TestMeanSquare tests the mean of squared cells.
func TestMeanSquare(t *testing.T) {
	a := Must(From([][]float64{{1, -1}, {2, 0}}))
	assert.InDelta(t, 1.5, a.MeanSquare(), 1e-12)
	assert.Zero(t, Empty().MeanSquare())
}

// TestEmptyOperations tests operations on matrices with a zero dimension.
func TestEmptyOperations(t *testing.T) {
	e := New(0, 3)
	sum, err := e.Add(New(0, 3))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Rows())

	p, err := New(2, 0).Mul(New(0, 2))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0}, {0, 0}}, p.ToParam2D())
}
