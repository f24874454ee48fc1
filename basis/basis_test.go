package basis

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFromInt64Array(t *testing.T) {
	_, err := NewFromInt64Array([]int64{1, 2, 3}, 2, 2)
	assert.Error(t, err)

	m, err := NewFromInt64Array([]int64{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.NoError(t, err)
	assert.Equal(t, 2, m.NumRows())
	assert.Equal(t, 3, m.Dim())
	assert.Equal(t, int64(6), m.Entry(1, 2).Int64())
}

func TestNewFromString(t *testing.T) {
	m, err := NewFromString("[[1 2 3]\n [4 -5 6]]")
	assert.NoError(t, err)
	assert.Equal(t, 2, m.NumRows())
	assert.Equal(t, 3, m.Dim())
	assert.Equal(t, int64(-5), m.Entry(1, 1).Int64())

	// comma-separated entries parse too
	m, err = NewFromString("[[1, 2], [3, 4]]")
	assert.NoError(t, err)
	assert.Equal(t, 2, m.NumRows())
	assert.Equal(t, int64(4), m.Entry(1, 1).Int64())

	_, err = NewFromString("[[1 2][3]]")
	assert.Error(t, err)
	_, err = NewFromString("")
	assert.Error(t, err)
	_, err = NewFromString("[[1 x]]")
	assert.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	m, err := NewFromInt64Array([]int64{10, -20, 30, 40}, 2, 2)
	assert.NoError(t, err)
	parsed, err := NewFromString(m.String())
	assert.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.Equal(t, 0, m.Entry(i, j).Cmp(parsed.Entry(i, j)))
		}
	}
}

func TestDot(t *testing.T) {
	m, err := NewFromInt64Array([]int64{1, 2, 3, -4}, 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), m.Dot(0, 0).Int64())
	assert.Equal(t, int64(-5), m.Dot(0, 1).Int64())
	assert.Equal(t, int64(25), m.Dot(1, 1).Int64())
}

func TestSwapAndMoveRow(t *testing.T) {
	m, err := NewFromInt64Array([]int64{1, 2, 3, 4, 5, 6, 7, 8}, 4, 2)
	assert.NoError(t, err)

	assert.NoError(t, m.SwapRows(0, 3))
	assert.Equal(t, int64(7), m.Entry(0, 0).Int64())
	assert.Equal(t, int64(1), m.Entry(3, 0).Int64())
	assert.NoError(t, m.SwapRows(0, 3))

	// moving row 3 to position 0 shifts rows 0..2 down
	assert.NoError(t, m.MoveRow(3, 0))
	assert.Equal(t, int64(7), m.Entry(0, 0).Int64())
	assert.Equal(t, int64(1), m.Entry(1, 0).Int64())
	assert.Equal(t, int64(5), m.Entry(3, 0).Int64())

	// and moving it back restores the original order
	assert.NoError(t, m.MoveRow(0, 3))
	assert.Equal(t, int64(1), m.Entry(0, 0).Int64())
	assert.Equal(t, int64(7), m.Entry(3, 0).Int64())

	assert.Error(t, m.SwapRows(0, 4))
	assert.Error(t, m.MoveRow(-1, 0))
}

func TestAddMulRow(t *testing.T) {
	m, err := NewFromInt64Array([]int64{1, 2, 3, 4}, 2, 2)
	assert.NoError(t, err)
	assert.NoError(t, m.AddMulRow(1, 0, big.NewInt(-3)))
	assert.Equal(t, int64(0), m.Entry(1, 0).Int64())
	assert.Equal(t, int64(-2), m.Entry(1, 1).Int64())
	assert.Error(t, m.AddMulRow(1, 1, big.NewInt(2)))
}

func TestCreateAndRemoveRow(t *testing.T) {
	m, err := NewFromInt64Array([]int64{1, 2}, 1, 2)
	assert.NoError(t, err)
	m.CreateRow()
	assert.Equal(t, 2, m.NumRows())
	assert.True(t, m.IsZeroRow(1))
	assert.False(t, m.IsZeroRow(0))
	assert.NoError(t, m.RemoveLastRow())
	assert.NoError(t, m.RemoveLastRow())
	assert.Error(t, m.RemoveLastRow())
}

func TestGramDet(t *testing.T) {
	// det of [[2 0][1 3]] is 6, so the Gram determinant is 36
	m, err := NewFromInt64Array([]int64{2, 0, 1, 3}, 2, 2)
	assert.NoError(t, err)
	det, err := m.GramDet(2)
	assert.NoError(t, err)
	assert.Equal(t, int64(36), det.Int64())

	// unimodular operations leave it unchanged
	assert.NoError(t, m.AddMulRow(0, 1, big.NewInt(7)))
	assert.NoError(t, m.SwapRows(0, 1))
	det, err = m.GramDet(2)
	assert.NoError(t, err)
	assert.Equal(t, int64(36), det.Int64())

	// dependent rows give 0
	m, err = NewFromInt64Array([]int64{1, 2, 2, 4}, 2, 2)
	assert.NoError(t, err)
	det, err = m.GramDet(2)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), det.Int64())

	_, err = m.GramDet(3)
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	m, err := NewFromInt64Array([]int64{1, 2, 3, 4}, 2, 2)
	assert.NoError(t, err)
	clone := m.Clone()
	assert.NoError(t, m.AddMulRow(0, 1, big.NewInt(1)))
	assert.Equal(t, int64(4), m.Entry(0, 0).Int64())
	assert.Equal(t, int64(1), clone.Entry(0, 0).Int64())
}
