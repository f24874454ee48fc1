package gso

import (
	"fmt"
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chenjinhua1993/fplll/basis"
	"github.com/chenjinhua1993/fplll/bignumber"
	"github.com/chenjinhua1993/fplll/red"
)

func TestMain(m *testing.M) {
	err := bignumber.Init(1000)
	if err != nil {
		fmt.Printf("Invalid input to Init: %q", err.Error())
		return
	}
	code := m.Run()
	os.Exit(code)
}

func newMat(t *testing.T, entries []int64, numRows, dim int) *Mat {
	b, err := basis.NewFromInt64Array(entries, numRows, dim)
	assert.NoError(t, err)
	return NewMat(b)
}

func checkBigNumber(t *testing.T, expected int64, actual *bignumber.BigNumber, context string) {
	assert.Equalf(
		t, 0, actual.Cmp(bignumber.NewFromInt64(expected)), "%s should equal %d", context, expected,
	)
}

func TestOrthogonalization(t *testing.T) {
	// rows (1,0) and (1,2): mu[1][0] = 1, r = (1, 4)
	m := newMat(t, []int64{1, 0, 1, 2}, 2, 2)
	assert.NoError(t, m.DiscoverAllRows())

	r0, err := m.R(0)
	assert.NoError(t, err)
	checkBigNumber(t, 1, r0, "r[0]")

	mu10, err := m.Mu(1, 0)
	assert.NoError(t, err)
	checkBigNumber(t, 1, mu10, "mu[1][0]")

	r1, err := m.R(1)
	assert.NoError(t, err)
	checkBigNumber(t, 4, r1, "r[1]")
}

func TestDependentRow(t *testing.T) {
	// row 1 is twice row 0, so its projection has norm exactly 0
	m := newMat(t, []int64{1, 2, 2, 4}, 2, 2)
	r1, err := m.R(1)
	assert.NoError(t, err)
	assert.True(t, r1.IsZero())

	mu10, err := m.Mu(1, 0)
	assert.NoError(t, err)
	checkBigNumber(t, 2, mu10, "mu[1][0]")
}

func TestMuRange(t *testing.T) {
	m := newMat(t, []int64{1, 0, 1, 2}, 2, 2)
	_, err := m.Mu(1, 1)
	assert.Error(t, err)
	_, err = m.Mu(0, 0)
	assert.Error(t, err)
	_, err = m.R(5)
	assert.Error(t, err)
}

func TestRowOperationsRefresh(t *testing.T) {
	m := newMat(t, []int64{1, 0, 1, 2}, 2, 2)
	r0, err := m.R(0)
	assert.NoError(t, err)
	checkBigNumber(t, 1, r0, "r[0]")

	// swapping makes (1,2) the leading row
	assert.NoError(t, m.SwapRows(0, 1))
	r0, err = m.R(0)
	assert.NoError(t, err)
	checkBigNumber(t, 5, r0, "r[0] after swap")
	assert.NoError(t, m.SwapRows(0, 1))

	// size-reducing row 1 by row 0 leaves r unchanged, mu reduced
	assert.NoError(t, m.AddMulRow(1, 0, big.NewInt(-1)))
	mu10, err := m.Mu(1, 0)
	assert.NoError(t, err)
	checkBigNumber(t, 0, mu10, "mu[1][0] after reduction")
	r1, err := m.R(1)
	assert.NoError(t, err)
	checkBigNumber(t, 4, r1, "r[1] after reduction")
}

func TestMoveRow(t *testing.T) {
	m := newMat(t, []int64{2, 0, 0, 3, 1, 1}, 3, 2)
	assert.NoError(t, m.DiscoverAllRows())
	assert.NoError(t, m.MoveRow(2, 0))
	r0, err := m.R(0)
	assert.NoError(t, err)
	checkBigNumber(t, 2, r0, "r[0] after move")
	assert.Equal(t, int64(1), m.Basis().Entry(0, 0).Int64())
}

func TestCreateAndRemoveRow(t *testing.T) {
	m := newMat(t, []int64{1, 0, 0, 2}, 2, 2)
	assert.NoError(t, m.DiscoverAllRows())

	m.CreateRow()
	assert.Equal(t, 3, m.NumRows())
	assert.NoError(t, m.AddMulRow(2, 0, big.NewInt(3)))
	assert.NoError(t, m.AddMulRow(2, 1, big.NewInt(1)))

	// the new row (3, 2) is dependent on the first two
	r2, err := m.R(2)
	assert.NoError(t, err)
	assert.True(t, r2.IsZero())

	assert.NoError(t, m.RemoveLastRow())
	assert.Equal(t, 2, m.NumRows())
	r1, err := m.R(1)
	assert.NoError(t, err)
	checkBigNumber(t, 4, r1, "r[1] after remove")
}

func TestGSOFailureStatus(t *testing.T) {
	m := newMat(t, []int64{1, 0, 1, 2}, 2, 2)
	err := m.UpdateRows(0, 5)
	assert.Error(t, err)
	// range errors are plain errors, not status-tagged ones
	assert.Equal(t, red.BKZFailure, red.StatusOf(err))
}
