// Package gso maintains the Gram-Schmidt orthogonalization of a lattice
// basis incrementally. For each row i it tracks the squared norm r[i] of the
// projection of row i orthogonal to the rows before it, and the coefficients
// mu[i][j] expressing row i over the projected rows. Both are BigNumbers, so
// norms carry an explicit binary exponent and never overflow.
//
// The state is maintained lazily: every row operation lowers a valid-prefix
// watermark, and reads recompute any stale rows first. Callers therefore see
// reads as read-with-recompute operations, never stale data.
package gso

import (
	"fmt"
	"math/big"

	"github.com/chenjinhua1993/fplll/basis"
	"github.com/chenjinhua1993/fplll/bignumber"
	"github.com/chenjinhua1993/fplll/red"
)

// Mat is the orthogonalization state attached to a basis. The basis is held
// by reference and mutated in place by the row operations below; Mat never
// keeps a private copy.
type Mat struct {
	b     *basis.Matrix
	mu    [][]*bignumber.BigNumber // mu[i][j] for j < i
	r     []*bignumber.BigNumber   // squared norms of the projected rows
	valid int                      // rows [0, valid) are current
}

// NewMat returns the orthogonalization state for b. No rows are computed
// until the first read or a call to DiscoverAllRows.
func NewMat(b *basis.Matrix) *Mat {
	numRows := b.NumRows()
	retVal := &Mat{
		b:  b,
		mu: make([][]*bignumber.BigNumber, numRows),
		r:  make([]*bignumber.BigNumber, numRows),
	}
	for i := 0; i < numRows; i++ {
		retVal.mu[i] = newZeroRow(i)
		retVal.r[i] = bignumber.NewFromInt64(0)
	}
	return retVal
}

// Basis returns the underlying basis matrix.
func (m *Mat) Basis() *basis.Matrix { return m.b }

// NumRows returns the number of rows tracked by m.
func (m *Mat) NumRows() int { return m.b.NumRows() }

// Dim returns the dimension of the basis rows.
func (m *Mat) Dim() int { return m.b.Dim() }

// DiscoverAllRows forces the orthogonalization of every row.
func (m *Mat) DiscoverAllRows() error {
	return m.UpdateRows(0, m.b.NumRows())
}

// UpdateRows refreshes the orthogonalization of rows [first, last). Rows
// before first are refreshed too if a row operation invalidated them, since
// each row depends on all rows above it.
func (m *Mat) UpdateRows(first, last int) error {
	if last > m.b.NumRows() {
		return fmt.Errorf("gso.UpdateRows: row %d out of range [0, %d)", last-1, m.b.NumRows())
	}
	for i := m.valid; i < last; i++ {
		if err := m.computeRow(i); err != nil {
			return err
		}
		m.valid = i + 1
	}
	return nil
}

// UpdateRow refreshes the orthogonalization of row i (and any stale rows
// above it).
func (m *Mat) UpdateRow(i int) error {
	return m.UpdateRows(0, i+1)
}

// R returns the squared norm of the projection of row i, refreshing the row
// first. The returned value aliases internal state; callers that hold it
// across row operations must copy it.
func (m *Mat) R(i int) (*bignumber.BigNumber, error) {
	if err := m.UpdateRow(i); err != nil {
		return nil, err
	}
	return m.r[i], nil
}

// Mu returns the Gram-Schmidt coefficient mu[i][j] for j < i, refreshing row
// i first. The returned value aliases internal state.
func (m *Mat) Mu(i, j int) (*bignumber.BigNumber, error) {
	if j < 0 || j >= i {
		return nil, fmt.Errorf("gso.Mu: column %d out of range [0, %d)", j, i)
	}
	if err := m.UpdateRow(i); err != nil {
		return nil, err
	}
	return m.mu[i][j], nil
}

// SwapRows exchanges basis rows i and j and invalidates the state from the
// smaller index on.
func (m *Mat) SwapRows(i, j int) error {
	if err := m.b.SwapRows(i, j); err != nil {
		return err
	}
	m.invalidateFrom(min(i, j))
	return nil
}

// MoveRow moves the basis row at position from to position to, shifting the
// intervening rows.
func (m *Mat) MoveRow(from, to int) error {
	if err := m.b.MoveRow(from, to); err != nil {
		return err
	}
	m.invalidateFrom(min(from, to))
	return nil
}

// AddMulRow adds x times basis row src to basis row target.
func (m *Mat) AddMulRow(target, src int, x *big.Int) error {
	if err := m.b.AddMulRow(target, src, x); err != nil {
		return err
	}
	m.invalidateFrom(target)
	return nil
}

// CreateRow appends a zero row to the basis and extends the state to cover
// it.
func (m *Mat) CreateRow() {
	m.b.CreateRow()
	m.mu = append(m.mu, newZeroRow(len(m.r)))
	m.r = append(m.r, bignumber.NewFromInt64(0))
}

// RemoveLastRow drops the last basis row.
func (m *Mat) RemoveLastRow() error {
	if err := m.b.RemoveLastRow(); err != nil {
		return err
	}
	numRows := m.b.NumRows()
	m.mu = m.mu[:numRows]
	m.r = m.r[:numRows]
	if m.valid > numRows {
		m.valid = numRows
	}
	return nil
}

// InvalidateFrom marks rows [i, numRows) stale, forcing recomputation on the
// next read.
func (m *Mat) InvalidateFrom(i int) {
	m.invalidateFrom(i)
}

// computeRow fills mu[i][*] and r[i] from rows [0, i), which must be
// current. A zero r[j] (a dependent row above) contributes nothing to the
// projection, so its coefficient is left at zero rather than dividing by
// zero.
func (m *Mat) computeRow(i int) error {
	term := bignumber.NewFromInt64(0)
	for j := 0; j < i; j++ {
		num := bignumber.NewFromInt(m.b.Dot(i, j))
		for k := 0; k < j; k++ {
			term.Int64Mul(-1, term.Mul(m.mu[j][k], m.mu[i][k]))
			num.MulAdd(term, m.r[k])
		}
		if m.r[j].IsZero() {
			m.mu[i][j] = bignumber.NewFromInt64(0)
			continue
		}
		muIJ, err := bignumber.NewFromInt64(0).Quo(num, m.r[j])
		if err != nil {
			return red.NewError(red.GSOFailure, "gso: could not compute mu[%d][%d]: %s", i, j, err.Error())
		}
		m.mu[i][j] = muIJ
	}
	rI := bignumber.NewFromInt(m.b.Dot(i, i))
	for k := 0; k < i; k++ {
		term.Mul(m.mu[i][k], m.mu[i][k])
		term.Int64Mul(-1, term)
		rI.MulAdd(term, m.r[k])
	}
	if rI.Sign() < 0 {
		if !rI.IsSmall() {
			_, s := rI.String()
			return red.NewError(red.GSOFailure, "gso: squared norm of row %d is negative: %s", i, s)
		}
		rI = bignumber.NewFromInt64(0)
	}
	m.r[i] = rI
	return nil
}

func (m *Mat) invalidateFrom(i int) {
	if i < m.valid {
		m.valid = i
	}
}

func newZeroRow(numCols int) []*bignumber.BigNumber {
	row := make([]*bignumber.BigNumber, numCols)
	for j := 0; j < numCols; j++ {
		row[j] = bignumber.NewFromInt64(0)
	}
	return row
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
