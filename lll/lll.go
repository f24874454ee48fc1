// Package lll implements LLL reduction of a window of basis rows over an
// incremental GSO state. It is used by the BKZ driver both as the per-block
// preprocessing pass and as the mechanism that places a newly inserted
// vector in its natural rank position.
//
// Linearly dependent rows are tolerated: a row whose vector reduces to zero
// is moved to the tail of the window (MLLL behavior), which is what the BKZ
// insertion trick relies on to drop the redundant row.
package lll

import (
	"fmt"
	"math/big"

	"github.com/chenjinhua1993/fplll/bignumber"
	"github.com/chenjinhua1993/fplll/gso"
	"github.com/chenjinhua1993/fplll/red"
)

const (
	// DefaultDelta is the default Lovasz condition factor.
	DefaultDelta = 0.99
	// DefaultEta is the default size-reduction bound.
	DefaultEta = 0.51

	// A row is size-reduced again while truncation error leaves a
	// coefficient above eta, up to this many passes.
	sizeRedFailureThresh = 5
)

// Reducer LLL-reduces row windows of the GSO state it is bound to.
type Reducer struct {
	m      *gso.Mat
	delta  *bignumber.BigNumber
	eta    *bignumber.BigNumber
	nSwaps int
}

// NewReducer returns a Reducer over m with the given delta and eta. delta
// must lie in (0.25, 1) and eta in [0.5, sqrt(delta)).
func NewReducer(m *gso.Mat, delta, eta float64) (*Reducer, error) {
	if delta <= 0.25 || delta >= 1.0 {
		return nil, fmt.Errorf("lll.NewReducer: delta = %f is outside (0.25, 1)", delta)
	}
	if eta < 0.5 || eta*eta >= delta {
		return nil, fmt.Errorf("lll.NewReducer: eta = %f is outside [0.5, sqrt(delta))", eta)
	}
	deltaBn, err := bignumber.NewFromFloat64(delta)
	if err != nil {
		return nil, fmt.Errorf("lll.NewReducer: could not convert delta: %q", err.Error())
	}
	etaBn, err := bignumber.NewFromFloat64(eta)
	if err != nil {
		return nil, fmt.Errorf("lll.NewReducer: could not convert eta: %q", err.Error())
	}
	return &Reducer{m: m, delta: deltaBn, eta: etaBn}, nil
}

// NSwaps returns the number of row swaps performed by the most recent call
// to Reduce.
func (r *Reducer) NSwaps() int { return r.nSwaps }

// Reduce LLL-reduces the rows [first, last). Size reduction uses rows down
// to start, and no row before start is modified; with start == first the
// window is reduced in isolation (the bounded mode BKZ preprocessing uses).
// Rows [start, first) are assumed reduced already and serve as the context.
//
// Zero rows produced by dependent inputs are moved to the end of the window.
// The swap counter is reset at entry and readable through NSwaps.
func (r *Reducer) Reduce(start, first, last int) error {
	if start < 0 || start > first || first >= last || last > r.m.NumRows() {
		return fmt.Errorf(
			"lll.Reduce: illegal window start=%d first=%d last=%d of %d rows",
			start, first, last, r.m.NumRows(),
		)
	}
	r.nSwaps = 0

	// Iteration budget; LLL provably terminates well within this on exact
	// GSO state, so exceeding it indicates a numeric defect.
	maxIterations := 1000 + 200*(last-start)*(last-start)*r.m.Dim()

	k := first
	if k <= start {
		k = start + 1
	}
	live := last // rows [live, last) are zero rows parked at the tail
	for iteration := 0; k < live; iteration++ {
		if iteration >= maxIterations {
			return red.NewError(
				red.LLLFailure, "lll.Reduce: no convergence after %d iterations", maxIterations,
			)
		}
		if err := r.sizeReduceRow(k, start); err != nil {
			return err
		}
		if r.m.Basis().IsZeroRow(k) {
			// Dependent input; park the zero row at the end of the window.
			if err := r.m.MoveRow(k, live-1); err != nil {
				return fmt.Errorf("lll.Reduce: could not park zero row %d: %w", k, err)
			}
			live--
			continue
		}
		if k == start {
			k++
			continue
		}
		swap, err := r.lovaszFails(k)
		if err != nil {
			return err
		}
		if swap {
			if err = r.m.SwapRows(k-1, k); err != nil {
				return fmt.Errorf("lll.Reduce: could not swap rows %d and %d: %w", k-1, k, err)
			}
			r.nSwaps++
			if k > start+1 {
				k--
			}
			continue
		}
		k++
	}
	return nil
}

// SizeReduce size-reduces rows [first, last) against their predecessors
// without performing any swaps.
func (r *Reducer) SizeReduce(first, last int) error {
	if first < 0 || first >= last || last > r.m.NumRows() {
		return fmt.Errorf(
			"lll.SizeReduce: illegal window [%d, %d) of %d rows", first, last, r.m.NumRows(),
		)
	}
	for k := first; k < last; k++ {
		if err := r.sizeReduceRow(k, 0); err != nil {
			return err
		}
	}
	return nil
}

// lovaszFails reports whether delta * r[k-1] > r[k] + mu[k][k-1]^2 * r[k-1],
// i.e. whether rows k-1 and k must be swapped.
func (r *Reducer) lovaszFails(k int) (bool, error) {
	rPrev, err := r.m.R(k - 1)
	if err != nil {
		return false, err
	}
	lhs := bignumber.NewFromInt64(0).Mul(r.delta, rPrev)
	rK, err := r.m.R(k)
	if err != nil {
		return false, err
	}
	mu, err := r.m.Mu(k, k-1)
	if err != nil {
		return false, err
	}
	muSq := bignumber.NewFromInt64(0).Mul(mu, mu)
	rhs := bignumber.NewFromBigNumber(rK)
	rhs.MulAdd(muSq, rPrev)
	return lhs.Cmp(rhs) > 0, nil
}

// sizeReduceRow subtracts integer multiples of rows [start, k) from row k
// until every coefficient mu[k][j] is at most eta in absolute value.
func (r *Reducer) sizeReduceRow(k, start int) error {
	negQ := new(big.Int)
	for pass := 0; ; pass++ {
		if pass >= sizeRedFailureThresh {
			return red.NewError(
				red.BabaiFailure, "lll.sizeReduceRow: row %d not size-reduced after %d passes",
				k, sizeRedFailureThresh,
			)
		}
		reduced := false
		for j := k - 1; j >= start; j-- {
			mu, err := r.m.Mu(k, j)
			if err != nil {
				return err
			}
			q := mu.RoundToNearest()
			if q.BitLen() == 0 {
				continue
			}
			if err = r.m.AddMulRow(k, j, negQ.Neg(q)); err != nil {
				return fmt.Errorf(
					"lll.sizeReduceRow: could not combine rows %d and %d: %w", k, j, err,
				)
			}
			reduced = true
		}
		if !reduced {
			return nil
		}
		done, err := r.rowIsSizeReduced(k, start)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *Reducer) rowIsSizeReduced(k, start int) (bool, error) {
	absMu := bignumber.NewFromInt64(0)
	for j := start; j < k; j++ {
		mu, err := r.m.Mu(k, j)
		if err != nil {
			return false, err
		}
		if absMu.Abs(mu).Cmp(r.eta) > 0 {
			return false, nil
		}
	}
	return true, nil
}
