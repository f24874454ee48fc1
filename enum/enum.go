// Package enum implements radius-bounded enumeration of a block of basis
// rows: a depth-first Schnorr-Euchner search over integer coordinate
// combinations, in the zigzag order that visits candidates by nondecreasing
// partial distance, with an optional per-depth pruning schedule.
//
// The search runs in float64 after rescaling every squared norm by the
// binary exponent of the radius, so blocks whose norms are far outside the
// float64 range still enumerate correctly relative to their own radius.
package enum

import (
	"fmt"
	"math"

	"github.com/chenjinhua1993/fplll/bignumber"
	"github.com/chenjinhua1993/fplll/gso"
	"github.com/chenjinhua1993/fplll/red"
)

// Bound comparisons carry a relative slack so a candidate whose distance
// equals the radius (the current first row of the block always does) is
// never lost to conversion error.
const boundSlack = 1.0 + 1e-9

// Enumerate searches the block [first, last) for the shortest nonzero
// integer combination of the block rows whose projected squared norm is at
// most radius, and returns its coordinates in the block's own basis. An
// empty result means no such vector exists within the radius (which, with a
// pruning schedule, can exclude vectors a full search would find).
//
// pruning, when non-nil, must supply at least last-first coefficients;
// coefficient k scales the radius bound applied when k+1 coordinates are
// fixed.
func Enumerate(
	m *gso.Mat, first, last int, radius *bignumber.BigNumber, pruning []float64,
) ([]int64, error) {
	n := last - first
	if first < 0 || n <= 0 || last > m.NumRows() {
		return nil, fmt.Errorf(
			"enum.Enumerate: illegal block [%d, %d) of %d rows", first, last, m.NumRows(),
		)
	}
	if pruning != nil && len(pruning) < n {
		return nil, fmt.Errorf(
			"enum.Enumerate: pruning schedule has %d < %d coefficients", len(pruning), n,
		)
	}
	if radius.Sign() <= 0 {
		return nil, nil
	}
	if err := m.UpdateRows(first, last); err != nil {
		return nil, err
	}

	// Rescale the block so the radius has magnitude one; every r in the
	// block is expressed relative to the same binary exponent.
	radiusF, shift := radius.Float64Exp()
	rdiag := make([]float64, n)
	for i := 0; i < n; i++ {
		rI, err := m.R(first + i)
		if err != nil {
			return nil, err
		}
		f, e := rI.Float64Exp()
		rdiag[i] = math.Ldexp(f, int(e-shift))
		if rdiag[i] <= 0 {
			return nil, red.NewError(
				red.GSOFailure, "enum.Enumerate: row %d of the block is degenerate", first+i,
			)
		}
	}
	mu := make([][]float64, n)
	for i := 1; i < n; i++ {
		mu[i] = make([]float64, i)
		for j := 0; j < i; j++ {
			muIJ, err := m.Mu(first+i, first+j)
			if err != nil {
				return nil, err
			}
			mu[i][j] = muIJ.Float64()
		}
	}

	return searchBlock(n, rdiag, mu, radiusF, pruning)
}

// searchBlock runs the zigzag depth-first search. Level t fixes coordinate
// x[t]; levels are processed from n-1 down to 0 and rho[t] is the partial
// squared distance contributed by levels t..n-1.
func searchBlock(n int, rdiag []float64, mu [][]float64, radiusF float64, pruning []float64) ([]int64, error) {
	bound := func(t int) float64 {
		if pruning == nil {
			return radiusF * boundSlack
		}
		return radiusF * pruning[n-1-t] * boundSlack
	}
	center := func(t int, x []int64) float64 {
		c := 0.0
		for i := t + 1; i < n; i++ {
			c -= float64(x[i]) * mu[i][t]
		}
		return c
	}

	x := make([]int64, n)
	base := make([]int64, n)  // round(center) per level
	side := make([]int64, n)  // preferred zigzag direction per level
	count := make([]int, n)   // visits at the level so far
	c := make([]float64, n)   // center per level
	rho := make([]float64, n+1)

	enter := func(t int) {
		c[t] = center(t, x)
		base[t] = int64(math.Round(c[t]))
		if c[t] >= float64(base[t]) {
			side[t] = 1
		} else {
			side[t] = -1
		}
		count[t] = 0
		x[t] = base[t]
	}
	step := func(t int) {
		count[t]++
		half := int64((count[t] + 1) / 2)
		if count[t]%2 == 1 {
			x[t] = base[t] + side[t]*half
		} else {
			x[t] = base[t] - side[t]*half
		}
	}

	var best []int64
	bestDist := math.Inf(1)
	t := n - 1
	enter(t)
	for {
		y := float64(x[t]) - c[t]
		newDist := rho[t+1] + y*y*rdiag[t]
		if newDist <= bound(t) {
			if t > 0 {
				rho[t] = newDist
				t--
				enter(t)
				continue
			}
			// A full candidate; the all-zero combination is not a lattice
			// vector of interest.
			if !allZero(x) && newDist < bestDist {
				best = append(best[:0], x...)
				bestDist = newDist
				if bestDist < radiusF {
					radiusF = bestDist
				}
			}
			step(t)
			continue
		}

		// The zigzag order is nondecreasing in |y|, so every remaining
		// value at this level fails too.
		t++
		if t == n {
			return best, nil
		}
		step(t)
	}
}

func allZero(x []int64) bool {
	for _, xi := range x {
		if xi != 0 {
			return false
		}
	}
	return true
}
