// Package util holds lattice-construction helpers shared by the command
// line tool and the tests: random test bases of the standard shapes and the
// unimodular scrambling used to make them hard.
package util

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/chenjinhua1993/fplll/basis"
)

// KnapsackBasis returns a (dim+1) x (dim+1) knapsack-type basis: column 0
// holds random positive entries of entryBits bits, and the remaining
// columns an identity block.
func KnapsackBasis(rng *rand.Rand, dim int, entryBits int) (*basis.Matrix, error) {
	if dim < 1 {
		return nil, fmt.Errorf("KnapsackBasis: dimension %d is below 1", dim)
	}
	if entryBits < 1 {
		return nil, fmt.Errorf("KnapsackBasis: entry width %d bits is below 1", entryBits)
	}
	retVal, err := basis.NewEmpty(dim+1, dim+1)
	if err != nil {
		return nil, fmt.Errorf("KnapsackBasis: could not create basis: %q", err.Error())
	}
	bound := new(big.Int).Lsh(big.NewInt(1), uint(entryBits))
	one := big.NewInt(1)
	for i := 0; i <= dim; i++ {
		entry := new(big.Int).Rand(rng, bound)
		entry.Add(entry, one) // keep column 0 nonzero
		retVal.Entry(i, 0).Set(entry)
		if i > 0 {
			retVal.Entry(i, i).Set(one)
		}
	}
	return retVal, nil
}

// UniformBasis returns a numRows x dim basis with entries drawn uniformly
// from [-2^entryBits, 2^entryBits].
func UniformBasis(rng *rand.Rand, numRows, dim int, entryBits int) (*basis.Matrix, error) {
	if entryBits < 1 {
		return nil, fmt.Errorf("UniformBasis: entry width %d bits is below 1", entryBits)
	}
	retVal, err := basis.NewEmpty(numRows, dim)
	if err != nil {
		return nil, fmt.Errorf("UniformBasis: could not create basis: %q", err.Error())
	}
	bound := new(big.Int).Lsh(big.NewInt(1), uint(entryBits+1))
	bound.Add(bound, big.NewInt(1))
	offset := new(big.Int).Lsh(big.NewInt(1), uint(entryBits))
	for i := 0; i < numRows; i++ {
		for j := 0; j < dim; j++ {
			entry := new(big.Int).Rand(rng, bound)
			retVal.Entry(i, j).Set(entry.Sub(entry, offset))
		}
	}
	return retVal, nil
}

// Scramble applies numOps random unimodular row operations to b in place:
// row swaps and additions of small multiples of one row to another. The
// lattice b generates is unchanged.
func Scramble(rng *rand.Rand, b *basis.Matrix, numOps int) error {
	numRows := b.NumRows()
	if numRows < 2 {
		return nil
	}
	x := new(big.Int)
	for op := 0; op < numOps; op++ {
		i := rng.Intn(numRows)
		j := rng.Intn(numRows - 1)
		if j >= i {
			j++
		}
		if rng.Intn(4) == 0 {
			if err := b.SwapRows(i, j); err != nil {
				return fmt.Errorf("Scramble: could not swap rows: %q", err.Error())
			}
			continue
		}
		multiple := int64(rng.Intn(5) - 2)
		if multiple == 0 {
			multiple = 3
		}
		if err := b.AddMulRow(i, j, x.SetInt64(multiple)); err != nil {
			return fmt.Errorf("Scramble: could not combine rows: %q", err.Error())
		}
	}
	return nil
}
