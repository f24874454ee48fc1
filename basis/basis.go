// Package basis represents an ordered sequence of integer row vectors
// spanning a lattice. Rows are mutated only through unimodular operations --
// swap, move, integer row combination, append and drop -- so the spanned
// lattice is preserved by construction.
package basis

import (
	"fmt"
	"math/big"
	"strings"
)

// Matrix is a basis: numRows integer rows of a fixed dimension. Entries are
// big.Ints so row combinations never overflow.
type Matrix struct {
	rows [][]*big.Int
	dim  int
}

// NewEmpty returns a numRows x dim matrix of zeros. numRows and dim must be
// positive.
func NewEmpty(numRows, dim int) (*Matrix, error) {
	if numRows <= 0 || dim <= 0 {
		return nil, fmt.Errorf(
			"basis.NewEmpty: illegal number of rows %d or dimension %d", numRows, dim,
		)
	}
	retVal := &Matrix{rows: make([][]*big.Int, numRows), dim: dim}
	for i := 0; i < numRows; i++ {
		retVal.rows[i] = newZeroRow(dim)
	}
	return retVal, nil
}

// NewFromInt64Array creates a numRows x dim matrix from input, read in row
// order. If the dimensions are not positive or do not match the length of
// the input, an error is returned.
func NewFromInt64Array(input []int64, numRows, dim int) (*Matrix, error) {
	if len(input) != numRows*dim {
		return nil, fmt.Errorf(
			"basis.NewFromInt64Array: length %d of input does not match dimensions %d x %d",
			len(input), numRows, dim,
		)
	}
	retVal, err := NewEmpty(numRows, dim)
	if err != nil {
		return nil, err
	}
	for i := 0; i < numRows; i++ {
		for j := 0; j < dim; j++ {
			retVal.rows[i][j].SetInt64(input[i*dim+j])
		}
	}
	return retVal, nil
}

// NewFromString parses a matrix in bracketed row format, e.g.
//
//	[[1 2 3]
//	 [4 5 6]]
//
// Rows must all have the same number of entries.
func NewFromString(input string) (*Matrix, error) {
	cleaned := strings.NewReplacer("[", " ", "]", "\n", ",", " ").Replace(input)
	var rows [][]*big.Int
	dim := -1
	for _, line := range strings.Split(cleaned, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if dim == -1 {
			dim = len(fields)
		} else if len(fields) != dim {
			return nil, fmt.Errorf(
				"basis.NewFromString: row %d has %d entries, expected %d",
				len(rows), len(fields), dim,
			)
		}
		row := make([]*big.Int, len(fields))
		for j, field := range fields {
			entry, ok := new(big.Int).SetString(field, 10)
			if !ok {
				return nil, fmt.Errorf("basis.NewFromString: could not parse %q as an integer", field)
			}
			row[j] = entry
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("basis.NewFromString: input contains no rows")
	}
	return &Matrix{rows: rows, dim: dim}, nil
}

// NumRows returns the number of rows in m.
func (m *Matrix) NumRows() int { return len(m.rows) }

// Dim returns the dimension of each row of m.
func (m *Matrix) Dim() int { return m.dim }

// Entry returns m[i][j] by reference. The caller must not modify it except
// through the row operations of this package.
func (m *Matrix) Entry(i, j int) *big.Int { return m.rows[i][j] }

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	retVal := &Matrix{rows: make([][]*big.Int, len(m.rows)), dim: m.dim}
	for i, row := range m.rows {
		retVal.rows[i] = make([]*big.Int, m.dim)
		for j, entry := range row {
			retVal.rows[i][j] = new(big.Int).Set(entry)
		}
	}
	return retVal
}

// IsZeroRow reports whether every entry of row i is zero.
func (m *Matrix) IsZeroRow(i int) bool {
	for _, entry := range m.rows[i] {
		if entry.BitLen() != 0 {
			return false
		}
	}
	return true
}

// Dot returns the exact inner product of rows i and j.
func (m *Matrix) Dot(i, j int) *big.Int {
	retVal := new(big.Int)
	product := new(big.Int)
	for k := 0; k < m.dim; k++ {
		retVal.Add(retVal, product.Mul(m.rows[i][k], m.rows[j][k]))
	}
	return retVal
}

// SwapRows exchanges rows i and j.
func (m *Matrix) SwapRows(i, j int) error {
	if err := m.checkRow(i, "SwapRows"); err != nil {
		return err
	}
	if err := m.checkRow(j, "SwapRows"); err != nil {
		return err
	}
	m.rows[i], m.rows[j] = m.rows[j], m.rows[i]
	return nil
}

// MoveRow removes the row at position from and reinserts it at position to,
// shifting the intervening rows by one.
func (m *Matrix) MoveRow(from, to int) error {
	if err := m.checkRow(from, "MoveRow"); err != nil {
		return err
	}
	if err := m.checkRow(to, "MoveRow"); err != nil {
		return err
	}
	moved := m.rows[from]
	if from < to {
		copy(m.rows[from:to], m.rows[from+1:to+1])
	} else {
		copy(m.rows[to+1:from+1], m.rows[to:from])
	}
	m.rows[to] = moved
	return nil
}

// AddMulRow adds x times row src to row target. src and target must differ.
func (m *Matrix) AddMulRow(target, src int, x *big.Int) error {
	if err := m.checkRow(target, "AddMulRow"); err != nil {
		return err
	}
	if err := m.checkRow(src, "AddMulRow"); err != nil {
		return err
	}
	if target == src {
		return fmt.Errorf("basis.AddMulRow: target and source row %d coincide", target)
	}
	product := new(big.Int)
	for k := 0; k < m.dim; k++ {
		m.rows[target][k].Add(m.rows[target][k], product.Mul(x, m.rows[src][k]))
	}
	return nil
}

// CreateRow appends a zero row to m.
func (m *Matrix) CreateRow() {
	m.rows = append(m.rows, newZeroRow(m.dim))
}

// RemoveLastRow drops the last row of m.
func (m *Matrix) RemoveLastRow() error {
	if len(m.rows) == 0 {
		return fmt.Errorf("basis.RemoveLastRow: matrix has no rows")
	}
	m.rows = m.rows[:len(m.rows)-1]
	return nil
}

// GramDet returns the determinant of the Gram matrix of the first numRows
// rows of m, computed exactly by fraction-free (Bareiss) elimination. For a
// full-rank basis this is the squared lattice volume, an invariant of every
// unimodular row operation.
func (m *Matrix) GramDet(numRows int) (*big.Int, error) {
	if numRows <= 0 || numRows > len(m.rows) {
		return nil, fmt.Errorf("basis.GramDet: illegal row count %d", numRows)
	}
	n := numRows
	gram := make([][]*big.Int, n)
	for i := 0; i < n; i++ {
		gram[i] = make([]*big.Int, n)
		for j := 0; j < n; j++ {
			gram[i][j] = m.Dot(i, j)
		}
	}
	sign := int64(1)
	pivot := big.NewInt(1)
	tmp := new(big.Int)
	for k := 0; k < n-1; k++ {
		if gram[k][k].BitLen() == 0 {
			swapped := false
			for i := k + 1; i < n; i++ {
				if gram[i][k].BitLen() != 0 {
					gram[k], gram[i] = gram[i], gram[k]
					sign = -sign
					swapped = true
					break
				}
			}
			if !swapped {
				return big.NewInt(0), nil
			}
		}
		for i := k + 1; i < n; i++ {
			for j := k + 1; j < n; j++ {
				tmp.Mul(gram[i][j], gram[k][k])
				tmp.Sub(tmp, new(big.Int).Mul(gram[i][k], gram[k][j]))
				gram[i][j] = new(big.Int).Quo(tmp, pivot)
			}
		}
		pivot = gram[k][k]
	}
	retVal := new(big.Int).Set(gram[n-1][n-1])
	if sign < 0 {
		retVal.Neg(retVal)
	}
	return retVal, nil
}

// String formats m in the bracketed row format accepted by NewFromString.
func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, row := range m.rows {
		if i > 0 {
			sb.WriteString("\n ")
		}
		sb.WriteString("[")
		for j, entry := range row {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(entry.String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

func (m *Matrix) checkRow(i int, caller string) error {
	if i < 0 || i >= len(m.rows) {
		return fmt.Errorf("basis.%s: row %d out of range [0, %d)", caller, i, len(m.rows))
	}
	return nil
}

func newZeroRow(dim int) []*big.Int {
	row := make([]*big.Int, dim)
	for j := 0; j < dim; j++ {
		row[j] = new(big.Int)
	}
	return row
}
