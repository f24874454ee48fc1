package bignumber

import (
	"fmt"
	"math"
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	err := Init(1000)
	if err != nil {
		fmt.Printf("Invalid input to Init: %q", err.Error())
		return
	}
	code := m.Run()
	os.Exit(code)
}

func TestInit(t *testing.T) {
	assert.Error(t, Init(0))
	assert.Error(t, Init(-2))
	assert.Error(t, Init(999))
	assert.NoError(t, Init(1000))
}

func TestNewFromFloat64(t *testing.T) {
	_, err := NewFromFloat64(math.Inf(1))
	assert.Error(t, err)
	_, err = NewFromFloat64(math.NaN())
	assert.Error(t, err)

	for _, input := range []float64{0, 1, -1, 0.5, -0.75, 1234.5625, 1.0e20} {
		bn, err := NewFromFloat64(input)
		assert.NoError(t, err)
		assert.Equal(t, input, bn.Float64())
	}
}

func TestNewPowerOfTwo(t *testing.T) {
	for _, exponent := range []int64{-70, -1, 0, 1, 70} {
		bn := NewPowerOfTwo(exponent)
		product := NewFromInt64(0).Mul(bn, NewPowerOfTwo(-exponent))
		assert.Equal(t, 0, product.Cmp(NewFromInt64(1)))
	}
}

func TestAddSubExact(t *testing.T) {
	// 2^100 + 1 - 2^100 must come back as exactly 1, which requires exact
	// exponent alignment rather than float-style rounding.
	large := NewPowerOfTwo(100)
	sum := NewFromInt64(0).Add(large, NewFromInt64(1))
	diff := NewFromInt64(0).Sub(sum, large)
	assert.Equal(t, 0, diff.Cmp(NewFromInt64(1)))

	// x - x is the canonical zero
	diff.Sub(sum, sum)
	assert.True(t, diff.IsZero())
	assert.Equal(t, 0.0, diff.Float64())
}

func TestMulQuo(t *testing.T) {
	x := NewFromInt64(113)
	y := NewFromInt64(-7)
	product := NewFromInt64(0).Mul(x, y)
	assert.Equal(t, 0, product.Cmp(NewFromInt64(-791)))

	quotient, err := NewFromInt64(0).Quo(product, y)
	assert.NoError(t, err)

	// Quo truncates to the package precision, so compare with tolerance
	tolerance := NewPowerOfTwo(-900)
	assert.True(t, quotient.Equals(x, tolerance))

	_, err = NewFromInt64(0).Quo(x, NewFromInt64(0))
	assert.Error(t, err)
}

func TestMulAdd(t *testing.T) {
	// 5 + 3*(-7) = -16
	bn := NewFromInt64(5)
	bn.MulAdd(NewFromInt64(3), NewFromInt64(-7))
	assert.Equal(t, 0, bn.Cmp(NewFromInt64(-16)))

	// -16 + 4*5 = 4
	bn.Int64MulAdd(4, NewFromInt64(5))
	assert.Equal(t, 0, bn.Cmp(NewFromInt64(4)))

	bn.Int64Mul(-3, bn)
	assert.Equal(t, 0, bn.Cmp(NewFromInt64(-12)))
}

func TestCmp(t *testing.T) {
	// 3*2^10 vs 3072 and 3073: equal exponents are not required
	x := NewFromInt64(3)
	x.Mul(x, NewPowerOfTwo(10))
	assert.Equal(t, 0, x.Cmp(NewFromInt64(3072)))
	assert.Equal(t, -1, x.Cmp(NewFromInt64(3073)))
	assert.Equal(t, 1, x.Cmp(NewFromInt64(3071)))
	assert.Equal(t, 1, x.Cmp(NewFromInt64(-3073)))
}

func TestRoundToNearest(t *testing.T) {
	testCases := []struct {
		input    float64
		expected int64
	}{
		{0.0, 0}, {0.25, 0}, {0.5, 1}, {0.75, 1}, {1.5, 2}, {2.25, 2},
		{-0.25, 0}, {-0.5, -1}, {-0.75, -1}, {-1.5, -2}, {-2.25, -2},
		{7.0, 7}, {-7.0, -7},
	}
	for _, testCase := range testCases {
		bn, err := NewFromFloat64(testCase.input)
		assert.NoError(t, err)
		assert.Equal(
			t, 0, bn.RoundToNearest().Cmp(big.NewInt(testCase.expected)),
			"RoundToNearest(%f)", testCase.input,
		)
	}
}

func TestRoundTowardsZero(t *testing.T) {
	testCases := []struct {
		input    float64
		expected int64
	}{
		{0.0, 0}, {0.75, 0}, {1.5, 1}, {-0.75, 0}, {-1.5, -1}, {3.0, 3},
	}
	for _, testCase := range testCases {
		bn, err := NewFromFloat64(testCase.input)
		assert.NoError(t, err)
		assert.Equal(
			t, 0, bn.RoundTowardsZero().Cmp(big.NewInt(testCase.expected)),
			"RoundTowardsZero(%f)", testCase.input,
		)
	}
}

func TestFloat64Exp(t *testing.T) {
	f, e := NewFromInt64(0).Float64Exp()
	assert.Equal(t, 0.0, f)
	assert.Equal(t, int64(0), e)

	// 12 = 0.75 * 2^4
	f, e = NewFromInt64(12).Float64Exp()
	assert.Equal(t, 0.75, f)
	assert.Equal(t, int64(4), e)

	f, e = NewFromInt64(-12).Float64Exp()
	assert.Equal(t, -0.75, f)
	assert.Equal(t, int64(4), e)

	// A value far outside float64 range still gets a normalized mantissa
	huge := NewFromInt64(3)
	huge.Mul(huge, NewPowerOfTwo(5000))
	f, e = huge.Float64Exp()
	assert.Equal(t, 0.75, f)
	assert.Equal(t, int64(5002), e)
}

func TestLog(t *testing.T) {
	_, err := NewFromInt64(0).Log()
	assert.Error(t, err)
	_, err = NewFromInt64(-5).Log()
	assert.Error(t, err)

	logOf8, err := NewFromInt64(8).Log()
	assert.NoError(t, err)
	assert.InDelta(t, 3*math.Ln2, logOf8, 1.0e-12)

	// Beyond float64 range, Log must still return a finite value
	huge := NewFromInt64(0).Mul(NewPowerOfTwo(3000), NewFromInt64(5))
	logOfHuge, err := huge.Log()
	assert.NoError(t, err)
	assert.InDelta(t, 3000*math.Ln2+math.Log(5), logOfHuge, 1.0e-9)
}

func TestIsSmall(t *testing.T) {
	assert.True(t, NewFromInt64(0).IsSmall())
	assert.True(t, NewPowerOfTwo(-1000).IsSmall())
	assert.False(t, NewPowerOfTwo(-100).IsSmall())
	assert.False(t, NewFromInt64(1).IsSmall())
}

func TestString(t *testing.T) {
	s, approx := NewFromInt64(42).String()
	assert.Equal(t, "42", s)
	assert.Equal(t, "42", approx)

	s, _ = NewPowerOfTwo(3).String()
	assert.Equal(t, "1*2^3", s)
}
