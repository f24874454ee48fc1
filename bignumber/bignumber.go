// Package bignumber implements an arbitrary-precision dyadic number: a
// big.Int mantissa scaled by a power of two. The representation
//
//	value = mantissa * 2^exponent
//
// keeps squared Gram-Schmidt norms exact across enormous dynamic ranges
// without overflow or underflow, and gives callers direct access to the
// (mantissa, exponent) pair that lattice reduction drivers pass around.
//
// Integer inputs are represented exactly. Quotients are truncated to the
// package precision, which defaults to 1000 bits and can be changed once
// with Init.
package bignumber

import (
	"fmt"
	"math"
	"math/big"
)

var (
	precision     int64 = 1000 // target precision for quotients
	autoPrecision int64 = 3000 // mantissa cap applied by Mul, MulAdd and Quo
	log2small     int64 = -333 // below 2^log2small, a value counts as zero
)

// BigNumber is a dyadic number, mantissa * 2^exponent.
type BigNumber struct {
	mantissa big.Int
	exponent int64
}

// Init sets the package precision to numBits. It affects quotients computed
// after the call; values already constructed are unchanged. numBits must be
// positive and even.
func Init(numBits int64) error {
	if numBits <= 0 {
		return fmt.Errorf("BigNumber.Init: attempt to set the precision with numBits <= 0")
	}
	if numBits%2 != 0 {
		return fmt.Errorf("BigNumber.Init: attempt to set the precision with odd numBits")
	}
	precision = numBits
	autoPrecision = numBits * 3
	log2small = -numBits / 3
	return nil
}

// NewFromInt64 returns a BigNumber with the exact value of input.
func NewFromInt64(input int64) *BigNumber {
	retVal := &BigNumber{}
	retVal.mantissa.SetInt64(input)
	return retVal
}

// NewFromInt returns a BigNumber with the exact value of input.
func NewFromInt(input *big.Int) *BigNumber {
	retVal := &BigNumber{}
	retVal.mantissa.Set(input)
	return retVal
}

// NewFromFloat64 returns a BigNumber with the exact value of input, which
// must be finite.
func NewFromFloat64(input float64) (*BigNumber, error) {
	if math.IsInf(input, 0) || math.IsNaN(input) {
		return nil, fmt.Errorf("NewFromFloat64: input %f is not finite", input)
	}
	frac, exp := math.Frexp(input)
	retVal := &BigNumber{exponent: int64(exp) - 53}
	retVal.mantissa.SetInt64(int64(frac * (1 << 53)))
	retVal.normalizeZero()
	return retVal, nil
}

// NewPowerOfTwo returns a BigNumber whose value is 2^exponent.
func NewPowerOfTwo(exponent int64) *BigNumber {
	retVal := &BigNumber{exponent: exponent}
	retVal.mantissa.SetInt64(1)
	return retVal
}

// NewFromBigNumber returns a deep copy of input.
func NewFromBigNumber(input *BigNumber) *BigNumber {
	return NewFromInt64(0).Set(input)
}

// Set sets bn to a deep copy of x and returns bn.
func (bn *BigNumber) Set(x *BigNumber) *BigNumber {
	bn.mantissa.Set(&x.mantissa)
	bn.exponent = x.exponent
	return bn
}

// Abs sets bn to |x| and returns bn.
func (bn *BigNumber) Abs(x *BigNumber) *BigNumber {
	bn.mantissa.Abs(&x.mantissa)
	bn.exponent = x.exponent
	return bn
}

// Neg sets bn to -x and returns bn.
func (bn *BigNumber) Neg(x *BigNumber) *BigNumber {
	bn.mantissa.Neg(&x.mantissa)
	bn.exponent = x.exponent
	return bn
}

// Sign returns -1, 0 or 1 according to the sign of bn.
func (bn *BigNumber) Sign() int {
	return bn.mantissa.Sign()
}

// IsZero reports whether bn is exactly 0.
func (bn *BigNumber) IsZero() bool {
	return bn.mantissa.BitLen() == 0
}

// IsSmall reports whether |bn| < 2^log2small, i.e. whether bn is 0 up to the
// package precision.
func (bn *BigNumber) IsSmall() bool {
	return bn.IsZero() || int64(bn.mantissa.BitLen())+bn.exponent < log2small
}

// Cmp compares bn and y and returns -1, 0 or +1 as bn is less than, equal
// to or greater than y.
func (bn *BigNumber) Cmp(y *BigNumber) int {
	if bn.exponent == y.exponent {
		return bn.mantissa.Cmp(&y.mantissa)
	}

	// Align to the smaller exponent; the difference is a left shift of the
	// mantissa with the larger exponent.
	if y.exponent > bn.exponent {
		rhs := new(big.Int).Lsh(&y.mantissa, uint(y.exponent-bn.exponent))
		return bn.mantissa.Cmp(rhs)
	}
	lhs := new(big.Int).Lsh(&bn.mantissa, uint(bn.exponent-y.exponent))
	return lhs.Cmp(&y.mantissa)
}

// Equals reports whether |bn - x| <= tolerance.
func (bn *BigNumber) Equals(x *BigNumber, tolerance *BigNumber) bool {
	absDiff := NewFromInt64(0).Sub(bn, x)
	absDiff.Abs(absDiff)
	return absDiff.Cmp(tolerance) <= 0
}

// Add sets bn to the sum x+y and returns bn. The result is exact.
func (bn *BigNumber) Add(x *BigNumber, y *BigNumber) *BigNumber {
	if x.IsZero() {
		return bn.Set(y)
	}
	if y.IsZero() {
		return bn.Set(x)
	}

	// Align both terms to the smaller exponent, which keeps the sum exact.
	if x.exponent == y.exponent {
		bn.mantissa.Add(&x.mantissa, &y.mantissa)
		bn.exponent = x.exponent
	} else if x.exponent < y.exponent {
		shifted := new(big.Int).Lsh(&y.mantissa, uint(y.exponent-x.exponent))
		bn.mantissa.Add(&x.mantissa, shifted)
		bn.exponent = x.exponent
	} else {
		shifted := new(big.Int).Lsh(&x.mantissa, uint(x.exponent-y.exponent))
		bn.mantissa.Add(shifted, &y.mantissa)
		bn.exponent = y.exponent
	}
	bn.normalizeZero()
	return bn
}

// Sub sets bn to the difference x-y and returns bn. The result is exact.
func (bn *BigNumber) Sub(x *BigNumber, y *BigNumber) *BigNumber {
	if y.IsZero() {
		return bn.Set(x)
	}
	if x.IsZero() {
		bn.mantissa.Neg(&y.mantissa)
		bn.exponent = y.exponent
		return bn
	}
	if x.exponent == y.exponent {
		bn.mantissa.Sub(&x.mantissa, &y.mantissa)
		bn.exponent = x.exponent
	} else if x.exponent < y.exponent {
		shifted := new(big.Int).Lsh(&y.mantissa, uint(y.exponent-x.exponent))
		bn.mantissa.Sub(&x.mantissa, shifted)
		bn.exponent = x.exponent
	} else {
		shifted := new(big.Int).Lsh(&x.mantissa, uint(x.exponent-y.exponent))
		bn.mantissa.Sub(shifted, &y.mantissa)
		bn.exponent = y.exponent
	}
	bn.normalizeZero()
	return bn
}

// Mul sets bn to the product x*y and returns bn. The mantissa is truncated
// to three times the package precision.
func (bn *BigNumber) Mul(x *BigNumber, y *BigNumber) *BigNumber {
	bn.mantissa.Mul(&x.mantissa, &y.mantissa)
	bn.exponent = x.exponent + y.exponent
	bn.Normalize(autoPrecision)
	return bn
}

// MulAdd sets bn to bn + x*y and returns bn. The mantissa is truncated to
// three times the package precision.
func (bn *BigNumber) MulAdd(x *BigNumber, y *BigNumber) *BigNumber {
	xy := NewFromInt64(0)
	xy.mantissa.Mul(&x.mantissa, &y.mantissa)
	xy.exponent = x.exponent + y.exponent
	bn.Add(bn, xy)
	bn.Normalize(autoPrecision)
	return bn
}

// Int64Mul sets bn to the product of the int64 x and the BigNumber y, and
// returns bn.
func (bn *BigNumber) Int64Mul(x int64, y *BigNumber) *BigNumber {
	bn.mantissa.Mul(big.NewInt(x), &y.mantissa)
	bn.exponent = y.exponent
	bn.Normalize(autoPrecision)
	return bn
}

// Int64MulAdd sets bn to bn + x*y for the int64 x and BigNumber y, and
// returns bn.
func (bn *BigNumber) Int64MulAdd(x int64, y *BigNumber) *BigNumber {
	xy := NewFromInt64(0)
	xy.mantissa.Mul(big.NewInt(x), &y.mantissa)
	xy.exponent = y.exponent
	bn.Add(bn, xy)
	bn.Normalize(autoPrecision)
	return bn
}

// Quo sets bn to the quotient x/y, truncated to the package precision, and
// returns bn. If y == 0, a division-by-zero error is returned and bn is
// unchanged.
func (bn *BigNumber) Quo(x *BigNumber, y *BigNumber) (*BigNumber, error) {
	if y.IsZero() {
		return nil, fmt.Errorf("BigNumber.Quo: division by zero")
	}

	// Scale x up by 2^p before the integer division so that the quotient
	// mantissa carries about `precision` significant bits.
	p := precision + int64(y.mantissa.BitLen()) - int64(x.mantissa.BitLen())
	if p < 0 {
		p = 0
	}
	scaledUp := new(big.Int).Lsh(&x.mantissa, uint(p))
	bn.mantissa.Quo(scaledUp, &y.mantissa)
	bn.exponent = x.exponent - y.exponent - p
	bn.Normalize(autoPrecision)
	bn.normalizeZero()
	return bn, nil
}

// RoundToNearest returns the integer nearest to bn, rounding ties away from
// zero. bn is unchanged.
func (bn *BigNumber) RoundToNearest() *big.Int {
	if bn.exponent >= 0 {
		return new(big.Int).Lsh(&bn.mantissa, uint(bn.exponent))
	}
	shift := uint(-bn.exponent)
	absMantissa := new(big.Int).Abs(&bn.mantissa)
	q, r := new(big.Int).QuoRem(absMantissa, new(big.Int).Lsh(big.NewInt(1), shift), new(big.Int))
	r.Lsh(r, 1)
	if r.BitLen() > int(shift) || r.Bit(int(shift)) == 1 {
		// 2r >= 2^shift, so the fractional part is at least one half
		q.Add(q, big.NewInt(1))
	}
	if bn.mantissa.Sign() < 0 {
		q.Neg(q)
	}
	return q
}

// RoundTowardsZero returns the integer nearest to bn among those no further
// from zero than bn. bn is unchanged.
func (bn *BigNumber) RoundTowardsZero() *big.Int {
	if bn.exponent >= 0 {
		return new(big.Int).Lsh(&bn.mantissa, uint(bn.exponent))
	}
	return new(big.Int).Quo(
		&bn.mantissa, new(big.Int).Lsh(big.NewInt(1), uint(-bn.exponent)),
	)
}

// Float64Exp returns (f, e) with bn = f * 2^e and 0.5 <= |f| < 1, or (0, 0)
// if bn is zero. The mantissa is truncated to 53 bits.
func (bn *BigNumber) Float64Exp() (float64, int64) {
	bitLen := bn.mantissa.BitLen()
	if bitLen == 0 {
		return 0, 0
	}
	top := new(big.Int).Abs(&bn.mantissa)
	if bitLen > 53 {
		top.Rsh(top, uint(bitLen-53))
	} else {
		top.Lsh(top, uint(53-bitLen))
	}
	f := float64(top.Uint64()) / (1 << 53)
	if bn.mantissa.Sign() < 0 {
		f = -f
	}
	return f, bn.exponent + int64(bitLen)
}

// Float64 returns bn as a float64, which may overflow to an infinity or
// underflow to zero when the exponent leaves the float64 range.
func (bn *BigNumber) Float64() float64 {
	f, e := bn.Float64Exp()
	return math.Ldexp(f, int(e))
}

// Log returns the natural logarithm of bn, computed from the normalized
// mantissa and the exponent so it never overflows. bn must be positive.
func (bn *BigNumber) Log() (float64, error) {
	if bn.Sign() <= 0 {
		_, s := bn.String()
		return 0, fmt.Errorf("BigNumber.Log: input %s is not positive", s)
	}
	f, e := bn.Float64Exp()
	return math.Log(f) + float64(e)*math.Ln2, nil
}

// AsFloat returns a big.Float with the value of bn to within 2^-precision.
func (bn *BigNumber) AsFloat() *big.Float {
	var retVal big.Float
	retVal.SetPrec(uint(2 * precision))
	retVal.SetInt(&bn.mantissa)
	return retVal.SetMantExp(&retVal, int(bn.exponent))
}

// String formats bn as mantissa*2^exponent and as an approximate decimal,
// returning both strings.
func (bn *BigNumber) String() (string, string) {
	if bn.exponent == 0 {
		s := bn.mantissa.String()
		return s, s
	}
	return fmt.Sprintf("%s*2^%d", bn.mantissa.String(), bn.exponent),
		bn.AsFloat().String()
}

// Normalize truncates the mantissa of bn to numBits bits, adjusting the
// exponent accordingly. If numBits <= 0, the package precision is used.
func (bn *BigNumber) Normalize(numBits int64) {
	if numBits <= 0 {
		numBits = precision
	}
	excess := int64(bn.mantissa.BitLen()) - numBits
	if excess <= 0 {
		return
	}
	bn.mantissa.Quo(&bn.mantissa, new(big.Int).Lsh(big.NewInt(1), uint(excess)))
	bn.exponent += excess
}

// normalizeZero clears the exponent when the mantissa is zero, so that zero
// has a single representation.
func (bn *BigNumber) normalizeZero() {
	if bn.mantissa.BitLen() == 0 {
		bn.exponent = 0
	}
}
