package value

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Number is a JSON number literal.
type Number string

// Float64 returns the nearest float64. Literals outside the float range
// saturate to ±Inf.
func (n Number) Float64() float64 {
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}

// Int64 returns the integer value when n is an integer that fits in int64.
func (n Number) Int64() (int64, bool) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, true
	}
	if !n.IsInteger() {
		return 0, false
	}
	f := n.Float64()
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// IsInteger reports whether the value has no fractional part, whatever its
// spelling: 3, 3.0 and 3e0 are all integers.
func (n Number) IsInteger() bool {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		return true
	}
	if r, ok := n.rat(); ok {
		return r.IsInt()
	}
	f := n.Float64()
	if math.IsInf(f, 0) {
		x, _, err := big.ParseFloat(s, 10, floatPrec, big.ToNearestEven)
		return err == nil && x.IsInt()
	}
	return f == math.Trunc(f)
}

// Compare orders two numbers: -1, 0 or +1.
func Compare(a, b Number) int {
	fa, fb := a.Float64(), b.Float64()
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	if a == b {
		return 0
	}
	if !needsExact(a) && !needsExact(b) && !a.outOfRange(fa) && !b.outOfRange(fb) {
		return 0
	}
	if ra, ok := a.rat(); ok {
		if rb, ok := b.rat(); ok {
			return ra.Cmp(rb)
		}
	}
	return compareFloat(a, b)
}

// outOfRange reports whether f lost the literal to overflow or underflow.
func (n Number) outOfRange(f float64) bool {
	if math.IsInf(f, 0) {
		return true
	}
	if f != 0 {
		return false
	}
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c == 'e' || c == 'E' {
			break
		}
		if c >= '1' && c <= '9' {
			return true
		}
	}
	return false
}

// floatPrec is the mantissa size used for literals too large or small for
// float64 and for rat.
const floatPrec = 1024

// compareFloat compares a and b as big.Float values, whose binary exponent
// holds 1e400000 without expanding it into digits.
func compareFloat(a, b Number) int {
	x, _, errA := big.ParseFloat(string(a), 10, floatPrec, big.ToNearestEven)
	y, _, errB := big.ParseFloat(string(b), 10, floatPrec, big.ToNearestEven)
	if errA != nil || errB != nil {
		return 0
	}
	return x.Cmp(y)
}

// needsExact reports whether float64 may have collapsed distinct values.
func needsExact(n Number) bool {
	digits := 0
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c == 'e' || c == 'E' {
			break
		}
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	return digits > 15
}

// maxExactExponent bounds the literals rat will expand; big.Rat would
// otherwise allocate huge integers for inputs such as 1e1000000000.
const maxExactExponent = 400

func (n Number) rat() (*big.Rat, bool) {
	s := string(n)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(strings.TrimPrefix(s[i+1:], "+"))
		if err != nil || exp > maxExactExponent || exp < -maxExactExponent {
			return nil, false
		}
	}
	r, ok := new(big.Rat).SetString(s)
	return r, ok
}

// MultipleOf reports whether n is an integer multiple of m. The remainder is
// compared against the spacing of floats around n, so decimal inputs such as
// 0.3 / 0.1 are accepted.
func (n Number) MultipleOf(m Number) bool {
	x, d := n.Float64(), m.Float64()
	if d == 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return false
	}
	if ix, ok := n.Int64(); ok {
		if id, ok := m.Int64(); ok && id != 0 {
			return ix%id == 0
		}
	}
	rem := math.Remainder(x, d)
	eps := math.Abs(math.Nextafter(x, 0) - x)
	return math.Abs(rem) <= eps
}
