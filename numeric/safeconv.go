// Package numeric provides overflow-checked integer conversions used
// throughout relocatable address arithmetic, where a 64-bit intermediate
// must be folded back into the 32-bit signed domain HLASM values live in.
package numeric

import (
	"fmt"
	"math"
)

// SafeInt64ToInt32 converts v to int32, reporting an error if it would
// overflow. Address and literal arithmetic accumulates in int64 and
// narrows at the point a symbol or space value is finally recorded.
func SafeInt64ToInt32(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("value %d exceeds 32-bit signed range", v)
	}
	return int32(v), nil
}

// SafeInt64ToUint32 converts v to uint32, reporting an error on overflow.
func SafeInt64ToUint32(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("value %d exceeds uint32 range", v)
	}
	return uint32(v), nil
}

// SafeIntToInt32 converts a platform int to int32, reporting an error on
// overflow (relevant on 64-bit hosts only).
func SafeIntToInt32(v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("value %d exceeds 32-bit signed range", v)
	}
	return int32(v), nil
}

// TruncatingDiv implements HLASM integer division: truncation toward
// zero, per §4.9. Go's / already truncates toward zero for ints, but the
// helper documents the intent at call sites and guards the division by
// zero case with a typed error instead of a panic.
func TruncatingDiv(a, b int32) (int32, error) {
	if b == 0 {
		return 0, fmt.Errorf("division by zero")
	}
	return a / b, nil
}
