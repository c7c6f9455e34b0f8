// Package u64 provides checked unsigned arithmetic for share counts and
// currency amounts. Operations never wrap silently; callers surface
// lederr.ErrOverflow on failure.
package u64

import (
	"math/bits"

	"brix-backend/internal/pkg/lederr"
)

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, lederr.ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrOverflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, lederr.ErrOverflow
	}
	return diff, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, lederr.ErrOverflow
	}
	return lo, nil
}

// MulDiv returns floor(a*b/d) using a 128-bit intermediate product, so the
// multiplication cannot overflow before the division. Returns ErrOverflow if
// the quotient itself does not fit in 64 bits, and 0 when d == 0 (a round
// with an empty snapshot has no entitlement).
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, lederr.ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}
