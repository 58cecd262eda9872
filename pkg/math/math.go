// Package math holds integer helpers for the byte and block arithmetic of
// the on-disk layout.
package math

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

func Min[T Integer](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func Max[T Integer](a, b T) T {
	if b > a {
		return b
	}
	return a
}

// Clamp limits `v` to [lo, hi]. If hi < lo the result is lo.
func Clamp[T Integer](v, lo, hi T) T {
	return Max(lo, Min(v, hi))
}

// DivRoundUp divides non-negative `a` by positive `b`, rounding up.
func DivRoundUp[T Integer](a, b T) T {
	q := a / b
	if q*b != a {
		q++
	}
	return q
}
