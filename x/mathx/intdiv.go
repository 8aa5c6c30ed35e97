package mathx

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a/b) for unsigned integers; b == 0 yields 0.
func CeilDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// RoundDiv returns a/b rounded half up; b == 0 yields 0.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// PerMille returns |got-want| scaled to parts per thousand of want.
func PerMille(got, want uint64) uint64 {
	if want == 0 {
		return 0
	}
	return AbsDiff(got, want) * 1000 / want
}
