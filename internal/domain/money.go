package domain

// All monetary values are int64 minor currency units (cents). Commission
// math stays in integers; the floor division is part of the contract, so
// two credits of the same deposit value at the same level always match.

// Commission returns the commission for a deposit value at a given
// percentage, rounded down. Non-positive inputs yield zero.
func Commission(valueCents, percent int64) int64 {
	if valueCents <= 0 || percent <= 0 {
		return 0
	}
	return valueCents * percent / 100
}
