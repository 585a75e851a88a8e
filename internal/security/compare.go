package security

import "crypto/subtle"

// ConstantTimeCompare reports whether a and b are equal without leaking where
// two equal-length inputs first differ. Unequal-length inputs return false
// immediately without scanning: that reveals only the length class of the
// configured value, never character positions, and avoids walking
// arbitrary-length attacker input. Two empty strings compare equal.
func ConstantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
