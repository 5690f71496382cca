// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Truncate returns at most n runes of s. A non-positive n returns s.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
