package types

import "strings"

// equalAddress compares addresses case-insensitively; EVM addresses are often
// mixed-case checksummed.
func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
