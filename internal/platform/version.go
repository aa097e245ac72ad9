package platform

import (
	"strconv"
	"strings"
)

// MajorVersion returns the leading integer of a dotted version string, or
// 0 when there is none.
func MajorVersion(v string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(v), ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}
