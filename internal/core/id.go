package core

import (
	"fmt"
	"strconv"
)

// IDWidth is the fixed width of game identifiers.
const IDWidth = 10

// FormatID renders a game number as a fixed-width zero-padded decimal
// string, e.g. 7 -> "0000000007".
func FormatID(n uint64) string {
	return fmt.Sprintf("%0*d", IDWidth, n)
}

// ParseID parses a fixed-width game identifier back to its number.
func ParseID(id string) (uint64, error) {
	if len(id) != IDWidth {
		return 0, fmt.Errorf("malformed game id %q: want %d digits", id, IDWidth)
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed game id %q: %w", id, err)
	}
	return n, nil
}
