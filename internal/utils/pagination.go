// Package utils holds small parsing helpers shared by the HTTP layer.
package utils

import (
	"errors"
	"strconv"
)

// AtoiDefault parses s as an int, returning def when s is empty or not a
// number. Query parameters such as page and page_size go through it.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ErrInvalidID is returned by ParseID.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a positive decimal id such as a character or moment path
// parameter.
func ParseID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidID
	}
	return n, nil
}
