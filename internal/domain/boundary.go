package domain

import (
	"fmt"
	"strings"
)

// BoundaryPolicy decides whether a task ending at `end` can be followed by
// one starting at `start` after `travel` time units.
type BoundaryPolicy int

const (
	// NonStrict allows end + travel == start.
	NonStrict BoundaryPolicy = iota
	// Strict requires end + travel < start.
	Strict
)

func (p BoundaryPolicy) Allows(end int, travel float64, start int) bool {
	arrive := float64(end) + travel
	if p == Strict {
		return arrive < float64(start)
	}
	return arrive <= float64(start)
}

func (p BoundaryPolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	default:
		return "nonstrict"
	}
}

// ParseBoundaryPolicy accepts "nonstrict" (or "") and "strict".
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nonstrict", "non-strict", "<=":
		return NonStrict, nil
	case "strict", "<":
		return Strict, nil
	default:
		return NonStrict, fmt.Errorf("parse boundary policy: unknown policy %q", s)
	}
}
