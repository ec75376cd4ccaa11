package domain

import (
	"fmt"
	"strings"
)

// PathType selects the edge weight a path search minimises.
type PathType string

const (
	PathTypeDistance PathType = "DISTANCE"
	PathTypeDuration PathType = "DURATION"
)

// ParsePathType accepts either type name in any case; empty means DISTANCE.
func ParsePathType(s string) (PathType, error) {
	switch PathType(strings.ToUpper(strings.TrimSpace(s))) {
	case "", PathTypeDistance:
		return PathTypeDistance, nil
	case PathTypeDuration:
		return PathTypeDuration, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPathType, s)
	}
}

// PathRequest asks for the best route between two stations
type PathRequest struct {
	Source int64    `json:"source"`
	Target int64    `json:"target"`
	Type   PathType `json:"type"`
}

// PathResult is the answer to a PathRequest
type PathResult struct {
	Stations []Station `json:"stations"`
	Distance int       `json:"distance"`
	Duration int       `json:"duration"`
	Fare     int       `json:"fare"`
}
