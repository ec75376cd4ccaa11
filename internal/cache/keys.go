package cache

import (
	"fmt"
	"strings"

	"subway/internal/domain"
)

const (
	KeyPathVersion = "version:path"
	KeyPathPattern = "path:v*"
)

// KeyPath is the cache key of one path query under a network version.
// Types are normalised so "distance" and "DISTANCE" share an entry.
func KeyPath(version int64, req domain.PathRequest) string {
	pathType := strings.ToUpper(string(req.Type))
	if pathType == "" {
		pathType = string(domain.PathTypeDistance)
	}
	return fmt.Sprintf("%s%d:%d:%s", KeyPathPrefix(version), req.Source, req.Target, pathType)
}

func KeyPathPrefix(version int64) string {
	return fmt.Sprintf("path:v%d:", version)
}
