package cli

import (
	"path/filepath"
	"strings"

	"jeopardy-service/internal/domain"
)

// resolveFormat prefers an explicit tag and falls back to the file extension.
func resolveFormat(path, tag string) (domain.SourceFormat, error) {
	if tag != "" {
		return domain.ParseSourceFormat(tag)
	}
	return domain.SourceFormatFromPath(path)
}

func bankIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
