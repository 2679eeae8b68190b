package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jeopardy-service/internal/domain"
)

// FileSource loads question banks from the local filesystem; the source id is a path.
// A FileSource with a root only serves relative paths inside that directory.
type FileSource struct {
	root string
}

// NewFileSource reads any path the process can open. Use it for local tools only.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// NewDirSource confines source ids to files under root.
func NewDirSource(root string) *FileSource {
	return &FileSource{root: filepath.Clean(root)}
}

// LoadQuestions reads and decodes the file at path. Read failures wrap
// domain.ErrSourceUnavailable, content failures domain.ErrMalformedRecord.
func (s *FileSource) LoadQuestions(ctx context.Context, path string, format domain.SourceFormat) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: cannot read", domain.ErrSourceUnavailable, path)
	}
	questions, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return questions, nil
}

func (s *FileSource) resolve(path string) (string, error) {
	if s.root == "" {
		return path, nil
	}
	if path == "" || filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %q is not a bank name", domain.ErrSourceUnavailable, path)
	}
	full := filepath.Join(s.root, path)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q is outside the bank directory", domain.ErrSourceUnavailable, path)
	}
	return full, nil
}
