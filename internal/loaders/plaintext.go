package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/recallhq/recall/internal/core/domain"
)

// Plaintext loads plain text and log files verbatim.
type Plaintext struct{}

// Suffixes returns the file suffixes this loader handles.
func (l *Plaintext) Suffixes() []string {
	return []string{".txt", ".text", ".log"}
}

// MIME returns the content kind.
func (l *Plaintext) MIME() string { return "text/plain" }

// Load reads a text file into one document.
func (l *Plaintext) Load(path string) ([]domain.LoadedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	modifiedTS := info.ModTime().UnixMilli()

	return []domain.LoadedDocument{{
		Path:       path,
		Text:       Normalize(string(raw)),
		RawBytes:   raw,
		Metadata:   map[string]any{"path": path},
		MIME:       l.MIME(),
		Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		ModifiedTS: &modifiedTS,
		SizeBytes:  int64(len(raw)),
	}}, nil
}
