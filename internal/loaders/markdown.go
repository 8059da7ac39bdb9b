package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/recallhq/recall/internal/core/domain"
)

// Markdown loads markdown files, honouring YAML front matter for
// title, author and creation time.
type Markdown struct{}

// Suffixes returns the file suffixes this loader handles.
func (l *Markdown) Suffixes() []string {
	return []string{".md", ".markdown", ".mdx"}
}

// MIME returns the content kind.
func (l *Markdown) MIME() string { return "text/markdown" }

// Load reads and converts a markdown file into one document.
func (l *Markdown) Load(path string) ([]domain.LoadedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	frontMatter, body := splitFrontMatter(string(raw))
	normalized := markdownToText([]byte(body))

	metadata := map[string]any{"path": path}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	author := ""
	var createdTS *int64
	if len(frontMatter) > 0 {
		metadata["front_matter"] = frontMatter
		if v, ok := frontMatter["title"].(string); ok && v != "" {
			title = v
		}
		if v, ok := frontMatter["author"].(string); ok {
			author = v
		}
		createdTS = frontMatterTime(frontMatter["created"])
	}
	modifiedTS := info.ModTime().UnixMilli()

	return []domain.LoadedDocument{{
		Path:       path,
		Text:       normalized,
		RawBytes:   raw,
		Metadata:   metadata,
		MIME:       l.MIME(),
		Title:      title,
		Author:     author,
		CreatedTS:  createdTS,
		ModifiedTS: &modifiedTS,
		SizeBytes:  int64(len(raw)),
	}}, nil
}

// splitFrontMatter separates a leading YAML front matter block from the
// body. Malformed YAML is treated as body text.
func splitFrontMatter(content string) (map[string]any, string) {
	if !strings.HasPrefix(content, "---") {
		return nil, content
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return nil, content
	}
	var frontMatter map[string]any
	if err := yaml.Unmarshal([]byte(parts[1]), &frontMatter); err != nil || frontMatter == nil {
		return nil, content
	}
	return frontMatter, parts[2]
}

// frontMatterTime converts a front matter value to epoch milliseconds.
func frontMatterTime(value any) *int64 {
	var ts int64
	switch v := value.(type) {
	case time.Time:
		ts = v.UnixMilli()
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", v)
			if err != nil {
				return nil
			}
		}
		ts = parsed.UnixMilli()
	case int:
		ts = int64(v) * 1000
	case int64:
		ts = v * 1000
	default:
		return nil
	}
	return &ts
}

// markdownToText extracts the plain text content of a markdown
// document, dropping formatting but keeping block structure.
func markdownToText(src []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					sb.WriteByte('\n')
				}
			}
		case *ast.AutoLink:
			if entering {
				sb.Write(node.URL(src))
			}
		case *ast.FencedCodeBlock:
			if entering {
				writeLines(&sb, node, src)
			}
		case *ast.CodeBlock:
			if entering {
				writeLines(&sb, node, src)
			}
		default:
			if !entering && n.Type() == ast.TypeBlock {
				sb.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	out := Normalize(sb.String())
	if out == "" {
		return Normalize(string(src))
	}
	return out
}

func writeLines(sb *strings.Builder, node ast.Node, src []byte) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	sb.WriteString("\n\n")
}
