package readers

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrUnsupported = errors.New("unsupported file type")

// Format is the closed set of raw document kinds the corpus can be built from.
type Format int

const (
	FormatHTML Format = iota + 1
	FormatText
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatText:
		return "text"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

var extFormats = map[string]Format{
	".html": FormatHTML,
	".htm":  FormatHTML,
	".txt":  FormatText,
	".pdf":  FormatPDF,
}

// FormatOf resolves the format of path by its (case-insensitive) extension.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extFormats[ext]
	if !ok {
		return 0, ErrUnsupported
	}

	return f, nil
}

// NormalizeLines trims every line and drops the empty ones.
func NormalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	res := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			res = append(res, l)
		}
	}

	return strings.Join(res, "\n")
}

func decodeLossy(buf []byte) string {
	return strings.ToValidUTF8(string(buf), "")
}
