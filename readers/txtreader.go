package readers

import (
	"fmt"
	"os"
)

type TxtFileReader struct{}

func (r *TxtFileReader) Format() Format {
	return FormatText
}

// ReadText returns the file content verbatim. Invalid UTF-8 sequences are dropped.
func (r *TxtFileReader) ReadText(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}

	return decodeLossy(buf), nil
}
