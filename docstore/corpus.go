package docstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteCorpus writes records as newline-delimited JSON, replacing the file at path.
func WriteCorpus(path string, records []ChunkRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := EncodeCorpus(w, records); err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush corpus file: %w", err)
	}

	return f.Sync()
}

func EncodeCorpus(w io.Writer, records []ChunkRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", r.ID, err)
		}
	}

	return nil
}

func ReadCorpus(path string) ([]ChunkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open corpus file: %w", err)
	}
	defer f.Close()

	return DecodeCorpus(f)
}

// DecodeCorpus reads newline-delimited records, ignoring blank lines.
func DecodeCorpus(r io.Reader) ([]ChunkRecord, error) {
	var records []ChunkRecord

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var rec ChunkRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", line, err)
		}

		records = append(records, rec)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	return records, nil
}
