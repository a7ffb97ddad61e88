package main

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Chunkifier cuts text into overlapping character windows. Consecutive windows
// start exactly chunkSize-chunkOverlap characters apart.
type Chunkifier struct {
	chunkSize    int
	chunkOverlap int
	minSize      int
}

func NewChunkifier(size, overlap, minSize int) (*Chunkifier, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: max_chars must be positive, got %d", ErrInvalidChunking, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap_chars must not be negative, got %d", ErrInvalidChunking, overlap)
	}
	if size <= overlap {
		return nil, fmt.Errorf("%w: max_chars (%d) must be greater than overlap_chars (%d)", ErrInvalidChunking, size, overlap)
	}
	if minSize < 0 {
		return nil, fmt.Errorf("%w: min_chars must not be negative, got %d", ErrInvalidChunking, minSize)
	}

	return &Chunkifier{
		chunkSize:    size,
		chunkOverlap: overlap,
		minSize:      minSize,
	}, nil
}

// Chunkify returns the trimmed windows of text that are at least minSize
// characters long.
func (c *Chunkifier) Chunkify(text string) []string {
	runes := []rune(text)
	l := len(runes)
	if l == 0 {
		return []string{}
	}

	step := c.chunkSize - c.chunkOverlap
	pos := 0
	res := make([]string, 0, l/step+1)

	for {
		end := min(pos+c.chunkSize, l)
		chunk := strings.TrimSpace(string(runes[pos:end]))
		if chunk != "" && len([]rune(chunk)) >= c.minSize {
			res = append(res, chunk)
		}
		if end >= l {
			break
		}

		pos = max(end-c.chunkOverlap, 0)
	}

	return res
}
