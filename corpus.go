package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gamma-omg/battlebuddy/docstore"
	"github.com/gamma-omg/battlebuddy/readers"
)

const (
	unknownCategory = "unknown"
	unknownSource   = "unknown"
)

type FileReader interface {
	Format() readers.Format
	ReadText(path string) (string, error)
}

type Chunker interface {
	Chunkify(text string) []string
}

// CorpusBuilder turns a tree of raw documents (root/<category>/<file>) into
// chunk records. Files are visited in lexical order so ids are reproducible.
type CorpusBuilder struct {
	log        *slog.Logger
	root       string
	idPrefix   string
	workers    int
	chunkifier Chunker
	readers    map[readers.Format]FileReader
}

type rawDoc struct {
	Path     string
	Format   readers.Format
	Category string
	Stem     string
}

func (cb *CorpusBuilder) RegisterReader(rs ...FileReader) error {
	if cb.readers == nil {
		cb.readers = make(map[readers.Format]FileReader)
	}

	for _, r := range rs {
		_, ok := cb.readers[r.Format()]
		if ok {
			return fmt.Errorf("reader already registered for type %s", r.Format())
		}

		cb.readers[r.Format()] = r
	}

	return nil
}

func (cb *CorpusBuilder) Build(ctx context.Context) ([]docstore.ChunkRecord, error) {
	docs, err := cb.collectDocs()
	if err != nil {
		return nil, err
	}

	texts, err := cb.readDocs(ctx, docs)
	if err != nil {
		return nil, err
	}

	// category/stem pairs that already produced records, mapped to their file
	emitted := make(map[string]string)

	var records []docstore.ChunkRecord
	for i, d := range docs {
		cb.log.Info("processing file", "file", d.Path, "category", d.Category)

		if strings.TrimSpace(texts[i]) == "" {
			cb.log.Warn("empty text extracted", "file", d.Path)
			continue
		}

		chunks := cb.chunkifier.Chunkify(texts[i])
		cb.log.Info("file chunked", "file", d.Path, "chunks", len(chunks))
		if len(chunks) == 0 {
			cb.log.Warn("no chunks produced", "file", d.Path)
			continue
		}

		key := d.Category + "/" + d.Stem
		if first, ok := emitted[key]; ok {
			cb.log.Warn("skipping file with duplicate category and name", "file", d.Path, "kept", first)
			continue
		}
		emitted[key] = d.Path

		title := titleFromFilename(d.Path)
		for seq, chunk := range chunks {
			records = append(records, docstore.ChunkRecord{
				ID:       chunkID(cb.idPrefix, d.Category, d.Stem, seq),
				Title:    title,
				Text:     chunk,
				Source:   unknownSource,
				Category: d.Category,
			})
		}
	}

	return records, nil
}

func (cb *CorpusBuilder) collectDocs() (docs []rawDoc, err error) {
	err = filepath.WalkDir(cb.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path != cb.root && strings.HasPrefix(d.Name(), ".") {
			cb.log.Warn("skipping hidden entry", "path", path)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		format, e := readers.FormatOf(path)
		if e != nil {
			cb.log.Warn("skipping unsupported file", "file", path)
			return nil
		}

		if _, ok := cb.readers[format]; !ok {
			cb.log.Warn("skipping file without reader", "file", path, "format", format)
			return nil
		}

		doc := rawDoc{
			Path:     path,
			Format:   format,
			Category: categoryOf(cb.root, path),
			Stem:     stemOf(path),
		}

		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", cb.root, err)
	}

	return docs, nil
}

// readDocs extracts all documents concurrently; texts[i] belongs to docs[i].
func (cb *CorpusBuilder) readDocs(ctx context.Context, docs []rawDoc) ([]string, error) {
	texts := make([]string, len(docs))

	workers := cb.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, d := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			text, err := cb.readers[d.Format].ReadText(d.Path)
			if err != nil {
				return fmt.Errorf("failed to read document %s: %w", d.Path, err)
			}

			texts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return texts, nil
}

// categoryOf returns the first directory below root, or "unknown" for files
// placed directly in root.
func categoryOf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return unknownCategory
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return unknownCategory
	}

	return parts[0]
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// titleFromFilename turns "stormcast_eternals.html" into "Stormcast Eternals".
func titleFromFilename(path string) string {
	stem := strings.NewReplacer("-", " ", "_", " ").Replace(stemOf(path))
	return cases.Title(language.English).String(stem)
}

func chunkID(prefix, category, stem string, seq int) string {
	return fmt.Sprintf("%s_%s_%s_%03d", prefix, category, stem, seq)
}
