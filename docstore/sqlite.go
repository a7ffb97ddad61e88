package docstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS indexes (
	name TEXT PRIMARY KEY,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS vectors (
	index_name TEXT NOT NULL REFERENCES indexes(name) ON DELETE CASCADE,
	id TEXT NOT NULL,
	text TEXT NOT NULL,
	title TEXT,
	category TEXT,
	embedding BLOB NOT NULL,
	PRIMARY KEY (index_name, id)
);
`

// SQLiteStore is a file-backed vector index. Queries are exact: every vector of
// the index is scored by cosine similarity.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE index_name = ?`, name); err != nil {
		return fmt.Errorf("deleting vectors of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM indexes WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting index %s: %w", name, err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Create(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO indexes (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("creating index %s: %w", name, err)
	}

	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, name string, docs []IndexedDoc) error {
	if err := s.ensureIndex(ctx, name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (index_name, id, text, title, category, embedding)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		_, err := stmt.ExecContext(ctx, name, d.ID, d.Text, d.Title, d.Category, encodeVector(d.Embedding))
		if err != nil {
			return fmt.Errorf("inserting %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Query(ctx context.Context, name string, vec []float32, k int) ([]SearchResult, error) {
	if err := s.ensureIndex(ctx, name); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, title, category, embedding FROM vectors WHERE index_name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rows.Close()

	var res []SearchResult
	for rows.Next() {
		var (
			sr       SearchResult
			title    sql.NullString
			category sql.NullString
			blob     []byte
		)
		if err := rows.Scan(&sr.ID, &sr.Text, &title, &category, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		sr.Title = title.String
		sr.Category = category.String
		sr.Score = cosine(vec, decodeVector(blob))
		res = append(res, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	// ties keep id order so repeated queries rank identically
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Score == res[j].Score {
			return res[i].ID < res[j].ID
		}
		return res[i].Score > res[j].Score
	})

	if k >= 0 && len(res) > k {
		res = res[:k]
	}

	return res, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureIndex(ctx context.Context, name string) error {
	var found string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM indexes WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("looking up index %s: %w", name, err)
	}

	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func cosine(a, b []float32) float32 {
	n := min(len(a), len(b))

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
