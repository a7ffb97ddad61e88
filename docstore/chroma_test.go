package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	openai "github.com/amikos-tech/chroma-go/pkg/embeddings/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChroma serves the subset of the Chroma v2 REST API the store uses.
type fakeChroma struct {
	mu          sync.Mutex
	collections map[string]bool
	deleted     []string
	created     []string
	added       []map[string]any
	queries     []map[string]any
	queryReply  string
}

func newFakeChroma(t *testing.T) (*fakeChroma, *httptest.Server) {
	fc := &fakeChroma{collections: make(map[string]bool)}
	srv := httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(srv.Close)
	return fc, srv
}

func (fc *fakeChroma) serve(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	p := strings.TrimSuffix(r.URL.Path, "/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodDelete && strings.Contains(p, "/collections/"):
		name := path.Base(p)
		if !fc.collections[name] {
			notFound(w, name)
			return
		}
		delete(fc.collections, name)
		fc.deleted = append(fc.deleted, name)
		w.Write([]byte(`{}`))

	case r.Method == http.MethodPost && strings.HasSuffix(p, "/collections"):
		fc.created = append(fc.created, string(body))
		var req struct {
			Name string `json:"name"`
		}
		json.Unmarshal(body, &req)
		fc.collections[req.Name] = true
		w.Write([]byte(collectionJSON(req.Name)))

	case r.Method == http.MethodGet && strings.Contains(p, "/collections/"):
		name := path.Base(p)
		if !fc.collections[name] {
			notFound(w, name)
			return
		}
		w.Write([]byte(collectionJSON(name)))

	case r.Method == http.MethodPost && strings.HasSuffix(p, "/add"):
		var req map[string]any
		json.Unmarshal(body, &req)
		fc.added = append(fc.added, req)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))

	case r.Method == http.MethodPost && strings.HasSuffix(p, "/query"):
		var req map[string]any
		json.Unmarshal(body, &req)
		fc.queries = append(fc.queries, req)
		w.Write([]byte(fc.queryReply))

	default:
		w.Write([]byte(`{"max_batch_size": 1000}`))
	}
}

func notFound(w http.ResponseWriter, name string) {
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"NotFoundError","message":"Collection [` + name + `] does not exist"}`))
}

func collectionJSON(name string) string {
	return `{"id":"8ecf0f7e-7e7e-4a1c-9a39-1f0a7c0e2b11","name":"` + name +
		`","metadata":null,"dimension":null,"tenant":"default_tenant","database":"default_database","version":0,"log_position":0}`
}

func newTestChromaStore(t *testing.T, srv *httptest.Server) *ChromaStore {
	// never called: vectors are always passed explicitly
	ef, err := openai.NewOpenAIEmbeddingFunction("test-key")
	require.NoError(t, err)

	store, err := NewChromaStore(ChromaStoreConfig{BaseURL: srv.URL, EmbeddingFunc: ef})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func Test_ChromaStore_DeleteMissingCollection(t *testing.T) {
	_, srv := newFakeChroma(t)
	store := newTestChromaStore(t, srv)

	require.NoError(t, store.Delete(context.Background(), "missing"))
}

func Test_ChromaStore_QueryMissingCollection(t *testing.T) {
	_, srv := newFakeChroma(t)
	store := newTestChromaStore(t, srv)

	_, err := store.Query(context.Background(), "missing", []float32{1, 0}, 5)
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func Test_ChromaStore_CreateAndInsert(t *testing.T) {
	fc, srv := newFakeChroma(t)
	store := newTestChromaStore(t, srv)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "battlebuddy_aos"))
	require.NoError(t, store.Create(ctx, "battlebuddy_aos"))
	require.NoError(t, store.Insert(ctx, "battlebuddy_aos", []IndexedDoc{
		{ID: "aos_lore_a_000", Text: "Stormcast Eternals", Embedding: []float32{1, 0}, Title: "A", Category: "lore"},
		{ID: "aos_rules_b_000", Text: "Battle rounds", Embedding: []float32{0, 1}, Title: "B", Category: "rules"},
	}))

	require.Len(t, fc.created, 1)
	assert.Contains(t, fc.created[0], `"battlebuddy_aos"`)
	assert.Contains(t, fc.created[0], "cosine")

	require.Len(t, fc.added, 1)
	add := fc.added[0]
	assert.Equal(t, []any{"aos_lore_a_000", "aos_rules_b_000"}, add["ids"])
	assert.Equal(t, []any{"Stormcast Eternals", "Battle rounds"}, add["documents"])
	assert.Equal(t, []any{[]any{1.0, 0.0}, []any{0.0, 1.0}}, add["embeddings"])
	assert.Equal(t, []any{
		map[string]any{"title": "A", "category": "lore"},
		map[string]any{"title": "B", "category": "rules"},
	}, add["metadatas"])
}

func Test_ChromaStore_InsertNothing(t *testing.T) {
	fc, srv := newFakeChroma(t)
	store := newTestChromaStore(t, srv)

	require.NoError(t, store.Insert(context.Background(), "battlebuddy_aos", nil))
	assert.Empty(t, fc.added)
}

func Test_ChromaStore_Query(t *testing.T) {
	fc, srv := newFakeChroma(t)
	fc.collections["battlebuddy_aos"] = true
	fc.queryReply = `{
		"ids": [["aos_lore_a_000"]],
		"documents": [["Stormcast Eternals are soul-forged warriors."]],
		"metadatas": [[{"title": "Stormcast Eternals", "category": "lore"}]],
		"distances": [[0.25]],
		"include": ["documents", "metadatas", "distances"]
	}`
	store := newTestChromaStore(t, srv)

	res, err := store.Query(context.Background(), "battlebuddy_aos", []float32{1, 0}, 5)
	require.NoError(t, err)

	assert.Equal(t, []SearchResult{{
		ID:       "aos_lore_a_000",
		Text:     "Stormcast Eternals are soul-forged warriors.",
		Title:    "Stormcast Eternals",
		Category: "lore",
		Score:    0.75,
	}}, res)

	require.Len(t, fc.queries, 1)
	assert.EqualValues(t, 5, fc.queries[0]["n_results"])
	assert.Contains(t, fc.queries[0]["include"], "distances")
}

func Test_ChromaStore_QueryWithoutDistances(t *testing.T) {
	fc, srv := newFakeChroma(t)
	fc.collections["battlebuddy_aos"] = true
	fc.queryReply = `{
		"ids": [["a", "b"]],
		"documents": [["first", "second"]],
		"include": ["documents"]
	}`
	store := newTestChromaStore(t, srv)

	res, err := store.Query(context.Background(), "battlebuddy_aos", []float32{1, 0}, 5)
	require.NoError(t, err)

	require.Len(t, res, 2)
	assert.Equal(t, SearchResult{ID: "a", Text: "first"}, res[0])
	assert.Equal(t, SearchResult{ID: "b", Text: "second"}, res[1])
}

func Test_ChromaStore_QueryEmpty(t *testing.T) {
	fc, srv := newFakeChroma(t)
	fc.collections["battlebuddy_aos"] = true
	fc.queryReply = `{"ids": [[]], "documents": [[]], "metadatas": [[]], "distances": [[]]}`
	store := newTestChromaStore(t, srv)

	res, err := store.Query(context.Background(), "battlebuddy_aos", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func Test_IsChromaNotFound(t *testing.T) {
	var cases = []struct {
		msg      string
		notFound bool
	}{
		{msg: "Collection [x] does not exist", notFound: true},
		{msg: "error: NotFoundError", notFound: true},
		{msg: "unexpected status 404", notFound: true},
		{msg: "connection refused", notFound: false},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, c.notFound, isChromaNotFound(errors.New(c.msg)))
		})
	}
}
