package docstore

import (
	"context"
	"fmt"
	"strings"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// includeDistances has no named constant in the v2 client.
const includeDistances = chroma.Include("distances")

// ChromaStoreConfig configures the Chroma backend. EmbeddingFunc is attached
// to collections when set; vectors are always supplied by the caller.
type ChromaStoreConfig struct {
	BaseURL       string
	EmbeddingFunc embeddings.EmbeddingFunction
}

// ChromaStore keeps each index as a Chroma collection of the same name.
// Collections use cosine space, so scores are reported as 1 - distance.
type ChromaStore struct {
	client chroma.Client
	ef     embeddings.EmbeddingFunction
}

func NewChromaStore(cfg ChromaStoreConfig) (*ChromaStore, error) {
	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	return &ChromaStore{
		client: client,
		ef:     cfg.EmbeddingFunc,
	}, nil
}

func (ds *ChromaStore) Delete(ctx context.Context, name string) error {
	err := ds.client.DeleteCollection(ctx, name)
	if err != nil && !isChromaNotFound(err) {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}

	return nil
}

func (ds *ChromaStore) Create(ctx context.Context, name string) error {
	opts := []chroma.CreateCollectionOption{chroma.WithHNSWSpaceCreate(embeddings.COSINE)}
	if ds.ef != nil {
		opts = append(opts, chroma.WithEmbeddingFunctionCreate(ds.ef))
	}

	_, err := ds.client.CreateCollection(ctx, name, opts...)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	return nil
}

func (ds *ChromaStore) Insert(ctx context.Context, name string, docs []IndexedDoc) error {
	if len(docs) == 0 {
		return nil
	}

	col, err := ds.collection(ctx, name)
	if err != nil {
		return err
	}

	ids := make([]chroma.DocumentID, 0, len(docs))
	texts := make([]string, 0, len(docs))
	embs := make([]embeddings.Embedding, 0, len(docs))
	metas := make([]chroma.DocumentMetadata, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, chroma.DocumentID(d.ID))
		texts = append(texts, d.Text)
		embs = append(embs, embeddings.NewEmbeddingFromFloat32(d.Embedding))
		metas = append(metas, chroma.NewDocumentMetadata(
			chroma.NewStringAttribute(Title, d.Title),
			chroma.NewStringAttribute(Category, d.Category),
		))
	}

	err = col.Add(ctx,
		chroma.WithIDs(ids...),
		chroma.WithTexts(texts...),
		chroma.WithEmbeddings(embs...),
		chroma.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add %d documents to %s: %w", len(docs), name, err)
	}

	return nil
}

func (ds *ChromaStore) Query(ctx context.Context, name string, vec []float32, k int) ([]SearchResult, error) {
	col, err := ds.collection(ctx, name)
	if err != nil {
		return nil, err
	}

	r, err := col.Query(ctx,
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vec)),
		chroma.WithNResults(k),
		chroma.WithIncludeQuery(chroma.IncludeDocuments, chroma.IncludeMetadatas, includeDistances),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve texts: %w", err)
	}

	// groups other than documents may be absent when the server omits them
	docGroups := r.GetDocumentsGroups()
	if len(docGroups) == 0 {
		return nil, nil
	}
	idGroups := r.GetIDGroups()
	metaGroups := r.GetMetadatasGroups()
	distGroups := r.GetDistancesGroups()

	docs := docGroups[0]
	res := make([]SearchResult, 0, len(docs))
	for i := range len(docs) {
		sr := SearchResult{Text: docs[i].ContentString()}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			sr.ID = string(idGroups[0][i])
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			sr.Score = 1 - float32(distGroups[0][i])
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) && metaGroups[0][i] != nil {
			sr.Title, _ = metaGroups[0][i].GetString(Title)
			sr.Category, _ = metaGroups[0][i].GetString(Category)
		}
		res = append(res, sr)
	}

	return res, nil
}

func (ds *ChromaStore) Close() error {
	return ds.client.Close()
}

func (ds *ChromaStore) collection(ctx context.Context, name string) (chroma.Collection, error) {
	var opts []chroma.GetCollectionOption
	if ds.ef != nil {
		opts = append(opts, chroma.WithEmbeddingFunctionGet(ds.ef))
	}

	col, err := ds.client.GetCollection(ctx, name, opts...)
	if err != nil {
		if isChromaNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
		}
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}

	return col, nil
}

func isChromaNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"does not exist", "not found", "notfound", "404"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
