// Package archive persists accepted search results as embedded
// chunks in pgvector, giving each research run a queryable source
// corpus.
package archive

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/database"
	"github.com/mikeboe/deep-research/pkg/embeddings"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/vectorstore"
)

type Archive struct {
	Store        *vectorstore.SourceStore
	Embedder     *embeddings.GoogleEmbedder
	ChunkSize    int
	ChunkOverlap int
}

// NewFromConfig prepares the vector extension and collection table,
// then returns an archive ready to store sources.
func NewFromConfig(ctx context.Context, db *database.PostgresDB, cfg *config.Config) (*Archive, error) {
	if err := db.EnsureVectorExtension(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure vector extension: %w", err)
	}
	if err := db.CreateSourceTable(ctx, cfg.CollectionName, embeddings.Dimension); err != nil {
		return nil, fmt.Errorf("failed to create source table: %w", err)
	}

	store, err := vectorstore.NewSourceStore(db.Pool, cfg.CollectionName)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to init embedder: %w", err)
	}

	return &Archive{
		Store:        store,
		Embedder:     embedder,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}, nil
}

// Search embeds the query and returns the topK closest source
// chunks from the collection.
func (a *Archive) Search(ctx context.Context, query string, topK int) ([]vectorstore.ScoredChunk, error) {
	vec, err := a.Embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return a.Store.SimilaritySearch(ctx, vec, topK, "")
}

// Archive chunks, embeds, and stores one accepted source.
func (a *Archive) Archive(ctx context.Context, res research.SearchResult) error {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(a.ChunkSize),
		textsplitter.WithChunkOverlap(a.ChunkOverlap),
	)
	chunks, err := splitter.SplitText(res.Content)
	if err != nil {
		return fmt.Errorf("failed to split source text: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := a.Embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	docs := make([]vectorstore.Chunk, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vectorstore.Chunk{
			Content: chunk,
			Metadata: map[string]interface{}{
				"source": res.URL,
				"title":  res.Title,
			},
			Embedding: vectors[i],
		}
	}

	return a.Store.AddChunks(ctx, docs)
}
