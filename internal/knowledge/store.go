package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/campusqa/campusqa/internal/chunker"
	"github.com/campusqa/campusqa/internal/log"
)

// Sentinel errors returned by the store.
var (
	ErrNoEmbedder    = errors.New("knowledge: embedder is required")
	ErrVectorCount   = errors.New("knowledge: embedder returned wrong vector count")
	ErrSourceDirGone = errors.New("knowledge: source directory does not exist")
)

// sourceExtensions lists the file types indexed during a rebuild.
var sourceExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Config defines store options.
type Config struct {
	// Path is the directory where the vector database persists itself.
	Path string

	// Collection names the document collection inside the database.
	Collection string

	// ChunkSize and ChunkOverlap control document splitting.
	// Zero values fall back to the chunker defaults.
	ChunkSize    int
	ChunkOverlap int
}

func (c Config) validate() error {
	if c.Path == "" {
		return errors.New("knowledge: config: path is required")
	}
	if c.Collection == "" {
		return errors.New("knowledge: config: collection is required")
	}
	return nil
}

// Store is a persistent vector index over a directory of text documents.
// It is safe for concurrent use; a rebuild swaps the collection only after
// all new embeddings exist, so readers never observe a half-built index.
type Store struct {
	cfg      Config
	db       *chromem.DB
	embedder Embedder
	logger   log.Logger

	mu  sync.RWMutex
	col *chromem.Collection
}

// New opens (or creates) the persistent database at cfg.Path and attaches
// to the configured collection.
func New(cfg Config, embedder Embedder, logger log.Logger) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, ErrNoEmbedder
	}
	if logger == nil {
		logger = log.NewNop()
	}

	db, err := chromem.NewPersistentDB(cfg.Path, false)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open database: %w", err)
	}

	s := &Store{
		cfg:      cfg,
		db:       db,
		embedder: embedder,
		logger:   logger.With("component", "knowledge"),
	}

	col, err := db.GetOrCreateCollection(cfg.Collection, nil, s.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("knowledge: open collection %q: %w", cfg.Collection, err)
	}
	s.col = col

	return s, nil
}

// embeddingFunc bridges the batch Embedder to the single-text signature
// the vector database expects. Documents and queries carry precomputed
// vectors, so this only runs for direct collection queries.
func (s *Store) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := s.embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 {
			return nil, ErrVectorCount
		}
		return vecs[0], nil
	}
}

// Count returns the number of chunks currently indexed.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.Count()
}

// Rebuild re-indexes every supported file under dir.
//
// All chunks are embedded before the old collection is touched. If reading
// or embedding fails, the existing index stays intact and keeps serving
// queries. A directory with no indexable files leaves the index unchanged.
func (s *Store) Rebuild(ctx context.Context, dir string) (RebuildResult, error) {
	if _, err := os.Stat(dir); err != nil {
		return RebuildResult{}, fmt.Errorf("%w: %s", ErrSourceDirGone, dir)
	}

	files, err := listSourceFiles(dir)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("knowledge: scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		s.logger.Warn("rebuild skipped, no documents found", "dir", dir)
		return RebuildResult{}, nil
	}

	var docs []chromem.Document
	for fileIdx, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return RebuildResult{}, fmt.Errorf("knowledge: read %s: %w", path, err)
		}

		chunks := chunker.Split(string(raw), s.cfg.ChunkSize, s.cfg.ChunkOverlap)
		for chunkIdx, text := range chunks {
			docs = append(docs, chromem.Document{
				ID:      fmt.Sprintf("doc_%d_%d", fileIdx, chunkIdx),
				Content: text,
				Metadata: map[string]string{
					"source":   path,
					"filename": filepath.Base(path),
					"chunk_id": fmt.Sprintf("%d", chunkIdx),
				},
			})
		}
	}
	if len(docs) == 0 {
		s.logger.Warn("rebuild skipped, documents contain no text", "dir", dir, "files", len(files))
		return RebuildResult{}, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	// Embed everything up front. Only after this succeeds is the old
	// collection replaced, so a provider outage cannot wipe the index.
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("knowledge: embed %d chunks: %w", len(docs), err)
	}
	if len(vectors) != len(docs) {
		return RebuildResult{}, fmt.Errorf("%w: want %d, got %d", ErrVectorCount, len(docs), len(vectors))
	}
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.cfg.Collection); err != nil {
		return RebuildResult{}, fmt.Errorf("knowledge: drop collection: %w", err)
	}
	col, err := s.db.CreateCollection(s.cfg.Collection, nil, s.embeddingFunc())
	if err != nil {
		return RebuildResult{}, fmt.Errorf("knowledge: recreate collection: %w", err)
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return RebuildResult{}, fmt.Errorf("knowledge: store %d chunks: %w", len(docs), err)
	}
	s.col = col

	s.logger.Info("knowledge base rebuilt", "files", len(files), "chunks", len(docs))
	return RebuildResult{Files: len(files), Chunks: len(docs)}, nil
}

// Query returns up to topK chunks most similar to the query text.
// An empty index yields an empty result without calling the embedder.
func (s *Store) Query(ctx context.Context, query string, topK int) (SearchResult, error) {
	s.mu.RLock()
	col := s.col
	s.mu.RUnlock()

	count := col.Count()
	if count == 0 {
		return SearchResult{}, nil
	}
	if topK <= 0 {
		topK = 1
	}
	if topK > count {
		topK = count
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return SearchResult{}, fmt.Errorf("knowledge: embed query: %w", err)
	}
	if len(vecs) != 1 {
		return SearchResult{}, ErrVectorCount
	}

	results, err := col.QueryEmbedding(ctx, vecs[0], topK, nil, nil)
	if err != nil {
		return SearchResult{}, fmt.Errorf("knowledge: query: %w", err)
	}

	out := SearchResult{
		Documents: make([]string, 0, len(results)),
		Sources:   make([]string, 0, len(results)),
	}
	for _, r := range results {
		filename := r.Metadata["filename"]
		if filename == "" {
			filename = "Unknown"
		}
		out.Documents = append(out.Documents, r.Content)
		out.Sources = append(out.Sources, filename)
	}
	return out, nil
}

// listSourceFiles walks dir and returns indexable files in lexical order.
func listSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
