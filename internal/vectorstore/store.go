// Package vectorstore is a thin facade over a persistent, per-context
// vector index. Each context is backed by its own embedded
// github.com/liliang-cn/sqvect collection file, named context_<name>.db
// under the configured vector_db_path.
package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/liliang-cn/sqvect"
	"go.uber.org/zap"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

const collectionPrefix = "context_"

// Result is one scored match from a search.
type Result struct {
	ID       string
	Text     string
	Distance float64
	Metadata domain.Metadata
}

// Store manages one sqvect collection per context.
type Store struct {
	mu          sync.RWMutex
	baseDir     string
	dimension   int
	maxConns    int
	batchSize   int
	collections map[string]*sqvect.SQLiteStore
	log         *zap.Logger
}

// New creates a Store rooted at baseDir. Any collection database files
// already present under baseDir from a previous run are opened eagerly
// so ListContexts/GetAll can see them immediately — this is what makes
// startup recovery (rebuilding the document registry from disk) work at
// all, since otherwise the collections map would start empty.
func New(baseDir string, dimension, maxConns, batchSize int, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		baseDir:     baseDir,
		dimension:   dimension,
		maxConns:    maxConns,
		batchSize:   batchSize,
		collections: make(map[string]*sqvect.SQLiteStore),
		log:         log,
	}
	s.openExisting()
	return s
}

// openExisting scans baseDir for previously persisted context_<name>.db
// files and opens each one, populating the collections map. Errors
// opening an individual file are swallowed (best-effort recovery); a
// missing or unreadable baseDir simply yields no existing collections.
func (s *Store) openExisting() {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".db") {
			continue
		}
		base := strings.TrimSuffix(name, ".db")
		ctxName, ok := contextFromCollection(base)
		if !ok {
			continue
		}
		if _, err := s.GetOrCreateCollection(ctxName); err != nil {
			continue
		}
	}
}

func collectionName(ctxName string) string { return collectionPrefix + ctxName }

func contextFromCollection(name string) (string, bool) {
	if !strings.HasPrefix(name, collectionPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, collectionPrefix), true
}

// GetOrCreateCollection opens (creating if necessary) the sqvect
// collection backing ctxName. Idempotent.
func (s *Store) GetOrCreateCollection(ctxName string) (*sqvect.SQLiteStore, error) {
	s.mu.RLock()
	if c, ok := s.collections[ctxName]; ok {
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[ctxName]; ok {
		return c, nil
	}

	dbPath := filepath.Join(s.baseDir, collectionName(ctxName)+".db")
	cfg := sqvect.DefaultConfig()
	cfg.Path = dbPath
	cfg.VectorDim = s.dimension
	cfg.MaxConns = s.maxConns
	cfg.BatchSize = s.batchSize

	client, err := sqvect.NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: opening collection %q: %v", domain.ErrVectorStoreFailed, ctxName, err)
	}
	if err := client.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("%w: initializing collection %q: %v", domain.ErrVectorStoreFailed, ctxName, err)
	}

	s.collections[ctxName] = client
	return client, nil
}

// DeleteCollection drops ctxName's collection and its backing file.
func (s *Store) DeleteCollection(ctxName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[ctxName]
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("%w: closing collection %q: %v", domain.ErrVectorStoreFailed, ctxName, err)
	}
	delete(s.collections, ctxName)

	dbPath := filepath.Join(s.baseDir, collectionName(ctxName)+".db")
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing collection file %q: %v", domain.ErrVectorStoreFailed, dbPath, err)
	}
	return nil
}

// ListContexts derives the set of existing context names from the
// collections currently open. The inverse of collection naming is the
// only way to enumerate contexts.
func (s *Store) ListContexts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add batch-upserts chunk records into ctxName's collection.
func (s *Store) Add(ctx context.Context, ctxName string, ids []string, vectors [][]float32, texts []string, metadatas []domain.Metadata) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("%w: add: mismatched slice lengths", domain.ErrInvalidInput)
	}
	if len(ids) == 0 {
		return nil
	}

	coll, err := s.GetOrCreateCollection(ctxName)
	if err != nil {
		return err
	}

	for i := range ids {
		meta := stringifyMetadata(metadatas[i])
		emb := &sqvect.Embedding{
			ID:       ids[i],
			Vector:   vectors[i],
			Content:  texts[i],
			DocID:    fmt.Sprintf("%v", metadatas[i]["document_id"]),
			Metadata: meta,
		}
		if err := coll.Upsert(ctx, emb); err != nil {
			return fmt.Errorf("%w: upserting chunk %q into %q: %v", domain.ErrVectorStoreFailed, ids[i], ctxName, err)
		}
	}
	return nil
}

// Search queries a single context's collection for the k nearest
// vectors to query.
func (s *Store) Search(ctx context.Context, ctxName string, query []float32, k int) ([]Result, error) {
	coll, err := s.GetOrCreateCollection(ctxName)
	if err != nil {
		return nil, err
	}
	raw, err := coll.Search(ctx, query, sqvect.SearchOptions{TopK: k, Threshold: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: searching collection %q: %v", domain.ErrVectorStoreFailed, ctxName, err)
	}
	return toResults(raw), nil
}

// SearchAll performs the cross-context merge: query every existing
// collection with the same (query, k), collect
// the union, sort ascending by distance, return the first k. A context
// that errors is skipped, not fatal. Duplicate chunks across contexts
// are not deduplicated.
func (s *Store) SearchAll(ctx context.Context, query []float32, k int) []Result {
	names := s.ListContexts()
	var all []Result
	for _, name := range names {
		res, err := s.Search(ctx, name, query, k)
		if err != nil {
			s.log.Warn("skipping context in cross-context search",
				zap.String("context", name),
				zap.Error(err),
			)
			continue
		}
		all = append(all, res...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	if len(all) > k {
		all = all[:k]
	}
	return all
}

// Delete removes every embedding belonging to documentID from ctxName's
// collection.
func (s *Store) Delete(ctx context.Context, ctxName, documentID string) error {
	coll, err := s.GetOrCreateCollection(ctxName)
	if err != nil {
		return err
	}
	if err := coll.DeleteByDocID(ctx, documentID); err != nil {
		return fmt.Errorf("%w: deleting document %q from %q: %v", domain.ErrVectorStoreFailed, documentID, ctxName, err)
	}
	return nil
}

// GetAll dumps every embedding in ctxName's collection (or, if ctxName
// is empty, every open collection) for startup recovery.
func (s *Store) GetAll(ctx context.Context, ctxName string) (map[string][]Result, error) {
	out := make(map[string][]Result)
	names := []string{ctxName}
	if ctxName == "" {
		names = s.ListContexts()
	}
	for _, name := range names {
		coll, err := s.GetOrCreateCollection(name)
		if err != nil {
			continue
		}
		docIDs, err := coll.ListDocuments(ctx)
		if err != nil {
			continue
		}
		var recs []Result
		for _, docID := range docIDs {
			embs, err := coll.GetByDocID(ctx, docID)
			if err != nil {
				continue
			}
			recs = append(recs, toEmbeddingResults(embs)...)
		}
		out[name] = recs
	}
	return out, nil
}

// Reset removes every embedding from every collection this Store has
// opened; the collections themselves stay open and their files remain.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, coll := range s.collections {
		if err := coll.Clear(ctx); err != nil {
			return fmt.Errorf("%w: clearing collection %q: %v", domain.ErrVectorStoreFailed, name, err)
		}
	}
	return nil
}

// Close releases every open collection handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, coll := range s.collections {
		_ = coll.Close()
	}
	return nil
}

func stringifyMetadata(m domain.Metadata) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

func unstringifyMetadata(m map[string]string) domain.Metadata {
	out := make(domain.Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toResults(raw []sqvect.ScoredEmbedding) []Result {
	out := make([]Result, len(raw))
	for i, r := range raw {
		out[i] = Result{
			ID:       r.ID,
			Text:     r.Content,
			Distance: 1 - float64(r.Score),
			Metadata: unstringifyMetadata(r.Metadata),
		}
	}
	return out
}

func toEmbeddingResults(raw []*sqvect.Embedding) []Result {
	out := make([]Result, len(raw))
	for i, r := range raw {
		out[i] = Result{
			ID:       r.ID,
			Text:     r.Content,
			Distance: 0,
			Metadata: unstringifyMetadata(r.Metadata),
		}
	}
	return out
}
