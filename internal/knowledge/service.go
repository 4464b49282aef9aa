// Package knowledge orchestrates the ingestion-and-retrieval pipeline:
// it owns the in-memory document, context, and task
// registries, dispatches to the extractor/chunker/embedder/vectorstore
// collaborators, and exposes the operations the MCP surface calls.
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxzrff/KnowledgeMCP/internal/config"
	"github.com/maxzrff/KnowledgeMCP/internal/domain"
	"github.com/maxzrff/KnowledgeMCP/internal/embed"
	"github.com/maxzrff/KnowledgeMCP/internal/extract"
	"github.com/maxzrff/KnowledgeMCP/internal/vectorstore"
)

const hashBlockSize = 8 * 1024

// Service is the Knowledge Service: the single orchestrator the MCP
// surface talks to. Construct once at startup.
type Service struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document
	byHash map[string]string // content_hash -> document id
	tasks map[string]*domain.ProcessingTask
	ctxs map[string]*domain.Context

	extractors *extract.Registry
	embedder   embed.Embedder
	store      *vectorstore.Store
	cfg        *config.Config
	log        *zap.Logger

	// sem bounds how many async ingestion pipelines run at once
	// (processing.max_concurrent_tasks). Queued tasks wait here with
	// status QUEUED before being marked RUNNING.
	sem chan struct{}
}

// New builds a Service and performs startup recovery: the document
// registry is rebuilt from whatever the vector store already has on
// disk.
func New(cfg *config.Config, extractors *extract.Registry, embedder embed.Embedder, store *vectorstore.Store, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		docs:       make(map[string]*domain.Document),
		byHash:     make(map[string]string),
		tasks:      make(map[string]*domain.ProcessingTask),
		ctxs:       make(map[string]*domain.Context),
		extractors: extractors,
		embedder:   embedder,
		store:      store,
		cfg:        cfg,
		log:        log,
	}

	maxTasks := cfg.Processing.MaxConcurrentTasks
	if maxTasks < 1 {
		maxTasks = 1
	}
	s.sem = make(chan struct{}, maxTasks)

	now := time.Now().UTC()
	s.ctxs[domain.DefaultContext] = &domain.Context{
		Name:      domain.DefaultContext,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.recover(context.Background()); err != nil {
		return nil, fmt.Errorf("recovering knowledge service state: %w", err)
	}
	return s, nil
}

// recover rebuilds the document registry from every collection the
// vector store already has on disk.
func (s *Service) recover(ctx context.Context) error {
	all, err := s.store.GetAll(ctx, "")
	if err != nil {
		return err
	}

	byDoc := make(map[string][]vectorstore.Result)
	docContexts := make(map[string]map[string]bool)

	for ctxName, results := range all {
		s.ensureContextRecord(ctxName)
		for _, r := range results {
			docID, _ := r.Metadata["document_id"].(string)
			if docID == "" {
				continue
			}
			byDoc[docID] = append(byDoc[docID], r)
			if docContexts[docID] == nil {
				docContexts[docID] = make(map[string]bool)
			}
			docContexts[docID][ctxName] = true
		}
	}

	for docID, records := range byDoc {
		first := records[0].Metadata
		doc := &domain.Document{
			ID:               docID,
			ProcessingStatus: domain.StatusCompleted,
			ChunkCount:       len(records),
			Contexts:         sortedKeys(docContexts[docID]),
			DateAdded:        time.Now().UTC(),
			DateModified:     time.Now().UTC(),
			SizeBytes:        1, // legacy placeholder
			Metadata:         domain.Metadata{},
		}
		if v, ok := first["filename"].(string); ok {
			doc.Filename = v
		}
		if v, ok := first["content_hash"].(string); ok {
			doc.ContentHash = v
			s.byHash[v] = docID
		}
		if v, ok := first["format"].(string); ok {
			doc.Format = domain.Format(v)
		}
		if v, ok := first["processing_method"].(string); ok {
			doc.ProcessingMethod = domain.ProcessingMethod(v)
		}
		s.docs[docID] = doc
		for _, ctxName := range doc.Contexts {
			s.ctxs[ctxName].DocumentCount++
		}
	}

	if len(byDoc) > 0 {
		s.log.Info("recovered document registry from vector store",
			zap.Int("documents", len(byDoc)),
			zap.Int("contexts", len(all)),
		)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Service) ensureContextRecord(name string) {
	if _, ok := s.ctxs[name]; ok {
		return
	}
	now := time.Now().UTC()
	s.ctxs[name] = &domain.Context{Name: name, CreatedAt: now, UpdatedAt: now}
}

// AddDocumentRequest is the input to AddDocument.
type AddDocumentRequest struct {
	Path     string
	Metadata domain.Metadata
	Async    bool
	ForceOCR bool
	Contexts []string
}

// AddDocumentResult is what AddDocument returns: either a document id
// (sync path, or dedup short-circuit) or a task id (async path).
type AddDocumentResult struct {
	DocumentID string
	TaskID     string
	Async      bool
	Filename   string
}

// AddDocument validates, deduplicates, registers, and (synchronously
// or asynchronously) processes a file.
func (s *Service) AddDocument(ctx context.Context, req AddDocumentRequest) (AddDocumentResult, error) {
	contexts := req.Contexts
	if len(contexts) == 0 {
		contexts = []string{domain.DefaultContext}
	}

	s.mu.RLock()
	for _, c := range contexts {
		if _, ok := s.ctxs[c]; !ok {
			s.mu.RUnlock()
			return AddDocumentResult{}, fmt.Errorf("%w: %q", domain.ErrContextNotFound, c)
		}
	}
	s.mu.RUnlock()

	info, err := os.Stat(req.Path)
	if err != nil {
		return AddDocumentResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if info.Size() == 0 {
		return AddDocumentResult{}, domain.ErrEmptyFile
	}
	maxBytes := s.cfg.MaxFileSizeBytes()
	if info.Size() > maxBytes {
		return AddDocumentResult{}, fmt.Errorf("%w: %d bytes exceeds max %d", domain.ErrFileTooLarge, info.Size(), maxBytes)
	}
	format, err := extract.FormatForExtension(req.Path)
	if err != nil {
		return AddDocumentResult{}, err
	}

	hash, err := hashFile(req.Path)
	if err != nil {
		return AddDocumentResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	s.mu.Lock()
	if existingID, ok := s.byHash[hash]; ok {
		existingFilename := s.docs[existingID].Filename
		s.mu.Unlock()
		return AddDocumentResult{DocumentID: existingID, Filename: existingFilename}, nil
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:               uuid.NewString(),
		Filename:         filepath.Base(req.Path),
		SourcePath:       req.Path,
		ContentHash:      hash,
		Format:           format,
		SizeBytes:        info.Size(),
		DateAdded:        now,
		DateModified:     now,
		ProcessingStatus: domain.StatusPending,
		Contexts:         contexts,
		Metadata:         req.Metadata,
	}
	s.docs[doc.ID] = doc
	s.byHash[hash] = doc.ID
	s.mu.Unlock()

	if !req.Async {
		s.process(ctx, doc, req.ForceOCR)
		return AddDocumentResult{DocumentID: doc.ID, Filename: doc.Filename}, nil
	}

	task := &domain.ProcessingTask{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Status:     domain.TaskQueued,
		TotalSteps: 4,
		StartedAt:  now,
	}
	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	go s.processAsync(doc, task, req.ForceOCR)

	return AddDocumentResult{TaskID: task.ID, Async: true, Filename: doc.Filename}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashBlockSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Document returns the registered document, if any.
func (s *Service) Document(id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return domain.Document{}, false
	}
	return *d, true
}

// ListDocuments returns up to limit documents, optionally filtered by
// context membership.
func (s *Service) ListDocuments(ctxFilter string, limit int) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.Document, 0, limit)
	for _, id := range ids {
		d := s.docs[id]
		if ctxFilter != "" && !contains(d.Contexts, ctxFilter) {
			continue
		}
		out = append(out, *d)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// SearchRequest is the input to Search.
type SearchRequest struct {
	Query        string
	TopK         int
	MinRelevance float64
	Context      string
}

// Search embeds the query and delegates to the vector store, either a
// single context or the cross-context merge.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]domain.SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}

	vec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}

	var raw []vectorstore.Result
	if req.Context != "" {
		raw, err = s.store.Search(ctx, req.Context, vec, req.TopK)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreFailed, err)
		}
	} else {
		raw = s.store.SearchAll(ctx, vec, req.TopK)
	}

	out := make([]domain.SearchResult, 0, len(raw))
	for _, r := range raw {
		relevance := 1 - r.Distance
		if relevance < req.MinRelevance {
			continue
		}
		out = append(out, domain.SearchResult{
			ChunkID:   r.ID,
			ChunkText: r.Text,
			Relevance: relevance,
			Metadata:  r.Metadata,
		})
	}
	return out, nil
}

// RemoveDocument deletes a document's vectors from every context it
// belongs to and drops it from the registry. Idempotent: returns
// (0, false) for an unknown id.
func (s *Service) RemoveDocument(ctx context.Context, id string) (int, bool, error) {
	s.mu.Lock()
	doc, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return 0, false, nil
	}
	contexts := append([]string(nil), doc.Contexts...)
	chunkCount := doc.ChunkCount
	delete(s.docs, id)
	delete(s.byHash, doc.ContentHash)
	for _, c := range contexts {
		if cr, ok := s.ctxs[c]; ok && cr.DocumentCount > 0 {
			cr.DocumentCount--
		}
	}
	s.mu.Unlock()

	for _, c := range contexts {
		if err := s.store.Delete(ctx, c, id); err != nil {
			return 0, true, fmt.Errorf("%w: %v", domain.ErrVectorStoreFailed, err)
		}
	}
	return chunkCount, true, nil
}

// Clear resets the vector store and both registries, returning the
// document count that existed beforehand.
func (s *Service) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	prior := len(s.docs)
	s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrVectorStoreFailed, err)
	}

	s.mu.Lock()
	s.docs = make(map[string]*domain.Document)
	s.byHash = make(map[string]string)
	s.tasks = make(map[string]*domain.ProcessingTask)
	for _, cr := range s.ctxs {
		cr.DocumentCount = 0
	}
	s.mu.Unlock()

	return prior, nil
}

// Status is the aggregate statistics snapshot for knowledge-status.
type Status struct {
	DocumentCount            int            `json:"document_count"`
	ContextCount             int            `json:"context_count"`
	ByStatus                 map[string]int `json:"by_status"`
	ByFormat                 map[string]int `json:"by_format"`
	TotalChunks              int            `json:"total_chunks"`
	TotalSizeMB              float64        `json:"total_size_mb"`
	AverageChunksPerDocument float64        `json:"average_chunks_per_document"`
}

// Status aggregates registry statistics.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[string]int)
	byFormat := make(map[string]int)
	totalChunks := 0
	var totalBytes int64
	for _, d := range s.docs {
		byStatus[string(d.ProcessingStatus)]++
		byFormat[string(d.Format)]++
		totalChunks += d.ChunkCount
		totalBytes += d.SizeBytes
	}

	avgChunks := 0.0
	if len(s.docs) > 0 {
		avgChunks = float64(totalChunks) / float64(len(s.docs))
	}

	return Status{
		DocumentCount:            len(s.docs),
		ContextCount:             len(s.ctxs),
		ByStatus:                 byStatus,
		ByFormat:                 byFormat,
		TotalChunks:              totalChunks,
		TotalSizeMB:              float64(totalBytes) / (1024 * 1024),
		AverageChunksPerDocument: avgChunks,
	}
}
