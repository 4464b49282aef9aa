package knowledge

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxzrff/KnowledgeMCP/internal/chunker"
	"github.com/maxzrff/KnowledgeMCP/internal/domain"
	"github.com/maxzrff/KnowledgeMCP/internal/extract"
)

// minNonWhitespaceChars is the short-circuit threshold: extraction
// yielding fewer non-whitespace characters than this is completed with
// zero chunks rather than processed further.
const minNonWhitespaceChars = 10

// processAsync runs process under a background goroutine and updates
// the associated task's lifecycle around it.
func (s *Service) processAsync(doc *domain.Document, task *domain.ProcessingTask, forceOCR bool) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	s.mu.Lock()
	task.Status = domain.TaskRunning
	s.mu.Unlock()

	s.process(context.Background(), doc, forceOCR, withTask(task))

	s.mu.Lock()
	defer s.mu.Unlock()
	completedAt := time.Now().UTC()
	task.CompletedAt = &completedAt
	if doc.ProcessingStatus == domain.StatusFailed {
		task.Status = domain.TaskFailed
		task.Error = doc.ErrorMessage
	} else {
		task.Status = domain.TaskCompleted
		task.Progress = 1.0
		task.CompletedSteps = task.TotalSteps
	}
}

type pipelineOption func(*pipelineState)

type pipelineState struct {
	task *domain.ProcessingTask
}

func withTask(t *domain.ProcessingTask) pipelineOption {
	return func(ps *pipelineState) { ps.task = t }
}

func (s *Service) advance(ps *pipelineState, step string, completed int) {
	if ps.task == nil {
		return
	}
	s.mu.Lock()
	ps.task.CurrentStep = step
	ps.task.CompletedSteps = completed
	ps.task.Progress = float64(completed) / float64(ps.task.TotalSteps)
	s.mu.Unlock()
}

// process runs the shared extract -> chunk -> embed -> store pipeline
// for a single document. Both the sync and async
// entry points share this path; failures are absorbed into the
// document record rather than propagated.
func (s *Service) process(ctx context.Context, doc *domain.Document, forceOCR bool, opts ...pipelineOption) {
	ps := &pipelineState{}
	for _, o := range opts {
		o(ps)
	}

	s.mu.Lock()
	doc.ProcessingStatus = domain.StatusProcessing
	s.mu.Unlock()

	s.advance(ps, "extracting", 1)
	res, err := s.extractors.Process(ctx, doc.SourcePath, extract.Options{
		ForceOCR: forceOCR || s.cfg.OCR.ForceOCR,
		Language: s.cfg.OCR.Language,
	})
	if err != nil {
		s.fail(doc, err)
		return
	}
	s.log.Debug("extracted document text",
		zap.String("document_id", doc.ID),
		zap.String("format", string(doc.Format)),
		zap.String("method", string(res.Method)),
		zap.Int("chars", len(res.Text)),
	)

	if nonWhitespaceLen(res.Text) < minNonWhitespaceChars {
		s.mu.Lock()
		doc.ProcessingStatus = domain.StatusCompleted
		doc.ProcessingMethod = res.Method
		doc.ChunkCount = 0
		doc.DateModified = time.Now().UTC()
		s.mu.Unlock()
		s.log.Info("document yielded no usable text, completing with zero chunks",
			zap.String("document_id", doc.ID),
			zap.String("filename", doc.Filename),
		)
		return
	}

	s.advance(ps, "chunking", 2)
	chunks, err := chunker.Chunk(res.Text, chunker.Options{
		Strategy: chunker.Strategy(s.cfg.Chunking.Strategy),
		Size:     s.cfg.Chunking.ChunkSize,
		Overlap:  s.cfg.Chunking.ChunkOverlap,
	})
	if err != nil {
		s.fail(doc, fmt.Errorf("%w: %v", domain.ErrChunkingFailed, err))
		return
	}

	s.advance(ps, "embedding", 3)
	vectors, err := s.embedBatches(ctx, chunks)
	if err != nil {
		s.fail(doc, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err))
		return
	}

	s.advance(ps, "writing vectors", 4)
	for _, ctxName := range doc.Contexts {
		ids := make([]string, len(chunks))
		metas := make([]domain.Metadata, len(chunks))
		for i := range chunks {
			ids[i] = fmt.Sprintf("%s_%s", ctxName, uuid.NewString())
			metas[i] = baseChunkMetadata(doc, ctxName, i, res)
		}
		if err := s.store.Add(ctx, ctxName, ids, vectors, chunks, metas); err != nil {
			s.fail(doc, fmt.Errorf("%w: %v", domain.ErrVectorStoreFailed, err))
			return
		}
		s.mu.Lock()
		if cr, ok := s.ctxs[ctxName]; ok {
			cr.DocumentCount++
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	doc.ProcessingStatus = domain.StatusCompleted
	doc.ProcessingMethod = res.Method
	doc.ChunkCount = len(chunks)
	doc.DateModified = time.Now().UTC()
	s.mu.Unlock()

	s.log.Info("document processed",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.String("method", string(res.Method)),
		zap.Int("chunks", len(chunks)),
		zap.Strings("contexts", doc.Contexts),
	)
}

func (s *Service) embedBatches(ctx context.Context, chunks []string) ([][]float32, error) {
	batchSize := s.cfg.Embedding.BatchSize
	if batchSize < 1 {
		batchSize = 32
	}
	out := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		vecs, err := s.embedder.EmbedBatch(ctx, chunks[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *Service) fail(doc *domain.Document, err error) {
	s.mu.Lock()
	doc.ProcessingStatus = domain.StatusFailed
	doc.ErrorMessage = err.Error()
	doc.DateModified = time.Now().UTC()
	s.mu.Unlock()

	s.log.Warn("document processing failed",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Error(err),
	)
}

func baseChunkMetadata(doc *domain.Document, ctxName string, index int, res extract.Result) domain.Metadata {
	m := domain.Metadata{
		"document_id":       doc.ID,
		"filename":          doc.Filename,
		"chunk_index":       index,
		"context":           ctxName,
		"format":            string(doc.Format),
		"processing_method": string(res.Method),
		"content_hash":      doc.ContentHash,
		"size_bytes":        doc.SizeBytes,
	}
	return m
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
