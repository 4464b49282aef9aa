package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
	"github.com/maxzrff/KnowledgeMCP/internal/knowledge"
)

// Dispatcher routes tools/call invocations to the Knowledge Service:
// a tool-name -> typed handler registry with a shared error envelope.
type Dispatcher struct {
	svc      *knowledge.Service
	handlers map[string]func(ctx context.Context, args json.RawMessage) (interface{}, error)
}

// NewDispatcher builds a Dispatcher bound to svc.
func NewDispatcher(svc *knowledge.Service) *Dispatcher {
	d := &Dispatcher{svc: svc}
	d.handlers = map[string]func(context.Context, json.RawMessage) (interface{}, error){
		"knowledge-add":            d.handleAdd,
		"knowledge-search":         d.handleSearch,
		"knowledge-show":           d.handleShow,
		"knowledge-remove":         d.handleRemove,
		"knowledge-clear":          d.handleClear,
		"knowledge-status":         d.handleStatus,
		"knowledge-task-status":    d.handleTaskStatus,
		"knowledge-context-create": d.handleContextCreate,
		"knowledge-context-list":   d.handleContextList,
		"knowledge-context-show":   d.handleContextShow,
		"knowledge-context-delete": d.handleContextDelete,
	}
	return d
}

// Tools returns the fixed tool registry for tools/list.
func (d *Dispatcher) Tools() []ToolDef {
	return toolRegistry
}

// Call dispatches name with the given arguments, catching any handler
// error into the {success:false, error, message} envelope. An unknown
// tool name is reported via ok=false so the caller can map it to
// JSON-RPC -32601.
func (d *Dispatcher) Call(ctx context.Context, name string, args json.RawMessage) (result interface{}, ok bool) {
	h, known := d.handlers[name]
	if !known {
		return nil, false
	}
	payload, err := h(ctx, args)
	if err != nil {
		return errorEnvelope(err), true
	}
	return payload, true
}

func errorEnvelope(err error) map[string]interface{} {
	return map[string]interface{}{
		"success": false,
		"error":   errorCode(err),
		"message": err.Error(),
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrContextNotFound), errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrTaskNotFound), errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConfirmationNeeded):
		return "confirmation_required"
	default:
		return "processing_error"
	}
}

type addArgs struct {
	FilePath string                 `json:"file_path"`
	Metadata map[string]interface{} `json:"metadata"`
	Async    *bool                  `json:"async"`
	ForceOCR bool                   `json:"force_ocr"`
	Contexts string                 `json:"contexts"`
}

func (d *Dispatcher) handleAdd(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a addArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if a.FilePath == "" {
		return nil, fmt.Errorf("%w: file_path is required", domain.ErrInvalidInput)
	}

	async := true
	if a.Async != nil {
		async = *a.Async
	}

	var contexts []string
	if a.Contexts != "" {
		for _, c := range strings.Split(a.Contexts, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				contexts = append(contexts, c)
			}
		}
	}

	res, err := d.svc.AddDocument(ctx, knowledge.AddDocumentRequest{
		Path:     a.FilePath,
		Metadata: domain.Metadata(a.Metadata),
		Async:    async,
		ForceOCR: a.ForceOCR,
		Contexts: contexts,
	})
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{"success": true, "filename": res.Filename}
	if res.Async {
		out["task_id"] = res.TaskID
		out["message"] = "Document queued for processing"
	} else {
		out["document_id"] = res.DocumentID
		out["message"] = "Document processed"
		if doc, ok := d.svc.Document(res.DocumentID); ok {
			out["chunks_created"] = doc.ChunkCount
			out["processing_method"] = doc.ProcessingMethod
		}
	}
	return out, nil
}

type searchArgs struct {
	Query        string  `json:"query"`
	TopK         int     `json:"top_k"`
	MinRelevance float64 `json:"min_relevance"`
	Context      string  `json:"context"`
}

func (d *Dispatcher) handleSearch(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a searchArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if a.TopK <= 0 {
		a.TopK = 10
	}
	if a.TopK > 50 {
		a.TopK = 50
	}

	results, err := d.svc.Search(ctx, knowledge.SearchRequest{
		Query:        a.Query,
		TopK:         a.TopK,
		MinRelevance: a.MinRelevance,
		Context:      a.Context,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"success":       true,
		"query":         a.Query,
		"total_results": len(results),
		"results":       results,
	}, nil
}

type showArgs struct {
	Limit   int    `json:"limit"`
	Context string `json:"context"`
}

func (d *Dispatcher) handleShow(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a showArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if a.Limit <= 0 {
		a.Limit = 100
	}
	docs := d.svc.ListDocuments(a.Context, a.Limit)
	return map[string]interface{}{
		"success":     true,
		"total_count": d.svc.Status().DocumentCount,
		"documents":   docs,
	}, nil
}

type removeArgs struct {
	DocumentID string `json:"document_id"`
	Confirm    bool   `json:"confirm"`
}

func (d *Dispatcher) handleRemove(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a removeArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !a.Confirm {
		return nil, domain.ErrConfirmationNeeded
	}
	chunks, found, err := d.svc.RemoveDocument(ctx, a.DocumentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrDocumentNotFound
	}
	return map[string]interface{}{
		"success":        true,
		"message":        "Document removed",
		"chunks_removed": chunks,
	}, nil
}

type confirmArgs struct {
	Confirm bool `json:"confirm"`
}

func (d *Dispatcher) handleClear(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a confirmArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !a.Confirm {
		return nil, domain.ErrConfirmationNeeded
	}
	prior, err := d.svc.Clear(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"success":           true,
		"message":           "Knowledge base cleared",
		"documents_removed": prior,
	}, nil
}

func (d *Dispatcher) handleStatus(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	status := d.svc.Status()
	return map[string]interface{}{"success": true, "status": status}, nil
}

type taskStatusArgs struct {
	TaskID string `json:"task_id"`
}

func (d *Dispatcher) handleTaskStatus(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a taskStatusArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	task, ok := d.svc.Task(a.TaskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return map[string]interface{}{"success": true, "task": task}, nil
}

type contextCreateArgs struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (d *Dispatcher) handleContextCreate(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a contextCreateArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	c, err := d.svc.CreateContext(a.Name, a.Description)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"success": true, "context": c}, nil
}

func (d *Dispatcher) handleContextList(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	return map[string]interface{}{"success": true, "contexts": d.svc.ListContexts()}, nil
}

type contextNameArgs struct {
	Name string `json:"name"`
}

func (d *Dispatcher) handleContextShow(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a contextNameArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	c, ok := d.svc.GetContext(a.Name)
	if !ok {
		return nil, domain.ErrContextNotFound
	}
	return map[string]interface{}{"success": true, "context": c}, nil
}

type contextDeleteArgs struct {
	Name    string `json:"name"`
	Confirm bool   `json:"confirm"`
}

func (d *Dispatcher) handleContextDelete(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var a contextDeleteArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !a.Confirm {
		return nil, domain.ErrConfirmationNeeded
	}
	if err := d.svc.DeleteContext(ctx, a.Name); err != nil {
		return nil, err
	}
	return map[string]interface{}{"success": true}, nil
}
