package mcpserver

// ToolDef describes one MCP tool: its name, a human description, and a
// JSON-Schema input schema.
type ToolDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func schema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

// toolRegistry is the fixed set of tools this server exposes, in
// registration order (tools/list returns them in this order).
var toolRegistry = []ToolDef{
	{
		Name:        "knowledge-add",
		Description: "Ingest a document file into the knowledge base.",
		InputSchema: schema(map[string]interface{}{
			"file_path": prop("string", "absolute path to the file to ingest"),
			"metadata":  map[string]interface{}{"type": "object", "description": "arbitrary metadata to attach"},
			"async":     prop("boolean", "process in the background and return a task id (default true)"),
			"force_ocr": prop("boolean", "force OCR even if baseline text extraction succeeds (default false)"),
			"contexts":  prop("string", "comma-separated list of target contexts (default \"default\")"),
		}, "file_path"),
	},
	{
		Name:        "knowledge-search",
		Description: "Search the knowledge base for passages relevant to a query.",
		InputSchema: schema(map[string]interface{}{
			"query":         prop("string", "natural-language search query"),
			"top_k":         prop("integer", "number of results to return, 1-50 (default 10)"),
			"min_relevance": prop("number", "minimum relevance score 0-1 (default 0)"),
			"context":       prop("string", "restrict search to a single context (default: search all)"),
		}, "query"),
	},
	{
		Name:        "knowledge-show",
		Description: "List ingested documents.",
		InputSchema: schema(map[string]interface{}{
			"limit":   prop("integer", "maximum documents to return (default 100)"),
			"context": prop("string", "restrict listing to a single context"),
		}),
	},
	{
		Name:        "knowledge-remove",
		Description: "Remove a document and its chunks from the knowledge base.",
		InputSchema: schema(map[string]interface{}{
			"document_id": prop("string", "id of the document to remove"),
			"confirm":     prop("boolean", "must be true to perform the removal"),
		}, "document_id", "confirm"),
	},
	{
		Name:        "knowledge-clear",
		Description: "Delete every document from every context; the contexts themselves are kept.",
		InputSchema: schema(map[string]interface{}{
			"confirm": prop("boolean", "must be true to perform the clear"),
		}, "confirm"),
	},
	{
		Name:        "knowledge-status",
		Description: "Report aggregate statistics about the knowledge base.",
		InputSchema: schema(map[string]interface{}{}),
	},
	{
		Name:        "knowledge-task-status",
		Description: "Report the status of an asynchronous ingestion task.",
		InputSchema: schema(map[string]interface{}{
			"task_id": prop("string", "id of the task to inspect"),
		}, "task_id"),
	},
	{
		Name:        "knowledge-context-create",
		Description: "Create a new named context.",
		InputSchema: schema(map[string]interface{}{
			"name":        prop("string", "context name, matching ^[A-Za-z0-9_-]{1,64}$"),
			"description": prop("string", "optional human description"),
		}, "name"),
	},
	{
		Name:        "knowledge-context-list",
		Description: "List every context.",
		InputSchema: schema(map[string]interface{}{}),
	},
	{
		Name:        "knowledge-context-show",
		Description: "Show details of a single context.",
		InputSchema: schema(map[string]interface{}{
			"name": prop("string", "context name"),
		}, "name"),
	},
	{
		Name:        "knowledge-context-delete",
		Description: "Delete a context and its collection.",
		InputSchema: schema(map[string]interface{}{
			"name":    prop("string", "context name"),
			"confirm": prop("boolean", "must be true to perform the deletion"),
		}, "name", "confirm"),
	},
}
