package knowledge

import "context"

/*
Retriever fetches background snippets relevant to a request. The snippets
are handed to the planner verbatim; the engine never interprets them.
*/
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]string, error)
}

// Document is one stored knowledge entry.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewDocument(id, content string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["content"] = content
	return Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}
}
