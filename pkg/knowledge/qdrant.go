package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// QdrantClient wraps an endpoint + collection.
type QdrantClient struct {
	Endpoint   string // e.g. http://localhost:6333
	Collection string
	httpClient *http.Client
}

// NewQdrant returns a client with sane defaults.
func NewQdrant(endpoint, collection string) *QdrantClient {
	return &QdrantClient{
		Endpoint:   endpoint,
		Collection: collection,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Put upserts a batch of documents as points.
func (client *QdrantClient) Put(ctx context.Context, docs []Document) error {
	var points []map[string]any

	for _, d := range docs {
		points = append(points, map[string]any{
			"id":      d.ID,
			"payload": d.Metadata,
		})
	}

	body := map[string]any{"points": points}
	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPut,
		fmt.Sprintf("%s/collections/%s/points", client.Endpoint, client.Collection),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: unexpected status %s", resp.Status)
	}

	return nil
}

/*
Retrieve scrolls the collection with a full-text match on the content
payload field and returns the matching snippets.
*/
func (client *QdrantClient) Retrieve(ctx context.Context, query string, limit int) ([]string, error) {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "content", "match": map[string]any{"text": query}},
			},
		},
		"limit":        limit,
		"with_payload": true,
	}

	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/scroll", client.Endpoint, client.Collection),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant: scroll status %s", resp.Status)
	}

	var out struct {
		Result struct {
			Points []struct {
				ID      string         `json:"id"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	snippets := make([]string, 0, len(out.Result.Points))
	for _, p := range out.Result.Points {
		snippets = append(snippets, fmt.Sprintf("%v", p.Payload["content"]))
	}

	return snippets, nil
}

var _ Retriever = (*QdrantClient)(nil)
