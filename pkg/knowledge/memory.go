package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"
)

/*
InMemoryRetriever is a small token-overlap retriever used in tests and in
deployments without a vector store. Scoring is deliberately naive: the
planner only needs loosely relevant snippets, not a ranking model.
*/
type InMemoryRetriever struct {
	mu   sync.RWMutex
	docs []Document
}

func NewInMemoryRetriever() *InMemoryRetriever {
	return &InMemoryRetriever{}
}

func (r *InMemoryRetriever) Add(docs ...Document) {
	r.mu.Lock()
	r.docs = append(r.docs, docs...)
	r.mu.Unlock()
}

func (r *InMemoryRetriever) Retrieve(ctx context.Context, query string, limit int) ([]string, error) {
	terms := tokenize(query)

	type scored struct {
		content string
		score   int
	}

	r.mu.RLock()
	matches := make([]scored, 0, len(r.docs))
	for _, doc := range r.docs {
		docTerms := tokenize(doc.Content)
		score := 0
		for term := range terms {
			if _, ok := docTerms[term]; ok {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{content: doc.Content, score: score})
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.content
	}
	return out, nil
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,;:!?\"'()")
		if len(tok) > 2 {
			out[tok] = struct{}{}
		}
	}
	return out
}

var _ Retriever = (*InMemoryRetriever)(nil)
