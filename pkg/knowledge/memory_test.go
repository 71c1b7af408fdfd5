package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func seededRetriever() *InMemoryRetriever {
	r := NewInMemoryRetriever()
	r.Add(
		NewDocument("1", "Deployments to production require an approval token", nil),
		NewDocument("2", "The weather service caches forecasts for ten minutes", nil),
		NewDocument("3", "Approval tokens expire after one hour in production", nil),
	)
	return r
}

func TestRetrieveRanksByOverlap(t *testing.T) {
	r := seededRetriever()

	out, err := r.Retrieve(context.Background(), "production approval token", 0)
	assert.NoError(t, err)
	assert.Len(t, out, 2)
	// Both token documents match; the weather document shares no terms.
	assert.NotContains(t, out, "The weather service caches forecasts for ten minutes")
}

func TestRetrieveHonorsLimit(t *testing.T) {
	r := seededRetriever()

	out, err := r.Retrieve(context.Background(), "production approval token", 1)
	assert.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestRetrieveNoMatches(t *testing.T) {
	r := seededRetriever()

	out, err := r.Retrieve(context.Background(), "unrelated query entirely", 5)
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestRetrieveIgnoresShortAndPunctuatedTokens(t *testing.T) {
	r := NewInMemoryRetriever()
	r.Add(NewDocument("1", "retry budgets are bounded", nil))

	out, err := r.Retrieve(context.Background(), "what is a retry? (budgets!)", 5)
	assert.NoError(t, err)
	assert.Len(t, out, 1)
}
