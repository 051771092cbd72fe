package retriever

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"courserag/internal/domain"
)

// courseCodeRe matches an explicit course-number mention such as "CS 4774",
// "cs4774" or "CS-4774".
var courseCodeRe = regexp.MustCompile(`(?i)\b([a-z]{2,4})\s*-?\s*([0-9]{4})\b`)

// Retriever answers free-text queries with hybrid retrieval: exact
// course-number lookup first, nearest-neighbor semantic search for the rest
// of the budget.
type Retriever struct {
	store    domain.VectorStore
	embedder domain.Embedder
}

func New(store domain.VectorStore, embedder domain.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// ParseCourseCode extracts a subject code and catalog number from the query,
// tolerant of case and missing space. The second return is false when the
// query mentions no course number.
func ParseCourseCode(query string) (subject, catalogNumber string, ok bool) {
	m := courseCodeRe.FindStringSubmatch(query)
	if m == nil {
		return "", "", false
	}
	return strings.ToUpper(m[1]), m[2], true
}

// Retrieve returns up to k ranked documents for the query. Exact
// course-number matches come first in ascending section-number order;
// semantic results fill the remaining budget, deduplicated by id. An
// empty or whitespace query returns no documents without touching the
// embedder or the index.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return nil, nil
	}

	var results []domain.SearchResult
	seen := make(map[string]struct{})

	if subject, catalogNumber, ok := ParseCourseCode(query); ok {
		// A nonexistent course yields zero exact matches and the full
		// budget falls through to semantic search.
		exact, err := r.store.FetchCourse(ctx, subject, catalogNumber)
		if err != nil {
			return nil, fmt.Errorf("exact course lookup: %w", err)
		}
		for _, res := range exact {
			if _, dup := seen[res.ID]; dup || len(results) >= k {
				continue
			}
			seen[res.ID] = struct{}{}
			res.Score = 1
			results = append(results, res)
		}
	}

	remaining := k - len(results)
	if remaining <= 0 {
		return results, nil
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	// Over-fetch by the number of exact hits so duplicates don't shrink the
	// semantic share.
	semantic, err := r.store.Query(ctx, vector, k+len(results), nil)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	for _, res := range semantic {
		if len(results) >= k {
			break
		}
		if _, dup := seen[res.ID]; dup {
			continue
		}
		seen[res.ID] = struct{}{}
		results = append(results, res)
	}
	return results, nil
}
