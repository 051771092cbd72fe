package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"courserag/internal/domain"
)

// Store is an in-memory vector store using brute-force cosine similarity.
// It is keyed by document id with last-write-wins upsert semantics. It does
// not survive restarts; the Qdrant store is the persistent backend.
type Store struct {
	mu        sync.RWMutex
	dimension int
	docs      map[string]domain.IndexedDocument
}

func NewStore() *Store {
	return &Store{docs: make(map[string]domain.IndexedDocument)}
}

func (s *Store) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	if s.docs == nil {
		s.docs = make(map[string]domain.IndexedDocument)
	}
	return nil
}

// Upsert writes or overwrites documents by id. Within a batch a repeated id
// keeps only the last occurrence. The batch is validated up front so it
// applies all-or-nothing.
func (s *Store) Upsert(_ context.Context, docs []domain.IndexedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if d.ID == "" {
			return errors.New("document id is required")
		}
		if len(d.Vector) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return nil
}

func (s *Store) Query(_ context.Context, vector []float64, k int, filter map[string]string) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		k = 5
	}
	results := make([]domain.SearchResult, 0, len(s.docs))
	for _, d := range s.docs {
		if !d.Metadata.Matches(filter) {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:       d.ID,
			Text:     d.Text,
			Metadata: d.Metadata,
			Score:    cosine(d.Vector, vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].ID < results[j].ID
		}
		return results[i].Score > results[j].Score
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// FetchCourse returns every stored section of the course, ordered by section
// number, ignoring embedding similarity.
func (s *Store) FetchCourse(_ context.Context, subject, catalogNumber string) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []domain.SearchResult
	for _, d := range s.docs {
		if d.Metadata.Subject != subject || d.Metadata.CatalogNumber != catalogNumber {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:       d.ID,
			Text:     d.Text,
			Metadata: d.Metadata,
			Score:    1,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Metadata.SectionNumber, results[j].Metadata.SectionNumber
		if a == b {
			return results[i].ID < results[j].ID
		}
		return domain.SectionNumberLess(a, b)
	})
	return results, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]domain.IndexedDocument)
	return nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
