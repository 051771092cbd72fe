package sources

import (
	"context"

	"courserag/internal/domain"
)

// CatalogSource supplies per-section catalog records for one subject and
// term. Implementations are expected to be cache-first unless forceRefresh
// is set.
type CatalogSource interface {
	FetchSections(ctx context.Context, term, subject string, forceRefresh bool) ([]domain.Section, error)
}

// DescriptorSource supplies course-level description and prerequisite text.
// A missing descriptor is (nil, nil): enrichment absence is a normal state.
type DescriptorSource interface {
	FetchDescriptor(ctx context.Context, subject, catalogNumber string) (*domain.CourseDescriptor, error)
}

// ReviewSource supplies instructor review aggregates for a course. No data
// is (nil, nil).
type ReviewSource interface {
	FetchReviews(ctx context.Context, subject, catalogNumber string) ([]domain.ReviewAggregate, error)
}
