package sources

import (
	"context"

	"courserag/internal/domain"
	"courserag/internal/sources/filecache"
)

// DescriptorStore serves course descriptors from a file cache of
// already-scraped records keyed "descr_SUBJECT_CATALOG". The scraper that
// fills the cache lives outside this system.
type DescriptorStore struct {
	cache *filecache.Store
}

func NewDescriptorStore(cache *filecache.Store) *DescriptorStore {
	return &DescriptorStore{cache: cache}
}

func (s *DescriptorStore) FetchDescriptor(_ context.Context, subject, catalogNumber string) (*domain.CourseDescriptor, error) {
	key := "descr_" + subject + "_" + catalogNumber
	if !s.cache.Has(key) {
		return nil, nil
	}
	var desc domain.CourseDescriptor
	if err := s.cache.Load(key, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// ReviewStore serves instructor review aggregates from a file cache keyed
// "reviews_SUBJECT_CATALOG".
type ReviewStore struct {
	cache *filecache.Store
}

func NewReviewStore(cache *filecache.Store) *ReviewStore {
	return &ReviewStore{cache: cache}
}

func (s *ReviewStore) FetchReviews(_ context.Context, subject, catalogNumber string) ([]domain.ReviewAggregate, error) {
	key := "reviews_" + subject + "_" + catalogNumber
	if !s.cache.Has(key) {
		return nil, nil
	}
	var reviews []domain.ReviewAggregate
	if err := s.cache.Load(key, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
