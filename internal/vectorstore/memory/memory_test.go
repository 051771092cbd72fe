package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courserag/internal/domain"
)

func doc(id string, vec []float64, meta domain.Metadata) domain.IndexedDocument {
	return domain.IndexedDocument{ID: id, Text: "text " + id, Vector: vec, Metadata: meta}
}

func newTestStore(t *testing.T, dim int) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Init(context.Background(), dim))
	return s
}

func TestUpsertAndCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)

	err := s.Upsert(ctx, []domain.IndexedDocument{
		doc("a", []float64{1, 0, 0}, domain.Metadata{Subject: "CS"}),
		doc("b", []float64{0, 1, 0}, domain.Metadata{Subject: "DS"}),
	})
	require.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{
		doc("a", []float64{1, 0}, domain.Metadata{Title: "old"}),
	}))
	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{
		doc("a", []float64{0, 1}, domain.Metadata{Title: "new"}),
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := s.Query(ctx, []float64{0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "new", res[0].Metadata.Title)
}

func TestUpsertDuplicateWithinBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{
		doc("a", []float64{1, 0}, domain.Metadata{Title: "first"}),
		doc("a", []float64{1, 0}, domain.Metadata{Title: "second"}),
	}))

	res, err := s.Query(ctx, []float64{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "second", res[0].Metadata.Title)
}

func TestUpsertDimensionMismatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)

	err := s.Upsert(ctx, []domain.IndexedDocument{
		doc("ok", []float64{1, 0, 0}, domain.Metadata{}),
		doc("bad", []float64{1, 0}, domain.Metadata{}),
	})
	require.Error(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQueryRanksByCosine(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{
		doc("near", []float64{1, 0.1}, domain.Metadata{}),
		doc("far", []float64{0, 1}, domain.Metadata{}),
		doc("mid", []float64{1, 1}, domain.Metadata{}),
	}))

	res, err := s.Query(ctx, []float64{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "near", res[0].ID)
	assert.Equal(t, "mid", res[1].ID)
}

func TestQueryFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{
		doc("cs", []float64{1, 0}, domain.Metadata{Subject: "CS"}),
		doc("ds", []float64{1, 0}, domain.Metadata{Subject: "DS"}),
	}))

	res, err := s.Query(ctx, []float64{1, 0}, 10, map[string]string{"subject": "CS"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "cs", res[0].ID)
}

func TestFetchCourseOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	meta := func(section string) domain.Metadata {
		return domain.Metadata{Subject: "CS", CatalogNumber: "4774", SectionNumber: section}
	}
	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{
		doc("CS_4774_002_1262", []float64{1, 0}, meta("002")),
		doc("CS_4774_001_1262", []float64{0, 1}, meta("001")),
		doc("CS_1110_001_1262", []float64{0, 1}, domain.Metadata{Subject: "CS", CatalogNumber: "1110", SectionNumber: "001"}),
	}))

	res, err := s.FetchCourse(ctx, "CS", "4774")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "CS_4774_001_1262", res[0].ID)
	assert.Equal(t, "CS_4774_002_1262", res[1].ID)
	assert.Equal(t, float64(1), res[0].Score)
}

func TestFetchCourseNumericSectionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	meta := func(section string) domain.Metadata {
		return domain.Metadata{Subject: "CS", CatalogNumber: "1110", SectionNumber: section}
	}
	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{
		doc("CS_1110_10_1262", []float64{1, 0}, meta("10")),
		doc("CS_1110_2_1262", []float64{0, 1}, meta("2")),
	}))

	res, err := s.FetchCourse(ctx, "CS", "1110")
	require.NoError(t, err)
	require.Len(t, res, 2)
	// "2" before "10": numeric, not lexicographic, ordering.
	assert.Equal(t, "CS_1110_2_1262", res[0].ID)
	assert.Equal(t, "CS_1110_10_1262", res[1].ID)
}

func TestFetchCourseMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)
	res, err := s.FetchCourse(ctx, "CS", "9999")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{
		doc("a", []float64{1, 0}, domain.Metadata{}),
	}))
	require.NoError(t, s.Clear(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInitRejectsInvalidDimension(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.Init(context.Background(), 0))
}
