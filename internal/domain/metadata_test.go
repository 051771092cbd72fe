package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetadata() Metadata {
	return Metadata{
		Subject:        "CS",
		CatalogNumber:  "4774",
		SectionNumber:  "001",
		Term:           "1262",
		Title:          "Machine Learning",
		CourseCode:     "CS 4774",
		Instructor:     "Rich Nguyen",
		Capacity:       120,
		Enrolled:       118,
		HasDescription: true,
		ReviewCount:    3,
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	m := sampleMetadata()
	got, err := MetadataFromMap(m.ToMap())
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestMetadataFromMapRejectsUnknownKey(t *testing.T) {
	in := sampleMetadata().ToMap()
	in["credits"] = 3
	_, err := MetadataFromMap(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credits")
}

func TestMetadataFromMapCoercesJSONNumbers(t *testing.T) {
	// JSON decoding yields float64 for numeric payload values.
	got, err := MetadataFromMap(map[string]any{
		"capacity":     float64(120),
		"review_count": float64(3),
		"has_reviews":  true,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, got.Capacity)
	assert.Equal(t, 3, got.ReviewCount)
	assert.True(t, got.HasReviews)
}

func TestMetadataMatches(t *testing.T) {
	m := sampleMetadata()
	assert.True(t, m.Matches(nil))
	assert.True(t, m.Matches(map[string]string{"subject": "CS"}))
	assert.True(t, m.Matches(map[string]string{"subject": "CS", "capacity": "120"}))
	assert.False(t, m.Matches(map[string]string{"subject": "DS"}))
	assert.False(t, m.Matches(map[string]string{"subject": "CS", "term": "9999"}))
	assert.False(t, m.Matches(map[string]string{"not_a_key": "x"}))
}

func TestSectionNumberLess(t *testing.T) {
	assert.True(t, SectionNumberLess("2", "10"))
	assert.False(t, SectionNumberLess("10", "2"))
	assert.True(t, SectionNumberLess("001", "002"))
	assert.True(t, SectionNumberLess("001L", "002L"))
	assert.False(t, SectionNumberLess("002L", "001L"))
	assert.False(t, SectionNumberLess("001", "001"))
}

func TestSectionID(t *testing.T) {
	sec := Section{Subject: "CS", CatalogNumber: "4774", SectionNumber: "001", Term: "1262"}
	assert.Equal(t, "CS_4774_001_1262", sec.ID())
	assert.Equal(t, "CS 4774", sec.CourseCode())
}
