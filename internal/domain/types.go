package domain

import (
	"strconv"
	"strings"
)

// Section is one scheduled offering of a course in a given term.
// Subject, catalog number, section number and term form its identity.
type Section struct {
	Subject       string
	CatalogNumber string
	SectionNumber string
	Term          string
	Title         string
	Instructor    string
	Days          string
	StartTime     string // raw source encoding, e.g. "09.00.00.000000"
	EndTime       string
	Location      string
	Capacity      int
	Enrolled      int
	ClassNumber   string
}

// ID returns the composite key used as the vector-index document id.
func (s Section) ID() string {
	return s.Subject + "_" + s.CatalogNumber + "_" + s.SectionNumber + "_" + s.Term
}

// CourseCode returns the course-level identity shared by all sections,
// e.g. "CS 4774".
func (s Section) CourseCode() string {
	return strings.TrimSpace(s.Subject + " " + s.CatalogNumber)
}

// SectionNumberLess orders section numbers numerically when both parse as
// integers ("2" before "10"), falling back to lexicographic order for
// non-numeric values like "001L".
func SectionNumberLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil && ai != bi {
		return ai < bi
	}
	return a < b
}

// CourseDescriptor is course-level enrichment shared by every section of the
// same subject + catalog number.
type CourseDescriptor struct {
	Subject       string
	CatalogNumber string
	Description   string
	Prerequisites string
}

// ReviewAggregate holds aggregated instructor review data. Association with a
// section is best-effort by instructor name.
type ReviewAggregate struct {
	InstructorName string
	Rating         float64
	Difficulty     float64
	Snippets       []string
}

// IndexedDocument is the unit stored in the vector index.
type IndexedDocument struct {
	ID       string
	Text     string
	Vector   []float64
	Metadata Metadata
}

// SearchResult is a retrieved document with its similarity score.
// Higher scores rank first; exact course-number matches carry score 1.
type SearchResult struct {
	ID       string
	Text     string
	Metadata Metadata
	Score    float64
}
