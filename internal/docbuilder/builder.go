package docbuilder

import (
	"fmt"
	"strings"

	"courserag/internal/domain"
)

// Weights control how many times each field repeats in the embedded text.
// Repetition biases the embedding toward the repeated field; it is a
// corpus-level heuristic, not a learned weight.
type Weights struct {
	Description   int
	Title         int
	Prerequisites int
	Subject       int
	Cluster       int
}

// DefaultWeights returns the default field repeat counts.
func DefaultWeights() Weights {
	return Weights{Description: 3, Title: 2, Prerequisites: 2, Subject: 1, Cluster: 2}
}

// Cluster is a curated grouping of related courses.
type Cluster struct {
	Name        string
	Description string
	Courses     []string
}

// Table is the static cluster-assignment lookup, built once per run and
// immutable afterwards. A course may belong to multiple clusters.
type Table struct {
	byCourse map[string][]Cluster
}

// NewTable builds the course-code lookup from a cluster list.
func NewTable(clusters []Cluster) *Table {
	t := &Table{byCourse: make(map[string][]Cluster)}
	for _, c := range clusters {
		for _, code := range c.Courses {
			key := normalizeCourseCode(code)
			if key == "" {
				continue
			}
			t.byCourse[key] = append(t.byCourse[key], c)
		}
	}
	return t
}

// Lookup returns the clusters a course belongs to, in configuration order.
func (t *Table) Lookup(courseCode string) []Cluster {
	if t == nil {
		return nil
	}
	return t.byCourse[normalizeCourseCode(courseCode)]
}

func normalizeCourseCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), " "))
}

// Builder produces one weighted text document plus a metadata record per
// section. Build is a pure function of its inputs and the configuration.
type Builder struct {
	weights   Weights
	clusters  *Table
	threshold float64
}

// New creates a Builder. matchThreshold is the token-set similarity above
// which an instructor name is considered a review match.
func New(weights Weights, clusters *Table, matchThreshold float64) *Builder {
	if clusters == nil {
		clusters = NewTable(nil)
	}
	return &Builder{weights: weights, clusters: clusters, threshold: matchThreshold}
}

// Build assembles the weighted document and metadata for one section.
// Descriptor and reviews are optional; missing enrichment narrows the
// document, it never fails the build. Missing identity fields do.
func (b *Builder) Build(sec domain.Section, desc *domain.CourseDescriptor, reviews []domain.ReviewAggregate) (domain.IndexedDocument, error) {
	if err := validateIdentity(sec); err != nil {
		return domain.IndexedDocument{}, err
	}

	courseCode := sec.CourseCode()
	clusters := b.clusters.Lookup(courseCode)
	review := MatchInstructor(sec.Instructor, reviews, b.threshold)

	var parts []string
	parts = repeatLine(parts, "Subject: "+courseCode, b.weights.Subject)
	if sec.Title != "" {
		parts = repeatLine(parts, "Title: "+sec.Title, b.weights.Title)
	}
	if desc != nil && desc.Description != "" {
		parts = repeatLine(parts, "Description: "+desc.Description, b.weights.Description)
	}
	if desc != nil && desc.Prerequisites != "" {
		parts = repeatLine(parts, "Prerequisites: "+desc.Prerequisites, b.weights.Prerequisites)
	}
	for i := 0; i < b.weights.Cluster; i++ {
		for _, c := range clusters {
			parts = append(parts, "Cluster: "+c.Name+" - "+c.Description)
		}
	}

	text := strings.Join(parts, "\n")
	if review != nil {
		text += "\n\n" + renderReview(*review)
	}

	meta := domain.Metadata{
		Subject:          sec.Subject,
		CatalogNumber:    sec.CatalogNumber,
		SectionNumber:    sec.SectionNumber,
		Term:             sec.Term,
		Title:            sec.Title,
		CourseCode:       courseCode,
		ClassNumber:      sec.ClassNumber,
		Instructor:       sec.Instructor,
		Days:             sec.Days,
		StartTime:        FormatClockTime(sec.StartTime),
		EndTime:          FormatClockTime(sec.EndTime),
		Location:         sec.Location,
		Capacity:         sec.Capacity,
		Enrolled:         sec.Enrolled,
		Clusters:         joinClusterNames(clusters),
		HasDescription:   desc != nil && desc.Description != "",
		HasPrerequisites: desc != nil && desc.Prerequisites != "",
		HasReviews:       review != nil,
	}
	if review != nil {
		meta.ReviewCount = len(review.Snippets)
	}

	return domain.IndexedDocument{ID: sec.ID(), Text: text, Metadata: meta}, nil
}

func validateIdentity(sec domain.Section) error {
	switch {
	case strings.TrimSpace(sec.Subject) == "":
		return &domain.ValidationError{Field: "subject"}
	case strings.TrimSpace(sec.CatalogNumber) == "":
		return &domain.ValidationError{Field: "catalog_number"}
	case strings.TrimSpace(sec.SectionNumber) == "":
		return &domain.ValidationError{Field: "section_number"}
	case strings.TrimSpace(sec.Term) == "":
		return &domain.ValidationError{Field: "term"}
	}
	return nil
}

func repeatLine(parts []string, line string, n int) []string {
	for i := 0; i < n; i++ {
		parts = append(parts, line)
	}
	return parts
}

// renderReview appends review data once, unweighted; it is supplementary
// context, not part of the repeat-weighting scheme.
func renderReview(r domain.ReviewAggregate) string {
	line := "  " + r.InstructorName
	if r.Rating > 0 {
		line += fmt.Sprintf(" | Rating: %.1f/5", r.Rating)
	}
	if r.Difficulty > 0 {
		line += fmt.Sprintf(" | Difficulty: %.1f/5", r.Difficulty)
	}
	if r.Rating == 0 && r.Difficulty == 0 {
		line += " | No ratings available"
	}
	out := []string{"Reviews:", line}
	for _, s := range r.Snippets {
		out = append(out, "  \""+s+"\"")
	}
	return strings.Join(out, "\n")
}

func joinClusterNames(clusters []Cluster) string {
	if len(clusters) == 0 {
		return ""
	}
	names := make([]string, 0, len(clusters))
	for _, c := range clusters {
		names = append(names, c.Name)
	}
	return strings.Join(names, ",")
}
