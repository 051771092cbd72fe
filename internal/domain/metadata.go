package domain

import "fmt"

// Metadata is the fixed per-document metadata schema. Values are primitive
// scalars only; the index's filter predicates operate on flat key/value
// equality. Unknown keys are rejected on decode rather than passed through.
type Metadata struct {
	Subject          string
	CatalogNumber    string
	SectionNumber    string
	Term             string
	Title            string
	CourseCode       string
	ClassNumber      string
	Instructor       string
	Days             string
	StartTime        string
	EndTime          string
	Location         string
	Capacity         int
	Enrolled         int
	Clusters         string
	HasDescription   bool
	HasPrerequisites bool
	HasReviews       bool
	ReviewCount      int
}

// ToMap flattens the metadata into the key/value form stored alongside the
// vector.
func (m Metadata) ToMap() map[string]any {
	return map[string]any{
		"subject":           m.Subject,
		"catalog_number":    m.CatalogNumber,
		"section_number":    m.SectionNumber,
		"term":              m.Term,
		"title":             m.Title,
		"course_code":       m.CourseCode,
		"class_number":      m.ClassNumber,
		"instructor":        m.Instructor,
		"days":              m.Days,
		"start_time":        m.StartTime,
		"end_time":          m.EndTime,
		"location":          m.Location,
		"capacity":          m.Capacity,
		"enrolled":          m.Enrolled,
		"clusters":          m.Clusters,
		"has_description":   m.HasDescription,
		"has_prerequisites": m.HasPrerequisites,
		"has_reviews":       m.HasReviews,
		"review_count":      m.ReviewCount,
	}
}

// MetadataFromMap rebuilds a Metadata from stored key/value pairs. Keys
// outside the schema are an error.
func MetadataFromMap(in map[string]any) (Metadata, error) {
	var m Metadata
	for k, v := range in {
		switch k {
		case "subject":
			m.Subject = asString(v)
		case "catalog_number":
			m.CatalogNumber = asString(v)
		case "section_number":
			m.SectionNumber = asString(v)
		case "term":
			m.Term = asString(v)
		case "title":
			m.Title = asString(v)
		case "course_code":
			m.CourseCode = asString(v)
		case "class_number":
			m.ClassNumber = asString(v)
		case "instructor":
			m.Instructor = asString(v)
		case "days":
			m.Days = asString(v)
		case "start_time":
			m.StartTime = asString(v)
		case "end_time":
			m.EndTime = asString(v)
		case "location":
			m.Location = asString(v)
		case "capacity":
			m.Capacity = asInt(v)
		case "enrolled":
			m.Enrolled = asInt(v)
		case "clusters":
			m.Clusters = asString(v)
		case "has_description":
			m.HasDescription = asBool(v)
		case "has_prerequisites":
			m.HasPrerequisites = asBool(v)
		case "has_reviews":
			m.HasReviews = asBool(v)
		case "review_count":
			m.ReviewCount = asInt(v)
		default:
			return Metadata{}, fmt.Errorf("unknown metadata key %q", k)
		}
	}
	return m, nil
}

// Matches reports whether every filter predicate holds for this metadata.
// Predicates are exact string matches combined with AND.
func (m Metadata) Matches(filter map[string]string) bool {
	if len(filter) == 0 {
		return true
	}
	flat := m.ToMap()
	for k, want := range filter {
		v, ok := flat[k]
		if !ok {
			return false
		}
		if fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64: // JSON numbers decode as float64
		return int(t)
	default:
		return 0
	}
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
