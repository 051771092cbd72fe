package docbuilder

import (
	"math"
	"regexp"
	"strings"

	"courserag/internal/domain"
)

var nameTokenRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// MatchInstructor associates a section's instructor with a review aggregate,
// best-effort. It tries a case-insensitive exact match, then a last-name
// match, then token-set Ochiai similarity against the threshold. No match
// returns nil; absence of review data is a normal branch, not an error.
func MatchInstructor(name string, candidates []domain.ReviewAggregate, threshold float64) *domain.ReviewAggregate {
	name = strings.TrimSpace(name)
	if name == "" || len(candidates) == 0 {
		return nil
	}
	lower := strings.ToLower(name)
	last := lastName(lower)

	for i := range candidates {
		if strings.ToLower(strings.TrimSpace(candidates[i].InstructorName)) == lower {
			return &candidates[i]
		}
	}
	for i := range candidates {
		if last != "" && lastName(strings.ToLower(candidates[i].InstructorName)) == last {
			return &candidates[i]
		}
	}

	qset := toTokenSet(lower)
	bestScore := 0.0
	bestIdx := -1
	for i := range candidates {
		score := ochiai(qset, toTokenSet(strings.ToLower(candidates[i].InstructorName)))
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx >= 0 && bestScore >= threshold {
		return &candidates[bestIdx]
	}
	return nil
}

func lastName(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return ""
	}
	return fields[len(fields)-1]
}

func toTokenSet(s string) map[string]struct{} {
	tokens := nameTokenRe.FindAllString(s, -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai is |A∩B| / sqrt(|A||B|) over the two token sets.
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / (math.Sqrt(float64(len(a))) * math.Sqrt(float64(len(b))))
}
