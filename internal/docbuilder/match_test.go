package docbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courserag/internal/domain"
)

func TestMatchInstructorExact(t *testing.T) {
	candidates := []domain.ReviewAggregate{
		{InstructorName: "Aaron Bloomfield", Rating: 4.5},
		{InstructorName: "Rich Nguyen", Rating: 4.2},
	}
	got := MatchInstructor("rich nguyen", candidates, 0.72)
	require.NotNil(t, got)
	assert.Equal(t, "Rich Nguyen", got.InstructorName)
}

func TestMatchInstructorLastName(t *testing.T) {
	candidates := []domain.ReviewAggregate{
		{InstructorName: "Richard Nguyen", Rating: 4.2},
	}
	// SIS often abbreviates first names; the last name carries the match.
	got := MatchInstructor("R Nguyen", candidates, 0.72)
	require.NotNil(t, got)
	assert.Equal(t, "Richard Nguyen", got.InstructorName)
}

func TestMatchInstructorFuzzy(t *testing.T) {
	candidates := []domain.ReviewAggregate{
		{InstructorName: "Mary Lou Soffa", Rating: 4.8},
	}
	// Shared tokens "mary" and "soffa": 2/sqrt(2*3) ≈ 0.816.
	got := MatchInstructor("Soffa Mary", candidates, 0.72)
	require.NotNil(t, got)
	assert.Equal(t, "Mary Lou Soffa", got.InstructorName)
}

func TestMatchInstructorBelowThreshold(t *testing.T) {
	candidates := []domain.ReviewAggregate{
		{InstructorName: "Aaron Bloomfield", Rating: 4.5},
	}
	assert.Nil(t, MatchInstructor("Rich Nguyen", candidates, 0.72))
}

func TestMatchInstructorEmptyInputs(t *testing.T) {
	assert.Nil(t, MatchInstructor("", []domain.ReviewAggregate{{InstructorName: "X Y"}}, 0.72))
	assert.Nil(t, MatchInstructor("Staff", nil, 0.72))
}

func TestMatchInstructorPicksBestCandidate(t *testing.T) {
	candidates := []domain.ReviewAggregate{
		{InstructorName: "John Andrew Smith"},
		{InstructorName: "John Smith"},
	}
	got := MatchInstructor("Smith", candidates, 0.5)
	require.NotNil(t, got)
	// "smith" alone: 1/sqrt(1*2)≈0.71 vs 1/sqrt(1*3)≈0.58.
	assert.Equal(t, "John Smith", got.InstructorName)
}
