package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	turns, err := s.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	require.NoError(t, s.Append(ctx, "s1",
		Turn{Role: RoleUser, Text: "what should I take?"},
		Turn{Role: RoleModel, Text: "Consider CS 4774."},
	))
	require.NoError(t, s.Append(ctx, "s2", Turn{Role: RoleUser, Text: "other session"}))

	turns, err = s.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "Consider CS 4774.", turns[1].Text)
}

func TestMemoryStoreHistoryIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", Turn{Role: RoleUser, Text: "a"}))

	turns, err := s.History(ctx, "s1")
	require.NoError(t, err)
	turns[0].Text = "mutated"

	fresh, err := s.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", fresh[0].Text)
}

func TestMemoryStoreSchedule(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AddSection(ctx, "s1", "CS_4774_001_1262"))
	require.NoError(t, s.AddSection(ctx, "s1", "CS_4774_001_1262")) // no duplicate
	require.NoError(t, s.AddSection(ctx, "s1", "DS_3001_001_1262"))

	ids, err := s.Schedule(ctx, "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CS_4774_001_1262", "DS_3001_001_1262"}, ids)

	require.NoError(t, s.RemoveSection(ctx, "s1", "DS_3001_001_1262"))
	ids, err = s.Schedule(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS_4774_001_1262"}, ids)
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", Turn{Role: RoleUser, Text: "a"}))
	require.NoError(t, s.AddSection(ctx, "s1", "CS_4774_001_1262"))

	require.NoError(t, s.Clear(ctx, "s1"))

	turns, err := s.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
	ids, err := s.Schedule(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
