package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courserag/internal/domain"
	"courserag/internal/retriever"
	"courserag/internal/session"
	"courserag/internal/vectorstore/memory"
)

type fixedEmbedder struct{}

func (fixedEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

func (fixedEmbedder) EmbedQuery(_ context.Context, _ string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func (fixedEmbedder) Dimension() int { return 2 }

type promptCapturingGenerator struct {
	prompts []string
	reply   string
}

func (g *promptCapturingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, nil
}

func newTestService(t *testing.T, gen *promptCapturingGenerator) (*Service, session.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Init(ctx, 2))
	require.NoError(t, store.Upsert(ctx, []domain.IndexedDocument{{
		ID:     "CS_4774_001_1262",
		Text:   "Subject: CS 4774\nTitle: Machine Learning",
		Vector: []float64{1, 0},
		Metadata: domain.Metadata{
			Subject: "CS", CatalogNumber: "4774", SectionNumber: "001", CourseCode: "CS 4774",
		},
	}}))

	sessions := session.NewMemoryStore()
	svc := New(retriever.New(store, fixedEmbedder{}), gen, sessions, 5, nil)
	return svc, sessions
}

func TestAskGroundsPromptInRetrievedCourses(t *testing.T) {
	gen := &promptCapturingGenerator{reply: "Take CS 4774."}
	svc, _ := newTestService(t, gen)

	answer, err := svc.Ask(context.Background(), "s1", "good machine learning classes?")
	require.NoError(t, err)
	assert.Equal(t, "Take CS 4774.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "CS_4774_001_1262", answer.Sources[0].ID)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Title: Machine Learning")
	assert.Contains(t, prompt, "Student: good machine learning classes?")
}

func TestAskAppendsHistory(t *testing.T) {
	gen := &promptCapturingGenerator{reply: "Take CS 4774."}
	svc, sessions := newTestService(t, gen)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "s1", "good machine learning classes?")
	require.NoError(t, err)

	turns, err := sessions.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, session.RoleUser, turns[0].Role)
	assert.Equal(t, session.RoleModel, turns[1].Role)
	assert.Equal(t, "Take CS 4774.", turns[1].Text)
}

func TestAskReplaysRecentHistory(t *testing.T) {
	gen := &promptCapturingGenerator{reply: "ok"}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "s1", "good machine learning classes?")
	require.NoError(t, err)
	_, err = svc.Ask(ctx, "s1", "how hard is it?")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "CONVERSATION SO FAR:")
	assert.Contains(t, gen.prompts[1], "Student: good machine learning classes?")
}

func TestAskIncludesPinnedSchedule(t *testing.T) {
	gen := &promptCapturingGenerator{reply: "ok"}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	require.NoError(t, svc.AddSection(ctx, "s1", "CS_4774_001_1262"))
	_, err := svc.Ask(ctx, "s1", "does this fit my schedule?")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "STUDENT'S CURRENT SCHEDULE:")
	assert.Contains(t, gen.prompts[0], "- CS_4774_001_1262")

	require.NoError(t, svc.RemoveSection(ctx, "s1", "CS_4774_001_1262"))
	require.NoError(t, svc.Reset(ctx, "s1"))
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	gen := &promptCapturingGenerator{}
	svc, _ := newTestService(t, gen)

	_, err := svc.Ask(context.Background(), "s1", "   ")
	require.Error(t, err)
	assert.Empty(t, gen.prompts)
}
