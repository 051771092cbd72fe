package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"courserag/internal/domain"
	"courserag/internal/logger"
	"courserag/internal/retriever"
	"courserag/internal/session"
)

const systemPrompt = `You are a friendly and knowledgeable academic advisor.
Use the course information below to answer the student's question. Ground
every recommendation in the listed courses; if the information needed is not
in the context, say so instead of guessing. Mention course codes (e.g. CS
4774) when you reference a course, and keep answers concise and practical.`

// maxHistoryTurns bounds how much conversation is replayed into the prompt.
const maxHistoryTurns = 6

// Answer is one advising reply together with the course documents that
// grounded it.
type Answer struct {
	Text    string
	Sources []domain.SearchResult
}

// Service answers advising questions by retrieving relevant course documents
// and prompting a generator with them plus recent conversation history.
type Service struct {
	retriever *retriever.Retriever
	generator domain.Generator
	sessions  session.Store
	topK      int
	log       *logger.Logger
}

func New(r *retriever.Retriever, g domain.Generator, sessions session.Store, topK int, log *logger.Logger) *Service {
	if topK <= 0 {
		topK = 10
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		retriever: r,
		generator: g,
		sessions:  sessions,
		topK:      topK,
		log:       log.With("component", "chat"),
	}
}

// Ask answers one question within a session. The question and answer are
// appended to the session history.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}

	results, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	s.log.Debug("retrieved context", "session", sessionID, "results", len(results))

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	schedule, err := s.sessions.Schedule(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	prompt := buildPrompt(question, results, history, schedule)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	err = s.sessions.Append(ctx, sessionID,
		session.Turn{Role: session.RoleUser, Text: question},
		session.Turn{Role: session.RoleModel, Text: text},
	)
	if err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}

	return &Answer{Text: text, Sources: results}, nil
}

// AddSection pins a section to the session's working schedule.
func (s *Service) AddSection(ctx context.Context, sessionID, sectionID string) error {
	return s.sessions.AddSection(ctx, sessionID, sectionID)
}

// RemoveSection drops a section from the session's working schedule.
func (s *Service) RemoveSection(ctx context.Context, sessionID, sectionID string) error {
	return s.sessions.RemoveSection(ctx, sessionID, sectionID)
}

// Reset clears the session's history and schedule.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

func buildPrompt(question string, results []domain.SearchResult, history []session.Turn, schedule []string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	b.WriteString("COURSE INFORMATION:\n")
	if len(results) == 0 {
		b.WriteString("(no matching courses found)\n")
	}
	for _, r := range results {
		b.WriteString("---\n")
		b.WriteString(r.Text)
		if !strings.HasSuffix(r.Text, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("---\n\n")

	if len(schedule) > 0 {
		sorted := make([]string, len(schedule))
		copy(sorted, schedule)
		sort.Strings(sorted)
		b.WriteString("STUDENT'S CURRENT SCHEDULE:\n")
		for _, id := range sorted {
			b.WriteString("- " + id + "\n")
		}
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString("CONVERSATION SO FAR:\n")
		for _, t := range history {
			label := "Student"
			if t.Role == session.RoleModel {
				label = "Advisor"
			}
			fmt.Fprintf(&b, "%s: %s\n", label, t.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Student: %s\nAdvisor:", question)
	return b.String()
}
