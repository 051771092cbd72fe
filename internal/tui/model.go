package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"courserag/internal/chat"
)

// ChatPort is the TUI-facing subset of the advising service.
type ChatPort interface {
	Ask(ctx context.Context, sessionID, question string) (*chat.Answer, error)
	AddSection(ctx context.Context, sessionID, sectionID string) error
	RemoveSection(ctx context.Context, sessionID, sectionID string) error
	Reset(ctx context.Context, sessionID string) error
}

type entry struct {
	role string
	text string
}

// Model is the Bubble Tea model for the advising chat.
type Model struct {
	service   ChatPort
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	entries   []entry
	status    string
	ready     bool
	busy      bool
}

// New creates a new chat model with a fresh session. indexed is the current
// document count, shown in the opening status line.
func New(service ChatPort, indexed int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about courses and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:   service,
		sessionID: uuid.NewString(),
		input:     ti,
		viewport:  vp,
		status:    fmt.Sprintf("%d course sections indexed. /add and /drop pin sections, /reset starts over.", indexed),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			q := strings.TrimSpace(m.input.Value())
			if strings.HasPrefix(q, "/") {
				m.status = m.runCommand(q)
				m.input.SetValue("")
				return m, nil
			}
			if q != "" {
				m.busy = true
				m.status = "Thinking..."
				m.entries = append(m.entries, entry{role: "you", text: q})
				m.input.SetValue("")

				answer, err := m.service.Ask(context.Background(), m.sessionID, q)
				m.busy = false
				if err != nil {
					m.status = "Error: " + err.Error()
				} else {
					m.entries = append(m.entries, entry{role: "advisor", text: answer.Text})
					m.status = sourcesLine(answer)
				}
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Course Advisor")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

// runCommand handles the slash commands for schedule pinning.
func (m *Model) runCommand(q string) string {
	fields := strings.Fields(q)
	ctx := context.Background()
	switch fields[0] {
	case "/add":
		if len(fields) != 2 {
			return "Usage: /add SUBJECT_CATALOG_SECTION_TERM"
		}
		if err := m.service.AddSection(ctx, m.sessionID, fields[1]); err != nil {
			return "Error: " + err.Error()
		}
		return "Added " + fields[1] + " to your schedule."
	case "/drop":
		if len(fields) != 2 {
			return "Usage: /drop SUBJECT_CATALOG_SECTION_TERM"
		}
		if err := m.service.RemoveSection(ctx, m.sessionID, fields[1]); err != nil {
			return "Error: " + err.Error()
		}
		return "Dropped " + fields[1] + " from your schedule."
	case "/reset":
		if err := m.service.Reset(ctx, m.sessionID); err != nil {
			return "Error: " + err.Error()
		}
		m.entries = nil
		m.viewport.SetContent(m.renderTranscript())
		return "Session cleared."
	default:
		return "Unknown command. Available: /add, /drop, /reset"
	}
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return "No conversation yet."
	}
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := youStyle.Render("You")
		if e.role == "advisor" {
			label = advisorStyle.Render("Advisor")
		}
		b.WriteString(label + ": " + e.text)
	}
	return b.String()
}

func sourcesLine(answer *chat.Answer) string {
	if len(answer.Sources) == 0 {
		return "Answered without course context."
	}
	codes := make([]string, 0, len(answer.Sources))
	seen := make(map[string]struct{}, len(answer.Sources))
	for _, src := range answer.Sources {
		code := src.Metadata.CourseCode
		if code == "" {
			code = src.ID
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return fmt.Sprintf("Grounded in: %s", strings.Join(codes, ", "))
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	youStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	advisorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
