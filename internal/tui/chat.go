// Package tui is the interactive terminal chat for logging activities.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ppiankov/carbontally/internal/pipeline"
)

// ChatState is the current state of the chat
type ChatState int

const (
	// ChatStateIdle waits for input
	ChatStateIdle ChatState = iota
	// ChatStateLogging is recording a prompt
	ChatStateLogging
	// ChatStateQuitting is exiting
	ChatStateQuitting
)

// maxTranscript bounds the lines kept on screen
const maxTranscript = 200

// LogFunc records a prompt for the chat's user
type LogFunc func(ctx context.Context, prompt string) (*pipeline.LogResult, error)

// logDoneMsg carries the outcome of one LogFunc call
type logDoneMsg struct {
	res *pipeline.LogResult
	err error
}

// chatLine is one rendered transcript entry
type chatLine struct {
	prompt string
	reply  string
	co2    float64
	err    error
}

// ChatModel is the Bubble Tea model for the activity chat
type ChatModel struct {
	ctx   context.Context
	logFn LogFunc
	input textinput.Model

	lines []chatLine
	total float64
	state ChatState

	width int
}

// NewChatModel creates a chat starting from the user's current total
func NewChatModel(ctx context.Context, logFn LogFunc, total float64) *ChatModel {
	ti := textinput.New()
	ti.Placeholder = "drove 5 km and cycled 3 km"
	ti.CharLimit = 500
	ti.Prompt = "> "
	ti.Focus()

	return &ChatModel{
		ctx:   ctx,
		logFn: logFn,
		input: ti,
		total: total,
		state: ChatStateIdle,
		width: 80,
	}
}

// Total returns the running total shown in the footer
func (m *ChatModel) Total() float64 {
	return m.total
}

// Init starts the cursor blinking
func (m *ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and finished log calls
func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case logDoneMsg:
		m.state = ChatStateIdle
		line := m.lines[len(m.lines)-1]
		if msg.err != nil {
			line.err = msg.err
		} else {
			line.reply = msg.res.Reply
			line.co2 = msg.res.Delta
			m.total = msg.res.Total
		}
		m.lines[len(m.lines)-1] = line
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.state = ChatStateQuitting
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ChatModel) submit() (tea.Model, tea.Cmd) {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" || m.state == ChatStateLogging {
		return m, nil
	}

	m.input.SetValue("")
	m.state = ChatStateLogging
	m.lines = append(m.lines, chatLine{prompt: prompt})
	if len(m.lines) > maxTranscript {
		m.lines = m.lines[len(m.lines)-maxTranscript:]
	}

	ctx, logFn := m.ctx, m.logFn
	return m, func() tea.Msg {
		res, err := logFn(ctx, prompt)
		return logDoneMsg{res: res, err: err}
	}
}

// View renders the transcript, input and running total
func (m *ChatModel) View() string {
	if m.state == ChatStateQuitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("carbontally") + "\n")
	sb.WriteString(mutedStyle.Render("Tell me what you did. Esc to quit.") + "\n\n")

	for _, line := range m.lines {
		sb.WriteString(promptStyle.Render("> "+line.prompt) + "\n")
		switch {
		case line.err != nil:
			sb.WriteString(emittedStyle.Render(fmt.Sprintf("error: %v", line.err)) + "\n")
		case line.reply != "":
			sb.WriteString(co2Style(line.co2).Render(line.reply) + "\n")
		default:
			sb.WriteString(mutedStyle.Render("...") + "\n")
		}
	}

	sb.WriteString("\n" + m.input.View() + "\n\n")
	sb.WriteString(RenderTotal(m.total) + "\n")
	return sb.String()
}

// Run starts the chat for userID until the user quits
func Run(ctx context.Context, p *pipeline.Pipeline, userID string) error {
	user, err := p.Ledger().EnsureUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	logFn := func(ctx context.Context, prompt string) (*pipeline.LogResult, error) {
		return p.Log(ctx, userID, prompt)
	}

	prog := tea.NewProgram(NewChatModel(ctx, logFn, user.TotalCO2), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}
