package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mediajel/apidocs/internal/cli/formatter"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/llm"
	"github.com/mediajel/apidocs/internal/service"
)

type chatKeys struct {
	Send      key.Binding
	NewThread key.Binding
	Quit      key.Binding
}

func (k chatKeys) ShortHelp() []key.Binding { return []key.Binding{k.Send, k.NewThread, k.Quit} }

func (k chatKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func defaultChatKeys() chatKeys {
	return chatKeys{
		Send:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewThread: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new conversation")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

type (
	streamChunkMsg  string
	streamDoneMsg   struct{ result *service.AskResult }
	streamFailedMsg struct{ err error }
	threadLoadedMsg struct {
		messages []*domain.ChatMessage
		err      error
	}
)

// chatModel is the interactive assistant conversation. Answers stream in as
// plain text and are re-rendered as markdown once complete.
type chatModel struct {
	assistant service.AssistantService
	classify  func(string) intelligence.ClassifiedIntent
	render    func(md string, width int) string

	ctx    context.Context
	cancel context.CancelFunc

	threadID string
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     chatKeys
	width    int

	transcript []string
	streaming  bool
	partial    strings.Builder
	events     <-chan tea.Msg
}

func newChatModel(ctx context.Context, assistant service.AssistantService, classify func(string) intelligence.ClassifiedIntent, threadID string) *chatModel {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.Placeholder = "Ask about the API..."
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StylePurple

	ctx, cancel := context.WithCancel(ctx)
	return &chatModel{
		assistant: assistant,
		classify:  classify,
		render:    formatter.RenderMarkdown,
		ctx:       ctx,
		cancel:    cancel,
		threadID:  threadID,
		input:     ti,
		spinner:   sp,
		help:      help.New(),
		keys:      defaultChatKeys(),
		width:     80,
	}
}

func (m *chatModel) Init() tea.Cmd {
	if m.threadID == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, m.loadThread(m.threadID))
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.NewThread):
			if !m.streaming {
				m.threadID = ""
				m.transcript = nil
			}
			return m, nil
		case key.Matches(msg, m.keys.Send):
			return m.submit()
		}

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case streamChunkMsg:
		m.partial.WriteString(string(msg))
		return m, waitForStream(m.events)

	case streamDoneMsg:
		m.streaming = false
		m.threadID = msg.result.ThreadID
		m.transcript = append(m.transcript, m.render(m.partial.String(), m.width))
		m.partial.Reset()
		return m, nil

	case streamFailedMsg:
		m.streaming = false
		if m.partial.Len() > 0 {
			m.transcript = append(m.transcript, m.partial.String())
			m.partial.Reset()
		}
		m.transcript = append(m.transcript, formatter.StyleRed.Render("Error: "+msg.err.Error()))
		return m, nil

	case threadLoadedMsg:
		if msg.err != nil {
			m.transcript = append(m.transcript, formatter.StyleRed.Render("Error: "+msg.err.Error()))
			m.threadID = ""
			return m, nil
		}
		if len(msg.messages) > 0 {
			m.transcript = append(m.transcript, m.render(formatter.FormatTranscript(msg.messages), m.width))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if m.streaming || q == "" {
		return m, nil
	}
	m.input.Reset()

	m.transcript = append(m.transcript,
		formatter.Dim("You: ")+q,
		formatter.IntentLine(m.classify(q)),
	)
	m.streaming = true

	events := make(chan tea.Msg, 32)
	m.events = events
	return m, tea.Batch(m.spinner.Tick, m.ask(q, events))
}

// ask starts streaming the answer to q into events and returns the first
// event. The channel is closed once the final event has been sent.
func (m *chatModel) ask(q string, events chan tea.Msg) tea.Cmd {
	ctx := m.ctx
	req := service.AskRequest{
		ThreadID: m.threadID,
		Messages: []llm.Message{{Role: domain.RoleUser, Content: q}},
	}
	send := func(msg tea.Msg) error {
		select {
		case events <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return func() tea.Msg {
		go func() {
			defer close(events)
			res, err := m.assistant.AskStream(ctx, req, func(ev llm.StreamEvent) error {
				if ev.Delta == "" {
					return nil
				}
				return send(streamChunkMsg(ev.Delta))
			})
			if err != nil {
				_ = send(streamFailedMsg{err: err})
				return
			}
			_ = send(streamDoneMsg{result: res})
		}()
		return waitForStream(events)()
	}
}

func waitForStream(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *chatModel) loadThread(id string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		messages, err := m.assistant.Messages(ctx, id)
		return threadLoadedMsg{messages: messages, err: err}
	}
}

func (m *chatModel) View() string {
	var b strings.Builder

	thread := "new conversation"
	if m.threadID != "" {
		thread = "thread " + m.threadID
	}
	b.WriteString(formatter.StyleHeader.Render("API ASSISTANT") + "  " + formatter.Dim(thread) + "\n\n")

	for _, block := range m.transcript {
		b.WriteString(strings.TrimRight(block, "\n"))
		b.WriteString("\n\n")
	}

	if m.streaming {
		if m.partial.Len() > 0 {
			b.WriteString(m.partial.String())
			b.WriteString("\n")
		}
		b.WriteString(m.spinner.View() + formatter.Dim(" thinking") + "\n\n")
	}

	b.WriteString(formatter.StylePurple.Render("ask") + formatter.Dim("> ") + m.input.View() + "\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
