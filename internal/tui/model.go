package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const uploadCommand = "/upload "

type message struct {
	role string
	text string
}

type answerMsg struct {
	answer string
	err    error
}

type uploadMsg struct {
	result string
	err    error
}

// Model is the Bubble Tea model for the chat client. One session id is
// generated per run, so the server keeps the whole conversation.
type Model struct {
	client    *Client
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	messages  []message
	status    string
	waiting   bool
	ready     bool
}

// New creates a chat model bound to a server client and session.
func New(client *Client, sessionID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "प्रश्न पूछें, या /upload <path> से दस्तावेज जोड़ें"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		client:    client,
		sessionID: sessionID,
		input:     ti,
		viewport:  vp,
		status:    "Connected. Ask a question.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			return m.submit()
		}
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.messages = append(m.messages, message{role: "सहायक", text: msg.answer})
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, nil
	case uploadMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Upload error: " + msg.err.Error()
		} else {
			m.status = msg.result
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	m.input.SetValue("")

	if strings.HasPrefix(line, uploadCommand) {
		path := strings.TrimSpace(strings.TrimPrefix(line, uploadCommand))
		if path == "" {
			m.status = "Usage: /upload <path>"
			return m, nil
		}
		m.waiting = true
		m.status = "Uploading " + path + "..."
		client := m.client
		return m, func() tea.Msg {
			result, err := client.UploadFile(context.Background(), path)
			return uploadMsg{result: result, err: err}
		}
	}

	// echo the question right away, the answer arrives async
	m.messages = append(m.messages, message{role: "उपयोगकर्ता", text: line})
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
	m.waiting = true
	m.status = "Thinking..."
	client, sessionID := m.client, m.sessionID
	return m, func() tea.Msg {
		answer, err := client.Chat(context.Background(), line, sessionID)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Jain Scripture QA")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderMessages() string {
	if len(m.messages) == 0 {
		return "No messages yet. Ask about the scriptures."
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(roleStyle.Render(msg.role+":") + " " + msg.text)
	}
	return b.String()
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	roleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
