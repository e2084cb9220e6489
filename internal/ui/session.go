package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/novacheck/novacheck/internal/console"
)

// Messages for the session event loop
type consoleFrameMsg []byte

type consoleClosedMsg struct {
	err error
}

// sessionKeyMap defines key bindings for the console session
type sessionKeyMap struct {
	Send key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k sessionKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k sessionKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Quit},
	}
}

// SessionModel is the interactive console session: received frames scroll in
// a viewport, a text input composes the next line to send.
type SessionModel struct {
	URL    string
	Client *console.Client

	Viewport viewport.Model
	Input    textinput.Model
	Help     help.Model
	Keys     sessionKeyMap

	Output []byte
	Closed bool
	Err    error

	Width  int
	Height int

	ready bool
}

// NewSessionModel creates a session model over an open console client.
func NewSessionModel(client *console.Client, url string) SessionModel {
	input := textinput.New()
	input.Placeholder = "type a command and press enter"
	input.Prompt = "> "
	input.Focus()

	keys := sessionKeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+q"),
			key.WithHelp("esc", "quit"),
		),
	}

	width, height := GetTerminalSize()

	return SessionModel{
		URL:    url,
		Client: client,
		Input:  input,
		Help:   help.New(),
		Keys:   keys,
		Width:  width,
		Height: height,
	}
}

// Init implements tea.Model
func (m SessionModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, receiveFrame(m.Client))
}

// receiveFrame blocks on the next console frame and delivers it as a
// message. Re-armed after every frame; a closed session ends the loop.
func receiveFrame(client *console.Client) tea.Cmd {
	return func() tea.Msg {
		payload, err := client.ReceiveFrame()
		if err != nil {
			return consoleClosedMsg{err: err}
		}
		return consoleFrameMsg(payload)
	}
}

// sendLine transmits one input line with a trailing carriage return, split
// into frames the reduced protocol allows.
func sendLine(client *console.Client, line string) tea.Cmd {
	return func() tea.Msg {
		data := []byte(line + "\r")
		for len(data) > 0 {
			chunk := data
			if len(chunk) > console.MaxPayload {
				chunk = chunk[:console.MaxPayload]
			}
			if err := client.SendFrame(chunk); err != nil {
				return consoleClosedMsg{err: err}
			}
			data = data[len(chunk):]
		}
		return nil
	}
}

// Update implements tea.Model
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			_ = m.Client.Close()
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Send):
			if m.Closed {
				return m, tea.Quit
			}
			line := m.Input.Value()
			m.Input.Reset()
			return m, sendLine(m.Client, line)
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()

	case consoleFrameMsg:
		m.Output = append(m.Output, msg...)
		if m.ready {
			m.Viewport.SetContent(string(m.Output))
			m.Viewport.GotoBottom()
		}
		cmds = append(cmds, receiveFrame(m.Client))

	case consoleClosedMsg:
		m.Closed = true
		if !errors.Is(msg.err, io.EOF) {
			m.Err = msg.err
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)

	if m.ready {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// resize lays the viewport out under the title line and above the input and
// help lines.
func (m *SessionModel) resize() {
	viewportHeight := m.Height - 4
	if viewportHeight < 3 {
		viewportHeight = 3
	}
	if !m.ready {
		m.Viewport = viewport.New(m.Width, viewportHeight)
		m.Viewport.SetContent(string(m.Output))
		m.ready = true
	} else {
		m.Viewport.Width = m.Width
		m.Viewport.Height = viewportHeight
	}
	m.Viewport.GotoBottom()
}

// View implements tea.Model
func (m SessionModel) View() string {
	title := HeaderCommandStyle.Render("console " + m.URL)

	var status string
	switch {
	case m.Closed && m.Err != nil:
		status = FailMessageStyle.Render(fmt.Sprintf("session error: %v (press enter to exit)", m.Err))
	case m.Closed:
		status = NoteStyle.Render("connection closed by peer (press enter to exit)")
	default:
		status = m.Input.View()
	}

	body := "connecting..."
	if m.ready {
		body = m.Viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		body,
		status,
		m.Help.View(m.Keys),
	)
}

// RunSession drives an interactive console session until the user quits or
// the peer closes.
func RunSession(client *console.Client, url string) error {
	p := tea.NewProgram(NewSessionModel(client, url))
	_, err := p.Run()
	return err
}
