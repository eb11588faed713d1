// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/draftpad/internal/prompt"
	"github.com/jeranaias/draftpad/internal/session"
	"github.com/jeranaias/draftpad/internal/transcript"
	"github.com/jeranaias/draftpad/internal/ui/styles"
	"github.com/jeranaias/draftpad/internal/util"
)

// =============================================================================
// STATE
// =============================================================================

// State represents the current chat view state.
type State int

const (
	// StateReady means input is accepted and no generation is running.
	StateReady State = iota
	// StateStreaming means a generation is in flight.
	StateStreaming
)

// streamRenderInterval caps transcript re-renders during streaming. Each
// update carries the whole accumulated text, so skipped frames lose nothing.
const streamRenderInterval = 33 * time.Millisecond

// =============================================================================
// MODEL
// =============================================================================

// Options configures a chat model.
type Options struct {
	Theme          *styles.Theme
	Client         *session.Client
	Session        *session.Session
	ModelName      string
	RenderMarkdown bool
	ShowStats      bool
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	// Dimensions
	width  int
	height int

	// Transcript
	conversation *transcript.Conversation
	stats        *transcript.Statistics

	// Relay
	client *session.Client
	sess   *session.Session

	// Settings
	modelName      string
	renderMarkdown bool
	showStats      bool

	// Streaming
	state        State
	waitingFirst bool
	// lastStreamRender is when the viewport was last re-rendered during a
	// stream; see streamRenderInterval.
	lastStreamRender time.Time

	// Components
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	// Backend status shown in the status bar
	backendUp     bool
	backendModels int
	statusMsg     string
}

// New creates a chat model bound to a relay session.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = opts.Theme.InputPrompt
	ti.Placeholder = "Ask about your draft..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII-compatible spinner so it renders in every terminal
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = opts.Theme.Spinner

	return Model{
		theme:          opts.Theme,
		keys:           DefaultKeyMap(),
		conversation:   transcript.NewConversation(),
		client:         opts.Client,
		sess:           opts.Session,
		modelName:      opts.ModelName,
		renderMarkdown: opts.RenderMarkdown,
		showStats:      opts.ShowStats,
		state:          StateReady,
		viewport:       vp,
		input:          ti,
		spin:           sp,
		renderer:       newMarkdownRenderer(78),
	}
}

// newMarkdownRenderer builds a glamour renderer for the given wrap width.
// Returns nil on failure; the plain path takes over.
func newMarkdownRenderer(wrap int) *glamour.TermRenderer {
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init starts the cursor blink and the first backend probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		CheckBackendCmd(m.client),
		backendTickCmd(),
	)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamUpdateMsg:
		return m.handleStreamUpdate(msg)

	case BackendStatusMsg:
		m.backendUp = msg.OK
		m.backendModels = msg.Models
		return m, nil

	case backendTickMsg:
		return m, tea.Batch(CheckBackendCmd(m.client), backendTickCmd())

	case spinner.TickMsg:
		if m.state == StateStreaming && m.waitingFirst {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	default:
		// Forward everything else to the input and the viewport so mouse
		// wheel and paste events keep working.
		if m.state == StateReady {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Layout: header (1) + viewport + input area (3) + status bar (1).
	// These must match the heights produced in view.go.
	const reservedHeight = 5

	viewportHeight := m.height - reservedHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	// Input line wears "> " plus side padding
	inputWidth := m.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	// Rebuild the markdown renderer for the new wrap width
	m.renderer = newMarkdownRenderer(viewportWidth - 6)

	m.updateViewport()

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		// Ctrl+C cancels a running generation; a second press (or a
		// press while idle) quits.
		if m.state == StateStreaming {
			return m.cancelStreaming()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.state == StateStreaming {
			return m.cancelStreaming()
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.conversation.ClearHistory()
		m.statusMsg = "Transcript cleared"
		m.updateViewport()
		return m, nil

	case key.Matches(msg, m.keys.ToggleMarkdown):
		m.renderMarkdown = !m.renderMarkdown
		if m.renderMarkdown {
			m.statusMsg = "Markdown rendering on"
		} else {
			m.statusMsg = "Markdown rendering off"
		}
		m.updateViewport()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		if m.state == StateReady {
			return m.submitInput()
		}
		return m, nil
	}

	// Everything else is typing
	if m.state == StateReady {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// submitInput sends the typed message through the relay session.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	m.input.Reset()
	m.statusMsg = ""

	m.conversation.AddUserMessage(content)
	m.conversation.AddAssistantMessage()
	m.stats = transcript.NewStatistics()

	if m.sess == nil {
		m.conversation.FinalizeLastError("no relay session")
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	err := m.sess.Issue(prompt.Request{
		Message: content,
		Model:   m.modelName,
	})
	if err != nil {
		m.conversation.FinalizeLastError(err.Error())
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	m.state = StateStreaming
	m.waitingFirst = true
	m.lastStreamRender = time.Time{}

	m.updateViewport()
	m.viewport.GotoBottom()

	return m, m.spin.Tick
}

// handleStreamUpdate applies one session update to the transcript. Updates
// carry the whole accumulated text, so content is replaced, not appended.
func (m Model) handleStreamUpdate(msg StreamUpdateMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		// Update raced a cancel; cancel wins.
		return m, nil
	}

	u := msg.Update

	if !u.Done {
		m.waitingFirst = false
		m.stats.RecordChunk()
		m.conversation.SetStreamContent(u.Text)

		if time.Since(m.lastStreamRender) >= streamRenderInterval {
			m.updateViewport()
			m.viewport.GotoBottom()
			m.lastStreamRender = time.Now()
		}
		return m, nil
	}

	// Terminal update
	if u.Err != nil {
		m.conversation.FinalizeLastError(u.Err.Error())
	} else {
		m.conversation.SetStreamContent(u.Text)
		m.stats.Finalize()
		m.conversation.FinalizeLast(m.stats)
	}

	m.state = StateReady
	m.waitingFirst = false
	m.updateViewport()
	m.viewport.GotoBottom()
	m.input.Focus()

	return m, textinput.Blink
}

// cancelStreaming aborts the in-flight generation. The session delivers no
// further updates after Cancel, so the partial text is finalized here.
func (m Model) cancelStreaming() (tea.Model, tea.Cmd) {
	if m.sess != nil {
		// Cancel returns false when the generation already completed; the
		// terminal update racing this keypress gets discarded by the state
		// check, so the session's text is adopted here either way.
		cancelled := m.sess.Cancel()
		text := m.sess.Text()
		if cancelled && util.VisibleText(text) == "" {
			// Nothing visible arrived before the cancel; no bubble to keep.
			m.conversation.DropLast()
		} else {
			m.conversation.SetStreamContent(text)
		}
	}
	if last := m.conversation.GetLastMessage(); last != nil && last.IsStreaming {
		m.stats.Finalize()
		m.conversation.FinalizeLast(m.stats)
	}

	m.state = StateReady
	m.waitingFirst = false
	m.statusMsg = "Generation cancelled"
	m.updateViewport()
	m.viewport.GotoBottom()
	m.input.Focus()

	return m, textinput.Blink
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Conversation returns the transcript backing the view.
func (m *Model) Conversation() *transcript.Conversation {
	return m.conversation
}

// GetState returns the current view state.
func (m *Model) GetState() State {
	return m.state
}

// updateViewport re-renders the transcript into the viewport.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderMessages())
}
