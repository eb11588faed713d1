// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command for draftpad.
//
// A readline-style REPL against the running draftpad server. Each turn
// is one generation request; Ctrl+C cancels the in-flight generation
// without leaving the session, Ctrl+D exits.
//
// Command: chat
// Short:   Interactive chat session
// Aliases: (none)
//
// Examples:
//   draftpad chat
//   draftpad chat --model llama3.2:1b
//   draftpad chat --plain
//
// Slash commands inside the session:
//   /help     Show available commands
//   /clear    Clear the conversation
//   /model    Show or switch model
//   /ping     Check backend reachability
//   /history  Show the conversation so far
//   /status   Show session details
//   /quit     Exit
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/draftpad/internal/config"
	"github.com/jeranaias/draftpad/internal/prompt"
	"github.com/jeranaias/draftpad/internal/session"
	"github.com/jeranaias/draftpad/internal/transcript"
	"github.com/jeranaias/draftpad/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // Cyan
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")). // Purple
			Bold(true)

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	// Session summary header
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")). // Cyan
				Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// Supports arrow keys for history navigation.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	// History lives next to the config file
	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	cli.LoadHistory()

	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	// Conversation is the local record of the exchange. The server takes
	// one self-contained request per turn, so this exists for display and
	// statistics, not for the wire.
	Conversation *transcript.Conversation

	Config *config.Config
	Model  string
	Quiet  bool
	Plain  bool

	StartTime time.Time
	Turns     int

	// Client talks to the running draftpad server.
	Client *session.Client

	// InputCLI provides readline-like input with history.
	InputCLI *ChatCLI

	// cancelMu guards cancelFunc; Ctrl+C arrives on a signal goroutine
	// while the main loop is blocked inside a generation.
	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc
}

// NewChatSession creates a chat session bound to a verified server client.
func NewChatSession(args Args, client *session.Client) *ChatSession {
	cfg := config.Global()

	model := args.Model
	if model == "" {
		model = cfg.Model()
	}

	return &ChatSession{
		Conversation: transcript.NewConversation(),
		Config:       cfg,
		Model:        model,
		Quiet:        args.Quiet,
		Plain:        args.Plain,
		StartTime:    time.Now(),
		Client:       client,
		InputCLI:     NewChatCLI(),
	}
}

// setCancel installs the cancel function for the in-flight generation.
func (s *ChatSession) setCancel(cancel context.CancelFunc) {
	s.cancelMu.Lock()
	s.cancelFunc = cancel
	s.cancelMu.Unlock()
}

// takeCancel removes and returns the current cancel function, if any.
func (s *ChatSession) takeCancel() context.CancelFunc {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	cancel := s.cancelFunc
	s.cancelFunc = nil
	return cancel
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive chat REPL against the local server.
func HandleChat(args Args) error {
	// liner needs a real terminal; piped stdin belongs to ask/transform.
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	cfg := config.Global()

	client, err := connectRelay(context.Background(), cfg)
	if err != nil {
		return NewCommandError("chat", "connect", "cannot reach the draftpad server", err)
	}

	chat := NewChatSession(args, client)
	defer chat.InputCLI.Close()

	if !chat.Quiet {
		printWelcome(chat)
	}

	// First Ctrl+C cancels the in-flight generation; at the prompt, liner
	// turns it into ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			if cancel := chat.takeCancel(); cancel != nil {
				cancel()
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := chat.InputCLI.ReadInput(promptStyle.Render("draftpad> "))
		if err != nil {
			// Ctrl+C at the prompt or EOF (Ctrl+D): exit gracefully
			fmt.Println()
			printExitSummary(chat)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, chat)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !shouldContinue {
				printExitSummary(chat)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(chat)
			return nil
		}

		if err := processMessage(chat, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends one turn through the server and streams the response.
func processMessage(chat *ChatSession, input string) error {
	chat.Conversation.AddUserMessage(input)
	reply := chat.Conversation.AddAssistantMessage()
	stats := transcript.NewStatistics()

	ctx, cancel := context.WithCancel(context.Background())
	chat.setCancel(cancel)
	defer func() {
		if c := chat.takeCancel(); c != nil {
			c()
		}
	}()

	useMarkdown := IsStdoutTTY() && !chat.Plain && chat.Config.UI.RenderMarkdown

	fmt.Println()

	req := prompt.Request{
		Message: input,
		Model:   chat.Model,
	}

	// Print the growing suffix of the filtered text rather than raw deltas:
	// a reasoning span is withheld until its closing sentinel arrives, at
	// which point the filter removes it and the visible text resumes growing.
	printed := 0
	text, err := session.Generate(ctx, chat.Client, req, func(_, text string) {
		stats.RecordChunk()
		reply.SetStreamContent(text)
		if useMarkdown || util.InMetaBlock(text) {
			return
		}
		if printed < len(text) {
			fmt.Print(text[printed:])
			printed = len(text)
		}
	})

	if err != nil {
		if ctx.Err() != nil {
			// Cancelled: the partial response stands as the reply; a cancel
			// before the first visible token leaves no reply at all.
			if util.VisibleText(text) == "" {
				chat.Conversation.DropLast()
			} else {
				reply.SetStreamContent(text)
				stats.Finalize()
				reply.FinalizeStream(stats)
				chat.Turns++
			}
			fmt.Println()
			return nil
		}
		chat.Conversation.FinalizeLastError(err.Error())
		fmt.Println()
		return err
	}

	reply.SetStreamContent(text)
	stats.Finalize()
	reply.FinalizeStream(stats)
	chat.Turns++

	if useMarkdown {
		fmt.Print(renderMarkdown(text))
	} else if printed < len(text) {
		// Anything the stream withheld, including the empty-response
		// placeholder, arrives only with the final text.
		fmt.Print(text[printed:])
	}
	fmt.Println()

	if chat.Config.UI.ShowStats && !chat.Quiet {
		fmt.Fprintf(os.Stderr, "%s %s\n", InfoStyle.Render("[Stats]"), stats.Format())
	}
	fmt.Println()

	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, chat *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printChatHelp()
		return true, nil

	case "/clear", "/c":
		chat.Conversation.ClearHistory()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		return handleModelCommand(chat, args)

	case "/ping", "/p":
		return handlePingCommand(chat)

	case "/status", "/s":
		printChatStatus(chat)
		return true, nil

	case "/history":
		printHistory(chat)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/":
		printChatHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleModelCommand shows or switches the session model.
func handleModelCommand(chat *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Printf("%s Current model: %s\n",
			InfoStyle.Render("[Model]"),
			commandStyle.Render(chat.Model))
		return true, nil
	}

	// The server passes the model through to the backend unchanged; an
	// unknown name surfaces as an in-stream error on the next turn.
	chat.Model = args[0]
	fmt.Printf("%s Switched to model: %s\n",
		commandStyle.Render("[OK]"),
		chat.Model)

	return true, nil
}

// handlePingCommand checks backend reachability through the server.
func handlePingCommand(chat *ChatSession) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ping, err := chat.Client.Ping(ctx)
	if err != nil {
		return true, fmt.Errorf("ping failed: %w", err)
	}

	if ping.OK {
		fmt.Printf("%s Backend reachable, %d model(s) available\n",
			SuccessStyle.Render("[OK]"),
			ping.ModelsAvailable)
	} else {
		fmt.Printf("%s Backend not reachable (status %d)\n",
			ErrorStyle.Render("[FAIL]"),
			ping.Status)
	}

	return true, nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(chat *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("draftpad chat"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		InfoStyle.Render("Model:"),
		commandStyle.Render(chat.Model))
	fmt.Printf("%s %s\n",
		InfoStyle.Render("Server:"),
		ValueStyle.Render(chat.Client.BaseURL()))
	fmt.Println()
	fmt.Println(DimStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available slash commands.
func printChatHelp() {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Available Commands"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear the conversation"},
		{"/model [name]", "Show or switch model"},
		{"/ping, /p", "Check backend reachability"},
		{"/history", "Show the conversation so far"},
		{"/status, /s", "Show session details"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			InfoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(DimStyle.Render("Tip: Ctrl+C cancels current generation, Ctrl+D exits"))
	fmt.Println()
}

// printChatStatus prints session details.
func printChatStatus(chat *ChatSession) {
	elapsed := time.Since(chat.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Status"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	fmt.Printf("  %s %s\n",
		InfoStyle.Render("Model:"),
		commandStyle.Render(chat.Model))
	fmt.Printf("  %s %s\n",
		InfoStyle.Render("Server:"),
		ValueStyle.Render(chat.Client.BaseURL()))
	fmt.Printf("  %s %s\n",
		InfoStyle.Render("Duration:"),
		elapsed.String())
	fmt.Printf("  %s %d messages\n",
		InfoStyle.Render("History:"),
		chat.Conversation.MessageCount())
	fmt.Println()
}

// printHistory prints the conversation so far.
func printHistory(chat *ChatSession) {
	if chat.Conversation.IsEmpty() {
		fmt.Println(InfoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Conversation History"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range chat.Conversation.Messages {
		role := msg.Role.DisplayName()
		switch {
		case msg.IsError:
			role = ErrorStyle.Render(role)
		case msg.Role == transcript.RoleUser:
			role = promptStyle.Render(role)
		default:
			role = welcomeStyle.Render(role)
		}

		fmt.Printf("  %d. %s: %s\n", i+1, role, msg.Preview(100))
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(chat *ChatSession) {
	if chat.Turns == 0 {
		fmt.Println(InfoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(chat.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d\n",
		InfoStyle.Render("Turns:"),
		chat.Turns)
	fmt.Printf("  %s %d\n",
		InfoStyle.Render("Messages:"),
		chat.Conversation.MessageCount())
	fmt.Printf("  %s %s\n",
		InfoStyle.Render("Duration:"),
		elapsed.String())

	fmt.Println()
	fmt.Println(InfoStyle.Render("Goodbye!"))
}
