// ABOUTME: Line-mode client for the familiar gateway: send, stream, and manage credentials.
// ABOUTME: Useful for scripting and for debugging the stream without the full UI.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/familiar/internal/api"
	"github.com/2389/familiar/internal/auth"
	"github.com/2389/familiar/internal/dedupe"
	"github.com/2389/familiar/internal/runtime"
	"github.com/2389/familiar/internal/session"
	"github.com/2389/familiar/internal/toolcall"
)

func usage() {
	fmt.Println("Usage: familiar-send <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  send -m MESSAGE     Send one message and stream the reply")
	fmt.Println("  chat                Interactive line-mode conversation")
	fmt.Println("  agents              List available agents")
	fmt.Println("  sessions            List recent sessions")
	fmt.Println("  login -token TOKEN  Store a gateway token")
	fmt.Println("  logout              Remove the stored token")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "send":
		err = runSend(ctx, os.Args[2:])
	case "chat":
		err = runChat(ctx, os.Args[2:])
	case "agents":
		err = runAgents(ctx, os.Args[2:])
	case "sessions":
		err = runSessions(ctx, os.Args[2:])
	case "login":
		err = runLogin(os.Args[2:])
	case "logout":
		err = auth.ClearToken("")
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags are shared by the networked subcommands.
type commonFlags struct {
	server    string
	workspace string
	agentID   string
	threadID  string
}

func parseCommon(fs *flag.FlagSet, args []string) (commonFlags, error) {
	var cf commonFlags
	fs.StringVar(&cf.server, "server", "http://localhost:8080", "Gateway server URL")
	fs.StringVar(&cf.workspace, "workspace", "", "Workspace ID")
	fs.StringVar(&cf.agentID, "agent", "", "Agent ID to route to")
	fs.StringVar(&cf.threadID, "thread", "", "Thread ID for conversation continuity")
	return cf, fs.Parse(args)
}

func newClient(cf commonFlags) (*api.Client, string, error) {
	token, err := auth.LoadToken("")
	if err != nil {
		return nil, "", fmt.Errorf("%w (run familiar-send login first)", err)
	}
	identity, err := auth.ParseIdentity(token)
	if err != nil {
		return nil, "", err
	}

	workspace := cf.workspace
	if workspace == "" {
		workspace = identity.Workspace
	}

	client := api.New(api.Options{
		BaseURL: cf.server,
		Token:   func() string { return token },
		Identity: api.Identity{
			UserID:    identity.UserID,
			Workspace: workspace,
		},
	})
	return client, identity.UserID, nil
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	token := fs.String("token", "", "Gateway token (JWT)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	identity, err := auth.ParseIdentity(*token)
	if err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}
	if err := auth.SaveToken("", *token); err != nil {
		return err
	}

	color.Green("Signed in as %s", identity.UserID)
	if !identity.ExpiresAt.IsZero() {
		fmt.Printf("Token expires %s\n", identity.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func runAgents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("agents", flag.ExitOnError)
	cf, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	client, _, err := newClient(cf)
	if err != nil {
		return err
	}

	agents, err := client.ListAgents(ctx)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No agents available")
		return nil
	}
	for _, a := range agents {
		fmt.Printf("  %s  %s\n", color.CyanString(a.ID), a.Name)
	}
	return nil
}

func runSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum sessions to list")
	cf, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	client, _, err := newClient(cf)
	if err != nil {
		return err
	}

	sessions, err := client.ListSessions(ctx, cf.workspace, *limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions")
		return nil
	}
	for _, s := range sessions {
		when := session.NormalizeTimestamp(s.UpdatedAt).Format("Jan 2 15:04")
		agent := s.AgentName
		if agent == "" {
			agent = session.PlaceholderAgentName
		}
		fmt.Printf("  %s  %-30s %s  %s\n",
			color.CyanString(s.ID), truncate(s.Title, 30), color.HiBlackString(agent), color.HiBlackString(when))
	}
	return nil
}

func runSend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	message := fs.String("m", "", "Message content")
	cf, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	if *message == "" {
		return fmt.Errorf("-m is required")
	}

	client, userID, err := newClient(cf)
	if err != nil {
		return err
	}

	threadID := cf.threadID
	if threadID == "" {
		threadID = session.NewThreadID(cf.workspace)
		fmt.Println(color.HiBlackString("thread: " + threadID))
	}

	return streamOnce(ctx, client, api.SendRequest{
		ThreadID: threadID,
		Sender:   userID,
		Content:  *message,
		AgentID:  cf.agentID,
	})
}

// chatSession holds the state of one interactive conversation: the pane that
// accumulates stream events and the reader shared by message and prompt input.
type chatSession struct {
	client   *api.Client
	panes    *runtime.PaneSet
	threadID string
	agentID  string
	userID   string
	reader   *bufio.Scanner
	answered map[string]bool
}

// SendText posts content on the thread and streams the reply, printing events
// as they arrive and applying them to the pane. Satisfies the sender contract
// of tool responders.
func (cs *chatSession) SendText(ctx context.Context, content string) error {
	pane := cs.panes.Pane(cs.threadID)
	pane.SetSending(true)
	defer pane.SetSending(false)

	err := cs.client.SendMessage(ctx, api.SendRequest{
		ThreadID: cs.threadID,
		Sender:   cs.userID,
		Content:  content,
		AgentID:  cs.agentID,
	}, func(evt runtime.StreamEvent) {
		printEvent(evt)
		cs.panes.Apply(cs.threadID, evt)
	})
	if err != nil {
		pane.EndStream()
	}
	return err
}

func runChat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	cf, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	client, userID, err := newClient(cf)
	if err != nil {
		return err
	}

	threadID := cf.threadID
	if threadID == "" {
		threadID = session.NewThreadID(cf.workspace)
	}
	fmt.Printf("familiar-send connected to %s\n", cf.server)
	fmt.Println(color.HiBlackString("thread: " + threadID))
	fmt.Println("Type a message and press Enter. /quit to exit.")
	fmt.Println()

	cs := &chatSession{
		client:   client,
		panes:    runtime.NewPaneSet(dedupe.New(5*time.Minute, 1000), nil),
		threadID: threadID,
		agentID:  cf.agentID,
		userID:   userID,
		reader:   bufio.NewScanner(os.Stdin),
		answered: map[string]bool{},
	}

	for {
		input, err := cs.readLine(ctx, "> ")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		cs.panes.Pane(threadID).AppendUser(input)
		if err := cs.SendText(ctx, input); err != nil {
			color.Red("[error] %v", err)
			continue
		}
		if err := cs.answerPrompts(ctx); err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			color.Red("[error] %v", err)
		}
		fmt.Println()
	}
}

// readLine prompts and reads one line, honoring context cancellation.
func (cs *chatSession) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)

	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		if cs.reader.Scan() {
			inputCh <- cs.reader.Text()
		} else if err := cs.reader.Err(); err != nil {
			errCh <- err
		} else {
			errCh <- io.EOF
		}
	}()

	select {
	case <-ctx.Done():
		return "", io.EOF
	case err := <-errCh:
		return "", err
	case input := <-inputCh:
		return input, nil
	}
}

// answerPrompts walks the pane's unanswered interactive tool calls and asks
// the user to resolve each one. A response kicks off a fresh stream, which may
// announce further calls, so the walk repeats until nothing is actionable.
func (cs *chatSession) answerPrompts(ctx context.Context) error {
	pane := cs.panes.Pane(cs.threadID)
	for {
		var next *toolcall.Call
		for _, call := range pane.Calls() {
			kind := toolcall.Resolve(call.Name)
			if kind.Interactive() && call.Status() == toolcall.StatusExecuting && !call.Responded() && !cs.answered[call.ID] {
				next = call
				break
			}
		}
		if next == nil {
			return nil
		}

		payload, err := cs.promptFor(ctx, pane, next)
		if err != nil {
			return err
		}
		cs.answered[next.ID] = true
		if payload == nil {
			color.Yellow("[skipped %s]", next.Name)
			continue
		}

		responder := toolcall.NewResponder(next, cs, pane, func(msg string) {
			color.Red("%s", msg)
		}, nil)
		if err := responder.Respond(ctx, payload); err != nil {
			color.Red("[respond failed] %v", err)
		}
	}
}

// promptFor collects the user's answer for one interactive tool call. A nil
// payload with nil error means the user skipped the prompt.
func (cs *chatSession) promptFor(ctx context.Context, pane *runtime.Pane, call *toolcall.Call) (map[string]any, error) {
	view := toolcall.Render(call, pane.Form(call.ID))
	if view.Hidden {
		return nil, nil
	}

	fmt.Println()
	color.Yellow("%s", view.Title)
	for _, block := range view.Blocks {
		fmt.Printf("  %s: %s\n", color.HiBlackString(block.Label), block.Content)
	}

	switch view.Kind {
	case toolcall.KindConfirmation:
		line, err := cs.readLine(ctx, "  confirm? [y/n] ")
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return view.Controls[0].Payload, nil
		case "n", "no":
			return view.Controls[1].Payload, nil
		default:
			return nil, nil
		}

	case toolcall.KindSelection:
		for i, control := range view.Controls {
			fmt.Printf("  [%d] %s\n", i+1, control.Label)
		}
		line, err := cs.readLine(ctx, "  choice: ")
		if err != nil {
			return nil, err
		}
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(line), "%d", &n); err != nil || n < 1 || n > len(view.Controls) {
			return nil, nil
		}
		return view.Controls[n-1].Payload, nil

	case toolcall.KindForm:
		form := pane.Form(call.ID)
		for _, field := range view.Fields {
			line, err := cs.readLine(ctx, fmt.Sprintf("  %s: ", field.Label))
			if err != nil {
				return nil, err
			}
			form[field.Name] = strings.TrimSpace(line)
		}
		if !toolcall.Render(call, form).SubmitEnabled {
			fmt.Println("  (all fields are required)")
			return nil, nil
		}
		return toolcall.FormPayload(view.Fields, form), nil
	}
	return nil, nil
}

// streamOnce sends a message and prints the decoded stream to stdout.
// One-shot mode does not answer tool prompts; chat mode does.
func streamOnce(ctx context.Context, client *api.Client, req api.SendRequest) error {
	return client.SendMessage(ctx, req, printEvent)
}

func printEvent(evt runtime.StreamEvent) {
	switch evt.Type {
	case runtime.EventThinking:
		fmt.Println(color.HiBlackString("[thinking] " + truncate(evt.Text, 80)))
	case runtime.EventText:
		fmt.Print(evt.Text)
	case runtime.EventToolUse:
		kind := toolcall.Resolve(evt.ToolName)
		if kind == toolcall.KindSilent {
			return
		}
		color.Yellow("[tool] %s", evt.ToolName)
	case runtime.EventToolResult:
		if evt.IsError {
			color.Red("[tool error]")
		} else {
			color.Green("[tool done]")
		}
	case runtime.EventDone:
		fmt.Println()
	case runtime.EventError:
		color.Red("[error] %s", evt.Err)
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
