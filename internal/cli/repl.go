package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/hupe1980/agentchat"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/directory"
	"github.com/hupe1980/agentchat/selector"
)

// repl is the interactive chat loop of one conversation.
//
// Input is read asynchronously so /cancel works while a turn is waiting for
// answers. Other lines typed during a turn are queued and handled once the
// turn is over.
type repl struct {
	conv  *agentchat.Conversation
	info  func(core.AgentID) directory.Agent
	p     printer
	lines <-chan string
	queue []string

	events      <-chan core.Event
	unsubscribe func()

	sent    int
	queried map[core.AgentID]struct{}
}

func newREPL(conv *agentchat.Conversation, in io.Reader, p printer, info func(core.AgentID) directory.Agent) *repl {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	events, unsubscribe := conv.Subscribe()
	return &repl{
		conv:        conv,
		info:        info,
		p:           p,
		lines:       lines,
		events:      events,
		unsubscribe: unsubscribe,
		queried:     make(map[core.AgentID]struct{}),
	}
}

// next returns the next input line, queued lines first.
func (r *repl) next(ctx context.Context) (string, bool) {
	if len(r.queue) > 0 {
		line := r.queue[0]
		r.queue = r.queue[1:]
		return line, true
	}
	select {
	case line, ok := <-r.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

// run processes input until /quit, EOF or ctx is done and prints the session
// summary.
func (r *repl) run(ctx context.Context) {
	defer r.unsubscribe()
	defer r.summary()

	for {
		r.p.printf("You> ")
		line, ok := r.next(ctx)
		if !ok {
			r.p.println()
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !r.handle(ctx, line) {
			return
		}
	}
}

// handle processes one line and reports whether the loop continues.
func (r *repl) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return true
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		r.p.println("Type /help for available commands.")
		return true
	}
	command := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(line[1:], fields[0]))

	switch command {
	case "quit", "exit", "q":
		return false
	case "help":
		r.help()
	case "agents":
		r.selectAgents(ctx)
	case "list":
		r.list()
	case "history":
		r.history()
	case "clear":
		if err := r.conv.Clear(); err != nil {
			r.p.println(r.p.paint(styleError, "Error: "+err.Error()))
			return true
		}
		r.p.println("Conversation history cleared.")
	case "context":
		switch strings.ToLower(arg) {
		case "on":
			r.conv.SetIncludeContext(true)
			r.p.println("Context inclusion enabled.")
		case "off":
			r.conv.SetIncludeContext(false)
			r.p.println("Context inclusion disabled.")
		default:
			r.p.printf("Context is currently %s.\n", enabled(r.conv.IncludeContext()))
			r.p.println("Usage: /context on|off")
		}
	case "cancel":
		if err := r.conv.CancelTurn(); errors.Is(err, core.ErrNoActiveTurn) {
			r.p.println("No active turn.")
		}
	default:
		r.p.printf("Unknown command: /%s\n", command)
		r.p.println("Type /help for available commands.")
	}
	return true
}

func (r *repl) send(ctx context.Context, message string) {
	turn, err := r.conv.BeginTurn(ctx, message)
	switch {
	case errors.Is(err, core.ErrNoParticipants):
		r.p.println("No agents selected. Use /agents to select agents.")
		return
	case err != nil:
		r.p.println(r.p.paint(styleError, "Error: "+err.Error()))
		return
	}

	r.sent++
	participants := turn.Participants()
	for _, id := range participants {
		r.queried[id] = struct{}{}
	}
	r.p.printf("\nSending to %d agent(s)...\n\n", len(participants))

	lines, done := r.lines, ctx.Done()
	for {
		select {
		case ev := <-r.events:
			r.render(turn.ID(), ev)
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if strings.EqualFold(strings.TrimSpace(line), "/cancel") {
				turn.Cancel()
				continue
			}
			r.queue = append(r.queue, line)
		case <-turn.Done():
			r.drain(turn.ID())
			if err := turn.Err(); err != nil {
				if errors.Is(err, core.ErrTurnCancelled) {
					r.p.println(r.p.paint(styleMuted, "Turn cancelled."))
				} else {
					r.p.println(r.p.paint(styleError, "Error: "+err.Error()))
				}
			}
			r.p.println()
			return
		case <-done:
			done = nil
			turn.Cancel()
		}
	}
}

// drain renders events already published for turnID.
func (r *repl) drain(turnID string) {
	for {
		select {
		case ev := <-r.events:
			r.render(turnID, ev)
		default:
			return
		}
	}
}

func (r *repl) render(turnID string, ev core.Event) {
	if ev.TurnID != turnID {
		return
	}
	switch ev.Kind {
	case core.EventProgress:
		r.p.println(r.p.paint(styleMuted, r.label(ev.AgentID)+" is working..."))
	case core.EventAnswer:
		r.p.println(r.p.paint(styleAgent, "["+r.label(ev.AgentID)+"]"))
		r.p.printf("%s\n\n", ev.Text)
	case core.EventError:
		r.p.println(r.p.paint(styleAgent, "["+r.label(ev.AgentID)+"]"))
		msg := "ERROR: " + ev.Reason
		if ev.Detail != "" {
			msg += " (" + ev.Detail + ")"
		}
		r.p.printf("%s\n\n", r.p.paint(styleError, msg))
	}
}

func (r *repl) label(id core.AgentID) string {
	return r.info(id).DisplayName() + " (" + id.String() + ")"
}

// available lists the agents a channel selection can choose from.
func (r *repl) available(ctx context.Context) ([]core.AgentID, error) {
	if r.conv.Selector == nil {
		return nil, core.ErrNotChannel
	}
	return r.conv.Selector.Available(ctx)
}

func (r *repl) selectAgents(ctx context.Context) {
	ids, err := r.available(ctx)
	if errors.Is(err, core.ErrNotChannel) {
		r.p.println("This is a direct conversation; there is nothing to select.")
		return
	}
	if err != nil {
		r.p.println(r.p.paint(styleError, "Error: "+err.Error()))
		return
	}

	r.p.println("\nAvailable agents in this channel:")
	r.p.println()
	r.agentTable(ids, false)
	r.p.println()

	for {
		r.p.printf("Select agents ('all' or comma-separated IDs): ")
		input, ok := r.next(ctx)
		if !ok {
			r.p.println()
			return
		}
		if strings.TrimSpace(input) == "" {
			r.p.println("No selection made. Please try again.")
			continue
		}
		selected, err := selector.ParseSelection(input, ids)
		if err == nil {
			err = r.conv.Select(ctx, selected)
		}
		if err != nil {
			r.p.println(r.p.paint(styleError, "Error: "+err.Error()))
			r.p.println("Please try again.")
			continue
		}
		r.p.printf("\nSelected %d agent(s).\n", len(selected))
		return
	}
}

func (r *repl) list() {
	ids := r.conv.Participants()
	if r.conv.Selector != nil {
		var err error
		if ids, err = r.conv.Selector.Available(context.Background()); err != nil {
			ids = r.conv.Participants()
		}
	}
	r.p.banner("Available Agents")
	r.agentTable(ids, r.conv.Selector != nil)
	r.p.println(rule)
}

func (r *repl) agentTable(ids []core.AgentID, markSelected bool) {
	agents := make([]directory.Agent, len(ids))
	for i, id := range ids {
		agents[i] = r.info(id)
	}
	var selected func(core.AgentID) bool
	if markSelected {
		selected = r.conv.Selector.Selected
	}
	agentTable(r.p.out, agents, selected)
}

func (r *repl) history() {
	events, err := r.conv.Transcript()
	if err != nil {
		r.p.println(r.p.paint(styleError, "Error: "+err.Error()))
		return
	}
	if !hasQuestions(events) {
		r.p.println("No conversation history yet.")
		return
	}

	r.p.banner("Conversation History")
	r.p.println()
	for _, ev := range events {
		ts := ev.Timestamp.Local().Format("15:04:05")
		switch ev.Kind {
		case core.EventQuestion:
			r.p.printf("[%s] User:\n  %s\n\n", ts, ev.Text)
		case core.EventAnswer:
			r.p.printf("[%s] %s:\n  %s\n\n", ts, r.label(ev.AgentID), ev.Text)
		}
	}
	r.p.println(rule)
}

func (r *repl) help() {
	r.p.banner("Available Commands")
	r.p.println()
	r.p.println("  <message>          Send message to selected agents")
	r.p.println("  /agents            Change agent selection")
	r.p.println("  /list              List available agents")
	r.p.println("  /history           Display conversation history")
	r.p.println("  /clear             Clear conversation history")
	r.p.println("  /context on|off    Toggle context inclusion in messages")
	r.p.println("  /cancel            Cancel the turn waiting for answers")
	r.p.println("  /help              Show this help message")
	r.p.println("  /quit or /exit     Exit the CLI")
	r.p.println()
	r.p.println(rule)
}

func (r *repl) summary() {
	r.p.banner("Session Summary")
	r.p.printf("Messages sent: %d\n", r.sent)
	r.p.printf("Agents queried: %d\n", len(r.queried))
	r.p.println(rule)
}

func hasQuestions(events []core.Event) bool {
	for _, ev := range events {
		if ev.Kind == core.EventQuestion {
			return true
		}
	}
	return false
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
