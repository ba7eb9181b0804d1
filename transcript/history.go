package transcript

import (
	"strings"

	"github.com/hupe1980/agentchat/core"
)

const (
	maxContextReply = 300
	truncatedReply  = 297
)

// RecentExchanges returns the question and answer events of the last n
// exchanges in events. An exchange is a question followed by the answers it
// received. Progress, participant and error events are not part of the
// history. n <= 0 returns nil.
func RecentExchanges(events []core.Event, n int) []core.Event {
	if n <= 0 {
		return nil
	}
	start, questions := len(events), 0
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == core.EventQuestion {
			questions++
			start = i
			if questions == n {
				break
			}
		}
	}
	var out []core.Event
	for _, ev := range events[start:] {
		if ev.Kind == core.EventQuestion || ev.Kind == core.EventAnswer {
			out = append(out, cloneEvent(ev))
		}
	}
	return out
}

// NameFunc resolves a display name for an agent.
type NameFunc func(core.AgentID) string

// FormatContext renders history in front of question:
//
//	Previous conversation:
//	---
//	[User]: ...
//	[Agent Name]: ...
//	---
//
//	New question: ...
//
// Answers longer than 300 characters are cut to 297 plus "...". With empty
// history the question is returned unchanged. A nil names func falls back to
// the agent ID.
func FormatContext(history []core.Event, question string, names NameFunc) string {
	var lines []string
	for _, ev := range history {
		switch ev.Kind {
		case core.EventQuestion:
			lines = append(lines, "[User]: "+ev.Text)
		case core.EventAnswer:
			lines = append(lines, "["+displayName(ev.AgentID, names)+"]: "+truncate(ev.Text))
		}
	}
	if len(lines) == 0 {
		return question
	}
	var b strings.Builder
	b.WriteString("Previous conversation:\n---\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("---\n\nNew question: ")
	b.WriteString(question)
	return b.String()
}

func displayName(id core.AgentID, names NameFunc) string {
	if names != nil {
		if n := names(id); n != "" {
			return n
		}
	}
	return string(id)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxContextReply {
		return s
	}
	return string(r[:truncatedReply]) + "..."
}
