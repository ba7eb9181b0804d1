package transport

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/directory"
)

// PersonaFunc returns the system prompt an LLM-backed transport uses to play agent.
type PersonaFunc func(agent core.AgentID) string

// DefaultPersona is used when no directory information is available.
func DefaultPersona(agent core.AgentID) string {
	return fmt.Sprintf("You are %s, a member of a team chat. Answer concisely.", agent)
}

// DirectoryPersona builds personas from directory entries (name, role and
// description). Unknown agents get DefaultPersona.
func DirectoryPersona(dir *directory.Static) PersonaFunc {
	return func(agent core.AgentID) string {
		a, ok := dir.Agent(agent)
		if !ok {
			return DefaultPersona(agent)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "You are %s", a.DisplayName())
		if a.Role != "" {
			fmt.Fprintf(&b, ", %s", a.Role)
		}
		b.WriteString(", a member of a team chat. Answer concisely.")
		if a.Description != "" {
			b.WriteString("\n")
			b.WriteString(a.Description)
		}
		if len(a.Knowledge) > 0 {
			b.WriteString("\nWhat you know:\n- ")
			b.WriteString(strings.Join(a.Knowledge, "\n- "))
		}
		return b.String()
	}
}
