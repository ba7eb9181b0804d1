package core

import "context"

// Directory enumerates the agents available to a conversation. It is
// read-only from the core's perspective.
type Directory interface {
	ListAgents(ctx context.Context, conversationID string) ([]AgentID, error)
}
