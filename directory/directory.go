// Package directory provides a local Agent Directory: a static set of agents
// and channels that can be loaded from a YAML file and hot reloaded when the
// file changes.
//
// A channel conversation id resolves to the channel's members. An agent id
// used as a conversation id resolves to that single agent, which is how
// direct conversations are addressed.
package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/hupe1980/agentchat/core"
)

// Interface compliance (compile-time assertion)
var _ core.Directory = (*Static)(nil)

// Agent describes one addressable agent.
type Agent struct {
	ID          core.AgentID `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Role        string       `yaml:"role,omitempty" json:"role,omitempty"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	// Knowledge holds snippets the knowledge transport answers from.
	Knowledge []string `yaml:"knowledge,omitempty" json:"knowledge,omitempty"`
}

// DisplayName returns Name, or the ID when no name is set.
func (a Agent) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return string(a.ID)
}

// Channel is a named group of agents.
type Channel struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	AgentIDs    []core.AgentID `yaml:"agents" json:"agents"`
}

// Static is an in-memory directory. It is safe for concurrent use; Replace
// swaps the whole content atomically.
type Static struct {
	mu       sync.RWMutex
	agents   map[core.AgentID]Agent
	order    []core.AgentID
	channels map[string]Channel
}

// NewStatic validates agents and channels and builds a directory.
func NewStatic(agents []Agent, channels []Channel) (*Static, error) {
	s := &Static{}
	if err := s.Replace(agents, channels); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace swaps the directory content. Agent ids must be unique and non-empty;
// channel members must be known agents. On error the old content is kept.
func (s *Static) Replace(agents []Agent, channels []Channel) error {
	byID := make(map[core.AgentID]Agent, len(agents))
	order := make([]core.AgentID, 0, len(agents))
	for _, a := range agents {
		if a.ID == "" {
			return fmt.Errorf("directory: agent without id")
		}
		if _, dup := byID[a.ID]; dup {
			return fmt.Errorf("directory: duplicate agent %q", a.ID)
		}
		a.Knowledge = append([]string(nil), a.Knowledge...)
		byID[a.ID] = a
		order = append(order, a.ID)
	}
	chans := make(map[string]Channel, len(channels))
	for _, c := range channels {
		if c.ID == "" {
			return fmt.Errorf("directory: channel without id")
		}
		if _, dup := chans[c.ID]; dup {
			return fmt.Errorf("directory: duplicate channel %q", c.ID)
		}
		if _, clash := byID[core.AgentID(c.ID)]; clash {
			return fmt.Errorf("directory: channel %q collides with an agent id", c.ID)
		}
		for _, id := range c.AgentIDs {
			if _, ok := byID[id]; !ok {
				return fmt.Errorf("directory: channel %q: %w: %s", c.ID, core.ErrUnknownAgent, id)
			}
		}
		c.AgentIDs = lo.Uniq(c.AgentIDs)
		chans[c.ID] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents, s.order, s.channels = byID, order, chans
	return nil
}

// ListAgents implements core.Directory.
func (s *Static) ListAgents(ctx context.Context, conversationID string) ([]core.AgentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.channels[conversationID]; ok {
		return append([]core.AgentID(nil), c.AgentIDs...), nil
	}
	if _, ok := s.agents[core.AgentID(conversationID)]; ok {
		return []core.AgentID{core.AgentID(conversationID)}, nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrUnknownConversation, conversationID)
}

// Agent returns the agent with id.
func (s *Static) Agent(id core.AgentID) (Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	return a, ok
}

// Agents returns all agents in declaration order.
func (s *Static) Agents() []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.order, func(id core.AgentID, _ int) Agent { return s.agents[id] })
}

// Channel returns the channel with id.
func (s *Static) Channel(id string) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[id]
	if ok {
		c.AgentIDs = append([]core.AgentID(nil), c.AgentIDs...)
	}
	return c, ok
}

// Channels returns all channels sorted by id.
func (s *Static) Channels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.Values(s.channels)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	for i := range out {
		out[i].AgentIDs = append([]core.AgentID(nil), out[i].AgentIDs...)
	}
	return out
}

// Name resolves the display name of an agent, falling back to its id.
func (s *Static) Name(id core.AgentID) string {
	if a, ok := s.Agent(id); ok {
		return a.DisplayName()
	}
	return string(id)
}
