package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
)

const sample = `
agents:
  - id: alice
    name: Alice
    role: SRE
    knowledge:
      - "Deploys freeze on Fridays."
  - id: bob
    name: Bob
  - id: carol
channels:
  - id: ops
    name: Operations
    agents: [alice, bob, alice]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	writeFile(t, path, sample)

	dir, err := LoadFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	ids, err := dir.ListAgents(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, []core.AgentID{"alice", "bob"}, ids)

	ids, err = dir.ListAgents(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []core.AgentID{"carol"}, ids)

	_, err = dir.ListAgents(ctx, "nowhere")
	assert.ErrorIs(t, err, core.ErrUnknownConversation)

	a, ok := dir.Agent("alice")
	require.True(t, ok)
	assert.Equal(t, "SRE", a.Role)
	assert.Equal(t, []string{"Deploys freeze on Fridays."}, a.Knowledge)

	assert.Equal(t, "Alice", dir.Name("alice"))
	assert.Equal(t, "carol", dir.Name("carol"))
	assert.Equal(t, "ghost", dir.Name("ghost"))
	assert.Len(t, dir.Agents(), 3)
	assert.Equal(t, "alice", string(dir.Agents()[0].ID))
}

func TestNewStatic_Validation(t *testing.T) {
	_, err := NewStatic([]Agent{{ID: "a"}, {ID: "a"}}, nil)
	assert.Error(t, err)

	_, err = NewStatic([]Agent{{ID: "a"}}, []Channel{{ID: "c", AgentIDs: []core.AgentID{"b"}}})
	assert.True(t, errors.Is(err, core.ErrUnknownAgent))

	_, err = NewStatic([]Agent{{ID: "a"}}, []Channel{{ID: "a"}})
	assert.Error(t, err)

	_, err = NewStatic([]Agent{{Name: "nameless"}}, nil)
	assert.Error(t, err)
}

func TestStatic_ReturnsCopies(t *testing.T) {
	dir, err := NewStatic([]Agent{{ID: "a"}, {ID: "b"}}, []Channel{{ID: "c", AgentIDs: []core.AgentID{"a", "b"}}})
	require.NoError(t, err)

	ids, _ := dir.ListAgents(context.Background(), "c")
	ids[0] = "zzz"
	ch, _ := dir.Channel("c")
	ch.AgentIDs[1] = "yyy"

	again, _ := dir.ListAgents(context.Background(), "c")
	assert.Equal(t, []core.AgentID{"a", "b"}, again)
	assert.Equal(t, "c", dir.Channels()[0].ID)
}

func TestStatic_ListAgentsHonoursContext(t *testing.T) {
	dir, _ := NewStatic([]Agent{{ID: "a"}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := dir.ListAgents(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatic_ReloadKeepsContentOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	writeFile(t, path, sample)
	dir, err := LoadFile(path)
	require.NoError(t, err)

	writeFile(t, path, "agents: [ {id: x}, {id: x} ]")
	assert.Error(t, dir.Reload(path))
	assert.Len(t, dir.Agents(), 3)
}

func TestStatic_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	writeFile(t, path, sample)
	dir, err := LoadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan error, 8)
	require.NoError(t, dir.Watch(ctx, path, func(o *WatchOptions) {
		o.Debounce = 20 * time.Millisecond
		o.OnReload = func(err error) {
			select {
			case reloaded <- err:
			default:
			}
		}
	}))

	writeFile(t, path, `
agents:
  - id: dave
    name: Dave
channels:
  - id: ops
    agents: [dave]
`)

	assert.Eventually(t, func() bool {
		ids, err := dir.ListAgents(context.Background(), "ops")
		return err == nil && len(ids) == 1 && ids[0] == "dave"
	}, 3*time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, reloaded)
}
