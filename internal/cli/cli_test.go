package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, input string, args ...string) string {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(append([]string{"--env-file", "", "--no-color"}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd("1.2.3")
	assert.Equal(t, "1.2.3", root.Version)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"chat", "dm", "agents", "channels"} {
		assert.True(t, names[want], "expected subcommand %q", want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("directory"))
	assert.Equal(t, "dev", NewRootCmd("").Version)
}

func TestAgentsCmd(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "echo")

	out := execute(t, "", "agents")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "Site Reliability Engineer")
	assert.Contains(t, out, "bob")

	out = execute(t, "", "agents", "ops")
	assert.Contains(t, out, "henry")
	assert.NotContains(t, out, "Product Manager")
}

func TestChannelsCmd(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "echo")

	out := execute(t, "", "channels")
	assert.Contains(t, out, "general")
	assert.Contains(t, out, "alice,henry")
}

func TestDirectoryFlag(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "echo")
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agents:
  - id: zoe
    name: Zoe
    role: Designer
channels:
  - id: design
    name: Design
    agents: [zoe]
`), 0o600))

	out := execute(t, "", "--directory", path, "agents")
	assert.Contains(t, out, "Designer")
	assert.NotContains(t, out, "alice")
}

func TestChatSession(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "echo")

	input := strings.Join([]string{
		"hello",
		"/list",
		"/context off",
		"/context",
		"/history",
		"/bogus",
		"/quit",
	}, "\n")
	out := execute(t, input, "chat", "-c", "ops")

	assert.Contains(t, out, "Interactive Channel Chat")
	assert.Contains(t, out, "Channel: Operations")
	assert.Contains(t, out, "Selected 2 agent(s)")
	assert.Contains(t, out, "Sending to 2 agent(s)...")
	assert.Contains(t, out, "[Alice (alice)]")
	assert.Contains(t, out, "alice: hello")
	assert.Contains(t, out, "henry: hello")
	assert.Contains(t, out, "Context inclusion disabled.")
	assert.Contains(t, out, "Context is currently disabled.")
	assert.Contains(t, out, "Conversation History")
	assert.Contains(t, out, "Unknown command: /bogus")
	assert.Contains(t, out, "Messages sent: 1")
	assert.Contains(t, out, "Agents queried: 2")
}

func TestChatSelectAgents(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "echo")

	input := strings.Join([]string{
		"/agents",
		"mallory",
		"henry",
		"ping",
		"/quit",
	}, "\n")
	out := execute(t, input, "chat", "-c", "ops")

	assert.Contains(t, out, "unknown agent")
	assert.Contains(t, out, "Selected 1 agent(s).")
	assert.Contains(t, out, "henry: ping")
	assert.NotContains(t, out, "alice: ping")
	assert.Contains(t, out, "Agents queried: 1")
}

func TestChatClearAndCancel(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "echo")

	out := execute(t, "one\n/clear\n/history\n/cancel\n", "chat")

	assert.Contains(t, out, "Conversation history cleared.")
	assert.Contains(t, out, "No conversation history yet.")
	assert.Contains(t, out, "No active turn.")
	assert.Contains(t, out, "Session Summary")
}

func TestDirectSession(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "knowledge")

	out := execute(t, "When do deploys freeze?\n/agents\n/q\n", "dm", "alice")

	assert.Contains(t, out, "Direct Chat")
	assert.Contains(t, out, "Agent: Alice (alice)")
	assert.Contains(t, out, "Alice (alice) is working...")
	assert.Contains(t, out, "Here is what I know:")
	assert.Contains(t, out, "Friday")
	assert.Contains(t, out, "nothing to select")
	assert.Contains(t, out, "Messages sent: 1")
}

func TestDirectSessionUnknownAgent(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "echo")

	root := NewRootCmd("test")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--env-file", "", "dm", "mallory"})
	assert.Error(t, root.Execute())
}
