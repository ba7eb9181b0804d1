package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/directory"
)

func TestDirectoryPersona(t *testing.T) {
	dir, err := directory.NewStatic([]directory.Agent{
		{ID: "alice", Name: "Alice", Role: "SRE", Description: "Keeps prod alive.", Knowledge: []string{"Freeze on Fridays."}},
	}, nil)
	require.NoError(t, err)

	p := DirectoryPersona(dir)
	got := p("alice")
	assert.Contains(t, got, "You are Alice, SRE")
	assert.Contains(t, got, "Keeps prod alive.")
	assert.Contains(t, got, "- Freeze on Fridays.")
	assert.Equal(t, DefaultPersona("ghost"), p("ghost"))
}
