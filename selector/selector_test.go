package selector

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/directory"
)

func newDirectory(t *testing.T) *directory.Static {
	t.Helper()
	dir, err := directory.NewStatic(
		[]directory.Agent{{ID: "alice"}, {ID: "bob"}, {ID: "henry"}, {ID: "outsider"}},
		[]directory.Channel{{ID: "ops", AgentIDs: []core.AgentID{"alice", "bob", "henry"}}},
	)
	require.NoError(t, err)
	return dir
}

func TestSelector_SelectValidates(t *testing.T) {
	s := New("ops", newDirectory(t))
	ctx := context.Background()

	require.NoError(t, s.Select(ctx, []core.AgentID{"alice", "henry", "alice"}))
	assert.Equal(t, []core.AgentID{"alice", "henry"}, s.Snapshot())
	assert.True(t, s.Selected("henry"))
	assert.False(t, s.Selected("bob"))

	err := s.Select(ctx, []core.AgentID{"bob", "outsider"})
	assert.ErrorIs(t, err, core.ErrUnknownAgent)
	assert.Contains(t, err.Error(), "outsider")
	assert.Equal(t, []core.AgentID{"alice", "henry"}, s.Snapshot(), "failed select must not change the set")

	require.NoError(t, s.Select(ctx, nil))
	assert.Empty(t, s.Snapshot())
	assert.Zero(t, s.Len())
}

func TestSelector_SelectAll(t *testing.T) {
	s := New("ops", newDirectory(t))
	ids, err := s.SelectAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.AgentID{"alice", "bob", "henry"}, ids)
	assert.Equal(t, ids, s.Snapshot())

	_, err = New("ops", nil).SelectAll(context.Background())
	assert.ErrorIs(t, err, ErrNoDirectory)
}

func TestSelector_UnknownConversation(t *testing.T) {
	s := New("nowhere", newDirectory(t))
	_, err := s.SelectAll(context.Background())
	assert.ErrorIs(t, err, core.ErrUnknownConversation)
}

func TestSelector_WithoutDirectoryAcceptsAnything(t *testing.T) {
	s := New("ops", nil)
	require.NoError(t, s.Select(context.Background(), []core.AgentID{"x", "y"}))
	assert.Equal(t, []core.AgentID{"x", "y"}, s.Snapshot())
}

func TestSelector_SnapshotIsCopy(t *testing.T) {
	s := New("ops", nil)
	require.NoError(t, s.Select(context.Background(), []core.AgentID{"a", "b"}))
	snap := s.Snapshot()
	snap[0] = "changed"
	assert.Equal(t, []core.AgentID{"a", "b"}, s.Snapshot())
}

func TestSelector_SnapshotAtomicUnderConcurrentSelect(t *testing.T) {
	s := New("ops", nil)
	setA := []core.AgentID{"a1", "a2", "a3"}
	setB := []core.AgentID{"b1", "b2", "b3"}
	require.NoError(t, s.Select(context.Background(), setA))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			set := setA
			if i%2 == 1 {
				set = setB
			}
			_ = s.Select(context.Background(), set)
		}
	}()
	for i := 0; i < 1000; i++ {
		snap := s.Snapshot()
		if !assert.True(t, assert.ObjectsAreEqual(setA, snap) || assert.ObjectsAreEqual(setB, snap), "partial set %v", snap) {
			break
		}
	}
	close(stop)
	wg.Wait()
}

func TestParseSelection(t *testing.T) {
	available := []core.AgentID{"alice", "bob", "henry"}

	ids, err := ParseSelection(" ALL ", available)
	require.NoError(t, err)
	assert.Equal(t, available, ids)

	ids, err = ParseSelection("henry, alice,,henry", available)
	require.NoError(t, err)
	assert.Equal(t, []core.AgentID{"henry", "alice"}, ids)

	_, err = ParseSelection("alice,zed", available)
	assert.ErrorIs(t, err, core.ErrUnknownAgent)

	_, err = ParseSelection(" , ", available)
	assert.ErrorIs(t, err, ErrEmptySelection)
}
