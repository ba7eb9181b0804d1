package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/internal/testutil"
)

func TestRecentExchanges(t *testing.T) {
	var events []core.Event
	events = append(events, testutil.Exchange("t1", "q1", "alice", "a1")...)
	events = append(events, testutil.NewEventBuilder().Turn("t2").Question("q2").Build(),
		testutil.NewEventBuilder().Turn("t2").Participants("alice", "bob").Build(),
		testutil.NewEventBuilder().Turn("t2").Progress("alice").Build(),
		testutil.NewEventBuilder().Turn("t2").Answer("alice", "a2").Build(),
		testutil.NewEventBuilder().Turn("t2").Error("bob", core.ReasonTimeout, "").Build(),
	)
	events = append(events, testutil.Exchange("t3", "q3", "bob", "b3")...)

	got := RecentExchanges(events, 2)
	require.Len(t, got, 4)
	assert.Equal(t, "q2", got[0].Text)
	assert.Equal(t, "a2", got[1].Text)
	assert.Equal(t, "q3", got[2].Text)
	assert.Equal(t, "b3", got[3].Text)

	assert.Len(t, RecentExchanges(events, 10), 6)
	assert.Nil(t, RecentExchanges(events, 0))
	assert.Empty(t, RecentExchanges(nil, 3))
}

func TestFormatContext(t *testing.T) {
	history := testutil.Exchange("t1", "What is Go?", "alice", "A language.")
	names := func(id core.AgentID) string {
		if id == "alice" {
			return "Alice Smith"
		}
		return ""
	}

	got := FormatContext(history, "And Rust?", names)
	want := "Previous conversation:\n---\n[User]: What is Go?\n[Alice Smith]: A language.\n---\n\nNew question: And Rust?"
	assert.Equal(t, want, got)
}

func TestFormatContext_EmptyHistory(t *testing.T) {
	assert.Equal(t, "hello", FormatContext(nil, "hello", nil))
}

func TestFormatContext_TruncatesLongAnswers(t *testing.T) {
	long := strings.Repeat("x", 301)
	history := testutil.Exchange("t1", "q", "bob", long)

	got := FormatContext(history, "next", nil)
	assert.Contains(t, got, "[bob]: "+strings.Repeat("x", 297)+"...\n")

	exact := strings.Repeat("y", 300)
	got = FormatContext(testutil.Exchange("t1", "q", "bob", exact), "next", nil)
	assert.Contains(t, got, "[bob]: "+exact+"\n")
}
