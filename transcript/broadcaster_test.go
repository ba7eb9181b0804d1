package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agentchat/internal/testutil"
)

func TestBroadcaster_DropsWhenFull(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(testutil.NewEventBuilder().Question("one").Build())
	b.Publish(testutil.NewEventBuilder().Question("two").Build())

	assert.Equal(t, int64(2), b.Published())
	assert.Equal(t, int64(1), b.Dropped())
	ev := <-ch
	assert.Equal(t, "one", ev.Text)
}

func TestBroadcaster_CancelIsIdempotent(t *testing.T) {
	b := NewBroadcaster(0)
	ch, cancel := b.Subscribe()
	assert.Equal(t, 1, b.Subscribers())
	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers())
	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroadcaster_SubscribeAfterClose(t *testing.T) {
	b := NewBroadcaster(0)
	b.Close()
	ch, cancel := b.Subscribe()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	b.Publish(testutil.NewEventBuilder().Build())
	assert.Zero(t, b.Published())
}
