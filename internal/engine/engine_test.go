package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochaviz/collaborative-agent/internal/gossip"
)

func TestRunStopsAtMaxTicks(t *testing.T) {
	e := NewEngine()
	e.ReportEvery = 3
	var ticks, reports []uint64
	e.OnTick = func(tick uint64) { ticks = append(ticks, tick) }
	e.OnReport = func(tick uint64) { reports = append(reports, tick) }

	last := e.Run(7)
	assert.Equal(t, uint64(7), last)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7}, ticks)
	assert.Equal(t, []uint64{3, 6}, reports)
	assert.False(t, e.Running())
}

func TestRunStopsWhenDone(t *testing.T) {
	e := NewEngine()
	e.Done = func() bool { return e.Tick >= 4 }
	assert.Equal(t, uint64(4), e.Run(100))
}

func TestStopFromCallback(t *testing.T) {
	e := NewEngine()
	e.OnTick = func(tick uint64) {
		if tick == 2 {
			e.Stop()
		}
	}
	assert.Equal(t, uint64(2), e.Run(0))
}

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()

	b.Advance()
	b.Send("alice", "a1", "a2")
	b.Send("bob", "b1")
	assert.Empty(t, b.Inbox("carol"), "nothing is visible in the tick it was sent")

	b.Advance()
	assert.Equal(t, []gossip.Message{{From: "bob", Content: "b1"}}, b.Inbox("alice"))
	assert.Equal(t, []gossip.Message{{From: "alice", Content: "a1"}, {From: "alice", Content: "a2"}}, b.Inbox("bob"))
	require.Len(t, b.Inbox("carol"), 3)
	assert.Equal(t, 3, b.Sent())

	b.Advance()
	assert.Empty(t, b.Inbox("carol"), "messages are delivered once")
}
