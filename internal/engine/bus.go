package engine

import "github.com/cochaviz/collaborative-agent/internal/gossip"

// Bus is the team broadcast channel. Messages sent during tick t become
// visible to every other agent on tick t+1, in the order they were sent.
type Bus struct {
	pending   []gossip.Message // Sent this tick
	delivered []gossip.Message // Visible this tick
	sent      int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Advance moves to the next tick: last tick's messages become deliverable
// and the previous batch is discarded.
func (b *Bus) Advance() {
	b.delivered = b.pending
	b.pending = nil
}

// Send queues messages from one agent for delivery on the next tick.
func (b *Bus) Send(from string, contents ...string) {
	for _, c := range contents {
		b.pending = append(b.pending, gossip.Message{From: from, Content: c})
		b.sent++
	}
}

// Inbox returns this tick's messages for id, excluding its own.
func (b *Bus) Inbox(id string) []gossip.Message {
	out := make([]gossip.Message, 0, len(b.delivered))
	for _, m := range b.delivered {
		if m.From != id {
			out = append(out, m)
		}
	}
	return out
}

// Sent returns the number of messages sent so far.
func (b *Bus) Sent() int {
	return b.sent
}
