// Package gossip keeps the per-sender record of received broadcasts and
// folds trusted teammates' reports into the agent's goal registry.
package gossip

// Message is one broadcast.
type Message struct {
	From    string `json:"from"`
	Content string `json:"content"`
}

// Echo configures which outgoing messages are suppressed.
type Echo struct {
	SuppressReceived bool `yaml:"suppress_received"` // Content already received from anyone
	SuppressRepeat   bool `yaml:"suppress_repeat"`   // Content this agent already sent
}

// DefaultEcho suppresses only content already heard from a teammate.
func DefaultEcho() Echo {
	return Echo{SuppressReceived: true}
}

// History is the raw message record of one agent. Per-sender history is
// bounded; the set of seen contents is not, as it backs the echo rule.
type History struct {
	limit    int
	echo     Echo
	bySender map[string][]string
	received map[string]struct{}
	sent     map[string]struct{}
	total    int
}

// NewHistory creates a history keeping at most limit messages per sender.
// A limit of 0 keeps everything.
func NewHistory(limit int, echo Echo) *History {
	return &History{
		limit:    limit,
		echo:     echo,
		bySender: make(map[string][]string),
		received: make(map[string]struct{}),
		sent:     make(map[string]struct{}),
	}
}

// Ingest records newly delivered messages after applying rewrite to their
// content, and returns them in delivery order with the rewritten content.
// rewrite may be nil.
func (h *History) Ingest(msgs []Message, rewrite func(string) string) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if rewrite != nil {
			m.Content = rewrite(m.Content)
		}
		kept := append(h.bySender[m.From], m.Content)
		if h.limit > 0 && len(kept) > h.limit {
			kept = kept[len(kept)-h.limit:]
		}
		h.bySender[m.From] = kept
		h.received[m.Content] = struct{}{}
		h.total++
		out = append(out, m)
	}
	return out
}

// Allow reports whether content may be broadcast under the echo policy.
func (h *History) Allow(content string) bool {
	if content == "" {
		return false
	}
	if _, ok := h.received[content]; ok && h.echo.SuppressReceived {
		return false
	}
	if _, ok := h.sent[content]; ok && h.echo.SuppressRepeat {
		return false
	}
	return true
}

// MarkSent records content as broadcast by the owner.
func (h *History) MarkSent(content string) {
	h.sent[content] = struct{}{}
}

// From returns the retained messages of one sender, oldest first.
func (h *History) From(sender string) []string {
	return append([]string(nil), h.bySender[sender]...)
}

// Received returns the total number of messages ingested.
func (h *History) Received() int {
	return h.total
}
