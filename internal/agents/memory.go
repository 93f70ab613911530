package agents

import (
	"cmp"
	"slices"
)

// MaxMemories bounds an agent's journal.
const MaxMemories = 50

// Memory is one journal entry: something the agent did or concluded.
type Memory struct {
	Tick       uint64  `json:"tick"`
	Content    string  `json:"content"`
	Importance float32 `json:"importance"` // 0.0–1.0
}

func (a *Agent) remember(tick uint64, content string, importance float32) {
	AddMemory(a, tick, content, importance)
	a.log.Debug("journal", "tick", tick, "event", content)
}

// AddMemory records an entry in the agent's journal. A full journal evicts
// its least important entry, oldest first among equals, and only if the new
// entry outranks it.
func AddMemory(a *Agent, tick uint64, content string, importance float32) {
	m := Memory{Tick: tick, Content: content, Importance: importance}
	if len(a.Memories) < MaxMemories {
		a.Memories = append(a.Memories, m)
		return
	}

	least := slices.MinFunc(a.Memories, byImportanceThenAge)
	victim := slices.Index(a.Memories, least)
	if m.Importance > a.Memories[victim].Importance {
		a.Memories = slices.Delete(a.Memories, victim, victim+1)
		a.Memories = append(a.Memories, m)
	}
}

func byImportanceThenAge(x, y Memory) int {
	return cmp.Or(cmp.Compare(x.Importance, y.Importance), cmp.Compare(x.Tick, y.Tick))
}

// RecentMemories returns up to count entries, newest first.
func RecentMemories(a *Agent, count int) []Memory {
	return topMemories(a.Memories, count, func(x, y Memory) int {
		return cmp.Compare(y.Tick, x.Tick)
	})
}

// ImportantMemories returns up to count entries, most important first.
func ImportantMemories(a *Agent, count int) []Memory {
	return topMemories(a.Memories, count, func(x, y Memory) int {
		return cmp.Compare(y.Importance, x.Importance)
	})
}

func topMemories(ms []Memory, count int, order func(x, y Memory) int) []Memory {
	if len(ms) == 0 {
		return nil
	}
	sorted := slices.Clone(ms)
	slices.SortStableFunc(sorted, order)
	return sorted[:min(count, len(sorted))]
}
