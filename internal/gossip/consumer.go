package gossip

import (
	"fmt"

	"github.com/cochaviz/collaborative-agent/internal/goals"
	"github.com/cochaviz/collaborative-agent/internal/observation"
)

// Mode selects how trust gates incoming reports.
type Mode string

const (
	ModeFilter   Mode = "filter"   // Act on reports of teammates we still listen to
	ModeDiscount Mode = "discount" // Act only on reports of teammates at or above a score
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFilter, ModeDiscount:
		return Mode(s), nil
	case "":
		return ModeFilter, nil
	}
	return "", fmt.Errorf("unknown gossip mode %q", s)
}

// Gate is the view of the trust engine the consumer needs.
type Gate interface {
	Listening(id string) bool
	Score(id string) float64
}

// Effect summarises what folding one report changed.
type Effect struct {
	Remembered int  // Goals that gained a candidate
	Advanced   bool // Delivery cursor moved forward
	Cleared    int  // Candidates dropped because a teammate took them
}

// Consumer folds accepted reports into a goal registry as if they had been
// observed locally, minus the object handle.
type Consumer struct {
	mode      Mode
	threshold float64
	gate      Gate
}

// NewConsumer creates a consumer. threshold is only used in discount mode.
func NewConsumer(mode Mode, threshold float64, gate Gate) *Consumer {
	return &Consumer{mode: mode, threshold: threshold, gate: gate}
}

// Accepts reports whether sender's reports are currently acted upon.
func (c *Consumer) Accepts(sender string) bool {
	if c.mode == ModeDiscount {
		return c.gate.Listening(sender) && c.gate.Score(sender) >= c.threshold
	}
	return c.gate.Listening(sender)
}

// Fold applies one report from sender to reg.
func (c *Consumer) Fold(sender string, obs observation.Observation, reg *goals.Registry) Effect {
	var eff Effect
	if !c.Accepts(sender) || !obs.HasBlock() {
		return eff
	}

	switch obs.Kind {
	case observation.KindFound:
		eff.Remembered = reg.Remember(goals.Collectable{
			Vis:      *obs.Block,
			Location: *obs.At,
			Source:   sender,
		})

	case observation.KindDropped:
		g, ok := reg.Current()
		if ok && g.Vis.Matches(*obs.Block) && g.Location == *obs.At {
			eff.Advanced = reg.Advance()
		}

	case observation.KindPickingUp:
		eff.Cleared = reg.ClearMatchAt(*obs.Block, *obs.At)
	}
	return eff
}
