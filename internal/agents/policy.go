package agents

import (
	"fmt"

	"github.com/cochaviz/collaborative-agent/internal/entropy"
	"github.com/cochaviz/collaborative-agent/internal/world"
)

// Policy customises the base controller. Each variant is a value chosen at
// construction; the controller calls the hooks at fixed points.
type Policy interface {
	Name() string
	// Capacity is the number of blocks the agent can carry at once.
	Capacity() int
	// Perceive maps a block's true appearance to what the agent sees.
	Perceive(vis world.Visualization) world.Visualization
	// Outgoing may rewrite a report before it is broadcast.
	Outgoing(text string, snap *world.Snapshot) string
	// Incoming may rewrite a received report before it is stored or parsed.
	Incoming(text string) string
	// Intercept may take over a phase. handled=false runs the base handler.
	Intercept(phase Phase, a *Agent) (next Phase, act *world.Action, handled bool)
}

// Variant names accepted by NewPolicy.
const (
	VariantBaseline    = "baseline"
	VariantStrong      = "strong"
	VariantColourblind = "colourblind"
	VariantLazy        = "lazy"
	VariantLiar        = "liar"
)

// Variants lists every known variant name.
var Variants = []string{VariantBaseline, VariantStrong, VariantColourblind, VariantLazy, VariantLiar}

// VariantOptions holds the knobs of the behavioural variants.
type VariantOptions struct {
	FlakyProbability     float64 `yaml:"flaky_probability"`     // Chance the lazy agent gives up
	DeceptionProbability float64 `yaml:"deception_probability"` // Chance the liar falsifies a report
	NeutralColour        string  `yaml:"neutral_colour"`        // What the colour-blind agent sees
	StrongCapacity       int     `yaml:"strong_capacity"`
}

// DefaultVariantOptions returns the reference variant tuning.
func DefaultVariantOptions() VariantOptions {
	return VariantOptions{
		FlakyProbability:     0.5,
		DeceptionProbability: 0.8,
		NeutralColour:        "#000000",
		StrongCapacity:       2,
	}
}

// NewPolicy builds the named variant. rng drives its coin flips.
func NewPolicy(name string, opts VariantOptions, rng entropy.Source) (Policy, error) {
	if rng == nil {
		rng = entropy.Crypto{}
	}
	switch name {
	case VariantBaseline, "":
		return Baseline{}, nil
	case VariantStrong:
		return Strong{capacity: max(opts.StrongCapacity, 1)}, nil
	case VariantColourblind:
		return Colourblind{neutral: opts.NeutralColour}, nil
	case VariantLazy:
		return Lazy{p: opts.FlakyProbability, rng: rng}, nil
	case VariantLiar:
		return Liar{p: opts.DeceptionProbability, rng: rng}, nil
	}
	return nil, fmt.Errorf("unknown agent variant %q", name)
}

// Baseline is the unmodified controller with capacity one.
type Baseline struct{}

func (Baseline) Name() string  { return VariantBaseline }
func (Baseline) Capacity() int { return 1 }

func (Baseline) Perceive(vis world.Visualization) world.Visualization { return vis }

func (Baseline) Outgoing(text string, _ *world.Snapshot) string { return text }

func (Baseline) Incoming(text string) string { return text }

func (Baseline) Intercept(Phase, *Agent) (Phase, *world.Action, bool) { return 0, nil, false }

// Strong carries more than one block and delivers them in goal order.
type Strong struct {
	Baseline
	capacity int
}

func (Strong) Name() string    { return VariantStrong }
func (s Strong) Capacity() int { return s.capacity }
