package observation

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cochaviz/collaborative-agent/internal/world"
)

//go:embed observation.schema.json
var schemaSource string

const schemaURL = "https://blocksim.local/schemas/observation.schema.json"

var schema = jsonschema.MustCompileString(schemaURL, schemaSource)

// document is the JSON shape the schema describes. Kind travels by name.
type document struct {
	Version  int                  `json:"version"`
	Kind     string               `json:"kind"`
	Sender   string               `json:"sender,omitempty"`
	Block    *world.Visualization `json:"block,omitempty"`
	Location *world.Location      `json:"location,omitempty"`
	Room     string               `json:"room,omitempty"`
	Subject  string               `json:"subject,omitempty"`
}

// Validate checks an observation against the versioned observation schema.
func Validate(o Observation) error {
	raw, err := json.Marshal(document{
		Version:  o.Version,
		Kind:     o.Kind.String(),
		Sender:   o.Sender,
		Block:    o.Block,
		Location: o.At,
		Room:     o.Room,
		Subject:  o.Subject,
	})
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal observation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("observation %s: %w", o.Kind, err)
	}
	return nil
}
