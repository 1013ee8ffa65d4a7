// Package tools defines the functions an agent may call while it reasons.
// Tools are registered by handing a slice of them to the agent.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a named function with a declared JSON input schema.
type Tool interface {
	// Name is the identifier the model uses to call the tool.
	Name() string
	// Description tells the model when and how to use the tool.
	Description() string
	// InputSchema is the JSON Schema of the arguments object.
	InputSchema() json.RawMessage
	// Execute runs the tool with JSON arguments and returns its textual output.
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// Names returns the names of ts in order.
func Names(ts []Tool) []string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		if t == nil {
			continue
		}
		names = append(names, t.Name())
	}
	return names
}
