package agent

import "context"

// Tool is one capability the agent may invoke. Name and Description
// are inserted verbatim into the reasoning prompt, so they steer when
// the model decides to call the tool.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}
