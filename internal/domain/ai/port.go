package ai

import "context"

// Client produces a natural language summary of an analysis digest.
type Client interface {
	Summarize(ctx context.Context, digest string) (string, error)
}
