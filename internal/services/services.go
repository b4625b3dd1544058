// Package services holds the feature adapters between the HTTP layer and the
// AI client: prompt selection, response parsing, and the deterministic
// fallbacks each feature degrades to when generation fails.
package services

import (
	"context"

	"github.com/orbitlearn/orbit-server/internal/ai"
)

// Generator is the slice of the AI client the feature services consume.
// *ai.Client satisfies it; tests substitute deterministic stubs.
type Generator interface {
	Generate(ctx context.Context, task ai.Task, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, task ai.Task, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, task ai.Task, prompt string) (string, error) {
	return f(ctx, task, prompt)
}
