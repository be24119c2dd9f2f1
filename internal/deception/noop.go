package deception

import (
	"context"

	"go.uber.org/zap"
)

// NoopGenerator serves the fixed fallback text instead of calling an LLM.
// Use in development or when no generation API key is configured.
type NoopGenerator struct {
	logger *zap.Logger
}

// NewNoopGenerator creates a NoopGenerator backed by the given logger.
func NewNoopGenerator(logger *zap.Logger) *NoopGenerator {
	return &NoopGenerator{logger: logger}
}

// Generate logs the prompt size and returns the fallback content.
func (n *NoopGenerator) Generate(_ context.Context, prompt string) (string, error) {
	n.logger.Info("deception generator: noop (no API key configured)",
		zap.Int("prompt_chars", len(prompt)),
	)
	return FallbackContent, nil
}
