package deception

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/project-guardian/guardian/internal/classify"
	"github.com/project-guardian/guardian/internal/intake/model"
)

// FallbackContent is served whenever generation fails: timeouts, exhausted
// retries, or terminal provider errors. Ingest never fails on generator trouble.
const FallbackContent = "The AI could not generate plausible disinformation."

// AIModelName labels the generation pipeline version on persisted artifacts.
const AIModelName = "gemini-1.5-flash_deception_v1.2_geo-aware"

const (
	maxAttempts      = 5
	defaultBaseDelay = 4 * time.Second
	defaultMaxDelay  = 60 * time.Second
)

// Artifact is the packaged deception payload handed to persistence.
type Artifact struct {
	Content       string
	ContentType   string
	TargetContext map[string]any
	AIModel       string
	GeneratedAt   time.Time
}

// Assembler builds the prompt for a classified record, drives the generator
// with bounded retries, and packages the result.
type Assembler struct {
	gen       Generator
	logger    *zap.Logger
	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewAssembler creates an Assembler around the given generator.
func NewAssembler(gen Generator, logger *zap.Logger) *Assembler {
	return &Assembler{
		gen:       gen,
		logger:    logger,
		baseDelay: defaultBaseDelay,
		maxDelay:  defaultMaxDelay,
	}
}

// SetBackoff overrides the retry delays. Used by tests.
func (a *Assembler) SetBackoff(base, max time.Duration) {
	a.baseDelay = base
	a.maxDelay = max
}

// Assemble produces the deception artifact for a record and its verdict.
// It never returns an error: generation failure degrades to FallbackContent.
func (a *Assembler) Assemble(ctx context.Context, rec *model.InteractionRecord, verdict classify.Verdict) *Artifact {
	prompt := BuildPrompt(rec)

	content, err := a.generateWithRetry(ctx, prompt)
	if err != nil {
		a.logger.Warn("deception generation failed, serving fallback",
			zap.String("source_ip", rec.SourceIP.String()),
			zap.Error(err),
		)
		content = FallbackContent
	}

	return &Artifact{
		Content:     content,
		ContentType: "text/plain",
		TargetContext: map[string]any{
			"honeypot_type":            rec.HoneypotKind,
			"source_ip":                rec.SourceIP.String(),
			"analysis_triggered_by":    "LLM_Generation",
			"analysis_rules_triggered": verdict.Indicators,
			"scanner_metadata": map[string]any{
				"scanner_type":    verdict.ScannerType,
				"tool_confidence": verdict.ToolConfidence,
				"threat_level":    string(verdict.ThreatLevel),
				"scan_pattern":    verdict.ScanPattern,
				"is_real_browser": verdict.IsRealBrowser,
			},
			"llm_prompt":          prompt,
			"llm_response_raw":    content,
			"generated_timestamp": time.Now().UTC().Format(time.RFC3339),
		},
		AIModel:     AIModelName,
		GeneratedAt: time.Now().UTC(),
	}
}

// generateWithRetry calls the generator up to maxAttempts times. Only
// transient errors are retried, with exponential backoff doubling from
// baseDelay and capped at maxDelay. Context cancellation stops the loop.
func (a *Assembler) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	delay := a.baseDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := a.gen.Generate(ctx, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return "", err
		}
		if attempt == maxAttempts {
			break
		}

		a.logger.Warn("deception generation attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > a.maxDelay {
			delay = a.maxDelay
		}
	}

	return "", lastErr
}
