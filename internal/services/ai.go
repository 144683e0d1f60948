package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

const planInstructions = `You are a helpful assistant that creates structured plans. Please respond with ONLY a valid JSON object, no additional text or markdown formatting.

Create a structured plan based on the user's request using this exact format:
{
  "title": "Brief, descriptive title",
  "description": "Overview of the plan",
  "steps": [
    {
      "title": "Step title",
      "description": "Detailed explanation",
      "order": 1
    }
  ]
}

Important: Return only the JSON object, no other text.`

var (
	planGenerationOptions = GenerateOptions{Temperature: 0.7, MaxTokens: 2048}
	replyOptions          = GenerateOptions{Temperature: 0.7, MaxTokens: 1024}
)

// ErrEmptyPrompt is returned by Reply for a blank prompt.
var ErrEmptyPrompt = errors.New("prompt is empty")

// RetryConfig controls retries of a generate-and-parse attempt.
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	Timeout           time.Duration // per attempt
}

// DefaultRetryConfig returns three attempts with a backoff doubling from one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		BackoffMultiplier: 2.0,
		Timeout:           30 * time.Second,
	}
}

// AIService turns prompts into plan drafts and conversational replies.
type AIService struct {
	model LanguageModel
	retry RetryConfig
	sem   *semaphore.Weighted
}

// NewAIService wraps model. maxConcurrent caps in-flight model calls across
// all requests; values below one are treated as one.
func NewAIService(model LanguageModel, retry RetryConfig, maxConcurrent int) *AIService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &AIService{
		model: model,
		retry: retry,
		sem:   semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// BuildPlanPrompt wraps a user request in the plan instruction template.
func BuildPlanPrompt(prompt string) string {
	return planInstructions + "\n\nUser request: " + prompt
}

// GeneratePlan asks the model for a plan and parses the reply. It never fails
// loudly: any error after all retries yields (nil, false).
func (s *AIService) GeneratePlan(ctx context.Context, prompt string) (*PlanDraft, bool) {
	if strings.TrimSpace(prompt) == "" {
		return nil, false
	}

	var draft *PlanDraft
	err := s.retryWithBackoff(ctx, "generate-plan", func(attemptCtx context.Context) error {
		text, err := s.complete(attemptCtx, BuildPlanPrompt(prompt), planGenerationOptions)
		if err != nil {
			return err
		}

		parsed, err := ParsePlanDraft(text)
		if err != nil {
			return err
		}
		draft = parsed
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "plan generation failed", "error", err)
		return nil, false
	}
	return draft, true
}

// Reply returns a plain conversational answer to prompt.
func (s *AIService) Reply(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.retry.Timeout)
	defer cancel()

	text, err := s.complete(attemptCtx, prompt, replyOptions)
	if err != nil {
		return "", fmt.Errorf("reply failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (s *AIService) complete(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire model slot: %w", err)
	}
	defer s.sem.Release(1)

	return s.model.Generate(ctx, prompt, opts)
}

// retryWithBackoff runs fn up to MaxAttempts times. Each attempt gets its own
// timeout; cancelling ctx stops both attempts and backoff waits.
func (s *AIService) retryWithBackoff(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error
	backoff := s.retry.InitialBackoff

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.retry.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "model call succeeded after retry", "operation", operation, "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if !isRetriableError(err) {
			return fmt.Errorf("%s failed with non-retriable error: %w", operation, err)
		}
		if attempt == s.retry.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s failed: context canceled: %w", operation, ctx.Err())
		}

		slog.WarnContext(ctx, "model call failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", s.retry.MaxAttempts,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * s.retry.BackoffMultiplier)
		case <-ctx.Done():
			return fmt.Errorf("%s failed: context canceled during backoff: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, s.retry.MaxAttempts, lastErr)
}

func isRetriableError(err error) bool {
	var modelErr *ModelError
	if errors.As(err, &modelErr) && modelErr.Permanent() {
		return false
	}
	return true
}
