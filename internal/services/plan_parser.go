package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	ErrNoJSONObject         = errors.New("no JSON object found in model reply")
	ErrMalformedJSON        = errors.New("model reply contains malformed JSON")
	ErrInvalidPlanStructure = errors.New("model reply is not a valid plan")
)

var (
	codeFenceRegex     = regexp.MustCompile("```[A-Za-z]*")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
)

// PlanDraft is a plan proposed by the language model, not yet stored.
type PlanDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Steps       []PlanDraftStep `json:"steps"`
}

// PlanDraftStep is one proposed step.
type PlanDraftStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

type rawPlanStep struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Order       *float64 `json:"order"`
}

type rawPlan struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Steps       *[]rawPlanStep `json:"steps"`
}

// ParsePlanDraft extracts a plan from free-form model output. The text may wrap
// the JSON in prose or markdown code fences and may contain trailing commas.
// Each top-level balanced object is tried in turn; the first one that decodes
// into a valid plan wins.
func ParsePlanDraft(text string) (*PlanDraft, error) {
	cleaned := codeFenceRegex.ReplaceAllString(strings.TrimSpace(text), "")

	candidates := balancedObjects(cleaned)
	if len(candidates) == 0 {
		return nil, ErrNoJSONObject
	}

	var firstErr error
	for _, candidate := range candidates {
		draft, err := decodePlanDraft(candidate)
		if err == nil {
			return draft, nil
		}
		// A structural error is more informative than a syntax error.
		if firstErr == nil || errors.Is(err, ErrInvalidPlanStructure) && !errors.Is(firstErr, ErrInvalidPlanStructure) {
			firstErr = err
		}
	}
	return nil, firstErr
}

func decodePlanDraft(candidate string) (*PlanDraft, error) {
	candidate = trailingCommaRegex.ReplaceAllString(candidate, "$1")

	var raw rawPlan
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	if strings.TrimSpace(raw.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrInvalidPlanStructure)
	}
	if strings.TrimSpace(raw.Description) == "" {
		return nil, fmt.Errorf("%w: missing description", ErrInvalidPlanStructure)
	}
	if raw.Steps == nil {
		return nil, fmt.Errorf("%w: missing steps", ErrInvalidPlanStructure)
	}

	draft := &PlanDraft{
		Title:       strings.TrimSpace(raw.Title),
		Description: raw.Description,
		Steps:       make([]PlanDraftStep, 0, len(*raw.Steps)),
	}
	for i, step := range *raw.Steps {
		if strings.TrimSpace(step.Title) == "" {
			return nil, fmt.Errorf("%w: step %d has no title", ErrInvalidPlanStructure, i+1)
		}
		if strings.TrimSpace(step.Description) == "" {
			return nil, fmt.Errorf("%w: step %d has no description", ErrInvalidPlanStructure, i+1)
		}
		if step.Order == nil {
			return nil, fmt.Errorf("%w: step %d has no numeric order", ErrInvalidPlanStructure, i+1)
		}

		order := int(math.Round(*step.Order))
		if order < 1 {
			order = i + 1
		}
		draft.Steps = append(draft.Steps, PlanDraftStep{
			Title:       strings.TrimSpace(step.Title),
			Description: step.Description,
			Order:       order,
		})
	}

	return draft, nil
}

// balancedObjects returns every top-level {...} span in text. Braces inside
// JSON string literals are ignored. An unterminated object ends the scan.
func balancedObjects(text string) []string {
	var objects []string

	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				objects = append(objects, text[start:i+1])
			}
		}
	}

	return objects
}
