package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yukikurage/coaching-plans-api/internal/constants"
	"github.com/yukikurage/coaching-plans-api/internal/models"
)

// ErrEmptyMessage is returned for a blank chat message.
var ErrEmptyMessage = errors.New("message is required")

// FallbackReply is sent when the model cannot produce any answer.
const FallbackReply = "I'm having trouble generating a response right now. Could you try rephrasing your question?"

// DefaultPlanTriggers are the phrases that route a message to plan generation.
var DefaultPlanTriggers = []string{"plan", "routine", "help me"}

// Classifier decides whether a chat message asks for a plan.
type Classifier interface {
	IsPlanRequest(message string) bool
}

// KeywordClassifier matches case-insensitive substrings.
type KeywordClassifier struct {
	Triggers []string
}

func NewKeywordClassifier() KeywordClassifier {
	return KeywordClassifier{Triggers: DefaultPlanTriggers}
}

func (k KeywordClassifier) IsPlanRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range k.Triggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// PlanGenerator is the model-facing side of the chat flow.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, prompt string) (*PlanDraft, bool)
	Reply(ctx context.Context, prompt string) (string, error)
}

// PlanCreator stores generated plans.
type PlanCreator interface {
	CreatePlan(ctx context.Context, input CreatePlanInput) (*models.Plan, error)
}

type ChatReplyKind string

const (
	ChatKindPlan     ChatReplyKind = "plan"
	ChatKindReply    ChatReplyKind = "reply"
	ChatKindFallback ChatReplyKind = "fallback"
)

// ChatResult is the assistant's answer to one message.
type ChatResult struct {
	Kind      ChatReplyKind
	Message   string
	Plan      *PlanDraft
	Saved     bool
	SavedPlan *models.Plan
}

// ChatService routes chat messages to plan generation or a plain reply.
type ChatService struct {
	classifier Classifier
	generator  PlanGenerator
	plans      PlanCreator
}

func NewChatService(classifier Classifier, generator PlanGenerator, plans PlanCreator) *ChatService {
	return &ChatService{
		classifier: classifier,
		generator:  generator,
		plans:      plans,
	}
}

// HandleMessage answers one message. Model and storage failures degrade the
// answer instead of failing the call; only a blank message is an error.
func (s *ChatService) HandleMessage(ctx context.Context, userID *uint64, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if s.classifier.IsPlanRequest(message) {
		if draft, ok := s.generator.GeneratePlan(ctx, message); ok {
			return s.presentPlan(ctx, userID, draft), nil
		}
		slog.InfoContext(ctx, "plan request fell back to plain reply")
	}

	return s.reply(ctx, message), nil
}

func (s *ChatService) presentPlan(ctx context.Context, userID *uint64, draft *PlanDraft) *ChatResult {
	result := &ChatResult{Kind: ChatKindPlan, Plan: draft}

	steps := make([]StepInput, len(draft.Steps))
	for i, step := range draft.Steps {
		order := step.Order
		steps[i] = StepInput{Title: step.Title, Description: step.Description, Order: &order}
	}

	saved, err := s.plans.CreatePlan(ctx, CreatePlanInput{
		Title:         draft.Title,
		Description:   draft.Description,
		Category:      constants.DefaultPlanCategory,
		IsAIGenerated: true,
		UserID:        userID,
		Steps:         steps,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to save generated plan", "error", err, "title", draft.Title)
		result.Message = formatPlanMessage(draft, false)
		return result
	}

	result.Saved = true
	result.SavedPlan = saved
	result.Message = formatPlanMessage(draft, true)
	return result
}

func (s *ChatService) reply(ctx context.Context, message string) *ChatResult {
	text, err := s.generator.Reply(ctx, message)
	if err != nil || text == "" {
		slog.WarnContext(ctx, "plain reply failed", "error", err)
		return &ChatResult{Kind: ChatKindFallback, Message: FallbackReply}
	}
	return &ChatResult{Kind: ChatKindReply, Message: text}
}

func formatPlanMessage(draft *PlanDraft, saved bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I've created a plan for you: \"%s\"\n\n%s\n\nSteps:\n", draft.Title, draft.Description)
	for i, step := range draft.Steps {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s: %s", step.Title, step.Description)
	}
	b.WriteString("\n\n")

	if saved {
		b.WriteString("I've saved this plan to your Plans List, where you can view all the steps and track your progress.")
	} else {
		b.WriteString("Note: I couldn't save this plan to your Plans List, but you can still use it from this conversation.")
	}
	return b.String()
}
