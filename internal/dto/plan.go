package dto

import (
	"math"
	"time"

	"github.com/yukikurage/coaching-plans-api/internal/models"
)

// PlanStepDTO represents a plan step in API responses
type PlanStepDTO struct {
	ID          uint64    `json:"id"`
	PlanID      string    `json:"plan_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderNumber int       `json:"order_number"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlanDTO represents a plan with its steps and progress in API responses
type PlanDTO struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Category        string        `json:"category"`
	IsAIGenerated   bool          `json:"is_ai_generated"`
	UserID          *uint64       `json:"user_id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Steps           []PlanStepDTO `json:"plan_steps"`
	CompletedSteps  int           `json:"completed_steps"`
	TotalSteps      int           `json:"total_steps"`
	ProgressPercent int           `json:"progress_percent"`
}

// ToPlanStepDTO converts a PlanStep model to PlanStepDTO
func ToPlanStepDTO(step models.PlanStep) PlanStepDTO {
	return PlanStepDTO{
		ID:          step.ID,
		PlanID:      step.PlanID,
		Title:       step.Title,
		Description: step.Description,
		OrderNumber: step.OrderNumber,
		Completed:   step.IsCompleted,
		CreatedAt:   step.CreatedAt,
		UpdatedAt:   step.UpdatedAt,
	}
}

// ToPlanDTO converts a Plan model to PlanDTO. Steps are never null.
func ToPlanDTO(plan models.Plan) PlanDTO {
	steps := make([]PlanStepDTO, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		steps = append(steps, ToPlanStepDTO(step))
	}

	completed, total := plan.Progress()
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(completed) / float64(total) * 100))
	}

	return PlanDTO{
		ID:              plan.ID,
		Title:           plan.Title,
		Description:     plan.Description,
		Category:        plan.Category,
		IsAIGenerated:   plan.IsAIGenerated,
		UserID:          plan.UserID,
		CreatedAt:       plan.CreatedAt,
		UpdatedAt:       plan.UpdatedAt,
		Steps:           steps,
		CompletedSteps:  completed,
		TotalSteps:      total,
		ProgressPercent: percent,
	}
}

// ToPlanDTOs converts a slice of plans
func ToPlanDTOs(plans []models.Plan) []PlanDTO {
	dtos := make([]PlanDTO, 0, len(plans))
	for _, plan := range plans {
		dtos = append(dtos, ToPlanDTO(plan))
	}
	return dtos
}
