package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/coaching-plans-api/internal/constants"
	"github.com/yukikurage/coaching-plans-api/internal/models"
	"github.com/yukikurage/coaching-plans-api/internal/repository"
	"github.com/yukikurage/coaching-plans-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrStepNotFound      = errors.New("plan step not found")
	ErrTitleRequired     = errors.New("plan title is required")
	ErrStepTitleRequired = errors.New("step title is required")
	ErrInvalidStepOrder  = errors.New("step order must be a positive integer")
	ErrTooManySteps      = fmt.Errorf("a plan may have at most %d steps", constants.MaxStepsPerPlan)
)

// StorageError reports a failed database operation. The underlying error is
// kept for diagnostics.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PlanService handles plan related business logic.
type PlanService struct {
	planRepo repository.PlanRepository
}

// NewPlanService creates a new PlanService.
func NewPlanService(planRepo repository.PlanRepository) *PlanService {
	return &PlanService{
		planRepo: planRepo,
	}
}

// StepInput describes one step of a new plan. A nil or zero Order means
// "use the step's 1-based position".
type StepInput struct {
	Title       string
	Description string
	Order       *int
}

// CreatePlanInput represents the information required to create a plan.
type CreatePlanInput struct {
	Title         string
	Description   string
	Category      string
	IsAIGenerated bool
	UserID        *uint64
	Steps         []StepInput
}

// UpdatePlanInput carries the fields to rewrite; nil fields are unchanged.
type UpdatePlanInput struct {
	Title       *string
	Description *string
	Category    *string
}

// CreatePlan validates the input and stores the plan together with its steps.
// Either everything is stored or nothing is.
func (s *PlanService) CreatePlan(ctx context.Context, input CreatePlanInput) (*models.Plan, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(input.Steps) > constants.MaxStepsPerPlan {
		return nil, ErrTooManySteps
	}

	steps := make([]models.PlanStep, len(input.Steps))
	for i, stepInput := range input.Steps {
		stepTitle := strings.TrimSpace(stepInput.Title)
		if stepTitle == "" {
			return nil, fmt.Errorf("%w (step %d)", ErrStepTitleRequired, i+1)
		}

		order := i + 1
		if stepInput.Order != nil && *stepInput.Order != 0 {
			order = *stepInput.Order
		}
		if order < 1 {
			return nil, fmt.Errorf("%w (step %d)", ErrInvalidStepOrder, i+1)
		}

		steps[i] = models.PlanStep{
			Title:       stepTitle,
			Description: stepInput.Description,
			OrderNumber: order,
		}
	}

	plan := &models.Plan{
		Title:         title,
		Description:   input.Description,
		Category:      input.Category,
		IsAIGenerated: input.IsAIGenerated,
		UserID:        input.UserID,
	}

	created, err := s.planRepo.CreateWithSteps(ctx, plan, steps)
	if err != nil {
		return nil, &StorageError{Op: "create plan", Err: err}
	}
	return created, nil
}

// ListPlans returns the owner's plans, newest first.
func (s *PlanService) ListPlans(ctx context.Context, userID *uint64, pagination *utils.PaginationParams) ([]models.Plan, error) {
	plans, err := s.planRepo.List(ctx, repository.PlanFilter{
		UserID:     userID,
		Pagination: pagination,
	})
	if err != nil {
		return nil, &StorageError{Op: "list plans", Err: err}
	}
	return plans, nil
}

// GetPlan returns one plan with its ordered steps.
func (s *PlanService) GetPlan(ctx context.Context, id string, userID *uint64) (*models.Plan, error) {
	if !isPlanID(id) {
		return nil, ErrPlanNotFound
	}

	plan, err := s.planRepo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, planLookupError("get plan", err)
	}
	return plan, nil
}

// UpdatePlan rewrites a plan's title, description and category.
func (s *PlanService) UpdatePlan(ctx context.Context, id string, userID *uint64, input UpdatePlanInput) (*models.Plan, error) {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		input.Title = &title
	}
	if !isPlanID(id) {
		return nil, ErrPlanNotFound
	}

	plan, err := s.planRepo.Update(ctx, id, userID, repository.PlanChanges{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
	})
	if err != nil {
		return nil, planLookupError("update plan", err)
	}
	return plan, nil
}

// DeletePlan removes a plan and its steps.
func (s *PlanService) DeletePlan(ctx context.Context, id string, userID *uint64) error {
	if !isPlanID(id) {
		return ErrPlanNotFound
	}

	if err := s.planRepo.Delete(ctx, id, userID); err != nil {
		return planLookupError("delete plan", err)
	}
	return nil
}

// SetStepCompletion marks a step of the given plan completed or not completed.
func (s *PlanService) SetStepCompletion(ctx context.Context, planID string, stepID uint64, userID *uint64, completed bool) (*models.PlanStep, error) {
	if !isPlanID(planID) {
		return nil, ErrStepNotFound
	}

	step, err := s.planRepo.SetStepCompletion(ctx, planID, stepID, userID, completed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStepNotFound
		}
		return nil, &StorageError{Op: "update step", Err: err}
	}
	return step, nil
}

func planLookupError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPlanNotFound
	}
	return &StorageError{Op: op, Err: err}
}

// isPlanID reports whether id is shaped like a plan identifier. Anything else
// cannot match a stored plan.
func isPlanID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
