package repository

import (
	"context"

	"github.com/yukikurage/coaching-plans-api/internal/models"
	"github.com/yukikurage/coaching-plans-api/internal/utils"
)

// PlanRepository defines the interface for plan data access.
// Every method is scoped to an owner; a nil owner means plans without a user.
type PlanRepository interface {
	// CreateWithSteps inserts the plan and its steps atomically, then
	// returns the stored aggregate with steps in order.
	CreateWithSteps(ctx context.Context, plan *models.Plan, steps []models.PlanStep) (*models.Plan, error)

	// FindByID finds a plan with its ordered steps
	FindByID(ctx context.Context, id string, userID *uint64) (*models.Plan, error)

	// List retrieves plans newest first, each with ordered steps
	List(ctx context.Context, filter PlanFilter) ([]models.Plan, error)

	// Update rewrites the plan's descriptive fields
	Update(ctx context.Context, id string, userID *uint64, changes PlanChanges) (*models.Plan, error)

	// Delete removes a plan and all of its steps
	Delete(ctx context.Context, id string, userID *uint64) error

	// SetStepCompletion flips a step's completion flag. The step must belong to the plan.
	SetStepCompletion(ctx context.Context, planID string, stepID uint64, userID *uint64, completed bool) (*models.PlanStep, error)
}

// PlanFilter holds filtering options for listing plans
type PlanFilter struct {
	UserID     *uint64
	Pagination *utils.PaginationParams
}

// PlanChanges holds the descriptive fields of an update; nil fields are left untouched.
type PlanChanges struct {
	Title       *string
	Description *string
	Category    *string
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email address
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByProvider finds a user by social sign-in identity
	FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error)

	// LinkProvider attaches a social sign-in identity to an existing user
	LinkProvider(ctx context.Context, userID uint64, provider, providerID string) error
}
