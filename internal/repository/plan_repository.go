package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/coaching-plans-api/internal/database"
	"github.com/yukikurage/coaching-plans-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCreatePlan is returned when inserting the plan row fails inside the create transaction.
	ErrCreatePlan = errors.New("plan repository: create plan failed")
	// ErrCreatePlanStep is returned when inserting one of the steps fails inside the create transaction.
	ErrCreatePlanStep = errors.New("plan repository: create plan step failed")
	// ErrReloadPlan is returned when a committed plan cannot be read back.
	ErrReloadPlan = errors.New("plan repository: reload plan failed")
)

// GormPlanRepository is a GORM implementation of PlanRepository
type GormPlanRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &GormPlanRepository{db: db, now: time.Now}
}

// CreateWithSteps inserts the plan row and then each step in order within one
// transaction. Any failure rolls back everything written so far.
func (r *GormPlanRepository) CreateWithSteps(ctx context.Context, plan *models.Plan, steps []models.PlanStep) (*models.Plan, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(plan).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreatePlan, err)
		}

		for i := range steps {
			steps[i].PlanID = plan.ID
			if err := tx.Create(&steps[i]).Error; err != nil {
				return fmt.Errorf("%w (step %d): %w", ErrCreatePlanStep, i+1, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := r.FindByID(ctx, plan.ID, plan.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReloadPlan, err)
	}
	return created, nil
}

// FindByID finds a plan with its ordered steps
func (r *GormPlanRepository) FindByID(ctx context.Context, id string, userID *uint64) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID)).
		Preload("Steps", database.StepsInOrder).
		First(&plan, "plans.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// List retrieves plans newest first, each with ordered steps
func (r *GormPlanRepository) List(ctx context.Context, filter PlanFilter) ([]models.Plan, error) {
	query := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(filter.UserID)).
		Preload("Steps", database.StepsInOrder).
		Order("plans.created_at DESC").
		Order("plans.id ASC")

	if filter.Pagination != nil {
		query = query.Scopes(database.Paginate(*filter.Pagination))
	}

	plans := []models.Plan{}
	if err := query.Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// Update rewrites the plan's descriptive fields
func (r *GormPlanRepository) Update(ctx context.Context, id string, userID *uint64, changes PlanChanges) (*models.Plan, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan models.Plan
		if err := tx.Scopes(database.OwnedBy(userID)).First(&plan, "plans.id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if changes.Title != nil {
			updates["title"] = *changes.Title
		}
		if changes.Description != nil {
			updates["description"] = *changes.Description
		}
		if changes.Category != nil {
			updates["category"] = *changes.Category
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = r.touch(plan.UpdatedAt)

		return tx.Model(&plan).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id, userID)
}

// Delete removes a plan and all of its steps
func (r *GormPlanRepository) Delete(ctx context.Context, id string, userID *uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan models.Plan
		if err := tx.Scopes(database.OwnedBy(userID)).First(&plan, "plans.id = ?", id).Error; err != nil {
			return err
		}

		// Steps are removed explicitly so deletion does not depend on the
		// driver enforcing the foreign key cascade.
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.PlanStep{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", plan.ID).Delete(&models.Plan{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

// SetStepCompletion flips a step's completion flag. A step that exists but
// belongs to another plan is reported as not found.
func (r *GormPlanRepository) SetStepCompletion(ctx context.Context, planID string, stepID uint64, userID *uint64, completed bool) (*models.PlanStep, error) {
	var step models.PlanStep
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.PlanStep{}).
			Joins("JOIN plans ON plans.id = plan_steps.plan_id").
			Scopes(database.OwnedBy(userID)).
			Where("plan_steps.id = ? AND plan_steps.plan_id = ?", stepID, planID).
			First(&step).Error
		if err != nil {
			return err
		}

		updatedAt := r.touch(step.UpdatedAt)
		err = tx.Model(&models.PlanStep{}).
			Where("id = ?", step.ID).
			Updates(map[string]interface{}{
				"is_completed": completed,
				"updated_at":   updatedAt,
			}).Error
		if err != nil {
			return err
		}

		step.IsCompleted = completed
		step.UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// touch returns a modification time strictly after previous, even when the
// clock has not advanced past the stored value. Both sides are compared at
// millisecond precision, the coarsest any supported driver stores.
func (r *GormPlanRepository) touch(previous time.Time) time.Time {
	now := r.now().Truncate(time.Millisecond)
	floor := previous.Truncate(time.Millisecond)
	if !now.After(floor) {
		now = floor.Add(time.Millisecond)
	}
	return now
}
