package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/coaching-plans-api/internal/database"
	"github.com/yukikurage/coaching-plans-api/internal/models"
	"github.com/yukikurage/coaching-plans-api/internal/utils"
	"gorm.io/gorm"
)

type PlanRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo PlanRepository
	ctx  context.Context
}

func (suite *PlanRepositoryTestSuite) SetupTest() {
	var err error
	suite.db, err = database.OpenInMemory()
	suite.Require().NoError(err)

	suite.repo = NewPlanRepository(suite.db)
	suite.ctx = context.Background()
}

func (suite *PlanRepositoryTestSuite) TearDownTest() {
	suite.Require().NoError(database.Close(suite.db))
}

func (suite *PlanRepositoryTestSuite) createPlan(title string, userID *uint64, stepTitles ...string) *models.Plan {
	steps := make([]models.PlanStep, len(stepTitles))
	for i, stepTitle := range stepTitles {
		steps[i] = models.PlanStep{Title: stepTitle, OrderNumber: i + 1}
	}

	plan, err := suite.repo.CreateWithSteps(suite.ctx, &models.Plan{Title: title, UserID: userID}, steps)
	suite.Require().NoError(err)
	return plan
}

func (suite *PlanRepositoryTestSuite) countRows(model interface{}, query string, args ...interface{}) int64 {
	var count int64
	suite.Require().NoError(suite.db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

func (suite *PlanRepositoryTestSuite) TestCreateWithSteps_ReturnsOrderedAggregate() {
	steps := []models.PlanStep{
		{Title: "Stretch", OrderNumber: 2},
		{Title: "Warm up", OrderNumber: 1},
		{Title: "Cool down", OrderNumber: 3},
	}

	plan, err := suite.repo.CreateWithSteps(suite.ctx, &models.Plan{Title: "Run 5k", Category: "fitness"}, steps)
	suite.Require().NoError(err)

	suite.Len(plan.ID, 36)
	suite.Equal("Run 5k", plan.Title)
	suite.Nil(plan.UserID)
	suite.Require().Len(plan.Steps, 3)
	suite.Equal("Warm up", plan.Steps[0].Title)
	suite.Equal("Stretch", plan.Steps[1].Title)
	suite.Equal("Cool down", plan.Steps[2].Title)
	for _, step := range plan.Steps {
		suite.Equal(plan.ID, step.PlanID)
		suite.False(step.IsCompleted)
	}
}

func (suite *PlanRepositoryTestSuite) TestCreateWithSteps_NoSteps() {
	plan := suite.createPlan("Empty", nil)

	suite.NotNil(plan.Steps)
	suite.Len(plan.Steps, 0)
}

func (suite *PlanRepositoryTestSuite) TestCreateWithSteps_RollsBackWhenAStepFails() {
	steps := []models.PlanStep{
		{Title: "First", OrderNumber: 1},
		{Title: "Broken", OrderNumber: -1},
		{Title: "Third", OrderNumber: 3},
	}

	_, err := suite.repo.CreateWithSteps(suite.ctx, &models.Plan{Title: "Doomed plan"}, steps)
	suite.Require().Error(err)
	suite.ErrorIs(err, ErrCreatePlanStep)

	suite.Equal(int64(0), suite.countRows(&models.Plan{}, "title = ?", "Doomed plan"))
	suite.Equal(int64(0), suite.countRows(&models.PlanStep{}, "title IN ?", []string{"First", "Broken", "Third"}))
}

func (suite *PlanRepositoryTestSuite) TestFindByID_ScopedToOwner() {
	owner := uint64(7)
	other := uint64(8)
	plan := suite.createPlan("Mine", &owner, "a")

	found, err := suite.repo.FindByID(suite.ctx, plan.ID, &owner)
	suite.Require().NoError(err)
	suite.Equal(plan.ID, found.ID)

	_, err = suite.repo.FindByID(suite.ctx, plan.ID, &other)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)

	_, err = suite.repo.FindByID(suite.ctx, plan.ID, nil)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *PlanRepositoryTestSuite) TestList_NewestFirstWithPagination() {
	first := suite.createPlan("First", nil, "a")
	time.Sleep(5 * time.Millisecond)
	second := suite.createPlan("Second", nil)
	time.Sleep(5 * time.Millisecond)
	third := suite.createPlan("Third", nil, "b", "c")

	plans, err := suite.repo.List(suite.ctx, PlanFilter{})
	suite.Require().NoError(err)
	suite.Require().Len(plans, 3)
	suite.Equal(third.ID, plans[0].ID)
	suite.Equal(second.ID, plans[1].ID)
	suite.Equal(first.ID, plans[2].ID)
	suite.Len(plans[0].Steps, 2)
	suite.Len(plans[1].Steps, 0)

	page := utils.NewPaginationParams(2, 2)
	plans, err = suite.repo.List(suite.ctx, PlanFilter{Pagination: &page})
	suite.Require().NoError(err)
	suite.Require().Len(plans, 1)
	suite.Equal(first.ID, plans[0].ID)
}

func (suite *PlanRepositoryTestSuite) TestList_Empty() {
	plans, err := suite.repo.List(suite.ctx, PlanFilter{})
	suite.Require().NoError(err)
	suite.NotNil(plans)
	suite.Len(plans, 0)
}

func (suite *PlanRepositoryTestSuite) TestUpdate() {
	plan := suite.createPlan("Old", nil, "a")
	title := "New"
	category := "health"

	updated, err := suite.repo.Update(suite.ctx, plan.ID, nil, PlanChanges{Title: &title, Category: &category})
	suite.Require().NoError(err)

	suite.Equal("New", updated.Title)
	suite.Equal("health", updated.Category)
	suite.True(updated.UpdatedAt.After(plan.UpdatedAt))
	suite.Len(updated.Steps, 1)
}

func (suite *PlanRepositoryTestSuite) TestUpdate_NotFound() {
	title := "New"
	_, err := suite.repo.Update(suite.ctx, "00000000-0000-0000-0000-000000000000", nil, PlanChanges{Title: &title})
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *PlanRepositoryTestSuite) TestDelete_RemovesSteps() {
	plan := suite.createPlan("Doomed", nil, "a", "b")

	suite.Require().NoError(suite.repo.Delete(suite.ctx, plan.ID, nil))

	suite.Equal(int64(0), suite.countRows(&models.Plan{}, "id = ?", plan.ID))
	suite.Equal(int64(0), suite.countRows(&models.PlanStep{}, "plan_id = ?", plan.ID))

	err := suite.repo.Delete(suite.ctx, plan.ID, nil)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *PlanRepositoryTestSuite) TestForeignKeyCascade() {
	plan := suite.createPlan("Cascade", nil, "a", "b")

	suite.Require().NoError(suite.db.Exec("DELETE FROM plans WHERE id = ?", plan.ID).Error)

	suite.Equal(int64(0), suite.countRows(&models.PlanStep{}, "plan_id = ?", plan.ID))
}

func (suite *PlanRepositoryTestSuite) TestSetStepCompletion() {
	plan := suite.createPlan("Toggle", nil, "a")
	step := plan.Steps[0]
	time.Sleep(10 * time.Millisecond)

	updated, err := suite.repo.SetStepCompletion(suite.ctx, plan.ID, step.ID, nil, true)
	suite.Require().NoError(err)
	suite.True(updated.IsCompleted)
	suite.True(updated.UpdatedAt.After(step.UpdatedAt))

	reloaded, err := suite.repo.FindByID(suite.ctx, plan.ID, nil)
	suite.Require().NoError(err)
	suite.True(reloaded.Steps[0].IsCompleted)

	updated, err = suite.repo.SetStepCompletion(suite.ctx, plan.ID, step.ID, nil, false)
	suite.Require().NoError(err)
	suite.False(updated.IsCompleted)
}

func (suite *PlanRepositoryTestSuite) TestSetStepCompletion_FrozenClockStillAdvances() {
	plan := suite.createPlan("Frozen", nil, "a")
	step := plan.Steps[0]

	repo := suite.repo.(*GormPlanRepository)
	repo.now = func() time.Time { return step.UpdatedAt.Add(-time.Hour) }

	updated, err := repo.SetStepCompletion(suite.ctx, plan.ID, step.ID, nil, true)
	suite.Require().NoError(err)
	suite.True(updated.UpdatedAt.After(step.UpdatedAt))
}

func TestTouch_AdvancesPastStoredMillisecond(t *testing.T) {
	stored := time.Date(2026, 3, 1, 9, 30, 0, 400_000, time.UTC)

	repo := &GormPlanRepository{now: func() time.Time { return stored.Add(300 * time.Microsecond) }}
	next := repo.touch(stored)

	// A millisecond-precision column must still see a strictly later value.
	assert.True(t, next.Truncate(time.Millisecond).After(stored.Truncate(time.Millisecond)))
	assert.Equal(t, next, next.Truncate(time.Millisecond))

	repo.now = func() time.Time { return stored.Add(5 * time.Second) }
	assert.True(t, repo.touch(stored).Equal(stored.Add(5*time.Second).Truncate(time.Millisecond)))
}

func (suite *PlanRepositoryTestSuite) TestSetStepCompletion_StepFromAnotherPlan() {
	planA := suite.createPlan("A", nil, "a1")
	planB := suite.createPlan("B", nil, "b1")

	_, err := suite.repo.SetStepCompletion(suite.ctx, planA.ID, planB.Steps[0].ID, nil, true)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)

	reloaded, err := suite.repo.FindByID(suite.ctx, planB.ID, nil)
	suite.Require().NoError(err)
	suite.False(reloaded.Steps[0].IsCompleted)
}

func (suite *PlanRepositoryTestSuite) TestSetStepCompletion_OtherOwner() {
	owner := uint64(1)
	intruder := uint64(2)
	plan := suite.createPlan("Private", &owner, "a")

	_, err := suite.repo.SetStepCompletion(suite.ctx, plan.ID, plan.Steps[0].ID, &intruder, true)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func TestPlanRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PlanRepositoryTestSuite))
}
