package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/coaching-plans-api/internal/constants"
	"github.com/yukikurage/coaching-plans-api/internal/dto"
	apierrors "github.com/yukikurage/coaching-plans-api/internal/errors"
	"github.com/yukikurage/coaching-plans-api/internal/middleware"
	"github.com/yukikurage/coaching-plans-api/internal/services"
	"github.com/yukikurage/coaching-plans-api/internal/utils"
)

// PlanHandler serves the plan and plan step endpoints.
type PlanHandler struct {
	planService *services.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

type createStepRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}

type createPlanRequest struct {
	Title         string              `json:"title" binding:"required"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	IsAIGenerated bool                `json:"is_ai_generated"`
	Steps         []createStepRequest `json:"steps"`
}

type updatePlanRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

type updateStepRequest struct {
	IsCompleted *bool `json:"is_completed" binding:"required"`
}

// ListPlans returns the caller's plans, newest first.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context(), middleware.OwnerID(c), utils.GetPaginationParams(c))
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanDTOs(plans))
}

// GetPlan returns one plan with its steps.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, err := h.planService.GetPlan(c.Request.Context(), c.Param("id"), middleware.OwnerID(c))
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanDTO(*plan))
}

// CreatePlan stores a plan and its initial steps.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", validationDetails(err))
		return
	}

	steps := make([]services.StepInput, len(req.Steps))
	for i, step := range req.Steps {
		steps[i] = services.StepInput{
			Title:       step.Title,
			Description: step.Description,
			Order:       step.Order,
		}
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), services.CreatePlanInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		IsAIGenerated: req.IsAIGenerated,
		UserID:        middleware.OwnerID(c),
		Steps:         steps,
	})
	if err != nil {
		respondPlanError(c, err)
		return
	}

	middleware.RecordPlanCreated("api")
	c.JSON(http.StatusCreated, dto.ToPlanDTO(*plan))
}

// UpdatePlan rewrites the plan fields present in the body.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	var req updatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), c.Param("id"), middleware.OwnerID(c), services.UpdatePlanInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanDTO(*plan))
}

// DeletePlan removes a plan and all of its steps.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	if err := h.planService.DeletePlan(c.Request.Context(), c.Param("id"), middleware.OwnerID(c)); err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Plan deleted successfully",
	})
}

// UpdateStepCompletion marks a single step completed or not completed.
func (h *PlanHandler) UpdateStepCompletion(c *gin.Context) {
	stepID, err := strconv.ParseUint(c.Param("stepId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid step ID")
		return
	}

	var req updateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "is_completed must be a boolean")
		return
	}

	step, err := h.planService.SetStepCompletion(c.Request.Context(), c.Param("id"), stepID, middleware.OwnerID(c), *req.IsCompleted)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanStepDTO(*step))
}

func respondPlanError(c *gin.Context, err error) {
	var storageErr *services.StorageError

	switch {
	case errors.Is(err, services.ErrPlanNotFound):
		apierrors.NotFound(c, "Plan not found")
	case errors.Is(err, services.ErrStepNotFound):
		apierrors.NotFound(c, "Plan step not found")
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequest(c, "Title is required")
	case errors.Is(err, services.ErrStepTitleRequired),
		errors.Is(err, services.ErrInvalidStepOrder):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTooManySteps):
		apierrors.BadRequest(c, fmt.Sprintf("A plan may have at most %d steps", constants.MaxStepsPerPlan))
	case errors.As(err, &storageErr):
		apierrors.InternalErrorWithDetails(c, fmt.Sprintf("Failed to %s", storageErr.Op), storageErr.Err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
