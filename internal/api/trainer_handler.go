package api

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerHandler exposes the trainer-side endpoints: the request review queue,
// the client roster, training plans and workout review.
type TrainerHandler struct {
	associationService service.AssociationService
	planService        service.PlanService
	workoutService     service.WorkoutService
}

// NewTrainerHandler creates a new TrainerHandler.
func NewTrainerHandler(
	associationService service.AssociationService,
	planService service.PlanService,
	workoutService service.WorkoutService,
) *TrainerHandler {
	return &TrainerHandler{
		associationService: associationService,
		planService:        planService,
		workoutService:     workoutService,
	}
}

// --- Request/Response Structs ---

type CreatePlanRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Weeks       int        `json:"weeks" binding:"required"`
	DaysPerWeek int        `json:"daysPerWeek" binding:"required"`
	StartDate   *time.Time `json:"startDate,omitempty"`
}

// --- Handler Methods ---

// GetPendingRequests godoc
// @Summary List pending association requests for the trainer
// @Description FIFO review queue of clients asking to join the roster.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AssociationRequestResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /trainer/requests [get]
func (h *TrainerHandler) GetPendingRequests(c *gin.Context) {
	trainerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	requests, err := h.associationService.ListPendingForTrainer(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve requests.")
		return
	}

	c.JSON(http.StatusOK, MapRequestsToResponse(requests))
}

// ApproveRequest godoc
// @Summary Approve a pending association request
// @Description Adds the client to the roster if capacity allows. Of two
// @Description concurrent resolutions exactly one succeeds.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} AssociationRequestResponse
// @Failure 403 {object} gin.H "Not the target trainer, or a change request"
// @Failure 404 {object} gin.H "Request not found"
// @Failure 409 {object} gin.H "Request already resolved or roster full"
// @Router /trainer/requests/{id}/approve [post]
func (h *TrainerHandler) ApproveRequest(c *gin.Context) {
	h.resolve(c, true)
}

// RejectRequest godoc
// @Summary Reject a pending association request
// @Description Marks the request rejected; the directory is left untouched.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} AssociationRequestResponse
// @Failure 403 {object} gin.H "Not the target trainer, or a change request"
// @Failure 404 {object} gin.H "Request not found"
// @Failure 409 {object} gin.H "Request already resolved"
// @Router /trainer/requests/{id}/reject [post]
func (h *TrainerHandler) RejectRequest(c *gin.Context) {
	h.resolve(c, false)
}

// resolve handles both outcomes; the route decides approve vs reject.
func (h *TrainerHandler) resolve(c *gin.Context, approve bool) {
	trainerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request ID format.")
		return
	}

	request, err := h.associationService.Resolve(c.Request.Context(), requestID, trainerID, domain.RoleTrainer, approve)
	if err != nil {
		respondResolveError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapRequestToResponse(request))
}

// respondResolveError maps resolver errors to HTTP statuses. Shared with the
// admin handler, which runs the same state machine.
func respondResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRequestNotPending), errors.Is(err, service.ErrTrainerCapacityFull):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrResolutionForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve request.")
	}
}

// GetClients godoc
// @Summary List the trainer's current roster
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /trainer/clients [get]
func (h *TrainerHandler) GetClients(c *gin.Context) {
	trainerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	clients, err := h.associationService.ListClients(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve clients.")
		return
	}

	c.JSON(http.StatusOK, MapUsersToResponse(clients))
}

// UnlinkClient godoc
// @Summary Remove a client from the trainer's roster
// @Description Clears the association both ways; the request ledger is not
// @Description touched.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 204 "Client unlinked"
// @Failure 403 {object} gin.H "Client is on another trainer's roster"
// @Failure 404 {object} gin.H "Client not found or has no trainer"
// @Router /trainer/clients/{clientId} [delete]
func (h *TrainerHandler) UnlinkClient(c *gin.Context) {
	trainerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	err = h.associationService.UnlinkClient(c.Request.Context(), clientID, trainerID, domain.RoleTrainer)
	if err != nil {
		respondUnlinkError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// respondUnlinkError maps unlink errors to HTTP statuses.
func respondUnlinkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAClient), errors.Is(err, service.ErrUnlinkForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNoActiveAssociation):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to unlink client.")
	}
}

// CreatePlan godoc
// @Summary Create a training plan for a managed client
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param plan body CreatePlanRequest true "Plan details"
// @Success 201 {object} domain.TrainingPlan
// @Failure 400 {object} gin.H "Invalid plan shape"
// @Failure 403 {object} gin.H "Client not on this trainer's roster"
// @Failure 404 {object} gin.H "Client not found"
// @Router /trainer/clients/{clientId}/plans [post]
func (h *TrainerHandler) CreatePlan(c *gin.Context) {
	trainerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), trainerID, clientID, req.Name, req.Description, req.Weeks, req.DaysPerWeek, req.StartDate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlanShape):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotAClient), errors.Is(err, service.ErrClientNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create plan.")
		}
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// GetClientPlans godoc
// @Summary List the plans authored for a managed client
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {array} domain.TrainingPlan
// @Failure 403 {object} gin.H "Client not on this trainer's roster"
// @Failure 404 {object} gin.H "Client not found"
// @Router /trainer/clients/{clientId}/plans [get]
func (h *TrainerHandler) GetClientPlans(c *gin.Context) {
	trainerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	plans, err := h.planService.GetPlansForClient(c.Request.Context(), trainerID, clientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotAClient), errors.Is(err, service.ErrClientNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans.")
		}
		return
	}

	c.JSON(http.StatusOK, plans)
}

// ActivatePlan godoc
// @Summary Activate a training plan
// @Description Makes the plan the client's single active plan; any previously
// @Description active plan is deactivated.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.TrainingPlan
// @Failure 403 {object} gin.H "Plan authored by another trainer"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /trainer/plans/{planId}/activate [post]
func (h *TrainerHandler) ActivatePlan(c *gin.Context) {
	trainerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	plan, err := h.planService.ActivatePlan(c.Request.Context(), trainerID, planID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPlanAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to activate plan.")
		}
		return
	}

	c.JSON(http.StatusOK, plan)
}

// GetClientWorkouts godoc
// @Summary List a managed client's workout logs
// @Description Logs with photo proof carry a temporary download URL.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {array} service.WorkoutLogDetails
// @Failure 403 {object} gin.H "Client not on this trainer's roster"
// @Failure 404 {object} gin.H "Client not found"
// @Router /trainer/clients/{clientId}/workouts [get]
func (h *TrainerHandler) GetClientWorkouts(c *gin.Context) {
	trainerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	logs, err := h.workoutService.GetClientLogs(c.Request.Context(), trainerID, clientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workouts.")
		}
		return
	}

	c.JSON(http.StatusOK, logs)
}
