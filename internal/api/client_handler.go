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

// ClientHandler exposes the client-side endpoints: submitting association
// requests, viewing assigned plans and logging workouts.
type ClientHandler struct {
	associationService service.AssociationService
	planService        service.PlanService
	workoutService     service.WorkoutService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(
	associationService service.AssociationService,
	planService service.PlanService,
	workoutService service.WorkoutService,
) *ClientHandler {
	return &ClientHandler{
		associationService: associationService,
		planService:        planService,
		workoutService:     workoutService,
	}
}

// --- Request/Response Structs ---

type SubmitRequestRequest struct {
	TrainerID string `json:"trainerId" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// AssociationRequestResponse is the wire form of a ledger entry, with
// ObjectIDs rendered as hex strings.
type AssociationRequestResponse struct {
	ID               string     `json:"id"`
	ClientID         string     `json:"clientId"`
	TargetTrainerID  string     `json:"targetTrainerId"`
	CurrentTrainerID *string    `json:"currentTrainerId,omitempty"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy       *string    `json:"resolvedBy,omitempty"`
}

type PhotoUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type LogWorkoutRequest struct {
	PlanID           *string   `json:"planId,omitempty"`
	PerformedAt      time.Time `json:"performedAt" binding:"required"`
	Notes            string    `json:"notes"`
	PhotoKey         string    `json:"photoKey,omitempty"`
	PhotoContentType string    `json:"photoContentType,omitempty"`
	PhotoSize        int64     `json:"photoSize,omitempty"`
}

// --- Handler Methods ---

// SubmitRequest godoc
// @Summary Submit an association request to a trainer
// @Description Asks a validated trainer to take the client on. A client may
// @Description have at most one pending request at a time.
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitRequestRequest true "Target trainer and reason"
// @Success 201 {object} AssociationRequestResponse
// @Failure 400 {object} gin.H "Invalid input or empty reason"
// @Failure 404 {object} gin.H "Trainer not found or not validated"
// @Failure 409 {object} gin.H "A pending request already exists"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/requests [post]
func (h *ClientHandler) SubmitRequest(c *gin.Context) {
	clientID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	var req SubmitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainer ID format.")
		return
	}

	request, err := h.associationService.Submit(c.Request.Context(), clientID, trainerID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyReason):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClientNotFound), errors.Is(err, service.ErrTrainerNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotAClient):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrPendingRequestExists):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to submit request.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapRequestToResponse(request))
}

// GetMyRequests godoc
// @Summary List the client's association requests
// @Description Returns the client's pending request, if any.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AssociationRequestResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /client/requests [get]
func (h *ClientHandler) GetMyRequests(c *gin.Context) {
	clientID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	requests, err := h.associationService.ListMine(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve requests.")
		return
	}

	c.JSON(http.StatusOK, MapRequestsToResponse(requests))
}

// GetMyPlans godoc
// @Summary List training plans assigned to the client
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TrainingPlan
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /client/plans [get]
func (h *ClientHandler) GetMyPlans(c *gin.Context) {
	clientID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	plans, err := h.planService.GetMyPlans(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans.")
		return
	}

	c.JSON(http.StatusOK, plans)
}

// RequestPhotoUploadURL godoc
// @Summary Request a presigned upload URL for a workout photo
// @Description Step one of photo proof: get a presigned PUT URL, upload the
// @Description image, then log the workout with the returned object key.
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PhotoUploadURLRequest true "Image content type"
// @Success 200 {object} service.PhotoUploadSlot
// @Failure 400 {object} gin.H "Not an image content type"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/workouts/photo-url [post]
func (h *ClientHandler) RequestPhotoUploadURL(c *gin.Context) {
	clientID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	var req PhotoUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	slot, err := h.workoutService.RequestPhotoUploadURL(c.Request.Context(), clientID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhotoType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		}
		return
	}

	c.JSON(http.StatusOK, slot)
}

// LogWorkout godoc
// @Summary Log a completed workout
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body LogWorkoutRequest true "Workout details"
// @Success 201 {object} domain.WorkoutLog
// @Failure 400 {object} gin.H "Invalid input or foreign photo key"
// @Failure 403 {object} gin.H "Plan belongs to another client"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /client/workouts [post]
func (h *ClientHandler) LogWorkout(c *gin.Context) {
	clientID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	var req LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input := service.LogWorkoutInput{
		PerformedAt:      req.PerformedAt,
		Notes:            req.Notes,
		PhotoKey:         req.PhotoKey,
		PhotoContentType: req.PhotoContentType,
		PhotoSize:        req.PhotoSize,
	}
	if req.PlanID != nil {
		planID, err := primitive.ObjectIDFromHex(*req.PlanID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
			return
		}
		input.PlanID = &planID
	}

	workout, err := h.workoutService.LogWorkout(c.Request.Context(), clientID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhotoKeyMismatch):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPlanAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to log workout.")
		}
		return
	}

	c.JSON(http.StatusCreated, workout)
}

// GetMyWorkouts godoc
// @Summary List the client's workout logs
// @Description Logs with photo proof carry a temporary download URL.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.WorkoutLogDetails
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /client/workouts [get]
func (h *ClientHandler) GetMyWorkouts(c *gin.Context) {
	clientID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	logs, err := h.workoutService.GetMyLogs(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workouts.")
		return
	}

	c.JSON(http.StatusOK, logs)
}

// --- Mapping helpers ---

// MapRequestToResponse converts a domain AssociationRequest to its wire form.
func MapRequestToResponse(req *domain.AssociationRequest) AssociationRequestResponse {
	if req == nil {
		return AssociationRequestResponse{}
	}

	resp := AssociationRequestResponse{
		ID:              req.ID.Hex(),
		ClientID:        req.ClientID.Hex(),
		TargetTrainerID: req.TargetTrainerID.Hex(),
		Reason:          req.Reason,
		Status:          string(req.Status),
		CreatedAt:       req.CreatedAt,
		ResolvedAt:      req.ResolvedAt,
	}
	if req.CurrentTrainerID != nil {
		hex := req.CurrentTrainerID.Hex()
		resp.CurrentTrainerID = &hex
	}
	if req.ResolvedBy != nil {
		hex := req.ResolvedBy.Hex()
		resp.ResolvedBy = &hex
	}
	return resp
}

// MapRequestsToResponse converts a slice of requests to wire form.
func MapRequestsToResponse(requests []domain.AssociationRequest) []AssociationRequestResponse {
	responses := make([]AssociationRequestResponse, len(requests))
	for i := range requests {
		responses[i] = MapRequestToResponse(&requests[i])
	}
	return responses
}
