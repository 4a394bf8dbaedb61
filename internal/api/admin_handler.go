package api

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"coachlink/fitness-platform/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler exposes the admin console: trainer-change arbitration, request
// ledger management, trainer approval, capacity control and platform stats.
type AdminHandler struct {
	associationService service.AssociationService
	adminService       service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(associationService service.AssociationService, adminService service.AdminService) *AdminHandler {
	return &AdminHandler{
		associationService: associationService,
		adminService:       adminService,
	}
}

// --- Request/Response Structs ---

type SetCapacityRequest struct {
	MaxClients int `json:"maxClients" binding:"required"`
}

// --- Handler Methods ---

// GetPendingChanges godoc
// @Summary List pending trainer-change requests
// @Description Change requests alter an existing roster, so only an admin may
// @Description resolve them.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AssociationRequestResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /admin/requests [get]
func (h *AdminHandler) GetPendingChanges(c *gin.Context) {
	requests, err := h.associationService.ListPendingChanges(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve requests.")
		return
	}

	c.JSON(http.StatusOK, MapRequestsToResponse(requests))
}

// ApproveRequest godoc
// @Summary Approve a pending request as an admin
// @Description Admins resolve trainer-change requests; new requests stay with
// @Description their target trainer.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} AssociationRequestResponse
// @Failure 403 {object} gin.H "Not resolvable by an admin"
// @Failure 404 {object} gin.H "Request not found"
// @Failure 409 {object} gin.H "Request already resolved or roster full"
// @Router /admin/requests/{id}/approve [post]
func (h *AdminHandler) ApproveRequest(c *gin.Context) {
	h.resolve(c, true)
}

// RejectRequest godoc
// @Summary Reject a pending request as an admin
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} AssociationRequestResponse
// @Failure 403 {object} gin.H "Not resolvable by an admin"
// @Failure 404 {object} gin.H "Request not found"
// @Failure 409 {object} gin.H "Request already resolved"
// @Router /admin/requests/{id}/reject [post]
func (h *AdminHandler) RejectRequest(c *gin.Context) {
	h.resolve(c, false)
}

func (h *AdminHandler) resolve(c *gin.Context, approve bool) {
	adminID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request ID format.")
		return
	}

	request, err := h.associationService.Resolve(c.Request.Context(), requestID, adminID, domain.RoleAdmin, approve)
	if err != nil {
		respondResolveError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapRequestToResponse(request))
}

// DeleteRequest godoc
// @Summary Hard-delete a request from the ledger
// @Description Admin housekeeping only; resolution never deletes entries.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 204 "Request deleted"
// @Failure 404 {object} gin.H "Request not found"
// @Router /admin/requests/{id} [delete]
func (h *AdminHandler) DeleteRequest(c *gin.Context) {
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request ID format.")
		return
	}

	if err := h.associationService.DeleteRequest(c.Request.Context(), requestID); err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete request.")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRequestHistory godoc
// @Summary List resolved requests, newest first
// @Description Optional query filters: status (approved|rejected) and
// @Description trainerId (target trainer).
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Terminal status filter"
// @Param trainerId query string false "Target trainer filter"
// @Success 200 {array} AssociationRequestResponse
// @Failure 400 {object} gin.H "Invalid filter"
// @Router /admin/requests/history [get]
func (h *AdminHandler) GetRequestHistory(c *gin.Context) {
	var filter repository.ResolvedRequestFilter

	if status := c.Query("status"); status != "" {
		s := domain.RequestStatus(status)
		if !s.IsTerminal() {
			abortWithError(c, http.StatusBadRequest, "Status filter must be approved or rejected.")
			return
		}
		filter.Status = s
	}
	if trainerHex := c.Query("trainerId"); trainerHex != "" {
		trainerID, err := primitive.ObjectIDFromHex(trainerHex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid trainer ID format.")
			return
		}
		filter.TrainerID = &trainerID
	}

	requests, err := h.associationService.ListHistory(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve history.")
		return
	}

	c.JSON(http.StatusOK, MapRequestsToResponse(requests))
}

// GetPendingTrainers godoc
// @Summary List trainer accounts awaiting approval
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /admin/trainers/pending [get]
func (h *AdminHandler) GetPendingTrainers(c *gin.Context) {
	trainers, err := h.adminService.ListPendingTrainers(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve trainers.")
		return
	}

	c.JSON(http.StatusOK, MapUsersToResponse(trainers))
}

// ValidateTrainer godoc
// @Summary Approve a trainer account
// @Description Validated trainers can log in and receive association requests.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} gin.H "User not found"
// @Failure 409 {object} gin.H "User is not a trainer"
// @Router /admin/trainers/{id}/validate [post]
func (h *AdminHandler) ValidateTrainer(c *gin.Context) {
	trainerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainer ID format.")
		return
	}

	trainer, err := h.adminService.ValidateTrainer(c.Request.Context(), trainerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotATrainer):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to validate trainer.")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(trainer))
}

// SetTrainerCapacity godoc
// @Summary Change a trainer's roster ceiling
// @Description Lowering the ceiling below the current roster never evicts
// @Description clients; it only blocks new approvals.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer ID"
// @Param capacity body SetCapacityRequest true "New ceiling"
// @Success 204 "Capacity updated"
// @Failure 400 {object} gin.H "Ceiling below 1"
// @Failure 404 {object} gin.H "Trainer not found"
// @Router /admin/trainers/{id}/capacity [put]
func (h *AdminHandler) SetTrainerCapacity(c *gin.Context) {
	trainerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainer ID format.")
		return
	}

	var req SetCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err = h.adminService.SetTrainerCapacity(c.Request.Context(), trainerID, req.MaxClients)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMaxClients):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update capacity.")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteUser godoc
// @Summary Delete a user account
// @Description Deleting a trainer clears the trainer reference on every
// @Description dependent client; deleting a client removes them from their
// @Description trainer's roster.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204 "User deleted"
// @Failure 403 {object} gin.H "Admin accounts cannot be deleted"
// @Failure 404 {object} gin.H "User not found"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	err = h.adminService.DeleteUser(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCannotDeleteAdmin):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to delete user.")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// UnlinkClient godoc
// @Summary Remove a client's trainer association as an admin
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 204 "Client unlinked"
// @Failure 404 {object} gin.H "Client not found or has no trainer"
// @Router /admin/clients/{clientId}/trainer [delete]
func (h *AdminHandler) UnlinkClient(c *gin.Context) {
	adminID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	err = h.associationService.UnlinkClient(c.Request.Context(), clientID, adminID, domain.RoleAdmin)
	if err != nil {
		respondUnlinkError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetStats godoc
// @Summary Platform dashboard counters
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.PlatformStats
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.GetPlatformStats(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve stats.")
		return
	}

	c.JSON(http.StatusOK, stats)
}
