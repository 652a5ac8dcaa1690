// internal/handlers/follow.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedranker/internal/engagement"
	"feedranker/internal/middleware"
	"feedranker/internal/utils"
)

type FollowHandler struct {
	controller *engagement.Controller
}

func NewFollowHandler(controller *engagement.Controller) *FollowHandler {
	return &FollowHandler{controller: controller}
}

type followRequestBody struct {
	Follow *bool `json:"follow"`
}

// ToggleFollow handles POST /user/{id}/follow per §6.1: toggles the
// follow state for the creator identified by the id path param. Body
// {"follow": false} unfollows; omitted or true follows.
func (h *FollowHandler) ToggleFollow(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, utils.ErrUnauthorized, "authentication required")
		return
	}
	sessionID, _ := middleware.GetSessionID(c)

	creatorID := c.Param("id")
	if creatorID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ErrValidationFailed, "missing creator id")
		return
	}

	var body followRequestBody
	_ = c.ShouldBindJSON(&body)
	follow := true
	if body.Follow != nil {
		follow = *body.Follow
	}

	if err := h.controller.Follow(c.Request.Context(), userID, sessionID, creatorID, follow); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, utils.ErrInternalError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, utils.MsgFollowUpdated, gin.H{"creatorId": creatorID, "following": follow})
}
