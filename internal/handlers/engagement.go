// internal/handlers/engagement.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"feedranker/internal/engagement"
	"feedranker/internal/middleware"
	"feedranker/internal/utils"
)

type EngagementHandler struct {
	controller *engagement.Controller
}

func NewEngagementHandler(controller *engagement.Controller) *EngagementHandler {
	return &EngagementHandler{controller: controller}
}

type engagementBody struct {
	PostID    string `json:"postId" binding:"required"`
	Viewed    int    `json:"viewed"`
	Completed int    `json:"completed"`
	Liked     int    `json:"liked"`
	Commented int    `json:"commented"`
	Shared    int    `json:"shared"`
	Followed  int    `json:"followed"`
}

type positiveRequestBody struct {
	Engagement engagementBody `json:"engagement" binding:"required"`
}

// Positive handles POST /engagement/positive.
func (h *EngagementHandler) Positive(c *gin.Context) {
	userID, _ := middleware.GetCurrentUserID(c)
	sessionID, _ := middleware.GetSessionID(c)

	var body positiveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ErrValidationFailed, err.Error())
		return
	}

	req := engagement.PositiveRequest{
		PostID:    body.Engagement.PostID,
		Viewed:    body.Engagement.Viewed == 1,
		Completed: body.Engagement.Completed == 1,
		Liked:     body.Engagement.Liked == 1,
		Commented: body.Engagement.Commented == 1,
		Shared:    body.Engagement.Shared == 1,
		Followed:  body.Engagement.Followed == 1,
	}

	if err := h.controller.Positive(c.Request.Context(), userID, sessionID, req); err != nil {
		if errors.Is(err, engagement.ErrValidation) {
			utils.ErrorResponse(c, http.StatusBadRequest, utils.ErrValidationFailed, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, utils.ErrInternalError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, utils.MsgEngagementRecorded, nil)
}

type negativeRequestBody struct {
	Skip struct {
		PostID string `json:"postId" binding:"required"`
	} `json:"skip" binding:"required"`
}

// Negative handles POST /engagement/negative.
func (h *EngagementHandler) Negative(c *gin.Context) {
	userID, _ := middleware.GetCurrentUserID(c)
	sessionID, _ := middleware.GetSessionID(c)

	var body negativeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ErrValidationFailed, err.Error())
		return
	}

	if err := h.controller.Negative(c.Request.Context(), userID, sessionID, body.Skip.PostID); err != nil {
		if errors.Is(err, engagement.ErrValidation) {
			utils.ErrorResponse(c, http.StatusBadRequest, utils.ErrValidationFailed, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, utils.ErrInternalError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Skip recorded", nil)
}
