// internal/handlers/feed.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feedranker/internal/feed"
	"feedranker/internal/middleware"
	"feedranker/internal/utils"
)

type FeedHandler struct {
	assembler *feed.Assembler
}

func NewFeedHandler(assembler *feed.Assembler) *FeedHandler {
	return &FeedHandler{assembler: assembler}
}

// GetFeed handles GET /feed: assembles and returns the caller's ranked feed.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, utils.ErrUnauthorized, "authentication required")
		return
	}
	sessionID, _ := middleware.GetSessionID(c)

	posts, err := h.assembler.Assemble(c.Request.Context(), userID, sessionID, time.Now().UnixNano())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, utils.ErrInternalError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"posts": posts})
}
