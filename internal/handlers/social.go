package handlers

import (
	"net/http"

	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/gin-gonic/gin"
)

// FollowUser follows a user. Only a new follow notifies the target.
func (h *Handlers) FollowUser(c *gin.Context) {
	created, err := h.Social.Follow(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"following": true, "created": created})
}

// UnfollowUser removes the follow if there is one
func (h *Handlers) UnfollowUser(c *gin.Context) {
	removed, err := h.Social.Unfollow(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false, "removed": removed})
}

// GetFollowStatus reports whether the caller follows the user
func (h *Handlers) GetFollowStatus(c *gin.Context) {
	following, err := h.Social.IsFollowing(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

type commentRequest struct {
	Content string `json:"content"`
}

// AddComment comments on a product and notifies its author
func (h *Handlers) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment, err := h.Social.Comment(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetProductComments returns a product's comments, newest first
func (h *Handlers) GetProductComments(c *gin.Context) {
	comments := h.Social.Comments(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}
