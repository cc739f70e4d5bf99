package handlers

import (
	"net/http"

	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/gin-gonic/gin"
)

// GetConversations returns one summary per chat partner, most recent first
func (h *Handlers) GetConversations(c *gin.Context) {
	conversations := h.Inbox.ListConversations(c.Request.Context(), userID(c))
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns the history with ?userId= oldest first. Opening a
// conversation marks what the partner sent as read.
func (h *Handlers) GetMessages(c *gin.Context) {
	me := userID(c)
	partnerID := c.Query("userId")
	if partnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}
	if partnerID == me {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot open a conversation with yourself"})
		return
	}

	ctx := c.Request.Context()
	partner, err := h.Directory.Identity(ctx, partnerID)
	if err != nil {
		logger.Warn().Err(err).Str("partner_id", partnerID).Msg("Partner lookup failed")
		partner = models.UnknownIdentity(partnerID)
	}

	messages := h.Messenger.OpenHistory(ctx, me, partnerID)
	c.JSON(http.StatusOK, gin.H{
		"partner":  partner,
		"messages": messages,
	})
}

type sendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}

// SendMessage stores a message and notifies the recipient. A failed send
// echoes the typed text back as draft so the client can restore it.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	msg, err := h.Messenger.Send(c.Request.Context(), middleware.CurrentIdentity(c), req.RecipientID, req.Content)
	if err != nil {
		respondError(c, err, gin.H{"draft": req.Content})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkRead marks everything the partner sent to the caller as read
func (h *Handlers) MarkRead(c *gin.Context) {
	n, err := h.Messenger.MarkConversationRead(c.Request.Context(), userID(c), c.Param("partnerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markedRead": n})
}
