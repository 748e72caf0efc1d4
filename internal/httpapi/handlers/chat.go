package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dhlee-dev/portfolio-api/internal/chat"
	"github.com/dhlee-dev/portfolio-api/internal/httpapi/middleware"
)

const quotaNotice = "You've reached the question limit (10) for this session. " +
	"I'd love to continue the conversation in person. :)"

const genericStreamError = "Something went wrong. Please try again."

type sendMessageReq struct {
	Message string `json:"message" binding:"required"`
}

// SendMessage answers one visitor question as an SSE stream of
// data: {"chunk":...} frames followed by a single terminal frame,
// data: {"done":true,"remaining":N} or data: {"error":...}.
// A session that is out of quota gets a plain 429 instead of a stream.
func (h *Handler) SendMessage(c *gin.Context) {
	sid, ok := middleware.SessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no visitor session"})
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	ctx := c.Request.Context()
	events, err := h.ChatSvc.Ask(ctx, sid, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrQuotaExceeded) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"notice":    quotaNotice,
				"remaining": 0,
			})
			return
		}
		log.Printf("[chat] session=%s ask failed: %v", sid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "data: {\"error\":%q}\n\n", genericStreamError)
		return
	}

	writeFrame := func(payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(c.Writer, "data: {\"error\":%q}\n\n", genericStreamError)
			flusher.Flush()
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch {
			case ev.Err != nil:
				writeFrame(gin.H{"error": genericStreamError})
				return
			case ev.Done:
				writeFrame(gin.H{"done": true, "remaining": ev.Remaining})
				return
			default:
				writeFrame(gin.H{"chunk": ev.Chunk})
			}

		case <-ctx.Done():
			return
		}
	}
}

// ChatHistory returns the visitor's transcript and remaining quota. A
// visitor who has not chatted yet gets an empty history and the full quota.
func (h *Handler) ChatHistory(c *gin.Context) {
	sid, ok := middleware.SessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no visitor session"})
		return
	}

	convs, remaining, err := h.ChatSvc.History(c.Request.Context(), sid)
	if err != nil {
		log.Printf("[chat] session=%s history failed: %v", sid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	history := make([]gin.H, 0, len(convs))
	for _, conv := range convs {
		history = append(history, gin.H{
			"question":  conv.Question,
			"answer":    conv.Answer,
			"timestamp": conv.CreatedAt.Format("06.01.02.15:04:05"),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"history":   history,
		"remaining": remaining,
	})
}
