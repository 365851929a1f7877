package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/common/validation"
)

var chatRequestSchema = validation.MustSchema(`{
	"type": "object",
	"properties": {
		"message": {"type": "string", "maxLength": 4000},
		"idToken": {"type": "string"}
	}
}`)

type chatRequest struct {
	Message string `json:"message"`
	IDToken string `json:"idToken,omitempty"`
}

type chatResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Intent  string `json:"intent"`
}

func (s *Server) chat(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No request data provided"})
		return
	}
	result, err := chatRequestSchema.Validate(raw)
	if err != nil || !result.Valid {
		details := []string{}
		if result != nil {
			details = result.GetErrorMessages()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": details})
		return
	}

	var req chatRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID := c.GetString(userIDKey)
	turn, err := s.service.Chat(c.Request.Context(), userID, req.Message)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Message: turn.ResponseText,
		UserID:  userID,
		Intent:  string(turn.Intent),
	})
}

func (s *Server) userData(c *gin.Context) {
	data, err := s.service.UserData(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// writeError maps the empty-message rejection to 400 and everything else
// to a generic 500.
func (s *Server) writeError(c *gin.Context, err error) {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) && stdErr.Code == errors.ErrCodeEmptyMessage {
		c.JSON(http.StatusBadRequest, gin.H{"error": stdErr.Message})
		return
	}

	s.logger.Error("request failed", map[string]interface{}{
		"path":      c.FullPath(),
		"errorKind": string(errors.KindOf(err)),
		"error":     err,
	})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
