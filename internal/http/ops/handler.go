// Package ops exposes the internal operator endpoints: re-enqueue a
// submission, inspect its case reference, and read its last forward
// attempt.
package ops

import (
	"context"
	"net/http"

	"zaakbrug_backend/internal/http/response"
	"zaakbrug_backend/internal/scheduler"
	"zaakbrug_backend/internal/submissions"
	"zaakbrug_backend/internal/submissions/repository"
	"zaakbrug_backend/platform/logger"
	"zaakbrug_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// ReferenceReader is the slice of the reference store the ops API needs.
type ReferenceReader interface {
	Get(ctx context.Context, submissionKey string) (string, bool, error)
}

// AttemptReader reads the forward-attempt audit trail.
type AttemptReader interface {
	GetLastAttempt(ctx context.Context, key string) (*repository.ForwardAttempt, error)
}

// Handler holds the ops endpoint dependencies.
type Handler struct {
	enqueuer scheduler.Enqueuer
	refs     ReferenceReader
	attempts AttemptReader
	val      *validator.Validator
	log      *logger.Logger
}

// New creates the ops handler.
func New(enqueuer scheduler.Enqueuer, refs ReferenceReader, attempts AttemptReader, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{enqueuer: enqueuer, refs: refs, attempts: attempts, val: val, log: log}
}

// RegisterRoutes mounts the ops endpoints on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/forward", h.Forward)
	group.GET("/references/:key", h.GetReference)
	group.GET("/attempts/:key", h.GetLastAttempt)
}

// ForwardRequest is the re-enqueue payload.
type ForwardRequest struct {
	SubmissionKey string `json:"submissionKey" validate:"required,max=255"`
	SubmitterID   string `json:"submitterId" validate:"max=255"`
	SubmitterType string `json:"submitterType" validate:"required"`
}

// Forward handles POST /api/v1/ops/forward.
func (h *Handler) Forward(c *gin.Context) {
	var req ForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "submissionKey and submitterType are required", nil)
		return
	}

	if _, err := submissions.ParseSubmitterType(req.SubmitterType); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	err := h.enqueuer.EnqueueSubmissionForward(c.Request.Context(), scheduler.SubmissionForwardPayload{
		SubmissionKey: req.SubmissionKey,
		SubmitterID:   req.SubmitterID,
		SubmitterType: req.SubmitterType,
	})
	if err != nil {
		h.log.Error("enqueue failed", "submission_key", req.SubmissionKey, "error", err)
		response.Error(c, http.StatusInternalServerError, "failed to enqueue forwarding task", nil)
		return
	}

	response.Accepted(c, gin.H{"submissionKey": req.SubmissionKey})
}

// GetReference handles GET /api/v1/ops/references/:key.
func (h *Handler) GetReference(c *gin.Context) {
	key := c.Param("key")

	zaakURL, found, err := h.refs.Get(c.Request.Context(), key)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "reference store unavailable", nil)
		return
	}
	if !found {
		response.Error(c, http.StatusNotFound, "no reference for submission key", nil)
		return
	}

	response.OK(c, gin.H{"submissionKey": key, "zaakUrl": zaakURL})
}

// GetLastAttempt handles GET /api/v1/ops/attempts/:key.
func (h *Handler) GetLastAttempt(c *gin.Context) {
	key := c.Param("key")

	attempt, err := h.attempts.GetLastAttempt(c.Request.Context(), key)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load attempts", nil)
		return
	}
	if attempt == nil {
		response.Error(c, http.StatusNotFound, "no attempts for submission key", nil)
		return
	}

	response.OK(c, attempt)
}
