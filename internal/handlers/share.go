package handlers

import (
	"net/http"
	"strings"

	"cv-talent/internal/middleware"
	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ShareHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewShareHandler(db *gorm.DB, logger *zap.Logger) *ShareHandler {
	return &ShareHandler{
		db:     db,
		logger: logger,
	}
}

// CreateShareRequest refers a candidate to another recruiter.
type CreateShareRequest struct {
	CandidateID   uuid.UUID  `json:"candidate_id" binding:"required"`
	ReceiverID    uuid.UUID  `json:"receiver_id" binding:"required"`
	ApplicationID *uuid.UUID `json:"application_id"`
	Message       string     `json:"message"`
}

// ShareStatusRequest is the receiver's answer to a share.
type ShareStatusRequest struct {
	Status models.ShareStatus `json:"status" binding:"required"`
}

// ListBySender returns the shares a user has sent, newest first
// @Summary Shares sent by a user
// @Tags shares
// @Security BearerAuth
// @Produce json
// @Param senderId path string true "Sender user ID"
// @Success 200 {array} models.CandidateShare
// @Router /api/v1/shares/{senderId} [get]
func (h *ShareHandler) ListBySender(c *gin.Context) {
	senderID, ok := uuidParam(c, "senderId")
	if !ok {
		return
	}

	shares := []models.CandidateShare{}
	err := h.db.WithContext(c.Request.Context()).
		Preload("Candidate").
		Preload("Receiver.Role").
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Find(&shares).Error
	if err != nil {
		respondError(c, h.logger, "Share", err)
		return
	}

	c.JSON(http.StatusOK, shares)
}

// CreateShare sends a candidate to another recruiter
// @Summary Share a candidate
// @Tags shares
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateShareRequest true "Share data"
// @Success 201 {object} models.CandidateShare
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/shares [post]
func (h *ShareHandler) CreateShare(c *gin.Context) {
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	senderID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	if senderID == req.ReceiverID {
		respondError(c, h.logger, "Share", apperr.Validation("cannot share a candidate with yourself"))
		return
	}

	db := h.db.WithContext(c.Request.Context())

	if err := db.Select("id").First(&models.Candidate{}, "id = ?", req.CandidateID).Error; err != nil {
		respondError(c, h.logger, "Candidate", err)
		return
	}
	if err := db.Select("id").First(&models.User{}, "id = ?", req.ReceiverID).Error; err != nil {
		respondError(c, h.logger, "Receiver", err)
		return
	}
	if req.ApplicationID != nil {
		if err := db.Select("id").First(&models.Application{}, "id = ?", *req.ApplicationID).Error; err != nil {
			respondError(c, h.logger, "Application", err)
			return
		}
	}

	share := models.CandidateShare{
		CandidateID:   &req.CandidateID,
		SenderID:      &senderID,
		ReceiverID:    &req.ReceiverID,
		ApplicationID: req.ApplicationID,
		Status:        models.ShareStatusPending,
		Message:       strings.TrimSpace(req.Message),
	}
	if err := db.Create(&share).Error; err != nil {
		respondError(c, h.logger, "Share", err)
		return
	}

	h.logger.Info("Candidate shared",
		zap.String("share_id", share.ID.String()),
		zap.String("candidate_id", req.CandidateID.String()),
		zap.String("receiver_id", req.ReceiverID.String()),
	)

	c.JSON(http.StatusCreated, share)
}

// UpdateShareStatus lets the receiver accept or reject a share
// @Summary Answer a share
// @Tags shares
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Share ID"
// @Param request body ShareStatusRequest true "accepted or rejected"
// @Success 200 {object} models.CandidateShare
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/shares/{id}/status [put]
func (h *ShareHandler) UpdateShareStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req ShareStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	req.Status = models.ShareStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	if req.Status != models.ShareStatusAccepted && req.Status != models.ShareStatusRejected {
		respondError(c, h.logger, "Share", apperr.Validation("status must be accepted or rejected"))
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var share models.CandidateShare
	if err := db.First(&share, "id = ?", id).Error; err != nil {
		respondError(c, h.logger, "Share", err)
		return
	}

	userID, _ := middleware.GetCurrentUserID(c)
	if (share.ReceiverID == nil || *share.ReceiverID != userID) && !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the receiver can answer a share"})
		return
	}

	if err := db.Model(&share).Update("status", req.Status).Error; err != nil {
		respondError(c, h.logger, "Share", err)
		return
	}
	share.Status = req.Status

	c.JSON(http.StatusOK, share)
}
