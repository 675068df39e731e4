package handlers

import (
	"net/http"
	"strings"

	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ApplicationHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewApplicationHandler(db *gorm.DB, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		db:     db,
		logger: logger,
	}
}

// UpdateApplicationRequest changes the verdict on an application.
type UpdateApplicationRequest struct {
	Status   *string `json:"status"`
	AIReason *string `json:"ai_reason"`
}

// applicationViews selects applications joined with candidate and vacancy names.
func applicationViews(db *gorm.DB) *gorm.DB {
	return db.Table("applications").
		Select("applications.id, applications.candidate_id, applications.vacancy_id, " +
			"applications.status, applications.ai_reason, applications.application_date, " +
			"COALESCE(candidates.name, '') AS candidate_name, " +
			"COALESCE(candidates.email, '') AS candidate_email, " +
			"COALESCE(vacancies.title, '') AS vacancy_title").
		Joins("LEFT JOIN candidates ON candidates.id = applications.candidate_id").
		Joins("LEFT JOIN vacancies ON vacancies.id = applications.vacancy_id")
}

func parseApplicationStatus(raw string) (models.ApplicationStatus, error) {
	status := models.ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", apperr.Validation("status must be pending, interview, offered, accepted or rejected")
	}
	return status, nil
}

// ListApplications returns every application with candidate and vacancy names
// @Summary List applications
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param status query string false "Application status"
// @Success 200 {array} models.ApplicationView
// @Router /api/v1/applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	query := applicationViews(h.db.WithContext(c.Request.Context()))
	if raw := c.Query("status"); raw != "" {
		status, err := parseApplicationStatus(raw)
		if err != nil {
			respondError(c, h.logger, "Application", err)
			return
		}
		query = query.Where("applications.status = ?", status)
	}

	h.respondViews(c, query)
}

// ListByVacancy returns the applications for one vacancy
// @Summary Applications for a vacancy
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Vacancy ID"
// @Success 200 {array} models.ApplicationView
// @Router /api/v1/applications/{id} [get]
func (h *ApplicationHandler) ListByVacancy(c *gin.Context) {
	vacancyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	query := applicationViews(h.db.WithContext(c.Request.Context())).
		Where("applications.vacancy_id = ?", vacancyID)
	h.respondViews(c, query)
}

// ListByVacancyAndStatus returns the applications for one vacancy with a given status
// @Summary Applications for a vacancy by status
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Vacancy ID"
// @Param status path string true "Application status"
// @Success 200 {array} models.ApplicationView
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/applications/{id}/{status} [get]
func (h *ApplicationHandler) ListByVacancyAndStatus(c *gin.Context) {
	vacancyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	status, err := parseApplicationStatus(c.Param("status"))
	if err != nil {
		respondError(c, h.logger, "Application", err)
		return
	}

	query := applicationViews(h.db.WithContext(c.Request.Context())).
		Where("applications.vacancy_id = ? AND applications.status = ?", vacancyID, status)
	h.respondViews(c, query)
}

func (h *ApplicationHandler) respondViews(c *gin.Context, query *gorm.DB) {
	views := []models.ApplicationView{}
	if err := query.Order("applications.application_date DESC").Scan(&views).Error; err != nil {
		respondError(c, h.logger, "Application", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// UpdateApplication sets the status or reason of an application. The
// vacancy's own status does not restrict this.
// @Summary Update application
// @Tags applications
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body UpdateApplicationRequest true "New status and reason"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/applications/{id} [put]
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	changes := map[string]interface{}{}
	if req.Status != nil {
		status, err := parseApplicationStatus(*req.Status)
		if err != nil {
			respondError(c, h.logger, "Application", err)
			return
		}
		changes["status"] = status
	}
	if req.AIReason != nil {
		changes["ai_reason"] = *req.AIReason
	}
	if len(changes) == 0 {
		respondError(c, h.logger, "Application", apperr.Validation("status or ai_reason is required"))
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var application models.Application
	if err := db.First(&application, "id = ?", id).Error; err != nil {
		respondError(c, h.logger, "Application", err)
		return
	}
	if err := db.Model(&application).Updates(changes).Error; err != nil {
		respondError(c, h.logger, "Application", err)
		return
	}
	if err := db.First(&application, "id = ?", id).Error; err != nil {
		respondError(c, h.logger, "Application", err)
		return
	}

	h.logger.Info("Application updated",
		zap.String("application_id", application.ID.String()),
		zap.String("status", string(application.Status)),
	)

	c.JSON(http.StatusOK, application)
}
