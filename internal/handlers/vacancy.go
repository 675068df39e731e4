package handlers

import (
	"errors"
	"net/http"
	"strings"

	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type VacancyHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewVacancyHandler(db *gorm.DB, logger *zap.Logger) *VacancyHandler {
	return &VacancyHandler{
		db:     db,
		logger: logger,
	}
}

// VacancyRequest is the body for saving a vacancy. Omitted fields keep their
// current value on update.
type VacancyRequest struct {
	ID             *uuid.UUID            `json:"id"`
	Title          *string               `json:"title"`
	Description    *string               `json:"description"`
	RequiredSkills *string               `json:"required_skills"`
	Salary         *float64              `json:"salary"`
	Status         *models.VacancyStatus `json:"status"`
}

func (r VacancyRequest) validate(creating bool) error {
	if creating && (r.Title == nil || strings.TrimSpace(*r.Title) == "") {
		return apperr.Validation("title is required")
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return apperr.Validation("title cannot be empty")
	}
	if r.Status != nil && !r.Status.Valid() {
		return apperr.Validation("status must be open, closed or paused")
	}
	if r.Salary != nil && *r.Salary < 0 {
		return apperr.Validation("salary cannot be negative")
	}
	return nil
}

func (r VacancyRequest) changes() map[string]interface{} {
	out := map[string]interface{}{}
	if r.Title != nil {
		out["title"] = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		out["description"] = *r.Description
	}
	if r.RequiredSkills != nil {
		out["required_skills"] = *r.RequiredSkills
	}
	if r.Salary != nil {
		out["salary"] = *r.Salary
	}
	if r.Status != nil {
		out["status"] = *r.Status
	}
	return out
}

// VacancyDetail is a vacancy with the applications received for it.
type VacancyDetail struct {
	models.Vacancy
	Applications []models.ApplicationView `json:"applications"`
}

// ListVacancies returns vacancies, newest first
// @Summary List vacancies
// @Tags vacancies
// @Security BearerAuth
// @Produce json
// @Param status query string false "open, closed or paused"
// @Success 200 {array} models.Vacancy
// @Router /api/v1/vacancies [get]
func (h *VacancyHandler) ListVacancies(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Order("creation_date DESC")
	if status := c.Query("status"); status != "" {
		if !models.VacancyStatus(status).Valid() {
			badRequest(c, "Invalid status", nil)
			return
		}
		query = query.Where("status = ?", status)
	}

	vacancies := []models.Vacancy{}
	if err := query.Find(&vacancies).Error; err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	c.JSON(http.StatusOK, vacancies)
}

// CountApplications returns every vacancy with its number of applications
// @Summary Vacancies with application counts
// @Tags vacancies
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.VacancyWithCount
// @Router /api/v1/vacancies/count [get]
func (h *VacancyHandler) CountApplications(c *gin.Context) {
	rows := []models.VacancyWithCount{}
	err := h.db.WithContext(c.Request.Context()).
		Table("vacancies").
		Select("vacancies.*, COUNT(applications.id) AS application_count").
		Joins("LEFT JOIN applications ON applications.vacancy_id = vacancies.id").
		Group("vacancies.id").
		Order("vacancies.creation_date DESC").
		Scan(&rows).Error
	if err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// FindVacancies matches vacancies by title, ignoring case
// @Summary Find vacancies by title
// @Tags vacancies
// @Security BearerAuth
// @Produce json
// @Param title query string true "Title fragment"
// @Success 200 {array} models.Vacancy
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/vacancies/find [get]
func (h *VacancyHandler) FindVacancies(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		respondError(c, h.logger, "Vacancy", apperr.Validation("title is required"))
		return
	}

	vacancies := []models.Vacancy{}
	err := h.db.WithContext(c.Request.Context()).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%").
		Order("creation_date DESC").
		Find(&vacancies).Error
	if err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	c.JSON(http.StatusOK, vacancies)
}

// GetVacancy returns a vacancy and its applications
// @Summary Get vacancy
// @Tags vacancies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Vacancy ID"
// @Success 200 {object} VacancyDetail
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/vacancies/{id} [get]
func (h *VacancyHandler) GetVacancy(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var detail VacancyDetail
	if err := db.First(&detail.Vacancy, "id = ?", id).Error; err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	detail.Applications = []models.ApplicationView{}
	if err := applicationViews(db).
		Where("applications.vacancy_id = ?", id).
		Order("applications.application_date DESC").
		Scan(&detail.Applications).Error; err != nil {
		respondError(c, h.logger, "Application", err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// SaveVacancy updates the vacancy named by id when it exists and inserts otherwise
// @Summary Create or update vacancy
// @Tags vacancies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body VacancyRequest true "Vacancy data"
// @Success 200 {object} models.Vacancy
// @Success 201 {object} models.Vacancy
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/vacancies [post]
func (h *VacancyHandler) SaveVacancy(c *gin.Context) {
	var req VacancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	db := h.db.WithContext(c.Request.Context())

	if req.ID != nil && *req.ID != uuid.Nil {
		var existing models.Vacancy
		err := db.First(&existing, "id = ?", *req.ID).Error
		switch {
		case err == nil:
			h.update(c, &existing, req)
			return
		case !errors.Is(err, gorm.ErrRecordNotFound):
			respondError(c, h.logger, "Vacancy", err)
			return
		}
	}

	if err := req.validate(true); err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	vacancy := models.Vacancy{Title: strings.TrimSpace(*req.Title)}
	if req.ID != nil {
		vacancy.ID = *req.ID
	}
	if req.Description != nil {
		vacancy.Description = *req.Description
	}
	if req.RequiredSkills != nil {
		vacancy.RequiredSkills = *req.RequiredSkills
	}
	if req.Salary != nil {
		vacancy.Salary = *req.Salary
	}
	if req.Status != nil {
		vacancy.Status = *req.Status
	}

	if err := db.Create(&vacancy).Error; err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	h.logger.Info("Vacancy created", zap.String("vacancy_id", vacancy.ID.String()))
	c.JSON(http.StatusCreated, vacancy)
}

// UpdateVacancy changes the fields present in the body
// @Summary Update vacancy
// @Tags vacancies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Vacancy ID"
// @Param request body VacancyRequest true "Fields to change"
// @Success 200 {object} models.Vacancy
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/vacancies/{id} [put]
func (h *VacancyHandler) UpdateVacancy(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req VacancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	var vacancy models.Vacancy
	if err := h.db.WithContext(c.Request.Context()).First(&vacancy, "id = ?", id).Error; err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	h.update(c, &vacancy, req)
}

func (h *VacancyHandler) update(c *gin.Context, vacancy *models.Vacancy, req VacancyRequest) {
	if err := req.validate(false); err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	db := h.db.WithContext(c.Request.Context())
	if changes := req.changes(); len(changes) > 0 {
		if err := db.Model(vacancy).Updates(changes).Error; err != nil {
			respondError(c, h.logger, "Vacancy", err)
			return
		}
	}
	if err := db.First(vacancy, "id = ?", vacancy.ID).Error; err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	c.JSON(http.StatusOK, vacancy)
}

// DeleteVacancy removes a vacancy. Its applications stay with a null vacancy.
// @Summary Delete vacancy
// @Tags vacancies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Vacancy ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/vacancies/{id} [delete]
func (h *VacancyHandler) DeleteVacancy(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.Vacancy{}, "id = ?", id)
	if result.Error != nil {
		respondError(c, h.logger, "Vacancy", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, h.logger, "Vacancy", gorm.ErrRecordNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vacancy deleted successfully"})
}
