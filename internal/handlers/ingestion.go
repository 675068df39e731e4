package handlers

import (
	"net/http"

	"cv-talent/internal/database"
	"cv-talent/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type IngestionHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewIngestionHandler(db *gorm.DB, logger *zap.Logger) *IngestionHandler {
	return &IngestionHandler{
		db:     db,
		logger: logger,
	}
}

// ListRuns returns the upload history, newest first
// @Summary List ingestion runs
// @Tags ingestions
// @Security BearerAuth
// @Produce json
// @Param vacancy_id query string false "Only runs for this vacancy"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/ingestions [get]
func (h *IngestionHandler) ListRuns(c *gin.Context) {
	page, pageSize := pageParams(c)

	query := h.db.WithContext(c.Request.Context()).Model(&models.IngestionRun{})
	if vacancyID := c.Query("vacancy_id"); vacancyID != "" {
		query = query.Where("vacancy_id = ?", vacancyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondError(c, h.logger, "Ingestion", err)
		return
	}

	runs := []models.IngestionRun{}
	if err := query.Scopes(database.Paginate(page, pageSize)).
		Order("started_at DESC").
		Find(&runs).Error; err != nil {
		respondError(c, h.logger, "Ingestion", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingestions": runs,
		"pagination": database.CalculatePagination(page, pageSize, total),
	})
}

// GetRun returns one ingestion run with its failures
// @Summary Get ingestion run
// @Tags ingestions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} models.IngestionRun
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/ingestions/{id} [get]
func (h *IngestionHandler) GetRun(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var run models.IngestionRun
	if err := h.db.WithContext(c.Request.Context()).First(&run, "id = ?", id).Error; err != nil {
		respondError(c, h.logger, "Ingestion", err)
		return
	}

	c.JSON(http.StatusOK, run)
}
