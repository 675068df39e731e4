package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"cv-talent/config"
	"cv-talent/internal/database"
	"cv-talent/internal/ingest"
	"cv-talent/internal/middleware"
	"cv-talent/internal/models"
	"cv-talent/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Multipart field names accepted by the upload endpoint.
const (
	cvField            = "cv[]"
	cvFieldAlt         = "cv"
	vacancyIDField     = "vacancy_id"
	vacancyTitleField  = "vacancyTitle"
	vacancyFilterField = "vacancy_filter"
	multipartPrefix    = "multipart/"
)

type CandidateHandler struct {
	db           *gorm.DB
	logger       *zap.Logger
	store        *ingest.CandidateStore
	orchestrator *ingest.Orchestrator
	limits       config.IngestConfig
}

func NewCandidateHandler(db *gorm.DB, logger *zap.Logger, orchestrator *ingest.Orchestrator, limits config.IngestConfig) *CandidateHandler {
	return &CandidateHandler{
		db:           db,
		logger:       logger,
		store:        ingest.NewCandidateStore(db),
		orchestrator: orchestrator,
		limits:       limits,
	}
}

// UploadResponse is returned after a CV upload.
type UploadResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    []ingest.Result `json:"data"`
	Report  *ingest.Report  `json:"report"`
}

// CreateCandidate ingests uploaded CVs or creates a candidate from JSON
// @Summary Upload CVs or create a candidate
// @Description multipart/form-data with cv[] files runs the extraction pipeline against vacancy_id; application/json creates one candidate
// @Tags candidates
// @Security BearerAuth
// @Accept multipart/form-data,json
// @Produce json
// @Param cv[] formData file false "CV files (PDF)"
// @Param vacancy_id formData string false "Vacancy ID"
// @Param vacancyTitle formData string false "Vacancy title override"
// @Param vacancy_filter formData string false "Screening filter"
// @Param request body ingest.CandidateInput false "Candidate data"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/candidates [post]
func (h *CandidateHandler) CreateCandidate(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), multipartPrefix) {
		h.upload(c)
		return
	}

	var input ingest.CandidateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	rec := input.Record()
	if !rec.Identifiable() {
		respondError(c, h.logger, "Candidate", apperr.Validation("name or email is required"))
		return
	}

	candidate, err := h.store.Create(c.Request.Context(), rec)
	if err != nil {
		respondError(c, h.logger, "Candidate", err)
		return
	}

	c.JSON(http.StatusCreated, candidate)
}

func (h *CandidateHandler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Invalid multipart form", err)
		return
	}

	headers := form.File[cvField]
	if len(headers) == 0 {
		headers = form.File[cvFieldAlt]
	}
	if len(headers) == 0 {
		respondError(c, h.logger, "Candidate", apperr.Validation("no files"))
		return
	}
	if h.limits.MaxFiles > 0 && len(headers) > h.limits.MaxFiles {
		respondError(c, h.logger, "Candidate",
			apperr.Validation(fmt.Sprintf("too many files: %d (max %d)", len(headers), h.limits.MaxFiles)))
		return
	}

	vacancyID, err := uuid.Parse(strings.TrimSpace(c.PostForm(vacancyIDField)))
	if err != nil {
		respondError(c, h.logger, "Candidate", apperr.Validation("vacancy_id is required"))
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		if h.limits.MaxFileSize > 0 && fh.Size > h.limits.MaxFileSize {
			respondError(c, h.logger, "Candidate",
				apperr.Validation(fmt.Sprintf("%s exceeds the %d byte limit", fh.Filename, h.limits.MaxFileSize)))
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondError(c, h.logger, "Candidate", fmt.Errorf("open %s: %w", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(c, h.logger, "Candidate", fmt.Errorf("read %s: %w", fh.Filename, err))
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	req := ingest.Request{
		Files:        files,
		VacancyID:    vacancyID,
		VacancyTitle: c.PostForm(vacancyTitleField),
		Filter:       c.PostForm(vacancyFilterField),
	}
	if userID, ok := middleware.GetCurrentUserID(c); ok {
		req.UserID = &userID
	}

	report, err := h.orchestrator.Run(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "Vacancy", err)
		return
	}

	message := fmt.Sprintf("%d candidates processed", len(report.Results))
	if len(report.Failures) > 0 {
		message = fmt.Sprintf("%s, %d failures", message, len(report.Failures))
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Success: report.State == ingest.StateCompleted,
		Message: message,
		Data:    report.Results,
		Report:  report,
	})
}

// ListCandidates returns candidates, optionally filtered by a search term
// @Summary List candidates
// @Tags candidates
// @Security BearerAuth
// @Produce json
// @Param search query string false "Matches name, email, occupation, skills or languages"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/candidates [get]
func (h *CandidateHandler) ListCandidates(c *gin.Context) {
	page, pageSize := pageParams(c)

	query := h.db.WithContext(c.Request.Context()).Model(&models.Candidate{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR LOWER(occupation) LIKE ? "+
				"OR LOWER(CAST(skills AS TEXT)) LIKE ? OR LOWER(CAST(languages AS TEXT)) LIKE ?",
			term, term, term, term, term,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondError(c, h.logger, "Candidate", err)
		return
	}

	var candidates []models.Candidate
	if err := query.Scopes(database.Paginate(page, pageSize)).
		Order("created_at DESC").
		Find(&candidates).Error; err != nil {
		respondError(c, h.logger, "Candidate", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"candidates": candidates,
		"pagination": database.CalculatePagination(page, pageSize, total),
	})
}

// GetCandidate returns a candidate by ID
// @Summary Get candidate
// @Tags candidates
// @Security BearerAuth
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} models.Candidate
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/candidates/{id} [get]
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var candidate models.Candidate
	if err := h.db.WithContext(c.Request.Context()).First(&candidate, "id = ?", id).Error; err != nil {
		respondError(c, h.logger, "Candidate", err)
		return
	}

	c.JSON(http.StatusOK, candidate)
}

// GetCandidateByEmail looks a candidate up by its deduplication key
// @Summary Get candidate by email
// @Tags candidates
// @Security BearerAuth
// @Produce json
// @Param email path string true "Candidate email"
// @Success 200 {object} models.Candidate
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/candidates/email/{email} [get]
func (h *CandidateHandler) GetCandidateByEmail(c *gin.Context) {
	raw := c.Param("email")
	email := models.NormalizeEmail(&raw)
	if email == nil {
		badRequest(c, "Invalid email", nil)
		return
	}

	var candidate models.Candidate
	if err := h.db.WithContext(c.Request.Context()).First(&candidate, "email = ?", *email).Error; err != nil {
		respondError(c, h.logger, "Candidate", err)
		return
	}

	c.JSON(http.StatusOK, candidate)
}

// UpdateCandidate applies the fields present in the body
// @Summary Update candidate
// @Tags candidates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param request body ingest.CandidateInput true "Fields to change"
// @Success 200 {object} models.Candidate
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/candidates/{id} [put]
func (h *CandidateHandler) UpdateCandidate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input ingest.CandidateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	candidate, err := h.store.Update(c.Request.Context(), id, input.Record())
	if err != nil {
		respondError(c, h.logger, "Candidate", err)
		return
	}

	c.JSON(http.StatusOK, candidate)
}

// DeleteCandidate removes a candidate. Its applications stay with a null candidate.
// @Summary Delete candidate
// @Tags candidates
// @Security BearerAuth
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/candidates/{id} [delete]
func (h *CandidateHandler) DeleteCandidate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.Candidate{}, "id = ?", id)
	if result.Error != nil {
		respondError(c, h.logger, "Candidate", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, h.logger, "Candidate", gorm.ErrRecordNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Candidate deleted successfully"})
}
