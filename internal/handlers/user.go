package handlers

import (
	"net/http"
	"strings"

	"cv-talent/internal/database"
	"cv-talent/internal/middleware"
	"cv-talent/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserHandler(db *gorm.DB, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		db:     db,
		logger: logger,
	}
}

// CreateUserRequest represents the admin user creation request
type CreateUserRequest struct {
	Name     string          `json:"name" binding:"required,min=2,max=100"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Role     models.UserRole `json:"role" binding:"required"`
}

// ListUsers returns a paginated list of users
// @Summary List users
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, pageSize := pageParams(c)

	var total int64
	if err := h.db.Model(&models.User{}).Count(&total).Error; err != nil {
		respondError(c, h.logger, "User", err)
		return
	}

	var users []models.User
	if err := h.db.Preload("Role").
		Scopes(database.Paginate(page, pageSize)).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		respondError(c, h.logger, "User", err)
		return
	}

	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      responses,
		"pagination": database.CalculatePagination(page, pageSize, total),
	})
}

// GetUser returns a single user by ID
// @Summary Get user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := h.db.Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		respondError(c, h.logger, "User", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// CreateUser creates a recruiter or admin account
// @Summary Create user
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	if !req.Role.Valid() {
		badRequest(c, "Invalid role", nil)
		return
	}

	var role models.Role
	if err := h.db.Where("name = ?", req.Role).First(&role).Error; err != nil {
		respondError(c, h.logger, "Role", err)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
		RoleID:   role.ID,
		IsActive: true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		respondError(c, h.logger, "User", err)
		return
	}
	user.Role = role

	creatorID, _ := middleware.GetCurrentUserID(c)
	h.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role.Name)),
		zap.String("created_by", creatorID.String()),
	)

	c.JSON(http.StatusCreated, user.ToResponse())
}

// DeleteUser removes a user account
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if current, ok := middleware.GetCurrentUserID(c); ok && current == id {
		badRequest(c, "Cannot delete your own account", nil)
		return
	}

	result := h.db.Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		respondError(c, h.logger, "User", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, h.logger, "User", gorm.ErrRecordNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
