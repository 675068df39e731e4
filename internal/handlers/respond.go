package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cv-talent/internal/middleware"
	"cv-talent/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// respondError maps err onto a status code. Causes of unexpected errors are
// logged and never returned to the client.
func respondError(c *gin.Context, logger *zap.Logger, resource string, err error) {
	switch {
	case apperr.Is(err, apperr.KindValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": apperr.Message(err),
			"code":  "VALIDATION_ERROR",
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"error": resource + " already exists"})
	default:
		requestID := middleware.GetRequestID(c)
		logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("resource", resource),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"request_id": requestID,
		})
	}
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// uuidParam parses a path parameter, writing a 400 when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
