package handler

import (
	"net/http"
	"strconv"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindValidation:       http.StatusBadRequest,
	apperror.KindAuth:             http.StatusUnauthorized,
	apperror.KindPermission:       http.StatusForbidden,
	apperror.KindNotFound:         http.StatusNotFound,
	apperror.KindMethodNotAllowed: http.StatusMethodNotAllowed,
	apperror.KindConflict:         http.StatusConflict,
}

// respondError writes err as a JSON error body. Errors that are not
// AppErrors are logged and reported as 500 without details.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		status, known := statusByKind[appErr.Kind]
		if known {
			if appErr.Kind == apperror.KindAuth {
				c.Header("WWW-Authenticate", `Bearer realm="api"`)
			}
			c.AbortWithStatusJSON(status, dto.ErrorResponse{
				Error:   string(appErr.Kind),
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	logger.Log.Error("Unhandled error",
		zap.String("request_id", middleware.RequestIDFrom(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "internal_error",
		Message: "internal server error",
	})
}

// bindJSON decodes the request body into req, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Log.Warn("Request parsing failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		respondError(c, apperror.Validation("", "invalid request body"))
		return false
	}
	return true
}

// pagination reads page and page_size, applying defaults and the upper bound.
func pagination(c *gin.Context) (int, int, error) {
	page, err := positiveQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	pageSize, err := positiveQuery(c, "page_size", dto.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if pageSize > dto.MaxPageSize {
		pageSize = dto.MaxPageSize
	}
	return page, pageSize, nil
}

func positiveQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.Validation(name, name+" must be a positive integer")
	}
	return n, nil
}

// idParam parses a numeric path id. Anything else cannot name a row.
func idParam(c *gin.Context, name, resource string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return uint(id), nil
}
