package middleware

import (
	"errors"
	"net/http"

	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/edutrack/adminportal/internal/pkg/validation"
	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into obj and checks its validate tags.
// On failure it writes the error response and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if AbortIfTooLarge(c, err) {
			return false
		}
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid request format").
			WithDetails(err.Error())
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return false
	}

	if violations := validation.Struct(obj); len(violations) > 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithDetails(map[string]interface{}{"violations": violations})
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return false
	}

	return true
}

// AbortIfTooLarge writes a 413 response when err comes from an http.MaxBytesReader limit
func AbortIfTooLarge(c *gin.Context, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}

	errorDetail := dto.NewErrorDetail(dto.ErrorCodeImportTooLarge, "Upload too large").
		WithDetails(map[string]interface{}{"maxBytes": maxErr.Limit})
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(errorDetail))
	return true
}
