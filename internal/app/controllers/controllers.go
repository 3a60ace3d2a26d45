package controllers

import (
	"net/http"

	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/gin-gonic/gin"
)

func abortBadRequest(ctx *gin.Context, message string, details interface{}) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, message)
	if details != nil {
		errorDetail = errorDetail.WithDetails(details)
	}
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}
