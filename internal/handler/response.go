package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/dto"
	"go.uber.org/zap"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonTagName)
	}
}

// jsonTagName makes validation errors report fields by their JSON name.
func jsonTagName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:     http.StatusUnprocessableEntity,
	domain.CodeConflict:       http.StatusConflict,
	domain.CodeAuthentication: http.StatusUnauthorized,
	domain.CodeUnauthorized:   http.StatusUnauthorized,
	domain.CodeForbidden:      http.StatusForbidden,
	domain.CodeNotFound:       http.StatusNotFound,
	domain.CodeRateLimited:    http.StatusTooManyRequests,
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, dto.SuccessResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		RequestID: RequestID(c),
	})
}

// respondError renders err as the error envelope. Only domain errors reach
// the client as is; anything else is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		status, ok := statusByCode[domainErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		abortWithError(c, status, dto.ErrorDetail{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		})
		return
	}

	zap.L().Error("Request failed",
		zap.String("request_id", RequestID(c)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	abortWithError(c, http.StatusInternalServerError, dto.ErrorDetail{
		Code:    "InternalError",
		Message: "Internal server error",
	})
}

// respondBindError reports a malformed request body as a ValidationError
// with one detail per offending field.
func respondBindError(c *gin.Context, err error) {
	detail := dto.ErrorDetail{
		Code:    string(domain.CodeValidation),
		Message: "Validation failed",
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]any, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = describeTag(fe)
		}
		detail.Details = map[string]any{"fields": fields}
	} else {
		detail.Message = "Malformed request body"
	}

	abortWithError(c, http.StatusUnprocessableEntity, detail)
}

func abortWithError(c *gin.Context, status int, detail dto.ErrorDetail) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Success:   false,
		Error:     detail,
		RequestID: RequestID(c),
	})
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	default:
		return "is invalid"
	}
}
