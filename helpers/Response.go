package helpers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-api/query"
	"catalog-api/validation"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "requestID"

// Envelope wraps every response body.
type Envelope struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message,omitempty"`
	Data        any                 `json:"data,omitempty"`
	Errors      validation.Failures `json:"errors,omitempty"`
	Pagination  *query.Pagination   `json:"pagination,omitempty"`
	SearchQuery map[string]string   `json:"searchQuery,omitempty"`
	Category    string              `json:"category,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Page writes a list response with its pagination summary.
func Page(c *gin.Context, data any, page query.Pagination, extra func(*Envelope)) {
	body := Envelope{Success: true, Data: data, Pagination: &page}
	if extra != nil {
		extra(&body)
	}
	c.JSON(http.StatusOK, body)
}

// Fail aborts the request with the envelope matching err.
func Fail(c *gin.Context, err error) {
	var fs validation.Failures
	if errors.As(err, &fs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
			Success: false,
			Message: "Validation failed",
			Errors:  fs,
		})
		return
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = Internal("Internal server error", err)
	}
	body := Envelope{Success: false, Message: apiErr.Message}
	if apiErr.Kind == KindInternal {
		log.Printf("request %s: %s: %v", c.GetString(RequestIDKey), apiErr.Message, apiErr.Err)
		if apiErr.Err != nil && gin.Mode() != gin.ReleaseMode {
			body.Error = apiErr.Err.Error()
		}
	}
	c.AbortWithStatusJSON(apiErr.Kind.Status(), body)
}
