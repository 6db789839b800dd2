package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-api/database"
	"catalog-api/helpers"
)

const requestTimeout = 10 * time.Second

// resource names an entity in the messages its handlers return.
type resource struct {
	name     string
	idFormat string
	conflict string
}

var (
	userResource    = resource{name: "User", idFormat: "Invalid user ID format", conflict: "Email already exists"}
	productResource = resource{name: "Product", idFormat: "Invalid product ID format", conflict: "SKU already exists"}
)

// storeError maps a store failure onto the response taxonomy.
func (r resource) storeError(err error, action string) error {
	switch database.KindOf(err) {
	case database.KindNotFound:
		return helpers.NotFound(r.name + " not found")
	case database.KindInvalidID:
		return helpers.BadIdentifier(r.idFormat)
	case database.KindDuplicateKey:
		return helpers.Conflict(r.conflict)
	default:
		return helpers.Internal(action, err)
	}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// bindFields decodes the JSON body into a raw field map for the validation gate.
func bindFields(c *gin.Context) (map[string]any, bool) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		helpers.Fail(c, helpers.BadRequest("Request body must be a JSON object"))
		return nil, false
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, true
}
