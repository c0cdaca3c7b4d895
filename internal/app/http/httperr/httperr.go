package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-app/internal/domain/apperr"
)

// Write maps a domain error onto the wire. Handlers call this instead of
// switching on error kinds themselves; internal details never leak.
func Write(c *gin.Context, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		body := gin.H{"error": ae.Error(), "code": string(ae.Kind)}
		if ae.Field != "" {
			body["field"] = ae.Field
		}
		c.JSON(ae.HTTPStatus(), body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
