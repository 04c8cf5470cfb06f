package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paperbase/paperbase/internal/apperr"
)

// ownerID resolves the acting owner from the X-Owner-ID header (or the
// owner_id query as a fallback). Authentication happens upstream; this
// service trusts the forwarded identity.
func ownerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-Owner-ID")
	if raw == "" {
		raw = c.Query("owner_id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid X-Owner-ID header or owner_id query is required"})
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// optionalID parses an optional uuid string; empty means absent.
func optionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func writeError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}
