package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/services"
)

type AuditController struct {
	audit AuditReader
}

func NewAuditController(audit AuditReader) *AuditController {
	return &AuditController{audit: audit}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /audit/events?event_type=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	p, err := services.NewPagination(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	eventType := entities.AuditEventType(c.Query("event_type"))
	events, total, err := ac.audit.GetEvents(c.Request.Context(), eventType, p.Limit, p.Offset())
	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := (int(total) + p.Limit - 1) / p.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         p.Page,
		"limit":        p.Limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}
