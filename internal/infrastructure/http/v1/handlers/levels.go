package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// LevelHandler serves read-only balance endpoints.
type LevelHandler struct {
	BaseHandler
	service *ledger.Service
}

// NewLevelHandler creates a new level handler.
func NewLevelHandler(service *ledger.Service) *LevelHandler {
	return &LevelHandler{service: service}
}

// List returns current balance rows matching query filters.
// GET /api/v1/levels
func (h *LevelHandler) List(c *gin.Context) {
	filter := ledger.LevelFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("productId"); raw != "" {
		productID, err := id.Parse(raw)
		if err == nil {
			filter.ProductID = &productID
		}
	}
	if raw := c.Query("locationId"); raw != "" {
		locationID, err := id.Parse(raw)
		if err == nil {
			filter.LocationID = &locationID
		}
	}

	levels, err := h.service.GetLevels(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromLevels(levels),
		TotalCount: int64(len(levels)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}
