package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// MoveHandler serves single stock movement endpoints.
type MoveHandler struct {
	BaseHandler
	service *ledger.Service
}

// NewMoveHandler creates a new move handler.
func NewMoveHandler(service *ledger.Service) *MoveHandler {
	return &MoveHandler{service: service}
}

// Create records one movement and applies it to balances.
// POST /api/v1/moves
func (h *MoveHandler) Create(c *gin.Context) {
	var req dto.MoveCreateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	m, err := h.service.ApplyMove(c.Request.Context(), serviceReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(201, dto.FromMove(*m))
}

// Get returns one movement record.
// GET /api/v1/moves/:id
func (h *MoveHandler) Get(c *gin.Context) {
	moveID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetMove(c.Request.Context(), moveID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMove(*m))
}

// List returns movement history matching query filters.
// GET /api/v1/moves
func (h *MoveHandler) List(c *gin.Context) {
	filter := h.moveFilter(c)

	moves, err := h.service.ListMoves(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromMoves(moves),
		TotalCount: int64(len(moves)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Delete reverses a movement: balances are compensated and the record
// removed, or nothing happens at all.
// DELETE /api/v1/moves/:id
func (h *MoveHandler) Delete(c *gin.Context) {
	moveID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.ReverseMove(c.Request.Context(), moveID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

func (h *MoveHandler) moveFilter(c *gin.Context) ledger.MoveFilter {
	filter := ledger.MoveFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("kind"); raw != "" {
		kind := ledger.MoveKind(raw)
		filter.Kind = &kind
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
	if raw := c.Query("from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.FromDate = &ts
		}
	}
	if raw := c.Query("to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.ToDate = &ts
		}
	}

	return filter
}
