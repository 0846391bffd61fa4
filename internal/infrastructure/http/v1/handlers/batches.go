package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// BatchHandler serves consolidated stock movement batch endpoints.
type BatchHandler struct {
	BaseHandler
	service *ledger.Service
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(service *ledger.Service) *BatchHandler {
	return &BatchHandler{service: service}
}

// Create consolidates and records a batch, applying all lines atomically.
// POST /api/v1/batches
func (h *BatchHandler) Create(c *gin.Context) {
	var req dto.BatchCreateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	b, err := h.service.ApplyBatch(c.Request.Context(), serviceReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(201, dto.FromBatch(*b))
}

// Get returns one batch with its consolidated lines.
// GET /api/v1/batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(*b))
}

// List returns batch history matching query filters.
// GET /api/v1/batches
func (h *BatchHandler) List(c *gin.Context) {
	filter := h.batchFilter(c)

	batches, err := h.service.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromBatches(batches),
		TotalCount: int64(len(batches)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Delete reverses a whole batch atomically.
// DELETE /api/v1/batches/:id
func (h *BatchHandler) Delete(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.ReverseBatch(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

func (h *BatchHandler) batchFilter(c *gin.Context) ledger.BatchFilter {
	filter := ledger.BatchFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("kind"); raw != "" {
		kind := ledger.MoveKind(raw)
		filter.Kind = &kind
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
