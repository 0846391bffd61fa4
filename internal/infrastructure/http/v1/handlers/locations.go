package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalog/location"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// LocationHandler serves location catalog endpoints.
type LocationHandler struct {
	BaseHandler
	service *location.Service
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(service *location.Service) *LocationHandler {
	return &LocationHandler{service: service}
}

// Create adds a catalog location.
// POST /api/v1/locations
func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.LocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	l := req.ToLocation()
	if err := h.service.Create(c.Request.Context(), l); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(201, dto.FromLocation(*l))
}

// Get returns one location.
// GET /api/v1/locations/:id
func (h *LocationHandler) Get(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	l, err := h.service.Get(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocation(*l))
}

// Update replaces mutable location fields.
// PUT /api/v1/locations/:id
func (h *LocationHandler) Update(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.LocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	l := req.ToLocation()
	l.ID = locationID

	if err := h.service.Update(c.Request.Context(), l); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocation(*l))
}

// Delete removes a location unless ledger history references it.
// DELETE /api/v1/locations/:id
func (h *LocationHandler) Delete(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), locationID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List returns locations matching query filters.
// GET /api/v1/locations
func (h *LocationHandler) List(c *gin.Context) {
	filter := location.Filter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("isActive"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	locations, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromLocations(locations),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}
