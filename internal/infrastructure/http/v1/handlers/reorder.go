package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
)

// ReorderHandler serves replenishment suggestion endpoints.
type ReorderHandler struct {
	BaseHandler
	advisor *ledger.Advisor
}

// NewReorderHandler creates a new reorder handler.
func NewReorderHandler(advisor *ledger.Advisor) *ReorderHandler {
	return &ReorderHandler{advisor: advisor}
}

// Suggest computes reorder suggestions from recent outbound velocity.
// GET /api/v1/reorder-suggestions?windowDays=30&coverageDays=7&minQty=0
func (h *ReorderHandler) Suggest(c *gin.Context) {
	params := ledger.SuggestParams{
		WindowDays:   h.ParseIntQuery(c, "windowDays", 30),
		CoverageDays: h.ParseIntQuery(c, "coverageDays", 7),
	}

	if raw := c.Query("minQty"); raw != "" {
		minQty, err := types.NewQuantityFromString(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("minQty must be a decimal number").
				WithDetail("value", raw))
			return
		}
		params.MinQty = minQty
	}

	suggestions, err := h.advisor.Suggest(c.Request.Context(), params)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}
