package dto

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
)

// --- Requests ---

// MoveCreateRequest is the payload for recording a single movement.
// Quantities travel as strings to keep decimal precision intact.
type MoveCreateRequest struct {
	Kind           string     `json:"kind" binding:"required"`
	ProductID      string     `json:"productId" binding:"required"`
	Qty            string     `json:"qty" binding:"required"`
	FromLocationID *string    `json:"fromLocationId"`
	ToLocationID   *string    `json:"toLocationId"`
	OccurredAt     *time.Time `json:"occurredAt"`
}

// ToServiceRequest converts the payload into a domain request.
func (r MoveCreateRequest) ToServiceRequest() (ledger.MoveRequest, error) {
	var req ledger.MoveRequest

	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return req, apperror.NewValidation("invalid product id").
			WithDetail("field", "productId").
			WithDetail("value", r.ProductID)
	}

	qty, err := types.NewQuantityFromString(r.Qty)
	if err != nil {
		return req, apperror.NewShapeError(apperror.CodeInvalidQuantity, "quantity must be a decimal number").
			WithDetail("value", r.Qty)
	}

	from, err := parseOptionalID(r.FromLocationID, "fromLocationId")
	if err != nil {
		return req, err
	}
	to, err := parseOptionalID(r.ToLocationID, "toLocationId")
	if err != nil {
		return req, err
	}

	return ledger.MoveRequest{
		Kind:           ledger.MoveKind(r.Kind),
		ProductID:      productID,
		Qty:            qty,
		FromLocationID: from,
		ToLocationID:   to,
		OccurredAt:     r.OccurredAt,
	}, nil
}

// BatchLineRequest is one line of a batch payload.
type BatchLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       string `json:"qty" binding:"required"`
}

// BatchCreateRequest is the payload for recording a consolidated batch.
type BatchCreateRequest struct {
	Kind           string             `json:"kind" binding:"required"`
	FromLocationID *string            `json:"fromLocationId"`
	ToLocationID   *string            `json:"toLocationId"`
	OccurredAt     *time.Time         `json:"occurredAt"`
	Lines          []BatchLineRequest `json:"lines"`
}

// ToServiceRequest converts the payload into a domain request.
func (r BatchCreateRequest) ToServiceRequest() (ledger.BatchRequest, error) {
	var req ledger.BatchRequest

	from, err := parseOptionalID(r.FromLocationID, "fromLocationId")
	if err != nil {
		return req, err
	}
	to, err := parseOptionalID(r.ToLocationID, "toLocationId")
	if err != nil {
		return req, err
	}

	lines := make([]ledger.LineInput, 0, len(r.Lines))
	for i, ln := range r.Lines {
		productID, err := id.Parse(ln.ProductID)
		if err != nil {
			return req, apperror.NewShapeError(apperror.CodeInvalidLine, "invalid product id").
				WithDetail("line", i).
				WithDetail("value", ln.ProductID)
		}
		qty, err := types.NewQuantityFromString(ln.Qty)
		if err != nil {
			return req, apperror.NewShapeError(apperror.CodeInvalidLine, "quantity must be a decimal number").
				WithDetail("line", i).
				WithDetail("value", ln.Qty)
		}
		lines = append(lines, ledger.LineInput{ProductID: productID, Qty: qty})
	}

	return ledger.BatchRequest{
		Kind:           ledger.MoveKind(r.Kind),
		FromLocationID: from,
		ToLocationID:   to,
		OccurredAt:     r.OccurredAt,
		Lines:          lines,
	}, nil
}

func parseOptionalID(raw *string, field string) (*id.ID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid location id").
			WithDetail("field", field).
			WithDetail("value", *raw)
	}
	return &parsed, nil
}

// --- Responses ---

// MoveResponse represents a movement record in API responses.
type MoveResponse struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	ProductID      string         `json:"productId"`
	Qty            types.Quantity `json:"qty"`
	FromLocationID *string        `json:"fromLocationId,omitempty"`
	ToLocationID   *string        `json:"toLocationId,omitempty"`
	OccurredAt     time.Time      `json:"occurredAt"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// FromMove converts a domain move to a response DTO.
func FromMove(m ledger.Move) MoveResponse {
	return MoveResponse{
		ID:             m.ID.String(),
		Kind:           string(m.Kind),
		ProductID:      m.ProductID.String(),
		Qty:            m.Qty,
		FromLocationID: optionalIDString(m.FromLocationID),
		ToLocationID:   optionalIDString(m.ToLocationID),
		OccurredAt:     m.OccurredAt,
		CreatedAt:      m.CreatedAt,
	}
}

// FromMoves converts a slice of moves.
func FromMoves(moves []ledger.Move) []MoveResponse {
	out := make([]MoveResponse, 0, len(moves))
	for _, m := range moves {
		out = append(out, FromMove(m))
	}
	return out
}

// BatchLineResponse represents one consolidated line.
type BatchLineResponse struct {
	ID        string         `json:"id"`
	ProductID string         `json:"productId"`
	Qty       types.Quantity `json:"qty"`
}

// BatchResponse represents a batch record in API responses.
type BatchResponse struct {
	ID             string              `json:"id"`
	Kind           string              `json:"kind"`
	FromLocationID *string             `json:"fromLocationId,omitempty"`
	ToLocationID   *string             `json:"toLocationId,omitempty"`
	OccurredAt     time.Time           `json:"occurredAt"`
	CreatedAt      time.Time           `json:"createdAt"`
	Lines          []BatchLineResponse `json:"lines,omitempty"`
}

// FromBatch converts a domain batch to a response DTO.
func FromBatch(b ledger.Batch) BatchResponse {
	lines := make([]BatchLineResponse, 0, len(b.Lines))
	for _, ln := range b.Lines {
		lines = append(lines, BatchLineResponse{
			ID:        ln.ID.String(),
			ProductID: ln.ProductID.String(),
			Qty:       ln.Qty,
		})
	}
	return BatchResponse{
		ID:             b.ID.String(),
		Kind:           string(b.Kind),
		FromLocationID: optionalIDString(b.FromLocationID),
		ToLocationID:   optionalIDString(b.ToLocationID),
		OccurredAt:     b.OccurredAt,
		CreatedAt:      b.CreatedAt,
		Lines:          lines,
	}
}

// FromBatches converts a slice of batch headers.
func FromBatches(batches []ledger.Batch) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, FromBatch(b))
	}
	return out
}

// LevelResponse represents one balance row.
type LevelResponse struct {
	ProductID  string         `json:"productId"`
	LocationID string         `json:"locationId"`
	OnHand     types.Quantity `json:"onHand"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// FromLevel converts a domain level to a response DTO.
func FromLevel(l ledger.Level) LevelResponse {
	return LevelResponse{
		ProductID:  l.ProductID.String(),
		LocationID: l.LocationID.String(),
		OnHand:     l.OnHand,
		UpdatedAt:  l.UpdatedAt,
	}
}

// FromLevels converts a slice of levels.
func FromLevels(levels []ledger.Level) []LevelResponse {
	out := make([]LevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, FromLevel(l))
	}
	return out
}

func optionalIDString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
