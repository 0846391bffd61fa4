package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

func TestValidateShape(t *testing.T) {
	locA := id.New()
	locB := id.New()

	tests := []struct {
		name     string
		kind     MoveKind
		qty      types.Quantity
		from     *id.ID
		to       *id.ID
		wantCode string
	}{
		{
			name: "inbound ok",
			kind: KindInbound, qty: types.MustQuantity("1"), to: &locA,
		},
		{
			name: "outbound ok",
			kind: KindOutbound, qty: types.MustQuantity("2.5"), from: &locA,
		},
		{
			name: "transfer ok",
			kind: KindTransfer, qty: types.MustQuantity("3"), from: &locA, to: &locB,
		},
		{
			name: "unknown kind",
			kind: MoveKind("ADJUST"), qty: types.MustQuantity("1"), to: &locA,
			wantCode: apperror.CodeUnknownMoveKind,
		},
		{
			name: "zero quantity",
			kind: KindInbound, qty: types.ZeroQuantity(), to: &locA,
			wantCode: apperror.CodeInvalidQuantity,
		},
		{
			name: "negative quantity",
			kind: KindInbound, qty: types.MustQuantity("-4"), to: &locA,
			wantCode: apperror.CodeInvalidQuantity,
		},
		{
			name: "inbound missing destination",
			kind: KindInbound, qty: types.MustQuantity("1"),
			wantCode: apperror.CodeMissingDestination,
		},
		{
			name: "inbound with source rejected",
			kind: KindInbound, qty: types.MustQuantity("1"), from: &locA, to: &locB,
			wantCode: apperror.CodeValidation,
		},
		{
			name: "outbound missing source",
			kind: KindOutbound, qty: types.MustQuantity("1"),
			wantCode: apperror.CodeMissingSource,
		},
		{
			name: "outbound with destination rejected",
			kind: KindOutbound, qty: types.MustQuantity("1"), from: &locA, to: &locB,
			wantCode: apperror.CodeValidation,
		},
		{
			name: "transfer missing source",
			kind: KindTransfer, qty: types.MustQuantity("1"), to: &locB,
			wantCode: apperror.CodeMissingEndpoint,
		},
		{
			name: "transfer missing destination",
			kind: KindTransfer, qty: types.MustQuantity("1"), from: &locA,
			wantCode: apperror.CodeMissingEndpoint,
		},
		{
			name: "transfer same location",
			kind: KindTransfer, qty: types.MustQuantity("1"), from: &locA, to: &locA,
			wantCode: apperror.CodeSameLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateShape(tt.kind, tt.qty, tt.from, tt.to)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v, want code %s", err, tt.wantCode)
		})
	}
}

func TestValidateLines(t *testing.T) {
	p := id.New()

	tests := []struct {
		name     string
		lines    []LineInput
		wantCode string
	}{
		{
			name:  "valid lines",
			lines: []LineInput{{ProductID: p, Qty: types.MustQuantity("1")}},
		},
		{
			name:     "empty batch",
			lines:    nil,
			wantCode: apperror.CodeEmptyBatch,
		},
		{
			name:     "nil product",
			lines:    []LineInput{{Qty: types.MustQuantity("1")}},
			wantCode: apperror.CodeInvalidLine,
		},
		{
			name:     "zero quantity line",
			lines:    []LineInput{{ProductID: p, Qty: types.ZeroQuantity()}},
			wantCode: apperror.CodeInvalidLine,
		},
		{
			name: "bad line among good ones",
			lines: []LineInput{
				{ProductID: p, Qty: types.MustQuantity("2")},
				{ProductID: p, Qty: types.MustQuantity("-1")},
			},
			wantCode: apperror.CodeInvalidLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLines(tt.lines)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v, want code %s", err, tt.wantCode)
		})
	}
}
