package ledger

import (
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// validateShape checks that a movement's kind, endpoints and quantity are
// well-formed. Pure logic: runs before any lock is taken, so every failure
// here is fully recoverable by the caller correcting input.
func validateShape(kind MoveKind, qty types.Quantity, from, to *id.ID) error {
	if !kind.Valid() {
		return apperror.NewShapeError(apperror.CodeUnknownMoveKind,
			fmt.Sprintf("unknown movement kind %q", kind))
	}
	if qty.Sign() <= 0 {
		return apperror.NewShapeError(apperror.CodeInvalidQuantity,
			"quantity must be positive")
	}
	return validateEndpoints(kind, from, to)
}

// validateEndpoints checks only the location pair against the kind.
// Batch validation reuses it for the header, quantities being per line.
func validateEndpoints(kind MoveKind, from, to *id.ID) error {
	switch kind {
	case KindInbound:
		if to == nil {
			return apperror.NewShapeError(apperror.CodeMissingDestination,
				"INBOUND movements require a destination location")
		}
		if from != nil {
			return apperror.NewValidation("INBOUND movements must not carry a source location")
		}
	case KindOutbound:
		if from == nil {
			return apperror.NewShapeError(apperror.CodeMissingSource,
				"OUTBOUND movements require a source location")
		}
		if to != nil {
			return apperror.NewValidation("OUTBOUND movements must not carry a destination location")
		}
	case KindTransfer:
		if from == nil || to == nil {
			return apperror.NewShapeError(apperror.CodeMissingEndpoint,
				"TRANSFER movements require both source and destination locations")
		}
		if *from == *to {
			return apperror.NewShapeError(apperror.CodeSameLocation,
				"source and destination locations must differ")
		}
	default:
		return apperror.NewShapeError(apperror.CodeUnknownMoveKind,
			fmt.Sprintf("unknown movement kind %q", kind))
	}
	return nil
}

// validateLines checks a batch's line list: non-empty, every line with a
// resolvable product and positive quantity.
func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewShapeError(apperror.CodeEmptyBatch,
			"batch requires at least one line")
	}
	for i, ln := range lines {
		if id.IsNil(ln.ProductID) {
			return apperror.NewShapeError(apperror.CodeInvalidLine,
				fmt.Sprintf("line %d: product is required", i))
		}
		if ln.Qty.Sign() <= 0 {
			return apperror.NewShapeError(apperror.CodeInvalidLine,
				fmt.Sprintf("line %d: quantity must be positive", i))
		}
	}
	return nil
}
