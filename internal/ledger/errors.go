package ledger

import "errors"

var (
	// Validation errors, surfaced to the caller of RecordSale.
	ErrUnknownProduct    = errors.New("unknown product")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidProduct    = errors.New("invalid product")

	// Integrity guards. Normal operation never triggers them; when one does,
	// the engine logs and continues rather than failing the scheduler.
	ErrDuplicateDate = errors.New("history record already exists for date")
	ErrDuplicateID   = errors.New("duplicate sale id")
)
