// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds. Concrete failures wrap one of these so callers can use errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrExceedsBorrowed   = errors.New("exceeds borrowed quantity")
	ErrInvalidItem       = errors.New("invalid item")
	ErrDuplicateName     = errors.New("duplicate item name")
	ErrInvalidSort       = errors.New("invalid sort")
	ErrConflict          = errors.New("concurrent modification")
)

// LedgerError is a rule failure with a user-facing message
type LedgerError struct {
	Kind    error
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}

func (e *LedgerError) Unwrap() error {
	return e.Kind
}

func NewNotFoundError(id uuid.UUID) error {
	return &LedgerError{Kind: ErrNotFound, Message: fmt.Sprintf("Item with ID %s not found", id)}
}

func NewNoMatchError(query string) error {
	return &LedgerError{Kind: ErrNotFound, Message: fmt.Sprintf("No matching items found for query: %s", query)}
}

func NewInvalidQuantityError(label string) error {
	return &LedgerError{Kind: ErrInvalidQuantity, Message: fmt.Sprintf("%s quantity must be a valid positive number", label)}
}

func NewInsufficientStockError() error {
	return &LedgerError{Kind: ErrInsufficientStock, Message: "Insufficient quantity available"}
}

func NewExceedsBorrowedError() error {
	return &LedgerError{Kind: ErrExceedsBorrowed, Message: "Return quantity exceeds borrowed quantity"}
}

func NewInvalidItemError(reason string) error {
	return &LedgerError{Kind: ErrInvalidItem, Message: reason}
}

func NewDuplicateNameError(name string) error {
	return &LedgerError{Kind: ErrDuplicateName, Message: fmt.Sprintf("An item named %q already exists", name)}
}

func NewInvalidSortError(field string) error {
	return &LedgerError{Kind: ErrInvalidSort, Message: fmt.Sprintf("Cannot sort by %q", field)}
}

// NewConflictError reports that an item's counters changed between the read
// and the conditional write
func NewConflictError(id uuid.UUID) error {
	return &LedgerError{Kind: ErrConflict, Message: fmt.Sprintf("Item with ID %s was modified concurrently, retry the request", id)}
}

// IsClientError reports whether err was caused by the request rather than the system
func IsClientError(err error) bool {
	var le *LedgerError
	return errors.As(err, &le)
}
