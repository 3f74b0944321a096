// internal/core/domain/rules.go
package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Operation labels used in quantity validation messages
const (
	LabelBorrow = "Borrow"
	LabelReturn = "Return"
)

// RequireExisting fails with a not-found error when item is nil.
func RequireExisting(item *Item, id uuid.UUID) (*Item, error) {
	if item == nil {
		return nil, NewNotFoundError(id)
	}
	return item, nil
}

// RequireNonEmpty fails when a search returned nothing.
func RequireNonEmpty(items []Item, query string) ([]Item, error) {
	if len(items) == 0 {
		return nil, NewNoMatchError(query)
	}
	return items, nil
}

// MergeByName looks for an existing item whose name matches case-insensitively.
// On a match it returns a copy with quantity added; the stored name is kept.
// The first match in iteration order wins.
func MergeByName(name string, quantity int, existing []Item) (*Item, bool) {
	key := NameKey(name)
	for _, item := range existing {
		if item.NameKey() == key {
			merged := item
			merged.Quantity += quantity
			return &merged, true
		}
	}
	return nil, false
}

// RequirePositiveInteger rejects NaN, infinities, fractions and anything <= 0.
func RequirePositiveInteger(n float64, label string) (int, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n <= 0 {
		return 0, NewInvalidQuantityError(label)
	}
	if n > MaxQuantity {
		return 0, NewInvalidQuantityError(label)
	}
	return int(n), nil
}

// Borrow moves amount units from Quantity to BorrowedQuantity.
func Borrow(item Item, amount float64, now time.Time) (Item, error) {
	n, err := RequirePositiveInteger(amount, LabelBorrow)
	if err != nil {
		return item, err
	}
	if item.Quantity < n {
		return item, NewInsufficientStockError()
	}

	item.Quantity -= n
	item.BorrowedQuantity += n
	item.UpdatedAt = now
	return item, nil
}

// Return moves amount units from BorrowedQuantity back to Quantity.
func Return(item Item, amount float64, now time.Time) (Item, error) {
	n, err := RequirePositiveInteger(amount, LabelReturn)
	if err != nil {
		return item, err
	}
	if item.BorrowedQuantity < n {
		return item, NewExceedsBorrowedError()
	}

	item.Quantity += n
	item.BorrowedQuantity -= n
	item.UpdatedAt = now
	return item, nil
}
