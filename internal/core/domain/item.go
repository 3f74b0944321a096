// internal/core/domain/item.go
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxQuantity bounds every counter and an item's total. Storage columns are
// 32-bit integers.
const MaxQuantity = math.MaxInt32

// Item is a loanable stock record. Quantity is what is on the shelf,
// BorrowedQuantity is what is currently lent out.
type Item struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Quantity         int       `json:"quantity"`
	BorrowedQuantity int       `json:"borrowed_quantity"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewItem holds the fields accepted when creating an item
type NewItem struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Quantity         int    `json:"quantity"`
	BorrowedQuantity int    `json:"borrowed_quantity,omitempty"`
}

// ItemPatch is a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	Quantity         *int    `json:"quantity,omitempty"`
	BorrowedQuantity *int    `json:"borrowed_quantity,omitempty"`
}

// DeleteResult confirms a removal
type DeleteResult struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
}

// NameKey normalizes a name into the key used for duplicate detection.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NameKey returns the item's normalized name
func (i *Item) NameKey() string {
	return NameKey(i.Name)
}

// Total is every unit the ledger owns for this item
func (i *Item) Total() int {
	return i.Quantity + i.BorrowedQuantity
}

// Validate checks the stored-state invariants
func (i *Item) Validate() error {
	if NameKey(i.Name) == "" {
		return NewInvalidItemError("name is required")
	}
	if i.Quantity < 0 {
		return NewInvalidItemError("quantity cannot be negative")
	}
	if i.BorrowedQuantity < 0 {
		return NewInvalidItemError("borrowed_quantity cannot be negative")
	}
	if i.Quantity > MaxQuantity-i.BorrowedQuantity {
		return errQuantityTooLarge
	}
	return nil
}

var errQuantityTooLarge = NewInvalidItemError(fmt.Sprintf("total quantity cannot exceed %d", MaxQuantity))

// Validate normalizes and validates a creation request
func (n *NewItem) Validate() error {
	n.Name = strings.TrimSpace(n.Name)
	n.Description = strings.TrimSpace(n.Description)

	if n.Name == "" {
		return NewInvalidItemError("name is required")
	}
	if n.Quantity < 0 {
		return NewInvalidItemError("quantity cannot be negative")
	}
	if n.BorrowedQuantity < 0 {
		return NewInvalidItemError("borrowed_quantity cannot be negative")
	}
	if n.Quantity > MaxQuantity-n.BorrowedQuantity {
		return errQuantityTooLarge
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Quantity == nil && p.BorrowedQuantity == nil
}

// Validate normalizes and validates a partial update
func (p *ItemPatch) Validate() error {
	if p.IsEmpty() {
		return NewInvalidItemError("at least one field must be supplied")
	}
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return NewInvalidItemError("name cannot be blank")
		}
		p.Name = &trimmed
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return NewInvalidItemError("quantity cannot be negative")
	}
	if p.BorrowedQuantity != nil && *p.BorrowedQuantity < 0 {
		return NewInvalidItemError("borrowed_quantity cannot be negative")
	}
	if (p.Quantity != nil && *p.Quantity > MaxQuantity) ||
		(p.BorrowedQuantity != nil && *p.BorrowedQuantity > MaxQuantity) {
		return errQuantityTooLarge
	}
	return nil
}

// Apply returns a copy of item with the patch applied
func (p ItemPatch) Apply(item Item, now time.Time) Item {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.BorrowedQuantity != nil {
		item.BorrowedQuantity = *p.BorrowedQuantity
	}
	item.UpdatedAt = now
	return item
}

// AddQuantity returns a copy of item with n more units on the shelf. The
// result is checked against MaxQuantity.
func AddQuantity(item Item, n int, now time.Time) (Item, error) {
	if n < 0 || item.Quantity > MaxQuantity-item.BorrowedQuantity-n {
		return item, errQuantityTooLarge
	}
	item.Quantity += n
	item.UpdatedAt = now
	return item, nil
}

// SameCounters reports whether a and b hold identical counters
func SameCounters(a, b Item) bool {
	return a.Quantity == b.Quantity && a.BorrowedQuantity == b.BorrowedQuantity
}
