// internal/core/domain/search.go
package domain

import (
	"sort"
	"strings"
)

// SortField names an Item field results can be ordered by
type SortField string

const (
	SortByID               SortField = "id"
	SortByName             SortField = "name"
	SortByDescription      SortField = "description"
	SortByQuantity         SortField = "quantity"
	SortByBorrowedQuantity SortField = "borrowedQuantity"
	SortByCreatedAt        SortField = "createdAt"
	SortByUpdatedAt        SortField = "updatedAt"
)

// SortOrder is ASC or DESC
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// sortAliases accepts both camelCase and snake_case spellings
var sortAliases = map[string]SortField{
	"id":                SortByID,
	"name":              SortByName,
	"description":       SortByDescription,
	"quantity":          SortByQuantity,
	"borrowedquantity":  SortByBorrowedQuantity,
	"borrowed_quantity": SortByBorrowedQuantity,
	"createdat":         SortByCreatedAt,
	"created_at":        SortByCreatedAt,
	"updatedat":         SortByUpdatedAt,
	"updated_at":        SortByUpdatedAt,
}

// Column maps the field onto its storage column
func (f SortField) Column() string {
	switch f {
	case SortByBorrowedQuantity:
		return "borrowed_quantity"
	case SortByCreatedAt:
		return "created_at"
	case SortByUpdatedAt:
		return "updated_at"
	default:
		return string(f)
	}
}

// SearchParams holds a name search request
type SearchParams struct {
	Query  string
	SortBy SortField
	Order  SortOrder
}

// NewSearchParams parses raw query values. Empty sortBy and order
// default to name ascending.
func NewSearchParams(query, sortBy, order string) (SearchParams, error) {
	params := SearchParams{
		Query:  strings.TrimSpace(query),
		SortBy: SortByName,
		Order:  OrderAsc,
	}

	if s := strings.TrimSpace(sortBy); s != "" {
		field, ok := sortAliases[strings.ToLower(s)]
		if !ok {
			return params, NewInvalidSortError(s)
		}
		params.SortBy = field
	}

	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "", "ASC":
	case "DESC":
		params.Order = OrderDesc
	default:
		return params, NewInvalidSortError(order)
	}

	return params, nil
}

// Matches reports whether the item's name contains the query, ignoring case
func (p SearchParams) Matches(item Item) bool {
	return strings.Contains(strings.ToLower(item.Name), strings.ToLower(p.Query))
}

// Sort orders items in place. Ties fall back to id so results are stable
// across storage adapters.
func (p SearchParams) Sort(items []Item) {
	less := func(a, b Item) int {
		switch p.SortBy {
		case SortByName:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortByDescription:
			return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		case SortByQuantity:
			return a.Quantity - b.Quantity
		case SortByBorrowedQuantity:
			return a.BorrowedQuantity - b.BorrowedQuantity
		case SortByCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		case SortByUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return 0
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := less(items[i], items[j])
		if c == 0 {
			c = strings.Compare(items[i].ID.String(), items[j].ID.String())
		}
		if p.Order == OrderDesc {
			return c > 0
		}
		return c < 0
	})
}
