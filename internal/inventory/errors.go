package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrProductNotFound   = errors.New("product not found")
	ErrStockInsufficient = errors.New("stock insufficient")
)

// RejectionReason is the machine-readable cause of a refused sale.
type RejectionReason string

const (
	ReasonInvalidQuantity   RejectionReason = "invalid_quantity"
	ReasonProductNotFound   RejectionReason = "product_not_found"
	ReasonStockInsufficient RejectionReason = "stock_insufficient"
)

// RejectionError describes a sale that was refused before anything was
// written. Line is the 1-based position inside a batch, 0 for single sales.
type RejectionError struct {
	Reason      RejectionReason
	Line        int
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *RejectionError) Error() string {
	prefix := ""
	if e.Line > 0 {
		prefix = fmt.Sprintf("line %d: ", e.Line)
	}
	switch e.Reason {
	case ReasonInvalidQuantity:
		return fmt.Sprintf("%sinvalid quantity %d", prefix, e.Requested)
	case ReasonProductNotFound:
		return fmt.Sprintf("%sproduct %d not found", prefix, e.ProductID)
	default:
		return fmt.Sprintf("%s%s: stock insufficient (requested %d, available %d)", prefix, e.ProductName, e.Requested, e.Available)
	}
}

// Unwrap exposes the sentinel matching the reason so callers can use errors.Is.
func (e *RejectionError) Unwrap() error {
	switch e.Reason {
	case ReasonInvalidQuantity:
		return ErrInvalidQuantity
	case ReasonProductNotFound:
		return ErrProductNotFound
	default:
		return ErrStockInsufficient
	}
}
