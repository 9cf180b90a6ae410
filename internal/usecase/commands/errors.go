package commands

import (
	"errors"
	"fmt"
	"strings"

	"orderhub/internal/domain/voucher"
	"orderhub/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrCustomerNotFound = errs.New("customer not found")
	ErrOrderNotFound    = errs.New("order not found")
	ErrProductNotFound  = errs.New("product not found")
	ErrVoucherNotFound  = errs.New("voucher not found")

	ErrDomainValidation        = errs.New("domain validation error")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

// Voucher rejection reason codes surfaced to API clients.
const (
	ReasonNotYetValid   = "NOT_YET_VALID"
	ReasonExpired       = "EXPIRED"
	ReasonMaxUses       = "MAX_USES_REACHED"
	ReasonBelowMinOrder = "BELOW_MIN_ORDER"
)

type StockShortage struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int32
	Available   int32
}

// InsufficientStockError reports every failing line, not just the first,
// so the client can fix the whole cart in one round trip.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (requested %d, available %d)", s.ProductName, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

type VoucherInvalidError struct {
	Code   string
	Reason string
}

func (e *VoucherInvalidError) Error() string {
	return fmt.Sprintf("voucher %s rejected: %s", e.Code, e.Reason)
}

func newVoucherInvalidError(code string, cause error) *VoucherInvalidError {
	reason := ""
	switch {
	case errors.Is(cause, voucher.ErrNotYetValid):
		reason = ReasonNotYetValid
	case errors.Is(cause, voucher.ErrExpired):
		reason = ReasonExpired
	case errors.Is(cause, voucher.ErrMaxUsesReached):
		reason = ReasonMaxUses
	case errors.Is(cause, voucher.ErrBelowMinOrder):
		reason = ReasonBelowMinOrder
	default:
		reason = cause.Error()
	}
	return &VoucherInvalidError{Code: code, Reason: reason}
}

// BulkPartialMissError aborts a bulk operation that referenced at least one
// unresolvable id. No mutation has happened when it is returned.
type BulkPartialMissError struct {
	Missing []uuid.UUID
}

func (e *BulkPartialMissError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = id.String()
	}
	return "unknown order ids: " + strings.Join(ids, ", ")
}

type InvalidTransitionError struct {
	OrderID uuid.UUID
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s cannot move from %s to %s", e.OrderID, e.From, e.To)
}
