package order

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoLines            = errors.New("order must have at least one line")
	ErrNegativeDiscount   = errors.New("discount cannot be negative")
	ErrEmptyCustomerName  = errors.New("customer name cannot be empty")
	ErrInvalidPayment     = errors.New("invalid payment method")
	ErrInvalidShipping    = errors.New("invalid shipping method")
	ErrDuplicateLine      = errors.New("duplicate product in order lines")
	ErrOrderNotCancelable = errors.New("order can no longer be canceled")
	ErrOrderNotEditable   = errors.New("order can no longer be edited")
)

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentGateway      PaymentMethod = "GATEWAY"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// IsUpfront reports whether the method settles before fulfillment, which
// lets a fresh order skip PENDING and start at CONFIRMED.
func (m PaymentMethod) IsUpfront() bool {
	return m == PaymentGateway || m == PaymentBankTransfer
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentCOD, PaymentGateway, PaymentBankTransfer:
		return PaymentMethod(s), true
	}
	return "", false
}

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "STANDARD"
	ShippingExpress  ShippingMethod = "EXPRESS"
	ShippingPickup   ShippingMethod = "PICKUP"
)

func ParseShippingMethod(s string) (ShippingMethod, bool) {
	switch ShippingMethod(s) {
	case ShippingStandard, ShippingExpress, ShippingPickup:
		return ShippingMethod(s), true
	}
	return "", false
}

// Customer is the contact/shipping snapshot captured on the order header.
// It is copied from the user profile at checkout so later profile edits do
// not rewrite order history.
type Customer struct {
	UserID  uuid.UUID
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Zip     string
}

type Order struct {
	id             uuid.UUID
	number         int64
	customer       Customer
	shippingMethod ShippingMethod
	paymentMethod  PaymentMethod
	note           string
	discountCode   string
	status         Status
	shippingDate   *time.Time
	lines          []Line
	voucherIDs     []uuid.UUID
	discountCents  int64
	createdAt      time.Time
	updatedAt      time.Time
}

func NewOrder(
	number int64,
	customer Customer,
	shippingMethod ShippingMethod,
	paymentMethod PaymentMethod,
	note string,
	discountCode string,
	shippingDate *time.Time,
	lines []Line,
	voucherIDs []uuid.UUID,
	discountCents int64,
	now time.Time,
) (*Order, error) {
	if strings.TrimSpace(customer.Name) == "" {
		return nil, ErrEmptyCustomerName
	}
	if discountCents < 0 {
		return nil, ErrNegativeDiscount
	}
	if _, ok := ParsePaymentMethod(string(paymentMethod)); !ok {
		return nil, ErrInvalidPayment
	}
	if _, ok := ParseShippingMethod(string(shippingMethod)); !ok {
		return nil, ErrInvalidShipping
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.ProductID()]; dup {
			return nil, ErrDuplicateLine
		}
		seen[l.ProductID()] = struct{}{}
	}

	status := StatusPending
	if paymentMethod.IsUpfront() {
		status = StatusConfirmed
	}

	return &Order{
		id:             uuid.New(),
		number:         number,
		customer:       customer,
		shippingMethod: shippingMethod,
		paymentMethod:  paymentMethod,
		note:           strings.TrimSpace(note),
		discountCode:   strings.TrimSpace(discountCode),
		status:         status,
		shippingDate:   shippingDate,
		lines:          lines,
		voucherIDs:     voucherIDs,
		discountCents:  discountCents,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func ReconstructOrder(
	id uuid.UUID,
	number int64,
	customer Customer,
	shippingMethod ShippingMethod,
	paymentMethod PaymentMethod,
	note string,
	discountCode string,
	status Status,
	shippingDate *time.Time,
	lines []Line,
	voucherIDs []uuid.UUID,
	discountCents int64,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:             id,
		number:         number,
		customer:       customer,
		shippingMethod: shippingMethod,
		paymentMethod:  paymentMethod,
		note:           note,
		discountCode:   discountCode,
		status:         status,
		shippingDate:   shippingDate,
		lines:          lines,
		voucherIDs:     voucherIDs,
		discountCents:  discountCents,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// SubtotalCents is the pre-discount sum of line totals using the unit
// prices snapshotted at checkout.
func (o *Order) SubtotalCents() int64 {
	var total int64
	for _, l := range o.lines {
		total += l.TotalCents()
	}
	return total
}

// TotalCents is the chargeable amount: line totals minus the voucher
// discount snapshotted when the lines were committed, never below zero.
func (o *Order) TotalCents() int64 {
	total := o.SubtotalCents() - o.discountCents
	if total < 0 {
		return 0
	}
	return total
}

func (o *Order) TransitionTo(target Status, now time.Time) error {
	if !o.status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	o.status = target
	o.updatedAt = now
	return nil
}

func (o *Order) Cancel(now time.Time) error {
	if !o.status.CanTransitionTo(StatusCancelled) {
		return ErrOrderNotCancelable
	}
	o.status = StatusCancelled
	o.updatedAt = now
	return nil
}

// ReplaceLines swaps the committed line set during an edit, together with
// the voucher set and the discount recomputed against the new lines.
// Validation of stock deltas happens in the usecase layer before this is
// called.
func (o *Order) ReplaceLines(lines []Line, voucherIDs []uuid.UUID, discountCents int64, now time.Time) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	if discountCents < 0 {
		return ErrNegativeDiscount
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.ProductID()]; dup {
			return ErrDuplicateLine
		}
		seen[l.ProductID()] = struct{}{}
	}
	o.lines = lines
	o.voucherIDs = voucherIDs
	o.discountCents = discountCents
	o.updatedAt = now
	return nil
}

// HeaderPatch carries the optional header-field updates of an edit. A nil
// field means unchanged.
type HeaderPatch struct {
	ShippingMethod *ShippingMethod
	PaymentMethod  *PaymentMethod
	Note           *string
	DiscountCode   *string
	ShippingDate   *time.Time
}

func (o *Order) ApplyHeaderPatch(p HeaderPatch, now time.Time) error {
	if p.ShippingMethod != nil {
		if _, ok := ParseShippingMethod(string(*p.ShippingMethod)); !ok {
			return ErrInvalidShipping
		}
		o.shippingMethod = *p.ShippingMethod
	}
	if p.PaymentMethod != nil {
		if _, ok := ParsePaymentMethod(string(*p.PaymentMethod)); !ok {
			return ErrInvalidPayment
		}
		o.paymentMethod = *p.PaymentMethod
	}
	if p.Note != nil {
		o.note = strings.TrimSpace(*p.Note)
	}
	if p.DiscountCode != nil {
		o.discountCode = strings.TrimSpace(*p.DiscountCode)
	}
	if p.ShippingDate != nil {
		d := *p.ShippingDate
		o.shippingDate = &d
	}
	o.updatedAt = now
	return nil
}

// IsEditable limits line/voucher edits to orders that have not entered
// fulfillment.
func (o *Order) IsEditable() bool {
	return o.status == StatusPending || o.status == StatusConfirmed
}

func (o *Order) LineForProduct(productID uuid.UUID) (Line, bool) {
	for _, l := range o.lines {
		if l.ProductID() == productID {
			return l, true
		}
	}
	return Line{}, false
}

// AssignNumber replaces the order number. Used by persistence when the
// generated number collides with an existing one.
func (o *Order) AssignNumber(n int64) {
	o.number = n
}

func (o *Order) ID() uuid.UUID                  { return o.id }
func (o *Order) Number() int64                  { return o.number }
func (o *Order) Customer() Customer             { return o.customer }
func (o *Order) ShippingMethod() ShippingMethod { return o.shippingMethod }
func (o *Order) PaymentMethod() PaymentMethod   { return o.paymentMethod }
func (o *Order) Note() string                   { return o.note }
func (o *Order) DiscountCode() string           { return o.discountCode }
func (o *Order) Status() Status                 { return o.status }
func (o *Order) ShippingDate() *time.Time       { return o.shippingDate }
func (o *Order) Lines() []Line                  { return o.lines }
func (o *Order) VoucherIDs() []uuid.UUID        { return o.voucherIDs }
func (o *Order) DiscountCents() int64           { return o.discountCents }
func (o *Order) CreatedAt() time.Time           { return o.createdAt }
func (o *Order) UpdatedAt() time.Time           { return o.updatedAt }
