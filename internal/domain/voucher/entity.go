package voucher

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rejection reasons, one per rule. Each is checked independently against
// the same pre-discount order total.
var (
	ErrNotYetValid    = errors.New("voucher is not yet valid")
	ErrExpired        = errors.New("voucher has expired")
	ErrMaxUsesReached = errors.New("voucher redemption limit reached")
	ErrBelowMinOrder  = errors.New("order total below voucher minimum")
)

type Voucher struct {
	id              uuid.UUID
	code            Code
	discount        Discount
	minOrderCents   int64
	maxUses         int32
	redemptionCount int32
	validFrom       *time.Time
	validTo         *time.Time
}

func NewVoucher(
	id uuid.UUID,
	code string,
	amountOffCents *int64,
	percentOff *float64,
	minOrderCents int64,
	maxUses, redemptionCount int32,
	validFrom, validTo *time.Time,
) (*Voucher, error) {
	voucherCode, err := NewCode(code)
	if err != nil {
		return nil, err
	}

	discount, err := NewDiscount(amountOffCents, percentOff)
	if err != nil {
		return nil, err
	}

	return &Voucher{
		id:              id,
		code:            voucherCode,
		discount:        discount,
		minOrderCents:   minOrderCents,
		maxUses:         maxUses,
		redemptionCount: redemptionCount,
		validFrom:       validFrom,
		validTo:         validTo,
	}, nil
}

// Validate is the pure redemption decision: validity window, usage cap,
// minimum order value, in that order. totalCents is the pre-discount total.
func (v *Voucher) Validate(totalCents int64, today time.Time) error {
	if v.validFrom != nil && today.Before(*v.validFrom) {
		return ErrNotYetValid
	}
	if v.validTo != nil && today.After(*v.validTo) {
		return ErrExpired
	}
	if v.redemptionCount >= v.maxUses {
		return ErrMaxUsesReached
	}
	if totalCents < v.minOrderCents {
		return ErrBelowMinOrder
	}
	return nil
}

// ValidateHeld re-checks a voucher the order already redeemed, during an
// edit. The validity window and minimum order still apply against the
// recomputed total; the usage cap does not, since the order's own
// redemption is part of the count.
func (v *Voucher) ValidateHeld(totalCents int64, today time.Time) error {
	if v.validFrom != nil && today.Before(*v.validFrom) {
		return ErrNotYetValid
	}
	if v.validTo != nil && today.After(*v.validTo) {
		return ErrExpired
	}
	if totalCents < v.minOrderCents {
		return ErrBelowMinOrder
	}
	return nil
}

func (v *Voucher) DiscountCents(totalCents int64) int64 {
	return v.discount.AmountFor(totalCents)
}

func (v *Voucher) ID() uuid.UUID          { return v.id }
func (v *Voucher) Code() Code             { return v.code }
func (v *Voucher) Discount() Discount     { return v.discount }
func (v *Voucher) MinOrderCents() int64   { return v.minOrderCents }
func (v *Voucher) MaxUses() int32         { return v.maxUses }
func (v *Voucher) RedemptionCount() int32 { return v.redemptionCount }
func (v *Voucher) ValidFrom() *time.Time  { return v.validFrom }
func (v *Voucher) ValidTo() *time.Time    { return v.validTo }
