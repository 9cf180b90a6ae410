package voucher

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidCode            = errors.New("invalid voucher code format")
	ErrInvalidDiscountAmount  = errors.New("discount amount cannot be negative")
	ErrInvalidDiscountPercent = errors.New("percentage discount must be between 0 and 100")
	ErrEmptyDiscount          = errors.New("discount must have a fixed amount or a percentage")
)

var codeRegex = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

type Code string

func NewCode(code string) (Code, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if !codeRegex.MatchString(code) {
		return Code(""), ErrInvalidCode
	}
	return Code(code), nil
}

func (c Code) String() string {
	return string(c)
}

// Discount carries a flat amount, a percentage, or both. When both are
// present the flat amount is subtracted first, then the percentage applies
// to the remainder.
type Discount struct {
	amountOffCents *int64
	percentOff     *float64
}

func NewDiscount(amountOffCents *int64, percentOff *float64) (Discount, error) {
	if amountOffCents == nil && percentOff == nil {
		return Discount{}, ErrEmptyDiscount
	}
	if amountOffCents != nil && *amountOffCents < 0 {
		return Discount{}, ErrInvalidDiscountAmount
	}
	if percentOff != nil && (*percentOff < 0 || *percentOff > 100) {
		return Discount{}, ErrInvalidDiscountPercent
	}
	return Discount{amountOffCents: amountOffCents, percentOff: percentOff}, nil
}

func (d Discount) IsPercentage() bool {
	return d.percentOff != nil
}

func (d Discount) IsFixed() bool {
	return d.amountOffCents != nil
}

func (d Discount) AmountOffCents() int64 {
	if d.amountOffCents != nil {
		return *d.amountOffCents
	}
	return 0
}

func (d Discount) PercentOff() float64 {
	if d.percentOff != nil {
		return *d.percentOff
	}
	return 0
}

// AmountFor returns the discount granted against totalCents, never more
// than the total itself.
func (d Discount) AmountFor(totalCents int64) int64 {
	remaining := totalCents
	var discount int64

	if d.amountOffCents != nil {
		flat := *d.amountOffCents
		if flat > remaining {
			flat = remaining
		}
		discount += flat
		remaining -= flat
	}

	if d.percentOff != nil {
		discount += int64(float64(remaining) * (*d.percentOff / 100.0))
	}

	return discount
}
