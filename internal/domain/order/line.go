package order

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrNegativeUnitPrice   = errors.New("unit price cannot be negative")
)

// Line is one product entry within an order. The unit price is the price
// snapshot taken at checkout; it never tracks the live catalog price.
type Line struct {
	productID      uuid.UUID
	productName    string
	quantity       int32
	unitPriceCents int64
}

func NewLine(productID uuid.UUID, productName string, quantity int32, unitPriceCents int64) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrNonPositiveQuantity
	}
	if unitPriceCents < 0 {
		return Line{}, ErrNegativeUnitPrice
	}
	return Line{
		productID:      productID,
		productName:    productName,
		quantity:       quantity,
		unitPriceCents: unitPriceCents,
	}, nil
}

func (l Line) TotalCents() int64 {
	return int64(l.quantity) * l.unitPriceCents
}

func (l Line) ProductID() uuid.UUID  { return l.productID }
func (l Line) ProductName() string   { return l.productName }
func (l Line) Quantity() int32       { return l.quantity }
func (l Line) UnitPriceCents() int64 { return l.unitPriceCents }
