//go:build unit || e2e

package builder

import (
	"time"

	domorder "orderhub/internal/domain/order"

	"github.com/google/uuid"
)

type OrderLineSpec struct {
	ProductID      uuid.UUID
	ProductName    string
	Quantity       int32
	UnitPriceCents int64
}

type OrderBuilder struct {
	Number         int64
	Customer       domorder.Customer
	ShippingMethod domorder.ShippingMethod
	PaymentMethod  domorder.PaymentMethod
	Note           string
	DiscountCode   string
	ShippingDate   *time.Time
	Lines          []OrderLineSpec
	VoucherIDs     []uuid.UUID
	DiscountCents  int64
	Now            time.Time
}

func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{
		Number: 202601021504050042,
		Customer: domorder.Customer{
			UserID:  uuid.New(),
			Name:    "Ada Lovelace",
			Email:   "ada@example.com",
			Phone:   "+44 20 7946 0812",
			Address: "12 Analytical Street",
			City:    "London",
			Zip:     "E1 6AN",
		},
		ShippingMethod: domorder.ShippingStandard,
		PaymentMethod:  domorder.PaymentCOD,
		Lines: []OrderLineSpec{
			{
				ProductID:      uuid.New(),
				ProductName:    "Mechanical Keyboard",
				Quantity:       2,
				UnitPriceCents: 14999,
			},
		},
		Now: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

func (b *OrderBuilder) With(mutate func(*OrderBuilder)) *OrderBuilder {
	mutate(b)
	return b
}

func (b *OrderBuilder) BuildLines() ([]domorder.Line, error) {
	lines := make([]domorder.Line, 0, len(b.Lines))
	for _, spec := range b.Lines {
		line, err := domorder.NewLine(spec.ProductID, spec.ProductName, spec.Quantity, spec.UnitPriceCents)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (b *OrderBuilder) BuildDomain() (*domorder.Order, error) {
	lines, err := b.BuildLines()
	if err != nil {
		return nil, err
	}
	return domorder.NewOrder(
		b.Number,
		b.Customer,
		b.ShippingMethod,
		b.PaymentMethod,
		b.Note,
		b.DiscountCode,
		b.ShippingDate,
		lines,
		b.VoucherIDs,
		b.DiscountCents,
		b.Now,
	)
}
