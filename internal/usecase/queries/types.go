package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type OrderView struct {
	ID             uuid.UUID       `json:"id"`
	Number         int64           `json:"number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	CustomerPhone  string          `json:"customer_phone"`
	Address        string          `json:"address"`
	City           string          `json:"city"`
	Zip            string          `json:"zip"`
	ShippingMethod string          `json:"shipping_method"`
	PaymentMethod  string          `json:"payment_method"`
	Note           *string         `json:"note,omitempty"`
	DiscountCode   *string         `json:"discount_code,omitempty"`
	Status         string          `json:"status"`
	ShippingDate   *time.Time      `json:"shipping_date,omitempty"`
	SubtotalCents  int64           `json:"subtotal_cents"`
	DiscountCents  int64           `json:"discount_cents"`
	TotalCents     int64           `json:"total_cents"`
	Lines          []OrderLineView `json:"lines"`
	VoucherIDs     []uuid.UUID     `json:"voucher_ids,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type OrderLineView struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int32     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents"`
}

type OrderListItem struct {
	ID             uuid.UUID `json:"id"`
	Number         int64     `json:"number"`
	CustomerName   string    `json:"customer_name"`
	ShippingMethod string    `json:"shipping_method"`
	PaymentMethod  string    `json:"payment_method"`
	Status         string    `json:"status"`
	SubtotalCents  int64     `json:"subtotal_cents"`
	DiscountCents  int64     `json:"discount_cents"`
	TotalCents     int64     `json:"total_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
