package response

import (
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/usecase/queries"

	"github.com/google/uuid"
)

type OrderResponse struct {
	ID             uuid.UUID           `json:"id"`
	Number         int64               `json:"number"`
	CustomerID     uuid.UUID           `json:"customer_id"`
	CustomerName   string              `json:"customer_name"`
	CustomerEmail  string              `json:"customer_email"`
	CustomerPhone  string              `json:"customer_phone"`
	Address        string              `json:"address"`
	City           string              `json:"city"`
	Zip            string              `json:"zip"`
	ShippingMethod string              `json:"shipping_method"`
	PaymentMethod  string              `json:"payment_method"`
	Note           string              `json:"note,omitempty"`
	DiscountCode   string              `json:"discount_code,omitempty"`
	Status         string              `json:"status"`
	ShippingDate   *time.Time          `json:"shipping_date,omitempty"`
	SubtotalCents  int64               `json:"subtotal_cents"`
	DiscountCents  int64               `json:"discount_cents"`
	TotalCents     int64               `json:"total_cents"`
	Lines          []OrderLineResponse `json:"lines"`
	VoucherIDs     []uuid.UUID         `json:"voucher_ids,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type OrderLineResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int32     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents"`
}

func FromOrder(o *order.Order) OrderResponse {
	c := o.Customer()
	resp := OrderResponse{
		ID:             o.ID(),
		Number:         o.Number(),
		CustomerID:     c.UserID,
		CustomerName:   c.Name,
		CustomerEmail:  c.Email,
		CustomerPhone:  c.Phone,
		Address:        c.Address,
		City:           c.City,
		Zip:            c.Zip,
		ShippingMethod: string(o.ShippingMethod()),
		PaymentMethod:  string(o.PaymentMethod()),
		Note:           o.Note(),
		DiscountCode:   o.DiscountCode(),
		Status:         string(o.Status()),
		ShippingDate:   o.ShippingDate(),
		SubtotalCents:  o.SubtotalCents(),
		DiscountCents:  o.DiscountCents(),
		TotalCents:     o.TotalCents(),
		VoucherIDs:     o.VoucherIDs(),
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
	}
	for _, l := range o.Lines() {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ProductID:      l.ProductID(),
			ProductName:    l.ProductName(),
			Quantity:       l.Quantity(),
			UnitPriceCents: l.UnitPriceCents(),
			TotalCents:     l.TotalCents(),
		})
	}
	return resp
}

type BulkStatusResponse struct {
	Updated []OrderResponse `json:"updated"`
}

func FromOrders(orders []*order.Order) BulkStatusResponse {
	resp := BulkStatusResponse{Updated: make([]OrderResponse, len(orders))}
	for i, o := range orders {
		resp.Updated[i] = FromOrder(o)
	}
	return resp
}

type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

type InvoiceBundleResponse struct {
	URL string `json:"url"`
}

// List and search endpoints return the read models as-is; they already
// carry their JSON shape.
type OrderPageResponse = queries.Page[queries.OrderListItem]
