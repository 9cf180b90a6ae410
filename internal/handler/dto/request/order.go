package request

import (
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/usecase/commands"
	"orderhub/internal/usecase/queries"

	"github.com/google/uuid"
)

type CartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int32     `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	CustomerID     uuid.UUID         `json:"customer_id" binding:"required"`
	Name           string            `json:"name"`
	Email          string            `json:"email" binding:"omitempty,email"`
	Phone          string            `json:"phone"`
	Address        string            `json:"address"`
	City           string            `json:"city"`
	Zip            string            `json:"zip"`
	ShippingMethod string            `json:"shipping_method" binding:"required"`
	PaymentMethod  string            `json:"payment_method" binding:"required"`
	Note           string            `json:"note"`
	DiscountCode   string            `json:"discount_code"`
	ShippingDate   *time.Time        `json:"shipping_date"`
	Lines          []CartLineRequest `json:"lines" binding:"required,min=1,dive"`
	VoucherIDs     []uuid.UUID       `json:"voucher_ids"`
}

func (r CreateOrderRequest) ToCommand() commands.CreateOrderCommand {
	return commands.CreateOrderCommand{
		CustomerID:     r.CustomerID,
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Address:        r.Address,
		City:           r.City,
		Zip:            r.Zip,
		ShippingMethod: r.ShippingMethod,
		PaymentMethod:  r.PaymentMethod,
		Note:           r.Note,
		DiscountCode:   r.DiscountCode,
		ShippingDate:   r.ShippingDate,
		Lines:          toCartLines(r.Lines),
		VoucherIDs:     r.VoucherIDs,
	}
}

type UpdateOrderRequest struct {
	Lines          []CartLineRequest `json:"lines"`
	VoucherIDs     *[]uuid.UUID      `json:"voucher_ids"`
	ShippingMethod *string           `json:"shipping_method"`
	PaymentMethod  *string           `json:"payment_method"`
	Note           *string           `json:"note"`
	DiscountCode   *string           `json:"discount_code"`
	ShippingDate   *time.Time        `json:"shipping_date"`
}

func (r UpdateOrderRequest) ToPatch() commands.UpdateOrderPatch {
	patch := commands.UpdateOrderPatch{
		VoucherIDs:     r.VoucherIDs,
		ShippingMethod: r.ShippingMethod,
		PaymentMethod:  r.PaymentMethod,
		Note:           r.Note,
		DiscountCode:   r.DiscountCode,
		ShippingDate:   r.ShippingDate,
	}
	if r.Lines != nil {
		patch.Lines = toCartLines(r.Lines)
	}
	return patch
}

type BulkStatusRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
	Status   string      `json:"status" binding:"required"`
}

type BulkDeleteRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
}

type InvoiceBundleRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
}

type SearchOrdersRequest struct {
	ID              *uuid.UUID `json:"id"`
	Statuses        []string   `json:"statuses"`
	CustomerQuery   *string    `json:"customer_query"`
	ProductQuery    *string    `json:"product_query"`
	ShippingMethods []string   `json:"shipping_methods"`
	From            *time.Time `json:"from"`
	To              *time.Time `json:"to"`
	Page            int        `json:"page"`
	PageSize        int        `json:"page_size"`
}

func (r SearchOrdersRequest) ToFilter() queries.OrderFilter {
	filter := queries.OrderFilter{
		ID:            r.ID,
		CustomerQuery: r.CustomerQuery,
		ProductQuery:  r.ProductQuery,
		From:          r.From,
		To:            r.To,
	}
	for _, s := range r.Statuses {
		filter.Statuses = append(filter.Statuses, order.Status(s))
	}
	for _, m := range r.ShippingMethods {
		filter.ShippingMethods = append(filter.ShippingMethods, order.ShippingMethod(m))
	}
	return filter
}

func toCartLines(lines []CartLineRequest) []commands.CartLine {
	result := make([]commands.CartLine, len(lines))
	for i, l := range lines {
		result[i] = commands.CartLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return result
}
