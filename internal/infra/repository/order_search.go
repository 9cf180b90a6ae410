package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderhub/internal/infra"
	"orderhub/internal/infra/db"
	"orderhub/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderReadStore serves the read side: single-order views and the filtered,
// paginated listing.
type OrderReadStore struct {
	db db.DBTX
}

func NewOrderReadStore(pool db.DBTX) *OrderReadStore {
	return &OrderReadStore{db: pool}
}

func (s *OrderReadStore) FindViewByID(ctx context.Context, id uuid.UUID) (*queries.OrderView, error) {
	row := s.db.QueryRow(ctx, selectOrderSQL+` WHERE id = $1`, id)

	rec, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("order not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find order", err)
	}

	lineRows, err := s.db.Query(ctx, `
		SELECT product_id, product_name, quantity, unit_price_cents
		FROM order_lines WHERE order_id = $1`, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load order lines", err)
	}
	defer lineRows.Close()

	view := recordToView(rec)
	for lineRows.Next() {
		var lv queries.OrderLineView
		if err := lineRows.Scan(&lv.ProductID, &lv.ProductName, &lv.Quantity, &lv.UnitPriceCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan order line", err)
		}
		lv.TotalCents = int64(lv.Quantity) * lv.UnitPriceCents
		view.Lines = append(view.Lines, lv)
		view.SubtotalCents += lv.TotalCents
	}
	if err := lineRows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read order lines", err)
	}
	view.TotalCents = view.SubtotalCents - view.DiscountCents
	if view.TotalCents < 0 {
		view.TotalCents = 0
	}

	voucherRows, err := s.db.Query(ctx, `SELECT voucher_id FROM order_vouchers WHERE order_id = $1`, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load voucher links", err)
	}
	defer voucherRows.Close()
	for voucherRows.Next() {
		var voucherID uuid.UUID
		if err := voucherRows.Scan(&voucherID); err != nil {
			return nil, infra.WrapRepoErr("failed to scan voucher link", err)
		}
		view.VoucherIDs = append(view.VoucherIDs, voucherID)
	}
	if err := voucherRows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read voucher links", err)
	}

	return view, nil
}

func (s *OrderReadStore) Search(ctx context.Context, filter queries.OrderFilter, limit, offset int32) ([]queries.OrderListItem, int64, error) {
	where, args := BuildOrderFilter(filter)

	countSQL := `SELECT COUNT(*) FROM orders o` + where
	var total int64
	if err := s.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to count orders", err)
	}

	listSQL := fmt.Sprintf(`
		SELECT o.id, o.number, o.customer_name, o.shipping_method, o.payment_method, o.status,
			COALESCE((SELECT SUM(l.quantity * l.unit_price_cents) FROM order_lines l WHERE l.order_id = o.id), 0),
			o.discount_cents, o.created_at
		FROM orders o%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	rows, err := s.db.Query(ctx, listSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to search orders", err)
	}
	defer rows.Close()

	items := make([]queries.OrderListItem, 0, limit)
	for rows.Next() {
		var item queries.OrderListItem
		if err := rows.Scan(
			&item.ID, &item.Number, &item.CustomerName, &item.ShippingMethod,
			&item.PaymentMethod, &item.Status, &item.SubtotalCents, &item.DiscountCents,
			&item.CreatedAt,
		); err != nil {
			return nil, 0, infra.WrapRepoErr("failed to scan order row", err)
		}
		item.TotalCents = item.SubtotalCents - item.DiscountCents
		if item.TotalCents < 0 {
			item.TotalCents = 0
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to read order rows", err)
	}

	return items, total, nil
}

// BuildOrderFilter turns the typed filter into a WHERE clause plus
// positional args. Each present field contributes exactly one conjunct; an
// empty filter yields an empty clause, never a false one.
func BuildOrderFilter(filter queries.OrderFilter) (string, []any) {
	var conds []string
	var args []any

	next := func() int { return len(args) + 1 }

	if filter.ID != nil {
		args = append(args, *filter.ID)
		conds = append(conds, fmt.Sprintf("o.id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("o.status = ANY($%d)", len(args)))
	}
	if filter.CustomerQuery != nil {
		n := next()
		args = append(args, "%"+*filter.CustomerQuery+"%")
		conds = append(conds, fmt.Sprintf("(o.customer_name ILIKE $%d OR o.customer_phone ILIKE $%d)", n, n))
	}
	if filter.ProductQuery != nil {
		args = append(args, "%"+*filter.ProductQuery+"%")
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM order_lines pl WHERE pl.order_id = o.id AND pl.product_name ILIKE $%d)", len(args)))
	}
	if len(filter.ShippingMethods) > 0 {
		methods := make([]string, len(filter.ShippingMethods))
		for i, m := range filter.ShippingMethods {
			methods[i] = string(m)
		}
		args = append(args, methods)
		conds = append(conds, fmt.Sprintf("o.shipping_method = ANY($%d)", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("o.created_at <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func recordToView(rec *orderRecord) *queries.OrderView {
	view := &queries.OrderView{
		ID:             rec.id,
		Number:         rec.number,
		CustomerID:     rec.customerID,
		CustomerName:   rec.customerName,
		CustomerEmail:  rec.customerEmail,
		CustomerPhone:  rec.customerPhone,
		Address:        rec.address,
		City:           rec.city,
		Zip:            rec.zip,
		ShippingMethod: rec.shippingMethod,
		PaymentMethod:  rec.paymentMethod,
		Status:         rec.status,
		DiscountCents:  rec.discountCents,
		ShippingDate:   cloneTimePtr(rec.shippingDate),
		CreatedAt:      rec.createdAt,
		UpdatedAt:      rec.updatedAt,
	}
	if rec.note != "" {
		note := rec.note
		view.Note = &note
	}
	if rec.discountCode != "" {
		code := rec.discountCode
		view.DiscountCode = &code
	}
	return view
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
