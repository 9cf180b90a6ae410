package repository

import (
	"context"
	"errors"
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/infra"
	"orderhub/internal/infra/db"
	"orderhub/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrCodeUniqueViolation = "23505"

// numberConflictRetries bounds how often Create regenerates the order
// number after a unique-constraint collision.
const numberConflictRetries = 3

type OrderRepository struct {
	db    db.DBTX
	clock clock.Clock
}

func NewOrderRepository(pool db.DBTX, clock clock.Clock) *OrderRepository {
	return &OrderRepository{db: pool, clock: clock}
}

const insertOrderSQL = `
INSERT INTO orders (
	id, number, customer_id, customer_name, customer_email, customer_phone,
	address, city, zip, shipping_method, payment_method, note, discount_code,
	discount_cents, status, shipping_date, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

func (r *OrderRepository) Create(ctx context.Context, tx db.DBTX, o *order.Order) error {
	// A unique violation aborts the enclosing transaction, so each insert
	// attempt runs under a savepoint that is rolled back before the retry
	// re-issues the statement.
	for attempt := 0; ; attempt++ {
		if _, err := tx.Exec(ctx, `SAVEPOINT insert_order`); err != nil {
			return infra.WrapRepoErr("failed to create savepoint", err)
		}
		err := r.insertHeader(ctx, tx, o)
		if err == nil {
			if _, err := tx.Exec(ctx, `RELEASE SAVEPOINT insert_order`); err != nil {
				return infra.WrapRepoErr("failed to release savepoint", err)
			}
			break
		}
		if _, rbErr := tx.Exec(ctx, `ROLLBACK TO SAVEPOINT insert_order`); rbErr != nil {
			return infra.WrapRepoErr("failed to roll back savepoint", rbErr)
		}
		if isNumberConflict(err) && attempt < numberConflictRetries {
			o.AssignNumber(order.NewNumber(r.clock.Now()))
			continue
		}
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("order already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert order", err)
	}

	if err := r.insertLines(ctx, tx, o.ID(), o.Lines()); err != nil {
		return err
	}
	return r.insertVoucherLinks(ctx, tx, o.ID(), o.VoucherIDs())
}

func (r *OrderRepository) insertHeader(ctx context.Context, tx db.DBTX, o *order.Order) error {
	c := o.Customer()
	_, err := tx.Exec(ctx, insertOrderSQL,
		o.ID(), o.Number(), c.UserID, c.Name, c.Email, c.Phone,
		c.Address, c.City, c.Zip, string(o.ShippingMethod()), string(o.PaymentMethod()),
		o.Note(), o.DiscountCode(), o.DiscountCents(), string(o.Status()), o.ShippingDate(),
		o.CreatedAt(), o.UpdatedAt(),
	)
	return err
}

func (r *OrderRepository) insertLines(ctx context.Context, tx db.DBTX, orderID uuid.UUID, lines []order.Line) error {
	const sql = `
		INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5)`
	for _, l := range lines {
		if _, err := tx.Exec(ctx, sql, orderID, l.ProductID(), l.ProductName(), l.Quantity(), l.UnitPriceCents()); err != nil {
			return infra.WrapRepoErr("failed to insert order line", err)
		}
	}
	return nil
}

func (r *OrderRepository) insertVoucherLinks(ctx context.Context, tx db.DBTX, orderID uuid.UUID, voucherIDs []uuid.UUID) error {
	const sql = `INSERT INTO order_vouchers (order_id, voucher_id) VALUES ($1, $2)`
	for _, id := range voucherIDs {
		if _, err := tx.Exec(ctx, sql, orderID, id); err != nil {
			return infra.WrapRepoErr("failed to link voucher", err)
		}
	}
	return nil
}

// Update rewrites the header and replaces the line and voucher sets. It
// always runs inside the edit transaction.
func (r *OrderRepository) Update(ctx context.Context, tx db.DBTX, o *order.Order) error {
	const sql = `
		UPDATE orders SET
			customer_name = $2, customer_email = $3, customer_phone = $4,
			address = $5, city = $6, zip = $7,
			shipping_method = $8, payment_method = $9, note = $10,
			discount_code = $11, discount_cents = $12, status = $13,
			shipping_date = $14, updated_at = $15
		WHERE id = $1`

	c := o.Customer()
	tag, err := tx.Exec(ctx, sql,
		o.ID(), c.Name, c.Email, c.Phone, c.Address, c.City, c.Zip,
		string(o.ShippingMethod()), string(o.PaymentMethod()), o.Note(),
		o.DiscountCode(), o.DiscountCents(), string(o.Status()), o.ShippingDate(), o.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update order", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID()); err != nil {
		return infra.WrapRepoErr("failed to clear order lines", err)
	}
	if err := r.insertLines(ctx, tx, o.ID(), o.Lines()); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_vouchers WHERE order_id = $1`, o.ID()); err != nil {
		return infra.WrapRepoErr("failed to clear voucher links", err)
	}
	return r.insertVoucherLinks(ctx, tx, o.ID(), o.VoucherIDs())
}

const selectOrderSQL = `
SELECT id, number, customer_id, customer_name, customer_email, customer_phone,
	address, city, zip, shipping_method, payment_method, note, discount_code,
	discount_cents, status, shipping_date, created_at, updated_at
FROM orders`

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	row := r.db.QueryRow(ctx, selectOrderSQL+` WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("order not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find order", err)
	}

	if err := r.loadAssociations(ctx, []*orderRecord{o}); err != nil {
		return nil, err
	}
	return o.toDomain(), nil
}

func (r *OrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*order.Order, error) {
	rows, err := r.db.Query(ctx, selectOrderSQL+` WHERE id = ANY($1) ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find orders", err)
	}
	defer rows.Close()

	var records []*orderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan order", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read orders", err)
	}

	if err := r.loadAssociations(ctx, records); err != nil {
		return nil, err
	}

	result := make([]*order.Order, len(records))
	for i, rec := range records {
		result[i] = rec.toDomain()
	}
	return result, nil
}

func (r *OrderRepository) UpdateStatusBatch(ctx context.Context, tx db.DBTX, ids []uuid.UUID, status order.Status, now time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = ANY($1)`,
		ids, string(status), now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update order statuses", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		// Caller resolved all ids first; a mismatch means a concurrent
		// delete slipped in between resolution and this update.
		return infra.WrapRepoErr("order set changed during batch update", nil, infra.KindConflict)
	}
	return nil
}

func (r *OrderRepository) DeleteBatch(ctx context.Context, tx db.DBTX, ids []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = ANY($1)`, ids); err != nil {
		return infra.WrapRepoErr("failed to delete orders", err)
	}
	return nil
}

// orderRecord is the flat row shape before lines and voucher links are
// attached.
type orderRecord struct {
	id             uuid.UUID
	number         int64
	customerID     uuid.UUID
	customerName   string
	customerEmail  string
	customerPhone  string
	address        string
	city           string
	zip            string
	shippingMethod string
	paymentMethod  string
	note           string
	discountCode   string
	discountCents  int64
	status         string
	shippingDate   *time.Time
	createdAt      time.Time
	updatedAt      time.Time

	lines      []order.Line
	voucherIDs []uuid.UUID
}

func scanOrder(row pgx.Row) (*orderRecord, error) {
	var rec orderRecord
	err := row.Scan(
		&rec.id, &rec.number, &rec.customerID, &rec.customerName, &rec.customerEmail,
		&rec.customerPhone, &rec.address, &rec.city, &rec.zip, &rec.shippingMethod,
		&rec.paymentMethod, &rec.note, &rec.discountCode, &rec.discountCents,
		&rec.status, &rec.shippingDate, &rec.createdAt, &rec.updatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *OrderRepository) loadAssociations(ctx context.Context, records []*orderRecord) error {
	if len(records) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*orderRecord, len(records))
	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		byID[rec.id] = rec
		ids[i] = rec.id
	}

	rows, err := r.db.Query(ctx, `
		SELECT order_id, product_id, product_name, quantity, unit_price_cents
		FROM order_lines WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return infra.WrapRepoErr("failed to load order lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID, productID uuid.UUID
			productName        string
			quantity           int32
			unitPriceCents     int64
		)
		if err := rows.Scan(&orderID, &productID, &productName, &quantity, &unitPriceCents); err != nil {
			return infra.WrapRepoErr("failed to scan order line", err)
		}
		line, err := order.NewLine(productID, productName, quantity, unitPriceCents)
		if err != nil {
			return infra.WrapRepoErr("invalid persisted order line", err)
		}
		byID[orderID].lines = append(byID[orderID].lines, line)
	}
	if err := rows.Err(); err != nil {
		return infra.WrapRepoErr("failed to read order lines", err)
	}

	voucherRows, err := r.db.Query(ctx, `
		SELECT order_id, voucher_id FROM order_vouchers WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return infra.WrapRepoErr("failed to load voucher links", err)
	}
	defer voucherRows.Close()
	for voucherRows.Next() {
		var orderID, voucherID uuid.UUID
		if err := voucherRows.Scan(&orderID, &voucherID); err != nil {
			return infra.WrapRepoErr("failed to scan voucher link", err)
		}
		byID[orderID].voucherIDs = append(byID[orderID].voucherIDs, voucherID)
	}
	if err := voucherRows.Err(); err != nil {
		return infra.WrapRepoErr("failed to read voucher links", err)
	}

	return nil
}

func (rec *orderRecord) toDomain() *order.Order {
	return order.ReconstructOrder(
		rec.id,
		rec.number,
		order.Customer{
			UserID:  rec.customerID,
			Name:    rec.customerName,
			Email:   rec.customerEmail,
			Phone:   rec.customerPhone,
			Address: rec.address,
			City:    rec.city,
			Zip:     rec.zip,
		},
		order.ShippingMethod(rec.shippingMethod),
		order.PaymentMethod(rec.paymentMethod),
		rec.note,
		rec.discountCode,
		order.Status(rec.status),
		rec.shippingDate,
		rec.lines,
		rec.voucherIDs,
		rec.discountCents,
		rec.createdAt,
		rec.updatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation
}

func isNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgErrCodeUniqueViolation &&
		pgErr.ConstraintName == "orders_number_key"
}
