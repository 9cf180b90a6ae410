package commands

import (
	"context"
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/infra/db"

	"github.com/google/uuid"
)

// Write-side snapshots prevent dependency on read-side query types.
type ProductSnapshot struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
	Stock      int32
}

type VoucherSnapshot struct {
	ID              uuid.UUID
	Code            string
	AmountOffCents  *int64
	PercentOff      *float64
	MinOrderCents   int64
	MaxUses         int32
	RedemptionCount int32
	ValidFrom       *time.Time
	ValidTo         *time.Time
}

type UserSnapshot struct {
	ID      uuid.UUID
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Zip     string
}

type OrderRepository interface {
	Create(ctx context.Context, tx db.DBTX, o *order.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*order.Order, error)
	Update(ctx context.Context, tx db.DBTX, o *order.Order) error
	UpdateStatusBatch(ctx context.Context, tx db.DBTX, ids []uuid.UUID, status order.Status, now time.Time) error
	DeleteBatch(ctx context.Context, tx db.DBTX, ids []uuid.UUID) error
}

type ProductStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductSnapshot, error)
	// AdjustStock applies a signed delta with a conditional update that
	// refuses to drive stock negative.
	AdjustStock(ctx context.Context, tx db.DBTX, id uuid.UUID, delta int32) error
}

type VoucherStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*VoucherSnapshot, error)
	FindByCode(ctx context.Context, code string) (*VoucherSnapshot, error)
	// IncrementRedemption is bounded by max_uses at the database level.
	IncrementRedemption(ctx context.Context, tx db.DBTX, id uuid.UUID) error
	DecrementRedemption(ctx context.Context, tx db.DBTX, id uuid.UUID) error
}

type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserSnapshot, error)
}

// InvoicePipeline is the document/email collaborator boundary. It is never
// called inside a database transaction.
type InvoicePipeline interface {
	Render(o *order.Order) ([]byte, error)
	Merge(docs [][]byte) ([]byte, error)
	Store(doc []byte) (string, error)
	SendEmail(to string, doc []byte) error
}

// InvoiceDispatcher hands the confirmation document/email off as a
// post-commit side effect. Implementations must not return errors into the
// checkout path.
type InvoiceDispatcher interface {
	DispatchConfirmation(o *order.Order)
}
