package queries

import (
	"context"
	"time"

	"orderhub/internal/domain/order"

	"github.com/google/uuid"
)

// OrderFilter is a typed set of optional clauses combined conjunctively.
// A nil/empty field contributes no constraint; it is never interpreted as
// "match nothing".
type OrderFilter struct {
	ID              *uuid.UUID
	Statuses        []order.Status
	CustomerQuery   *string // substring match on customer name or phone
	ProductQuery    *string // substring match on line-item product names
	ShippingMethods []order.ShippingMethod
	From            *time.Time
	To              *time.Time
}

func (f OrderFilter) IsEmpty() bool {
	return f.ID == nil &&
		len(f.Statuses) == 0 &&
		f.CustomerQuery == nil &&
		f.ProductQuery == nil &&
		len(f.ShippingMethods) == 0 &&
		f.From == nil &&
		f.To == nil
}

type OrderQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*OrderView, error)
	List(ctx context.Context, page, pageSize int) (*Page[OrderListItem], error)
	Search(ctx context.Context, filter OrderFilter, page, pageSize int) (*Page[OrderListItem], error)
}

type OrderViewRepo interface {
	FindViewByID(ctx context.Context, id uuid.UUID) (*OrderView, error)
	Search(ctx context.Context, filter OrderFilter, limit, offset int32) ([]OrderListItem, int64, error)
}

type orderQueriesImpl struct {
	repo OrderViewRepo
}

func NewOrderQueries(repo OrderViewRepo) OrderQueries {
	return &orderQueriesImpl{repo: repo}
}

func (q *orderQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	return q.repo.FindViewByID(ctx, id)
}

func (q *orderQueriesImpl) List(ctx context.Context, page, pageSize int) (*Page[OrderListItem], error) {
	return q.Search(ctx, OrderFilter{}, page, pageSize)
}

func (q *orderQueriesImpl) Search(ctx context.Context, filter OrderFilter, page, pageSize int) (*Page[OrderListItem], error) {
	page, pageSize = NormalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	items, total, err := q.repo.Search(ctx, filter, int32(pageSize), int32(offset))
	if err != nil {
		return nil, err
	}

	return &Page[OrderListItem]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
