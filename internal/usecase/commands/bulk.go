package commands

import (
	"context"

	"orderhub/internal/domain/order"
	"orderhub/internal/infra/db"
	"orderhub/internal/pkg/errs"

	"github.com/google/uuid"
)

// BulkUpdateStatus moves every referenced order to target. The batch is
// all-or-nothing: every id must resolve and every transition must be legal
// before anything is written.
func (c *orderCommandsImpl) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, target order.Status) ([]*order.Order, error) {
	if _, ok := order.ParseStatus(string(target)); !ok {
		return nil, errs.Mark(errs.Newf("unknown status %q", target), ErrDomainValidation)
	}

	orders, err := c.resolveAll(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	for _, o := range orders {
		if err := o.TransitionTo(target, now); err != nil {
			return nil, &InvalidTransitionError{
				OrderID: o.ID(),
				From:    o.Status().String(),
				To:      target.String(),
			}
		}
	}

	err = c.tx.Within(ctx, func(tx db.DBTX) error {
		if err := c.orderRepo.UpdateStatusBatch(ctx, tx, orderIDsOf(orders), target, now); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if target == order.StatusCancelled {
			return c.restoreStock(ctx, tx, orders)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// restoreStock gives every cancelled order's line quantities back to the
// products. Runs inside the cancellation transaction.
func (c *orderCommandsImpl) restoreStock(ctx context.Context, tx db.DBTX, orders []*order.Order) error {
	for _, o := range orders {
		for _, l := range o.Lines() {
			if err := c.productStore.AdjustStock(ctx, tx, l.ProductID(), l.Quantity()); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}
	}
	return nil
}

// BulkDelete removes whole order aggregates. Same resolution discipline as
// BulkUpdateStatus: one unknown id aborts the batch untouched.
func (c *orderCommandsImpl) BulkDelete(ctx context.Context, ids []uuid.UUID) error {
	orders, err := c.resolveAll(ctx, ids)
	if err != nil {
		return err
	}

	return c.tx.Within(ctx, func(tx db.DBTX) error {
		if err := c.orderRepo.DeleteBatch(ctx, tx, orderIDsOf(orders)); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
}

// resolveAll loads every order and reports the full set of missing ids so
// the caller can correct the batch in one pass. Repeated ids resolve to a
// single order so downstream row-count checks see one row per order.
func (c *orderCommandsImpl) resolveAll(ctx context.Context, ids []uuid.UUID) ([]*order.Order, error) {
	if len(ids) == 0 {
		return nil, errs.Mark(errs.New("empty id list"), ErrDomainValidation)
	}
	unique := dedupeIDs(ids)

	orders, err := c.orderRepo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, errs.Wrap(err, "failed to resolve orders")
	}

	found := make(map[uuid.UUID]*order.Order, len(orders))
	for _, o := range orders {
		found[o.ID()] = o
	}

	var missing []uuid.UUID
	resolved := make([]*order.Order, 0, len(unique))
	for _, id := range unique {
		o, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		resolved = append(resolved, o)
	}
	if len(missing) > 0 {
		return nil, &BulkPartialMissError{Missing: missing}
	}

	return resolved, nil
}

func orderIDsOf(orders []*order.Order) []uuid.UUID {
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID()
	}
	return ids
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
