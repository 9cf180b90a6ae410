package repository

import (
	"context"
	"errors"

	"orderhub/internal/infra"
	"orderhub/internal/infra/db"
	"orderhub/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductStore struct {
	db db.DBTX
}

func NewProductStore(pool db.DBTX) *ProductStore {
	return &ProductStore{db: pool}
}

func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*commands.ProductSnapshot, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, name, price_cents, stock FROM products WHERE id = $1`, id)

	var snap commands.ProductSnapshot
	if err := row.Scan(&snap.ID, &snap.Name, &snap.PriceCents, &snap.Stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("product not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find product", err)
	}
	return &snap, nil
}

// AdjustStock applies a signed delta as a single conditional update. The
// WHERE guard makes the decrement atomic under concurrent checkouts: a
// request that would drive stock negative affects zero rows and surfaces
// as KindConflict instead of overselling.
func (s *ProductStore) AdjustStock(ctx context.Context, tx db.DBTX, id uuid.UUID, delta int32) error {
	tag, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now()
		 WHERE id = $1 AND stock + $2 >= 0`, id, delta)
	if err != nil {
		return infra.WrapRepoErr("failed to adjust stock", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := s.exists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !exists {
			return infra.WrapRepoErr("product not found", nil, infra.KindNotFound)
		}
		return infra.WrapRepoErr("insufficient stock for adjustment", nil, infra.KindConflict)
	}
	return nil
}

func (s *ProductStore) exists(ctx context.Context, tx db.DBTX, id uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check product", err)
	}
	return exists, nil
}
