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

type VoucherStore struct {
	db db.DBTX
}

func NewVoucherStore(pool db.DBTX) *VoucherStore {
	return &VoucherStore{db: pool}
}

const selectVoucherSQL = `
SELECT id, code, amount_off_cents, percent_off, min_order_cents,
	max_uses, redemption_count, valid_from, valid_to
FROM vouchers`

func (s *VoucherStore) FindByID(ctx context.Context, id uuid.UUID) (*commands.VoucherSnapshot, error) {
	return s.scanVoucher(s.db.QueryRow(ctx, selectVoucherSQL+` WHERE id = $1`, id))
}

func (s *VoucherStore) FindByCode(ctx context.Context, code string) (*commands.VoucherSnapshot, error) {
	return s.scanVoucher(s.db.QueryRow(ctx, selectVoucherSQL+` WHERE code = $1`, code))
}

func (s *VoucherStore) scanVoucher(row pgx.Row) (*commands.VoucherSnapshot, error) {
	var snap commands.VoucherSnapshot
	err := row.Scan(
		&snap.ID, &snap.Code, &snap.AmountOffCents, &snap.PercentOff,
		&snap.MinOrderCents, &snap.MaxUses, &snap.RedemptionCount,
		&snap.ValidFrom, &snap.ValidTo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("voucher not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find voucher", err)
	}
	return &snap, nil
}

// IncrementRedemption is bounded by max_uses in the WHERE clause, so two
// concurrent redemptions of a voucher's last use cannot both succeed.
func (s *VoucherStore) IncrementRedemption(ctx context.Context, tx db.DBTX, id uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE vouchers SET redemption_count = redemption_count + 1, updated_at = now()
		 WHERE id = $1 AND redemption_count < max_uses`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to increment redemption", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := s.voucherExists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !exists {
			return infra.WrapRepoErr("voucher not found", nil, infra.KindNotFound)
		}
		return infra.WrapRepoErr("voucher redemption limit reached", nil, infra.KindConflict)
	}
	return nil
}

func (s *VoucherStore) DecrementRedemption(ctx context.Context, tx db.DBTX, id uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE vouchers SET redemption_count = redemption_count - 1, updated_at = now()
		 WHERE id = $1 AND redemption_count > 0`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to decrement redemption", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("voucher redemption underflow", nil, infra.KindConflict)
	}
	return nil
}

func (s *VoucherStore) voucherExists(ctx context.Context, tx db.DBTX, id uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vouchers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check voucher", err)
	}
	return exists, nil
}
