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

type UserStore struct {
	db db.DBTX
}

func NewUserStore(pool db.DBTX) *UserStore {
	return &UserStore{db: pool}
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*commands.UserSnapshot, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, name, email, phone, address, city, zip FROM users WHERE id = $1`, id)

	var snap commands.UserSnapshot
	err := row.Scan(&snap.ID, &snap.Name, &snap.Email, &snap.Phone, &snap.Address, &snap.City, &snap.Zip)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user", err)
	}
	return &snap, nil
}
