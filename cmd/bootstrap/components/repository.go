package components

import (
	"orderhub/internal/infra/db"
	"orderhub/internal/infra/repository"
	"orderhub/internal/usecase/commands"
	"orderhub/internal/usecase/queries"
	"orderhub/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			shared.NewPgxTxRunner,
			fx.As(new(shared.TxRunner)),
		),
		fx.Annotate(
			repository.NewOrderRepository,
			fx.As(new(commands.OrderRepository)),
		),
		fx.Annotate(
			repository.NewProductStore,
			fx.As(new(commands.ProductStore)),
		),
		fx.Annotate(
			repository.NewVoucherStore,
			fx.As(new(commands.VoucherStore)),
		),
		fx.Annotate(
			repository.NewUserStore,
			fx.As(new(commands.UserStore)),
		),
		// Read-side repository for queries
		fx.Annotate(
			repository.NewOrderReadStore,
			fx.As(new(queries.OrderViewRepo)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
