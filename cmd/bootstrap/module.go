package bootstrap

import (
	"orderhub/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	components.RepositoryModule,
	components.InvoiceModule,
	components.UseCaseModule,
	components.HandlerModule,
)
