package components

import (
	"orderhub/internal/handler"
	"orderhub/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewOrderHandler,
	),
	fx.Invoke(handler.NewRouter),
)
