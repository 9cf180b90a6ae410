package components

import (
	"context"

	"orderhub/internal/infra/invoice"
	"orderhub/internal/pkg/config"
	"orderhub/internal/usecase/commands"

	"go.uber.org/fx"
)

var InvoiceModule = fx.Module("invoice",
	fx.Provide(
		fx.Annotate(
			NewInvoicePipeline,
			fx.As(new(commands.InvoicePipeline)),
		),
		fx.Annotate(
			NewInvoiceDispatcher,
			fx.As(new(commands.InvoiceDispatcher)),
		),
	),
)

func NewInvoicePipeline(cfg config.Config) (*invoice.Pipeline, error) {
	return invoice.NewPipeline(cfg.Invoice, cfg.SMTP)
}

// The dispatcher is drained on shutdown so in-flight confirmation emails
// finish before the process exits.
func NewInvoiceDispatcher(lc fx.Lifecycle, pipeline commands.InvoicePipeline) *invoice.Dispatcher {
	dispatcher := invoice.NewDispatcher(pipeline)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			dispatcher.Wait()
			return nil
		},
	})

	return dispatcher
}
