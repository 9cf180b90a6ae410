package invoice

import (
	"log/slog"
	"sync"

	"orderhub/internal/domain/order"
	"orderhub/internal/usecase/commands"
)

// Dispatcher runs the confirmation side effect after checkout commits.
// Render, store and email failures are logged and dropped; the order is
// already durable at this point and must not be affected.
type Dispatcher struct {
	pipeline commands.InvoicePipeline
	wg       sync.WaitGroup
}

func NewDispatcher(pipeline commands.InvoicePipeline) *Dispatcher {
	return &Dispatcher{pipeline: pipeline}
}

func (d *Dispatcher) DispatchConfirmation(o *order.Order) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(o)
	}()
}

func (d *Dispatcher) deliver(o *order.Order) {
	logger := slog.With("order_id", o.ID(), "order_number", o.Number())

	doc, err := d.pipeline.Render(o)
	if err != nil {
		logger.Warn("invoice render failed", "error", err)
		return
	}

	if _, err := d.pipeline.Store(doc); err != nil {
		logger.Warn("invoice store failed", "error", err)
	}

	if email := o.Customer().Email; email != "" {
		if err := d.pipeline.SendEmail(email, doc); err != nil {
			logger.Warn("confirmation email failed", "error", err)
		}
	}
}

// Wait blocks until in-flight deliveries finish. Used on shutdown and in
// tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
