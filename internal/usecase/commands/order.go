package commands

import (
	"context"
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/domain/voucher"
	"orderhub/internal/infra"
	"orderhub/internal/infra/db"
	"orderhub/internal/pkg/clock"
	"orderhub/internal/pkg/errs"
	"orderhub/internal/usecase/shared"

	"github.com/google/uuid"
)

type CartLine struct {
	ProductID uuid.UUID
	Quantity  int32
}

type CreateOrderCommand struct {
	CustomerID     uuid.UUID
	Name           string
	Email          string
	Phone          string
	Address        string
	City           string
	Zip            string
	ShippingMethod string
	PaymentMethod  string
	Note           string
	DiscountCode   string
	ShippingDate   *time.Time
	Lines          []CartLine
	VoucherIDs     []uuid.UUID
}

type OrderCommands interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, patch UpdateOrderPatch) (*order.Order, error)
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, target order.Status) ([]*order.Order, error)
	BulkDelete(ctx context.Context, ids []uuid.UUID) error
	GenerateInvoiceBundle(ctx context.Context, ids []uuid.UUID) (string, error)
}

type orderCommandsImpl struct {
	orderRepo    OrderRepository
	productStore ProductStore
	voucherStore VoucherStore
	userStore    UserStore
	pipeline     InvoicePipeline
	dispatcher   InvoiceDispatcher
	tx           shared.TxRunner
	clock        clock.Clock
}

func NewOrderCommands(
	orderRepo OrderRepository,
	productStore ProductStore,
	voucherStore VoucherStore,
	userStore UserStore,
	pipeline InvoicePipeline,
	dispatcher InvoiceDispatcher,
	tx shared.TxRunner,
	clock clock.Clock,
) OrderCommands {
	return &orderCommandsImpl{
		orderRepo:    orderRepo,
		productStore: productStore,
		voucherStore: voucherStore,
		userStore:    userStore,
		pipeline:     pipeline,
		dispatcher:   dispatcher,
		tx:           tx,
		clock:        clock,
	}
}

// CreateOrder is the checkout transaction. Every validation (customer,
// stock sufficiency, voucher rules) runs before any persistent mutation;
// the stock decrement and voucher increment inside the transaction are
// conditional updates, so a concurrent checkout that wins the race surfaces
// as a conflict here rather than as oversold stock.
func (c *orderCommandsImpl) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	customer, err := c.resolveCustomer(ctx, cmd)
	if err != nil {
		return nil, err
	}

	lines, err := c.priceCartLines(ctx, cmd.Lines)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	for _, l := range lines {
		subtotal += l.TotalCents()
	}

	vouchers, err := c.validateVouchers(ctx, dedupeIDs(cmd.VoucherIDs), subtotal)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	orderEntity, err := order.NewOrder(
		order.NewNumber(now),
		customer,
		order.ShippingMethod(cmd.ShippingMethod),
		order.PaymentMethod(cmd.PaymentMethod),
		cmd.Note,
		cmd.DiscountCode,
		cmd.ShippingDate,
		lines,
		voucherIDsOf(vouchers),
		discountFor(vouchers, subtotal),
		now,
	)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	err = c.tx.Within(ctx, func(tx db.DBTX) error {
		return c.persistCheckout(ctx, tx, orderEntity, cmd.Lines, vouchers)
	})
	if err != nil {
		return nil, err
	}

	// Post-commit side effect: invoice and confirmation email are
	// best-effort and never fail the checkout.
	c.dispatcher.DispatchConfirmation(orderEntity)

	return orderEntity, nil
}

func (c *orderCommandsImpl) resolveCustomer(ctx context.Context, cmd CreateOrderCommand) (order.Customer, error) {
	profile, err := c.userStore.FindByID(ctx, cmd.CustomerID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return order.Customer{}, ErrCustomerNotFound
		}
		return order.Customer{}, errs.Wrap(err, "failed to resolve customer")
	}

	customer := order.Customer{
		UserID:  profile.ID,
		Name:    cmd.Name,
		Email:   cmd.Email,
		Phone:   cmd.Phone,
		Address: cmd.Address,
		City:    cmd.City,
		Zip:     cmd.Zip,
	}

	// Request fields override the stored profile; blanks fall back to it.
	if customer.Name == "" {
		customer.Name = profile.Name
	}
	if customer.Email == "" {
		customer.Email = profile.Email
	}
	if customer.Phone == "" {
		customer.Phone = profile.Phone
	}
	if customer.Address == "" {
		customer.Address = profile.Address
	}
	if customer.City == "" {
		customer.City = profile.City
	}
	if customer.Zip == "" {
		customer.Zip = profile.Zip
	}

	return customer, nil
}

// priceCartLines resolves every product, checks stock sufficiency across
// the whole cart, and snapshots the live price into order lines. No stock
// is mutated here; the pass either returns a full set of priced lines or an
// InsufficientStockError naming every failing product.
func (c *orderCommandsImpl) priceCartLines(ctx context.Context, cart []CartLine) ([]order.Line, error) {
	if len(cart) == 0 {
		return nil, errs.Mark(order.ErrNoLines, ErrDomainValidation)
	}

	lines := make([]order.Line, 0, len(cart))
	var shortages []StockShortage

	for _, item := range cart {
		product, err := c.productStore.FindByID(ctx, item.ProductID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, errs.Mark(errs.Newf("product %s", item.ProductID), ErrProductNotFound)
			}
			return nil, errs.Wrap(err, "failed to resolve product")
		}

		if product.Stock < item.Quantity {
			shortages = append(shortages, StockShortage{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
			})
			continue
		}

		line, err := order.NewLine(product.ID, product.Name, item.Quantity, product.PriceCents)
		if err != nil {
			return nil, errs.Mark(err, ErrDomainValidation)
		}
		lines = append(lines, line)
	}

	if len(shortages) > 0 {
		return nil, &InsufficientStockError{Shortages: shortages}
	}

	return lines, nil
}

// validateVouchers runs the pure voucher rules against the same
// pre-discount total for each voucher independently.
func (c *orderCommandsImpl) validateVouchers(ctx context.Context, ids []uuid.UUID, subtotalCents int64) ([]*voucher.Voucher, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	now := c.clock.Now()
	vouchers := make([]*voucher.Voucher, 0, len(ids))

	for _, id := range ids {
		entity, err := c.loadVoucher(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := entity.Validate(subtotalCents, now); err != nil {
			return nil, newVoucherInvalidError(entity.Code().String(), err)
		}

		vouchers = append(vouchers, entity)
	}

	return vouchers, nil
}

func (c *orderCommandsImpl) loadVoucher(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	snap, err := c.voucherStore.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(errs.Newf("voucher %s", id), ErrVoucherNotFound)
		}
		return nil, errs.Wrap(err, "failed to resolve voucher")
	}

	entity, err := voucher.NewVoucher(
		snap.ID,
		snap.Code,
		snap.AmountOffCents,
		snap.PercentOff,
		snap.MinOrderCents,
		snap.MaxUses,
		snap.RedemptionCount,
		snap.ValidFrom,
		snap.ValidTo,
	)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build voucher")
	}
	return entity, nil
}

// discountFor sums each voucher's discount against the same pre-discount
// total, capped so the chargeable amount never goes negative.
func discountFor(vouchers []*voucher.Voucher, subtotalCents int64) int64 {
	var total int64
	for _, v := range vouchers {
		total += v.DiscountCents(subtotalCents)
	}
	if total > subtotalCents {
		return subtotalCents
	}
	return total
}

func (c *orderCommandsImpl) persistCheckout(
	ctx context.Context,
	tx db.DBTX,
	orderEntity *order.Order,
	cart []CartLine,
	vouchers []*voucher.Voucher,
) error {
	for _, item := range cart {
		if err := c.productStore.AdjustStock(ctx, tx, item.ProductID, -item.Quantity); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				// A concurrent checkout consumed the stock between the
				// sufficiency pass and this decrement.
				return c.shortageAfterRace(ctx, item)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	for _, v := range vouchers {
		if err := c.voucherStore.IncrementRedemption(ctx, tx, v.ID()); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return &VoucherInvalidError{Code: v.Code().String(), Reason: ReasonMaxUses}
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	if err := c.orderRepo.Create(ctx, tx, orderEntity); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return nil
}

func (c *orderCommandsImpl) shortageAfterRace(ctx context.Context, item CartLine) error {
	shortage := StockShortage{ProductID: item.ProductID, Requested: item.Quantity}
	if product, err := c.productStore.FindByID(ctx, item.ProductID); err == nil {
		shortage.ProductName = product.Name
		shortage.Available = product.Stock
	}
	return &InsufficientStockError{Shortages: []StockShortage{shortage}}
}

func voucherIDsOf(vouchers []*voucher.Voucher) []uuid.UUID {
	if len(vouchers) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(vouchers))
	for i, v := range vouchers {
		ids[i] = v.ID()
	}
	return ids
}
