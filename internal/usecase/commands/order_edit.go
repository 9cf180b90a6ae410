package commands

import (
	"context"
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/domain/voucher"
	"orderhub/internal/infra"
	"orderhub/internal/infra/db"
	"orderhub/internal/pkg/errs"

	"github.com/google/uuid"
)

type UpdateOrderPatch struct {
	Lines          []CartLine   // nil means lines unchanged
	VoucherIDs     *[]uuid.UUID // nil means voucher set unchanged
	ShippingMethod *string
	PaymentMethod  *string
	Note           *string
	DiscountCode   *string
	ShippingDate   *time.Time
}

// stockDelta is the per-product quantity difference between the requested
// line set and the committed one. Positive means the customer wants more
// units; only that surplus is charged against stock.
type stockDelta struct {
	productID uuid.UUID
	delta     int32
}

// UpdateOrder replaces an order's line items using quantity deltas so the
// customer is never double-charged stock for units already held, patches
// header fields, and revalidates vouchers when the voucher set changed.
func (c *orderCommandsImpl) UpdateOrder(ctx context.Context, orderID uuid.UUID, patch UpdateOrderPatch) (*order.Order, error) {
	existing, err := c.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errs.Wrap(err, "failed to load order")
	}

	if !existing.IsEditable() {
		return nil, errs.Mark(order.ErrOrderNotEditable, ErrDomainValidation)
	}

	now := c.clock.Now()

	newLines := existing.Lines()
	var deltas []stockDelta
	if patch.Lines != nil {
		newLines, deltas, err = c.resolveLineDeltas(ctx, existing, patch.Lines)
		if err != nil {
			return nil, err
		}
	}

	var subtotal int64
	for _, l := range newLines {
		subtotal += l.TotalCents()
	}

	discount := existing.DiscountCents()
	newVoucherIDs := existing.VoucherIDs()
	var addedVouchers []*voucher.Voucher
	var removedVoucherIDs []uuid.UUID
	if patch.Lines != nil || patch.VoucherIDs != nil {
		var finalVouchers []*voucher.Voucher
		addedVouchers, removedVoucherIDs, finalVouchers, err = c.resolveVoucherChanges(ctx, existing, patch.VoucherIDs, subtotal)
		if err != nil {
			return nil, err
		}
		discount = discountFor(finalVouchers, subtotal)
		newVoucherIDs = voucherIDsOf(finalVouchers)
	}

	if err := existing.ReplaceLines(newLines, newVoucherIDs, discount, now); err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	if err := existing.ApplyHeaderPatch(headerPatchOf(patch), now); err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	err = c.tx.Within(ctx, func(tx db.DBTX) error {
		return c.persistEdit(ctx, tx, existing, deltas, addedVouchers, removedVoucherIDs)
	})
	if err != nil {
		return nil, err
	}

	return existing, nil
}

// resolveLineDeltas prices the requested line set and computes per-product
// stock deltas against the committed lines. Products already on the order
// keep their snapshot price; products new to the order snapshot the live
// catalog price. Positive deltas are validated against available stock.
func (c *orderCommandsImpl) resolveLineDeltas(
	ctx context.Context,
	existing *order.Order,
	requested []CartLine,
) ([]order.Line, []stockDelta, error) {
	if len(requested) == 0 {
		return nil, nil, errs.Mark(order.ErrNoLines, ErrDomainValidation)
	}

	newLines := make([]order.Line, 0, len(requested))
	deltas := make([]stockDelta, 0, len(requested))
	var shortages []StockShortage
	requestedProducts := make(map[uuid.UUID]struct{}, len(requested))

	for _, item := range requested {
		requestedProducts[item.ProductID] = struct{}{}

		committed, held := existing.LineForProduct(item.ProductID)
		var committedQty int32
		if held {
			committedQty = committed.Quantity()
		}
		delta := item.Quantity - committedQty

		product, err := c.productStore.FindByID(ctx, item.ProductID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, nil, errs.Mark(errs.Newf("product %s", item.ProductID), ErrProductNotFound)
			}
			return nil, nil, errs.Wrap(err, "failed to resolve product")
		}

		// Only the surplus over the held quantity must be in stock.
		if delta > 0 && product.Stock < delta {
			shortages = append(shortages, StockShortage{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   delta,
				Available:   product.Stock,
			})
			continue
		}

		unitPrice := product.PriceCents
		if held {
			unitPrice = committed.UnitPriceCents()
		}
		line, err := order.NewLine(product.ID, product.Name, item.Quantity, unitPrice)
		if err != nil {
			return nil, nil, errs.Mark(err, ErrDomainValidation)
		}
		newLines = append(newLines, line)

		if delta != 0 {
			deltas = append(deltas, stockDelta{productID: item.ProductID, delta: delta})
		}
	}

	// Products dropped from the order give their whole quantity back.
	for _, committed := range existing.Lines() {
		if _, still := requestedProducts[committed.ProductID()]; !still {
			deltas = append(deltas, stockDelta{productID: committed.ProductID(), delta: -committed.Quantity()})
		}
	}

	if len(shortages) > 0 {
		return nil, nil, &InsufficientStockError{Shortages: shortages}
	}

	return newLines, deltas, nil
}

// resolveVoucherChanges diffs the requested voucher set against the
// committed one. Added vouchers run the full validation; kept vouchers are
// revalidated against the recomputed total with their usage cap exempted,
// since the order's own redemption already counts. A nil requested set
// keeps the committed voucher membership as it is.
func (c *orderCommandsImpl) resolveVoucherChanges(
	ctx context.Context,
	existing *order.Order,
	requested *[]uuid.UUID,
	subtotalCents int64,
) (added []*voucher.Voucher, removed []uuid.UUID, final []*voucher.Voucher, err error) {
	finalIDs := existing.VoucherIDs()
	if requested != nil {
		finalIDs = dedupeIDs(*requested)
	}

	current := make(map[uuid.UUID]struct{}, len(existing.VoucherIDs()))
	for _, id := range existing.VoucherIDs() {
		current[id] = struct{}{}
	}

	now := c.clock.Now()
	byID := make(map[uuid.UUID]*voucher.Voucher, len(finalIDs))
	var addedIDs []uuid.UUID
	for _, id := range finalIDs {
		if _, held := current[id]; held {
			kept, err := c.loadVoucher(ctx, id)
			if err != nil {
				return nil, nil, nil, err
			}
			if err := kept.ValidateHeld(subtotalCents, now); err != nil {
				return nil, nil, nil, newVoucherInvalidError(kept.Code().String(), err)
			}
			byID[id] = kept
			continue
		}
		addedIDs = append(addedIDs, id)
	}

	added, err = c.validateVouchers(ctx, addedIDs, subtotalCents)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, v := range added {
		byID[v.ID()] = v
	}

	next := make(map[uuid.UUID]struct{}, len(finalIDs))
	for _, id := range finalIDs {
		next[id] = struct{}{}
	}
	for _, id := range existing.VoucherIDs() {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}

	final = make([]*voucher.Voucher, 0, len(finalIDs))
	for _, id := range finalIDs {
		final = append(final, byID[id])
	}
	return added, removed, final, nil
}

func (c *orderCommandsImpl) persistEdit(
	ctx context.Context,
	tx db.DBTX,
	edited *order.Order,
	deltas []stockDelta,
	addedVouchers []*voucher.Voucher,
	removedVoucherIDs []uuid.UUID,
) error {
	for _, d := range deltas {
		// A positive quantity delta consumes stock, a negative one
		// restores it.
		if err := c.productStore.AdjustStock(ctx, tx, d.productID, -d.delta); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return c.shortageAfterRace(ctx, CartLine{ProductID: d.productID, Quantity: d.delta})
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	for _, v := range addedVouchers {
		if err := c.voucherStore.IncrementRedemption(ctx, tx, v.ID()); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return &VoucherInvalidError{Code: v.Code().String(), Reason: ReasonMaxUses}
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}
	for _, id := range removedVoucherIDs {
		if err := c.voucherStore.DecrementRedemption(ctx, tx, id); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	if err := c.orderRepo.Update(ctx, tx, edited); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return nil
}

func headerPatchOf(p UpdateOrderPatch) order.HeaderPatch {
	hp := order.HeaderPatch{
		Note:         p.Note,
		DiscountCode: p.DiscountCode,
		ShippingDate: p.ShippingDate,
	}
	if p.ShippingMethod != nil {
		m := order.ShippingMethod(*p.ShippingMethod)
		hp.ShippingMethod = &m
	}
	if p.PaymentMethod != nil {
		m := order.PaymentMethod(*p.PaymentMethod)
		hp.PaymentMethod = &m
	}
	return hp
}
