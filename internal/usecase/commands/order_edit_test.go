//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/usecase/commands"
	"orderhub/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedOrder persists an order built from catalog products so edits can be
// computed against the committed lines.
func seedOrder(t *testing.T, f *commandFixture, specs ...builder.OrderLineSpec) *order.Order {
	t.Helper()
	o, err := builder.NewOrderBuilder().With(func(b *builder.OrderBuilder) {
		b.Lines = specs
	}).BuildDomain()
	require.NoError(t, err)
	f.orders.seed(o)
	return o
}

func TestUpdateOrder(t *testing.T) {
	t.Run("raising a quantity charges only the surplus", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)
		o := seedOrder(t, f, builder.OrderLineSpec{
			ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 12999,
		})

		updated, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines: []commands.CartLine{{ProductID: product.ID, Quantity: 5}},
		})
		require.NoError(t, err)

		// Only the extra three units leave stock.
		assert.Equal(t, []adjustCall{{id: product.ID, delta: -3}}, f.products.adjusts)
		assert.Equal(t, int32(7), f.products.products[product.ID].Stock)

		// The committed snapshot price survives the edit even though the
		// catalog price moved.
		require.Len(t, updated.Lines(), 1)
		assert.Equal(t, int64(12999), updated.Lines()[0].UnitPriceCents())
		assert.Equal(t, int32(5), updated.Lines()[0].Quantity())
	})

	t.Run("lowering a quantity restores the difference", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)
		o := seedOrder(t, f, builder.OrderLineSpec{
			ProductID: product.ID, ProductName: product.Name, Quantity: 5, UnitPriceCents: 14999,
		})

		_, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines: []commands.CartLine{{ProductID: product.ID, Quantity: 2}},
		})
		require.NoError(t, err)

		assert.Equal(t, []adjustCall{{id: product.ID, delta: 3}}, f.products.adjusts)
		assert.Equal(t, int32(13), f.products.products[product.ID].Stock)
	})

	t.Run("dropping a product returns its whole quantity", func(t *testing.T) {
		f := newCommandFixture()
		kept := f.addProduct("Keyboard", 14999, 10)
		dropped := f.addProduct("Mouse", 4999, 10)
		o := seedOrder(t, f,
			builder.OrderLineSpec{ProductID: kept.ID, ProductName: kept.Name, Quantity: 1, UnitPriceCents: 14999},
			builder.OrderLineSpec{ProductID: dropped.ID, ProductName: dropped.Name, Quantity: 4, UnitPriceCents: 4999},
		)

		updated, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines: []commands.CartLine{{ProductID: kept.ID, Quantity: 1}},
		})
		require.NoError(t, err)

		assert.Equal(t, []adjustCall{{id: dropped.ID, delta: 4}}, f.products.adjusts)
		require.Len(t, updated.Lines(), 1)
		assert.Equal(t, kept.ID, updated.Lines()[0].ProductID())
	})

	t.Run("a new product takes the live catalog price", func(t *testing.T) {
		f := newCommandFixture()
		existing := f.addProduct("Keyboard", 14999, 10)
		added := f.addProduct("Headset", 9999, 6)
		o := seedOrder(t, f, builder.OrderLineSpec{
			ProductID: existing.ID, ProductName: existing.Name, Quantity: 1, UnitPriceCents: 12999,
		})

		updated, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines: []commands.CartLine{
				{ProductID: existing.ID, Quantity: 1},
				{ProductID: added.ID, Quantity: 2},
			},
		})
		require.NoError(t, err)

		line, ok := updated.LineForProduct(added.ID)
		require.True(t, ok)
		assert.Equal(t, int64(9999), line.UnitPriceCents())
		assert.Equal(t, []adjustCall{{id: added.ID, delta: -2}}, f.products.adjusts)
	})

	t.Run("surplus beyond stock is rejected with delta numbers", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 2)
		o := seedOrder(t, f, builder.OrderLineSpec{
			ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 14999,
		})

		_, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines: []commands.CartLine{{ProductID: product.ID, Quantity: 6}},
		})

		var stockErr *commands.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		require.Len(t, stockErr.Shortages, 1)
		assert.Equal(t, int32(4), stockErr.Shortages[0].Requested)
		assert.Equal(t, int32(2), stockErr.Shortages[0].Available)
		assert.Empty(t, f.products.adjusts)
	})

	t.Run("header-only patch leaves lines and stock untouched", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)
		o := seedOrder(t, f, builder.OrderLineSpec{
			ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 14999,
		})

		express := string(order.ShippingExpress)
		note := "gift wrap please"
		updated, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			ShippingMethod: &express,
			Note:           &note,
		})
		require.NoError(t, err)

		assert.Equal(t, order.ShippingExpress, updated.ShippingMethod())
		assert.Equal(t, "gift wrap please", updated.Note())
		assert.Empty(t, f.products.adjusts)
		require.Len(t, f.orders.updated, 1)
	})

	t.Run("voucher set diff redeems added and releases removed", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)

		amount := int64(500)
		kept := f.addVoucher(commands.VoucherSnapshot{Code: "KEEPME01", AmountOffCents: &amount, MaxUses: 10, RedemptionCount: 1})
		removed := f.addVoucher(commands.VoucherSnapshot{Code: "DROPME01", AmountOffCents: &amount, MaxUses: 10, RedemptionCount: 1})
		added := f.addVoucher(commands.VoucherSnapshot{Code: "NEWONE01", AmountOffCents: &amount, MaxUses: 10})

		o, err := builder.NewOrderBuilder().With(func(b *builder.OrderBuilder) {
			b.Lines = []builder.OrderLineSpec{
				{ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 14999},
			}
			b.VoucherIDs = []uuid.UUID{kept.ID, removed.ID}
		}).BuildDomain()
		require.NoError(t, err)
		f.orders.seed(o)

		next := []uuid.UUID{kept.ID, added.ID}
		updated, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			VoucherIDs: &next,
		})
		require.NoError(t, err)

		assert.ElementsMatch(t, next, updated.VoucherIDs())
		assert.Equal(t, []uuid.UUID{added.ID}, f.vouchers.incremented)
		assert.Equal(t, []uuid.UUID{removed.ID}, f.vouchers.decremented)
	})

	t.Run("edit recomputes the discount against the new lines", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)

		ten := 10.0
		v := f.addVoucher(commands.VoucherSnapshot{Code: "TENOFF01", PercentOff: &ten, MaxUses: 10, RedemptionCount: 1})

		o, err := builder.NewOrderBuilder().With(func(b *builder.OrderBuilder) {
			b.Lines = []builder.OrderLineSpec{
				{ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 14999},
			}
			b.VoucherIDs = []uuid.UUID{v.ID}
			b.DiscountCents = 2999
		}).BuildDomain()
		require.NoError(t, err)
		f.orders.seed(o)

		updated, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines: []commands.CartLine{{ProductID: product.ID, Quantity: 1}},
		})
		require.NoError(t, err)

		assert.Equal(t, int64(14999), updated.SubtotalCents())
		assert.Equal(t, int64(1499), updated.DiscountCents())
		assert.Equal(t, int64(13500), updated.TotalCents())
	})

	t.Run("kept voucher is rechecked against the shrunken total", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)

		amount := int64(500)
		v := f.addVoucher(commands.VoucherSnapshot{
			Code: "BIGSPEND", AmountOffCents: &amount, MaxUses: 10, RedemptionCount: 1, MinOrderCents: 50000,
		})

		o, err := builder.NewOrderBuilder().With(func(b *builder.OrderBuilder) {
			b.Lines = []builder.OrderLineSpec{
				{ProductID: product.ID, ProductName: product.Name, Quantity: 4, UnitPriceCents: 14999},
			}
			b.VoucherIDs = []uuid.UUID{v.ID}
			b.DiscountCents = 500
		}).BuildDomain()
		require.NoError(t, err)
		f.orders.seed(o)

		next := []uuid.UUID{v.ID}
		_, err = f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines:      []commands.CartLine{{ProductID: product.ID, Quantity: 1}},
			VoucherIDs: &next,
		})

		var voucherErr *commands.VoucherInvalidError
		require.ErrorAs(t, err, &voucherErr)
		assert.Equal(t, "BIGSPEND", voucherErr.Code)
		assert.Equal(t, commands.ReasonBelowMinOrder, voucherErr.Reason)
		assert.Empty(t, f.products.adjusts)
		assert.Empty(t, f.orders.updated)
	})

	t.Run("kept voucher at its usage cap survives the recheck", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)

		amount := int64(500)
		v := f.addVoucher(commands.VoucherSnapshot{
			Code: "LASTUSE1", AmountOffCents: &amount, MaxUses: 1, RedemptionCount: 1,
		})

		o, err := builder.NewOrderBuilder().With(func(b *builder.OrderBuilder) {
			b.Lines = []builder.OrderLineSpec{
				{ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 14999},
			}
			b.VoucherIDs = []uuid.UUID{v.ID}
			b.DiscountCents = 500
		}).BuildDomain()
		require.NoError(t, err)
		f.orders.seed(o)

		next := []uuid.UUID{v.ID}
		updated, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines:      []commands.CartLine{{ProductID: product.ID, Quantity: 1}},
			VoucherIDs: &next,
		})
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{v.ID}, updated.VoucherIDs())
		assert.Empty(t, f.vouchers.incremented)
		assert.Empty(t, f.vouchers.decremented)
	})

	t.Run("repeated voucher id counts once", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)

		amount := int64(500)
		v := f.addVoucher(commands.VoucherSnapshot{Code: "ONCE0001", AmountOffCents: &amount, MaxUses: 10})

		o := seedOrder(t, f, builder.OrderLineSpec{
			ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 14999,
		})

		next := []uuid.UUID{v.ID, v.ID}
		updated, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			VoucherIDs: &next,
		})
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{v.ID}, updated.VoucherIDs())
		assert.Equal(t, []uuid.UUID{v.ID}, f.vouchers.incremented)
		assert.Equal(t, int64(500), updated.DiscountCents())
	})

	t.Run("added voucher below minimum order is rejected", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Sticker", 199, 10)

		amount := int64(500)
		v := f.addVoucher(commands.VoucherSnapshot{
			Code: "BIGSPEND", AmountOffCents: &amount, MaxUses: 10, MinOrderCents: 100000,
		})

		o := seedOrder(t, f, builder.OrderLineSpec{
			ProductID: product.ID, ProductName: product.Name, Quantity: 1, UnitPriceCents: 199,
		})

		next := []uuid.UUID{v.ID}
		_, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			VoucherIDs: &next,
		})

		var voucherErr *commands.VoucherInvalidError
		require.ErrorAs(t, err, &voucherErr)
		assert.Equal(t, commands.ReasonBelowMinOrder, voucherErr.Reason)
		assert.Empty(t, f.vouchers.incremented)
	})

	t.Run("orders in fulfillment are not editable", func(t *testing.T) {
		f := newCommandFixture()
		product := f.addProduct("Keyboard", 14999, 10)
		o := seedOrder(t, f, builder.OrderLineSpec{
			ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 14999,
		})
		now := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
		require.NoError(t, o.TransitionTo(order.StatusConfirmed, now))
		require.NoError(t, o.TransitionTo(order.StatusPacking, now))

		_, err := f.commands.UpdateOrder(context.Background(), o.ID(), commands.UpdateOrderPatch{
			Lines: []commands.CartLine{{ProductID: product.ID, Quantity: 1}},
		})
		require.ErrorIs(t, err, commands.ErrDomainValidation)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newCommandFixture()
		_, err := f.commands.UpdateOrder(context.Background(), uuid.New(), commands.UpdateOrderPatch{})
		require.ErrorIs(t, err, commands.ErrOrderNotFound)
	})
}
