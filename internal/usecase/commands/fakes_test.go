//go:build unit

package commands_test

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/infra"
	"orderhub/internal/infra/db"
	"orderhub/internal/pkg/clock"
	"orderhub/internal/usecase/commands"

	"github.com/google/uuid"
)

type fakeTxRunner struct {
	err   error
	calls int
}

func (f *fakeTxRunner) Within(_ context.Context, fn func(tx db.DBTX) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type fakeUserStore struct {
	users map[uuid.UUID]commands.UserSnapshot
}

func (f *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*commands.UserSnapshot, error) {
	snap, ok := f.users[id]
	if !ok {
		return nil, infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return &snap, nil
}

type adjustCall struct {
	id    uuid.UUID
	delta int32
}

type fakeProductStore struct {
	products map[uuid.UUID]commands.ProductSnapshot
	adjusts  []adjustCall
}

func (f *fakeProductStore) FindByID(_ context.Context, id uuid.UUID) (*commands.ProductSnapshot, error) {
	snap, ok := f.products[id]
	if !ok {
		return nil, infra.WrapRepoErr("product not found", nil, infra.KindNotFound)
	}
	return &snap, nil
}

func (f *fakeProductStore) AdjustStock(_ context.Context, _ db.DBTX, id uuid.UUID, delta int32) error {
	snap, ok := f.products[id]
	if !ok {
		return infra.WrapRepoErr("product not found", nil, infra.KindNotFound)
	}
	if snap.Stock+delta < 0 {
		return infra.WrapRepoErr("stock would go negative", nil, infra.KindConflict)
	}
	snap.Stock += delta
	f.products[id] = snap
	f.adjusts = append(f.adjusts, adjustCall{id: id, delta: delta})
	return nil
}

type fakeVoucherStore struct {
	vouchers    map[uuid.UUID]commands.VoucherSnapshot
	incremented []uuid.UUID
	decremented []uuid.UUID
}

func (f *fakeVoucherStore) FindByID(_ context.Context, id uuid.UUID) (*commands.VoucherSnapshot, error) {
	snap, ok := f.vouchers[id]
	if !ok {
		return nil, infra.WrapRepoErr("voucher not found", nil, infra.KindNotFound)
	}
	return &snap, nil
}

func (f *fakeVoucherStore) FindByCode(_ context.Context, code string) (*commands.VoucherSnapshot, error) {
	for _, snap := range f.vouchers {
		if snap.Code == code {
			return &snap, nil
		}
	}
	return nil, infra.WrapRepoErr("voucher not found", nil, infra.KindNotFound)
}

func (f *fakeVoucherStore) IncrementRedemption(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	snap, ok := f.vouchers[id]
	if !ok {
		return infra.WrapRepoErr("voucher not found", nil, infra.KindNotFound)
	}
	if snap.RedemptionCount >= snap.MaxUses {
		return infra.WrapRepoErr("voucher redemption limit reached", nil, infra.KindConflict)
	}
	snap.RedemptionCount++
	f.vouchers[id] = snap
	f.incremented = append(f.incremented, id)
	return nil
}

func (f *fakeVoucherStore) DecrementRedemption(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	snap, ok := f.vouchers[id]
	if !ok {
		return infra.WrapRepoErr("voucher not found", nil, infra.KindNotFound)
	}
	if snap.RedemptionCount <= 0 {
		return infra.WrapRepoErr("voucher redemption underflow", nil, infra.KindConflict)
	}
	snap.RedemptionCount--
	f.vouchers[id] = snap
	f.decremented = append(f.decremented, id)
	return nil
}

type statusBatch struct {
	ids    []uuid.UUID
	status order.Status
}

type fakeOrderRepo struct {
	orders        map[uuid.UUID]*order.Order
	created       []*order.Order
	updated       []*order.Order
	statusBatches []statusBatch
	deleted       [][]uuid.UUID
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (f *fakeOrderRepo) seed(o *order.Order) {
	f.orders[o.ID()] = o
}

func (f *fakeOrderRepo) Create(_ context.Context, _ db.DBTX, o *order.Order) error {
	f.created = append(f.created, o)
	f.orders[o.ID()] = o
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	return o, nil
}

func (f *fakeOrderRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*order.Order, error) {
	var found []*order.Order
	for _, id := range ids {
		if o, ok := f.orders[id]; ok {
			found = append(found, o)
		}
	}
	return found, nil
}

func (f *fakeOrderRepo) Update(_ context.Context, _ db.DBTX, o *order.Order) error {
	if _, ok := f.orders[o.ID()]; !ok {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	f.orders[o.ID()] = o
	f.updated = append(f.updated, o)
	return nil
}

func (f *fakeOrderRepo) UpdateStatusBatch(_ context.Context, _ db.DBTX, ids []uuid.UUID, status order.Status, _ time.Time) error {
	f.statusBatches = append(f.statusBatches, statusBatch{ids: ids, status: status})
	return nil
}

func (f *fakeOrderRepo) DeleteBatch(_ context.Context, _ db.DBTX, ids []uuid.UUID) error {
	f.deleted = append(f.deleted, ids)
	for _, id := range ids {
		delete(f.orders, id)
	}
	return nil
}

type fakePipeline struct {
	renderErr error
	stored    [][]byte
	emails    []string
}

func (f *fakePipeline) Render(o *order.Order) ([]byte, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return []byte(fmt.Sprintf("invoice-%d", o.Number())), nil
}

func (f *fakePipeline) Merge(docs [][]byte) ([]byte, error) {
	return bytes.Join(docs, []byte("\n")), nil
}

func (f *fakePipeline) Store(doc []byte) (string, error) {
	f.stored = append(f.stored, doc)
	return fmt.Sprintf("http://invoices.local/%d.html", len(f.stored)), nil
}

func (f *fakePipeline) SendEmail(to string, _ []byte) error {
	f.emails = append(f.emails, to)
	return nil
}

type fakeDispatcher struct {
	dispatched []*order.Order
}

func (f *fakeDispatcher) DispatchConfirmation(o *order.Order) {
	f.dispatched = append(f.dispatched, o)
}

type commandFixture struct {
	orders     *fakeOrderRepo
	products   *fakeProductStore
	vouchers   *fakeVoucherStore
	users      *fakeUserStore
	pipeline   *fakePipeline
	dispatcher *fakeDispatcher
	tx         *fakeTxRunner
	clock      *clock.MockClock
	commands   commands.OrderCommands
}

func newCommandFixture() *commandFixture {
	f := &commandFixture{
		orders:     newFakeOrderRepo(),
		products:   &fakeProductStore{products: make(map[uuid.UUID]commands.ProductSnapshot)},
		vouchers:   &fakeVoucherStore{vouchers: make(map[uuid.UUID]commands.VoucherSnapshot)},
		users:      &fakeUserStore{users: make(map[uuid.UUID]commands.UserSnapshot)},
		pipeline:   &fakePipeline{},
		dispatcher: &fakeDispatcher{},
		tx:         &fakeTxRunner{},
		clock:      clock.NewMockClock(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)),
	}
	f.commands = commands.NewOrderCommands(
		f.orders, f.products, f.vouchers, f.users,
		f.pipeline, f.dispatcher, f.tx, f.clock,
	)
	return f
}

func (f *commandFixture) addUser() commands.UserSnapshot {
	snap := commands.UserSnapshot{
		ID:      uuid.New(),
		Name:    "Grace Hopper",
		Email:   "grace@example.com",
		Phone:   "+1 212 555 0100",
		Address: "1 Compiler Way",
		City:    "New York",
		Zip:     "10001",
	}
	f.users.users[snap.ID] = snap
	return snap
}

func (f *commandFixture) addProduct(name string, priceCents int64, stock int32) commands.ProductSnapshot {
	snap := commands.ProductSnapshot{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
	}
	f.products.products[snap.ID] = snap
	return snap
}

func (f *commandFixture) addVoucher(snap commands.VoucherSnapshot) commands.VoucherSnapshot {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	f.vouchers.vouchers[snap.ID] = snap
	return snap
}
