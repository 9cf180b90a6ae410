//go:build unit || e2e

package builder

import (
	"time"

	domvoucher "orderhub/internal/domain/voucher"

	"github.com/google/uuid"
)

type VoucherBuilder struct {
	ID              uuid.UUID
	Code            string
	AmountOffCents  *int64
	PercentOff      *float64
	MinOrderCents   int64
	MaxUses         int32
	RedemptionCount int32
	ValidFrom       *time.Time
	ValidTo         *time.Time
}

func NewVoucherBuilder() *VoucherBuilder {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	return &VoucherBuilder{
		ID:              uuid.New(),
		Code:            "WELCOME10",
		AmountOffCents:  Int64Ptr(1000),
		MinOrderCents:   0,
		MaxUses:         100,
		RedemptionCount: 0,
		ValidFrom:       &from,
		ValidTo:         &to,
	}
}

func (b *VoucherBuilder) With(mutate func(*VoucherBuilder)) *VoucherBuilder {
	mutate(b)
	return b
}

func (b *VoucherBuilder) BuildDomain() (*domvoucher.Voucher, error) {
	return domvoucher.NewVoucher(
		b.ID,
		b.Code,
		b.AmountOffCents,
		b.PercentOff,
		b.MinOrderCents,
		b.MaxUses,
		b.RedemptionCount,
		b.ValidFrom,
		b.ValidTo,
	)
}
