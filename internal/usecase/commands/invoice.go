package commands

import (
	"context"

	"orderhub/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrInvoiceGeneration = errs.New("invoice generation failed")

// GenerateInvoiceBundle renders every referenced order, merges the
// documents into one, stores it, and returns the public URL. Unlike the
// checkout confirmation this is synchronous: the caller wants the URL.
func (c *orderCommandsImpl) GenerateInvoiceBundle(ctx context.Context, ids []uuid.UUID) (string, error) {
	orders, err := c.resolveAll(ctx, ids)
	if err != nil {
		return "", err
	}

	docs := make([][]byte, 0, len(orders))
	for _, o := range orders {
		doc, err := c.pipeline.Render(o)
		if err != nil {
			return "", errs.Mark(err, ErrInvoiceGeneration)
		}
		docs = append(docs, doc)
	}

	merged, err := c.pipeline.Merge(docs)
	if err != nil {
		return "", errs.Mark(err, ErrInvoiceGeneration)
	}

	url, err := c.pipeline.Store(merged)
	if err != nil {
		return "", errs.Mark(err, ErrInvoiceGeneration)
	}

	return url, nil
}
