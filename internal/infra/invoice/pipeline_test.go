//go:build unit

package invoice_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"orderhub/internal/domain/order"
	"orderhub/internal/infra/invoice"
	"orderhub/internal/pkg/config"
	"orderhub/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) (*invoice.Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	pipeline, err := invoice.NewPipeline(
		config.InvoiceConfig{StorageDir: dir, BaseURL: "http://localhost:8080/invoices/"},
		config.SMTPConfig{DisableSend: true},
	)
	require.NoError(t, err)
	return pipeline, dir
}

func TestRender(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	o, err := builder.NewOrderBuilder().With(func(b *builder.OrderBuilder) {
		b.Lines = []builder.OrderLineSpec{
			{ProductID: b.Lines[0].ProductID, ProductName: "Mechanical Keyboard", Quantity: 2, UnitPriceCents: 14999},
		}
	}).BuildDomain()
	require.NoError(t, err)

	doc, err := pipeline.Render(o)
	require.NoError(t, err)

	html := string(doc)
	assert.Contains(t, html, "Mechanical Keyboard")
	assert.Contains(t, html, "149.99")
	assert.Contains(t, html, "299.98")
	assert.Contains(t, html, "Total: 299.98")
	assert.NotContains(t, html, "Discount:")
	assert.Contains(t, html, o.Customer().Name)
}

func TestRenderDiscount(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	o, err := builder.NewOrderBuilder().With(func(b *builder.OrderBuilder) {
		b.Lines = []builder.OrderLineSpec{
			{ProductID: b.Lines[0].ProductID, ProductName: "Mechanical Keyboard", Quantity: 2, UnitPriceCents: 14999},
		}
		b.DiscountCents = 500
	}).BuildDomain()
	require.NoError(t, err)

	doc, err := pipeline.Render(o)
	require.NoError(t, err)

	html := string(doc)
	assert.Contains(t, html, "Subtotal: 299.98")
	assert.Contains(t, html, "Discount: -5.00")
	assert.Contains(t, html, "Total: 294.98")
}

func TestMerge(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	t.Run("single document passes through", func(t *testing.T) {
		merged, err := pipeline.Merge([][]byte{[]byte("<p>one</p>")})
		require.NoError(t, err)
		assert.Equal(t, "<p>one</p>", string(merged))
	})

	t.Run("documents are separated by a page break", func(t *testing.T) {
		merged, err := pipeline.Merge([][]byte{[]byte("<p>one</p>"), []byte("<p>two</p>")})
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(merged), "invoice-break"))
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := pipeline.Merge(nil)
		require.Error(t, err)
	})
}

func TestStore(t *testing.T) {
	pipeline, dir := newTestPipeline(t)

	url, err := pipeline.Store([]byte("<html>invoice</html>"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/invoices/"))
	assert.True(t, strings.HasSuffix(url, ".html"))

	name := url[strings.LastIndex(url, "/")+1:]
	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "<html>invoice</html>", string(content))

	// Same content stores to the same name.
	again, err := pipeline.Store([]byte("<html>invoice</html>"))
	require.NoError(t, err)
	assert.Equal(t, url, again)
}

func TestSendEmailDisabled(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	require.NoError(t, pipeline.SendEmail("buyer@example.com", []byte("<html></html>")))
}

type recordingPipeline struct {
	mu     sync.Mutex
	stored int
	emails []string
	failOn string
}

func (p *recordingPipeline) Render(_ *order.Order) ([]byte, error) {
	if p.failOn == "render" {
		return nil, assert.AnError
	}
	return []byte("doc"), nil
}

func (p *recordingPipeline) Merge(docs [][]byte) ([]byte, error) {
	return docs[0], nil
}

func (p *recordingPipeline) Store(_ []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn == "store" {
		return "", assert.AnError
	}
	p.stored++
	return "http://invoices.local/doc.html", nil
}

func (p *recordingPipeline) SendEmail(to string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emails = append(p.emails, to)
	return nil
}

func TestDispatcher(t *testing.T) {
	t.Run("delivers document and email", func(t *testing.T) {
		pipeline := &recordingPipeline{}
		dispatcher := invoice.NewDispatcher(pipeline)

		o, err := builder.NewOrderBuilder().BuildDomain()
		require.NoError(t, err)

		dispatcher.DispatchConfirmation(o)
		dispatcher.Wait()

		assert.Equal(t, 1, pipeline.stored)
		assert.Equal(t, []string{o.Customer().Email}, pipeline.emails)
	})

	t.Run("render failure is swallowed", func(t *testing.T) {
		pipeline := &recordingPipeline{failOn: "render"}
		dispatcher := invoice.NewDispatcher(pipeline)

		o, err := builder.NewOrderBuilder().BuildDomain()
		require.NoError(t, err)

		dispatcher.DispatchConfirmation(o)
		dispatcher.Wait()

		assert.Zero(t, pipeline.stored)
		assert.Empty(t, pipeline.emails)
	})

	t.Run("store failure still sends the email", func(t *testing.T) {
		pipeline := &recordingPipeline{failOn: "store"}
		dispatcher := invoice.NewDispatcher(pipeline)

		o, err := builder.NewOrderBuilder().BuildDomain()
		require.NoError(t, err)

		dispatcher.DispatchConfirmation(o)
		dispatcher.Wait()

		assert.Equal(t, []string{o.Customer().Email}, pipeline.emails)
	})
}
