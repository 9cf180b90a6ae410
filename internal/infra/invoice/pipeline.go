package invoice

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"time"

	"orderhub/internal/domain/order"
	"orderhub/internal/pkg/config"
	"orderhub/internal/pkg/errs"
)

// Pipeline renders orders to HTML invoice documents, merges them, stores
// them under a content-addressed path, and dispatches confirmation email.
// It is an external-collaborator boundary: callers treat failures as
// side-effect failures, never as checkout failures.
type Pipeline struct {
	cfg  config.InvoiceConfig
	smtp config.SMTPConfig
	tmpl *template.Template
}

func NewPipeline(cfg config.InvoiceConfig, smtpCfg config.SMTPConfig) (*Pipeline, error) {
	tmpl, err := template.New("invoice").Parse(invoiceTemplate)
	if err != nil {
		return nil, errs.Wrap(err, "failed to parse invoice template")
	}
	return &Pipeline{cfg: cfg, smtp: smtpCfg, tmpl: tmpl}, nil
}

type invoiceLine struct {
	ProductName string
	Quantity    int32
	UnitPrice   string
	Total       string
}

type invoiceData struct {
	Number       int64
	Date         string
	CustomerName string
	Address      string
	City         string
	Zip          string
	Lines        []invoiceLine
	Subtotal     string
	Discount     string
	HasDiscount  bool
	Total        string
}

func (p *Pipeline) Render(o *order.Order) ([]byte, error) {
	c := o.Customer()
	data := invoiceData{
		Number:       o.Number(),
		Date:         o.CreatedAt().Format("2006-01-02"),
		CustomerName: c.Name,
		Address:      c.Address,
		City:         c.City,
		Zip:          c.Zip,
		Subtotal:     formatCents(o.SubtotalCents()),
		Discount:     formatCents(o.DiscountCents()),
		HasDiscount:  o.DiscountCents() > 0,
		Total:        formatCents(o.TotalCents()),
	}
	for _, l := range o.Lines() {
		data.Lines = append(data.Lines, invoiceLine{
			ProductName: l.ProductName(),
			Quantity:    l.Quantity(),
			UnitPrice:   formatCents(l.UnitPriceCents()),
			Total:       formatCents(l.TotalCents()),
		})
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return nil, errs.Wrap(err, "failed to render invoice")
	}
	return buf.Bytes(), nil
}

func (p *Pipeline) Merge(docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, errs.New("no documents to merge")
	}
	if len(docs) == 1 {
		return docs[0], nil
	}
	var buf bytes.Buffer
	for i, doc := range docs {
		if i > 0 {
			buf.WriteString("\n<hr class=\"invoice-break\"/>\n")
		}
		buf.Write(doc)
	}
	return buf.Bytes(), nil
}

// Store writes the document under a content hash so repeated renders of
// the same order overwrite rather than accumulate.
func (p *Pipeline) Store(doc []byte) (string, error) {
	sum := sha256.Sum256(doc)
	name := hex.EncodeToString(sum[:16]) + ".html"

	if err := os.MkdirAll(p.cfg.StorageDir, 0o755); err != nil {
		return "", errs.Wrap(err, "failed to create invoice directory")
	}
	if err := os.WriteFile(filepath.Join(p.cfg.StorageDir, name), doc, 0o644); err != nil {
		return "", errs.Wrap(err, "failed to write invoice")
	}

	return strings.TrimRight(p.cfg.BaseURL, "/") + "/" + name, nil
}

func (p *Pipeline) SendEmail(to string, doc []byte) error {
	if p.smtp.DisableSend {
		return nil
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", p.smtp.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: Your order confirmation\r\n")
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(doc)

	if err := smtp.SendMail(p.smtp.Addr(), nil, p.smtp.Sender, []string{to}, msg.Bytes()); err != nil {
		return errs.Wrap(err, "failed to send confirmation email")
	}
	return nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Invoice #{{.Number}}</title></head>
<body>
  <h1>Invoice #{{.Number}}</h1>
  <p>Date: {{.Date}}</p>
  <p>{{.CustomerName}}<br>{{.Address}}<br>{{.Zip}} {{.City}}</p>
  <table>
    <tr><th>Product</th><th>Qty</th><th>Unit price</th><th>Total</th></tr>
    {{range .Lines}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}}</td><td>{{.Total}}</td></tr>
    {{end}}
  </table>
  <p>Subtotal: {{.Subtotal}}</p>
  {{if .HasDiscount}}<p>Discount: -{{.Discount}}</p>
  {{end}}<p><strong>Total: {{.Total}}</strong></p>
</body>
</html>
`
