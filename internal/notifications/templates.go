package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/shopspring/decimal"
)

var emailTemplates = template.Must(template.New("emails").Funcs(template.FuncMap{
	"money": func(amount decimal.Decimal, rate float64, currency enums.Currency) string {
		return fmt.Sprintf("%s %s", currency, pricing.Convert(amount, rate).StringFixed(2))
	},
	"title": func(s enums.OrderStatus) string {
		v := string(s)
		if v == "" {
			return v
		}
		return strings.ToUpper(v[:1]) + v[1:]
	},
}).Parse(`
{{define "confirmation"}}<h2>Thanks for your order{{if .CustomerName}}, {{.CustomerName}}{{end}}!</h2>
<p>Order <strong>{{.OrderNumber}}</strong> has been received.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{money .Price $.ExchangeRate $.Currency}}</td></tr>
{{end}}</table>
<p>Subtotal: {{money .Subtotal .ExchangeRate .Currency}}<br>
Tax: {{money .Tax .ExchangeRate .Currency}}<br>
Shipping: {{money .Shipping .ExchangeRate .Currency}}<br>
{{if not .Discount.IsZero}}Discount: -{{money .Discount .ExchangeRate .Currency}}<br>
{{end}}<strong>Total: {{money .Total .ExchangeRate .Currency}}</strong></p>{{end}}

{{define "admin"}}<h3>New order {{.OrderNumber}}</h3>
<p>{{len .Items}} item(s), total {{money .Total .ExchangeRate .Currency}}, paid by {{.PaymentMethod}}.</p>
<p>Customer: {{.CustomerEmail}}</p>{{end}}

{{define "status"}}<h2>Order {{.OrderNumber}} is now {{title .Status}}</h2>
{{if .TrackingNumber}}<p>Tracking number: {{.TrackingNumber}}{{if .Carrier}} ({{.Carrier}}){{end}}</p>
{{end}}{{if .Reason}}<p>Reason: {{.Reason}}</p>
{{end}}{{end}}
`))

func renderConfirmation(event *payloads.OrderCreatedEvent) (string, string, error) {
	body, err := render("confirmation", event)
	return fmt.Sprintf("Order confirmation %s", event.OrderNumber), body, err
}

func renderAdminNotice(event *payloads.OrderCreatedEvent) (string, string, error) {
	body, err := render("admin", event)
	return fmt.Sprintf("New order %s", event.OrderNumber), body, err
}

func renderStatusUpdate(event *payloads.OrderStatusChangedEvent) (string, string, error) {
	body, err := render("status", event)
	return fmt.Sprintf("Order %s update: %s", event.OrderNumber, event.Status), body, err
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
