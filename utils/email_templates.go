package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"go-storefront/models"
)

type linkData struct {
	Site string
	Link string
}

type orderLine struct {
	Name     string
	Quantity int
	Price    string
}

type orderData struct {
	Title   string
	OrderID string
	Items   []orderLine
	Total   string
}

var verificationTmpl = template.Must(template.New("verify").Parse(`
<h1>Welcome to {{.Site}}!</h1>
<p>Please click the link below to verify your email address:</p>
<a href="{{.Link}}" style="background-color: #f97316; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Verify Email</a>
<p>If you didn't create an account, please ignore this email.</p>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<h1>Password Reset Request</h1>
<p>You have requested a password reset for your {{.Site}} account.</p>
<p>Please click the link below to reset your password:</p>
<a href="{{.Link}}" style="background-color: #f97316; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reset Password</a>
<p>This link will expire in 10 minutes.</p>
<p>If you didn't request this, please ignore this email.</p>
`))

var orderTmpl = template.Must(template.New("order").Parse(`
<div style="font-family:Arial,sans-serif;max-width:640px;margin:0 auto;">
  <h2 style="color:#111;">{{.Title}}</h2>
  <p style="color:#444;">Order ID: {{.OrderID}}</p>
  <table style="border-collapse:collapse;width:100%;margin:16px 0;">
    <thead>
      <tr>
        <th style="text-align:left;padding:8px;border:1px solid #eee;">Item</th>
        <th style="text-align:left;padding:8px;border:1px solid #eee;">Qty</th>
        <th style="text-align:left;padding:8px;border:1px solid #eee;">Price</th>
      </tr>
    </thead>
    <tbody>
    {{- range .Items}}
      <tr>
        <td style="padding:8px;border:1px solid #eee;">{{.Name}}</td>
        <td style="padding:8px;border:1px solid #eee;">{{.Quantity}}</td>
        <td style="padding:8px;border:1px solid #eee;">₹{{.Price}}</td>
      </tr>
    {{- end}}
    </tbody>
  </table>
  <p style="color:#111;font-weight:bold;">Total: ₹{{.Total}}</p>
  <p style="color:#555;">We will notify you when there are further updates.</p>
</div>
`))

func newOrderData(title string, order *models.Order) orderData {
	data := orderData{
		Title:   title,
		OrderID: order.ID.Hex(),
		Total:   fmt.Sprintf("%.0f", order.TotalPrice),
	}
	for _, item := range order.OrderItems {
		data.Items = append(data.Items, orderLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    fmt.Sprintf("%.0f", item.Price),
		})
	}
	return data
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// ShortOrderID is the customer-facing order reference: the last six hex digits, upper-cased.
func ShortOrderID(order *models.Order) string {
	hex := order.ID.Hex()
	return strings.ToUpper(hex[len(hex)-6:])
}
