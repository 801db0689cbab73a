package notify

import (
	"fmt"
	"html/template"
	"strings"
)

// Brand carries the storefront identity injected into outbound emails.
type Brand struct {
	Name       string
	SiteURL    string
	SupportURL string
	LogoURL    string
}

type confirmationData struct {
	Brand        Brand
	ProductName  string
	ProductURL   string
	ProductImage string
	OrderID      string
	Amount       string
	Currency     string
}

var confirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"></head>
<body style="margin:0;padding:0;background:#f4f4f6;font-family:Helvetica,Arial,sans-serif;color:#1a1a1a;">
  <div style="max-width:560px;margin:0 auto;padding:32px 16px;">
    <div style="background:#ffffff;border-radius:12px;overflow:hidden;">
      {{if .Brand.LogoURL}}<div style="padding:24px 32px 0;text-align:center;">
        <img src="{{.Brand.LogoURL}}" alt="{{.Brand.Name}}" style="max-height:40px;">
      </div>{{end}}
      <div style="padding:24px 32px;">
        <h1 style="font-size:22px;margin:0 0 8px;">Thanks for your order!</h1>
        <p style="margin:0 0 24px;color:#555;">Your payment was received and your order is confirmed.</p>
        {{if .ProductImage}}<img src="{{.ProductImage}}" alt="{{.ProductName}}" style="width:100%;border-radius:8px;margin-bottom:16px;">{{end}}
        <p style="font-size:18px;font-weight:bold;margin:0 0 16px;">{{.ProductName}}</p>
        <p style="margin:0 0 8px;">
          <span style="display:inline-block;background:#eef2ff;color:#3b4bd8;border-radius:999px;padding:4px 12px;font-size:13px;">Order {{.OrderID}}</span>
          {{if .Amount}}<span style="display:inline-block;background:#ecfdf5;color:#047857;border-radius:999px;padding:4px 12px;font-size:13px;margin-left:8px;">{{.Amount}} {{.Currency}}</span>{{end}}
        </p>
        {{if .ProductURL}}<p style="margin:24px 0;">
          <a href="{{.ProductURL}}" style="display:inline-block;background:#1a1a1a;color:#ffffff;text-decoration:none;border-radius:8px;padding:12px 24px;">View product</a>
        </p>{{end}}
        <h2 style="font-size:15px;margin:24px 0 8px;">What happens next</h2>
        <ul style="margin:0;padding-left:20px;color:#555;font-size:14px;line-height:1.7;">
          <li>We prepare your order for shipment within 1&ndash;2 business days.</li>
          <li>You receive a tracking link by email as soon as it ships.</li>
          {{if .Brand.SupportURL}}<li>Questions? Reach us any time at <a href="{{.Brand.SupportURL}}" style="color:#3b4bd8;">{{.Brand.SupportURL}}</a>.</li>{{end}}
        </ul>
      </div>
    </div>
    <p style="text-align:center;color:#999;font-size:12px;margin:16px 0 0;">{{.Brand.Name}}{{if .Brand.SiteURL}} &middot; <a href="{{.Brand.SiteURL}}" style="color:#999;">{{.Brand.SiteURL}}</a>{{end}}</p>
  </div>
</body>
</html>`))

func renderConfirmation(data confirmationData) (html, text string, err error) {
	var sb strings.Builder
	if err := confirmationTmpl.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render confirmation email: %w", err)
	}

	var tb strings.Builder
	fmt.Fprintf(&tb, "Thanks for your order!\n\n")
	fmt.Fprintf(&tb, "Product: %s\n", data.ProductName)
	fmt.Fprintf(&tb, "Order: %s\n", data.OrderID)
	if data.Amount != "" {
		fmt.Fprintf(&tb, "Total: %s %s\n", data.Amount, data.Currency)
	}
	if data.ProductURL != "" {
		fmt.Fprintf(&tb, "\nView product: %s\n", data.ProductURL)
	}
	fmt.Fprintf(&tb, "\n%s\n", data.Brand.Name)
	return sb.String(), tb.String(), nil
}
