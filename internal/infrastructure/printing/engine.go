// Package printing renders document templates to HTML and PDF for preview.
package printing

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"time"

	"github.com/erp/books/internal/domain/company"
	"github.com/erp/books/internal/domain/document"
	"github.com/erp/books/internal/domain/shared/valueobject"
	"github.com/erp/books/internal/domain/template"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Document is the data a template is rendered with
type Document struct {
	Type         document.Type
	Number       string
	Date         time.Time
	DueDate      time.Time
	Company      company.Settings
	PartyName    string
	PartyAddress string
	ShipTo       string
	Lines        []document.LineItem
	Totals       document.Totals
	Terms        string
	Notes        string
}

// SampleDocument builds the document used for template previews. Totals go
// through the tax policy; a type the policy has no rate for is untaxed.
func SampleDocument(docType document.Type, settings company.Settings, policy document.TaxPolicy, now time.Time) Document {
	lines := []document.LineItem{
		{Description: "Consulting hours", Quantity: decimal.NewFromInt(2), Rate: decimal.RequireFromString("150.00"), Taxable: true},
		{Description: "Annual license", Quantity: decimal.NewFromInt(1), Rate: decimal.RequireFromString("299.00"), Taxable: true},
	}
	totals, err := document.Compute(policy, docType, lines)
	if err != nil {
		totals = document.ComputeTotals(lines, decimal.Zero)
	}
	terms := settings.DefaultTerms
	if terms == "" {
		terms = "Net 30"
	}
	return Document{
		Type:         docType,
		Number:       "SAMPLE-0001",
		Date:         now,
		DueDate:      now.AddDate(0, 0, 30),
		Company:      settings,
		PartyName:    "Sample Customer Ltd.",
		PartyAddress: "100 Main Street, Springfield",
		ShipTo:       "Warehouse 4, Springfield",
		Lines:        lines,
		Totals:       totals,
		Terms:        terms,
		Notes:        "Thank you for your business.",
	}
}

// Engine renders template settings and a document into an HTML page
type Engine struct {
	layout *htmltemplate.Template
}

// NewEngine parses the built-in document layout
func NewEngine() (*Engine, error) {
	caser := cases.Title(language.English)
	funcs := htmltemplate.FuncMap{
		"title": func(s string) string {
			return caser.String(strings.ReplaceAll(s, "_", " "))
		},
		"money": func(d decimal.Decimal, currency valueobject.Currency) string {
			return d.StringFixed(valueobject.DisplayPlaces) + " " + string(currency)
		},
		"qty": func(d decimal.Decimal) string {
			return d.String()
		},
		"percent": func(d decimal.Decimal) string {
			return d.Mul(decimal.NewFromInt(100)).String() + "%"
		},
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"amount": func(l document.LineItem) decimal.Decimal {
			return l.Amount()
		},
		"css": func(s string) htmltemplate.CSS {
			return htmltemplate.CSS(s)
		},
	}
	layout, err := htmltemplate.New("document").Funcs(funcs).Parse(documentLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document layout: %w", err)
	}
	return &Engine{layout: layout}, nil
}

type renderData struct {
	Settings template.Settings
	Doc      Document
	Currency valueobject.Currency
	Totals   document.Totals
}

// Render produces a complete HTML page
func (e *Engine) Render(settings template.Settings, doc Document) (string, error) {
	var buf bytes.Buffer
	err := e.layout.Execute(&buf, renderData{
		Settings: settings,
		Doc:      doc,
		Currency: doc.Company.CurrencyOrDefault(),
		Totals:   doc.Totals.Rounded(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return buf.String(), nil
}

const documentLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{title (print .Doc.Type)}} {{.Doc.Number}}</title>
<style>
body { font-family: {{css .Settings.FontFamily}}; font-size: {{.Settings.FontSize}}pt; color: {{css .Settings.Colors.Text}}; }
h1 { color: {{css .Settings.Colors.Primary}}; }
th { border-bottom: 2px solid {{css .Settings.Colors.Accent}}; text-align: left; }
td.num, th.num { text-align: right; }
.logo { text-align: {{css .Settings.LogoPosition}}; }
</style>
</head>
<body>
{{- if .Settings.HeaderText}}<div class="header">{{.Settings.HeaderText}}</div>{{end}}
{{- if and .Settings.Sections.ShowLogo .Settings.LogoURL}}
<div class="logo"><img src="{{.Settings.LogoURL}}" alt="logo" height="60"></div>
{{- end}}
<h1>{{title (print .Doc.Type)}}</h1>
<p>No. {{.Doc.Number}} &middot; {{date .Doc.Date}}{{if not .Doc.DueDate.IsZero}} &middot; Due {{date .Doc.DueDate}}{{end}}</p>
{{- if .Settings.Sections.ShowCompanyInfo}}
<div class="company">
<strong>{{.Doc.Company.Name}}</strong><br>
{{with .Doc.Company.Address.String}}{{.}}<br>{{end}}
{{with .Doc.Company.Email}}{{.}}{{end}} {{with .Doc.Company.Phone}}{{.}}{{end}}
</div>
{{- end}}
<div class="party"><strong>{{.Doc.PartyName}}</strong><br>{{.Doc.PartyAddress}}</div>
{{- if .Settings.Sections.ShowShipTo}}
<div class="ship-to"><em>Ship to:</em> {{.Doc.ShipTo}}</div>
{{- end}}
<table width="100%">
<thead><tr><th>Description</th><th class="num">Qty</th><th class="num">Rate</th><th class="num">Amount</th></tr></thead>
<tbody>
{{- range .Doc.Lines}}
<tr><td>{{.Description}}</td><td class="num">{{qty .Quantity}}</td><td class="num">{{money .Rate $.Currency}}</td><td class="num">{{money (amount .) $.Currency}}</td></tr>
{{- end}}
</tbody>
</table>
<table class="totals">
<tr><td>Subtotal</td><td class="num">{{money .Totals.Subtotal .Currency}}</td></tr>
<tr><td>Tax ({{percent .Totals.TaxRate}})</td><td class="num">{{money .Totals.Tax .Currency}}</td></tr>
<tr><td><strong>Total</strong></td><td class="num"><strong>{{money .Totals.Total .Currency}}</strong></td></tr>
</table>
{{- if .Settings.Sections.ShowPaymentTerms}}
<p class="terms">Terms: {{.Doc.Terms}}</p>
{{- end}}
{{- if .Settings.Sections.ShowNotes}}
<p class="notes">{{.Doc.Notes}}</p>
{{- end}}
{{- if .Settings.Sections.ShowSignature}}
<p class="signature">Authorized signature: ______________________</p>
{{- end}}
{{- if .Settings.FooterText}}<div class="footer">{{.Settings.FooterText}}</div>{{end}}
</body>
</html>
`
