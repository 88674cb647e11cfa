package csvimport

import (
	"strings"
	"time"

	"atlasinvoice/internal/domain"

	"github.com/shopspring/decimal"
)

type Field string

const (
	FieldQuantity Field = "quantity"
	FieldModel    Field = "model"
	FieldIMEI     Field = "imei"
	FieldDate     Field = "date"
	FieldPrice    Field = "price"
)

// Warning records a value that was defaulted instead of parsed.
type Warning struct {
	Row    int    `json:"row"`
	Field  Field  `json:"field"`
	Raw    string `json:"raw,omitempty"`
	Reason string `json:"reason"`
}

// Draft is the line item being assembled from one row.
type Draft struct {
	Line     int
	Item     domain.LineItem
	Date     time.Time
	HasDate  bool
	Warnings []Warning
}

func (d *Draft) defaulted(field Field, raw, reason string) {
	d.Item.Defaulted = append(d.Item.Defaulted, string(field))
	d.Warnings = append(d.Warnings, Warning{Row: d.Line, Field: field, Raw: raw, Reason: reason})
}

// Rule resolves a field from the first column whose header contains one of
// Keywords, case-insensitively.
type Rule struct {
	Keywords []string
	Extract  func(c Cell, d *Draft)
}

func (r Rule) Match(header string) bool {
	lower := strings.ToLower(header)
	for _, keyword := range r.Keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// FieldRules is the ordered rule list for one canonical field. Rules are tried
// in order; Default runs when no rule matched any header.
type FieldRules struct {
	Field   Field
	Rules   []Rule
	Default func(d *Draft)
}

func (f FieldRules) apply(row Row, d *Draft) {
	for _, rule := range f.Rules {
		for _, cell := range row.Cells {
			if rule.Match(cell.Header) {
				rule.Extract(cell, d)
				return
			}
		}
	}
	if f.Default != nil {
		f.Default(d)
	}
}

// Resolvers run in this order; price depends on the resolved quantity.
var Resolvers = []FieldRules{
	{
		Field: FieldQuantity,
		Rules: []Rule{{
			Keywords: []string{"qty", "quantity"},
			Extract: func(c Cell, d *Draft) {
				f, ok := ParseNumber(c.Value)
				if !ok {
					d.Item.Quantity = decimal.NewFromInt(1)
					d.defaulted(FieldQuantity, c.Raw, "unparsable quantity")
					return
				}
				d.Item.Quantity = decimal.NewFromFloat(f)
			},
		}},
		Default: func(d *Draft) {
			d.Item.Quantity = decimal.NewFromInt(1)
			d.defaulted(FieldQuantity, "", "no quantity column")
		},
	},
	{
		Field: FieldModel,
		Rules: []Rule{{
			Keywords: []string{"model", "item", "device", "desc"},
			Extract: func(c Cell, d *Draft) {
				text := cellText(c)
				if text == "" {
					d.Item.Model = domain.UnknownDevice
					d.defaulted(FieldModel, c.Raw, "blank model")
					return
				}
				d.Item.Model = text
			},
		}},
		Default: func(d *Draft) {
			d.Item.Model = domain.UnknownDevice
			d.defaulted(FieldModel, "", "no model column")
		},
	},
	{
		Field: FieldIMEI,
		Rules: []Rule{{
			Keywords: []string{"imei", "serial", "esn"},
			Extract: func(c Cell, d *Draft) {
				d.Item.IMEI = cellText(c)
			},
		}},
	},
	{
		Field: FieldDate,
		Rules: []Rule{{
			Keywords: []string{"date", "time"},
			Extract: func(c Cell, d *Draft) {
				text := cellText(c)
				if text == "" {
					return
				}
				t, ok := ParseDate(text)
				if !ok {
					d.Warnings = append(d.Warnings, Warning{Row: d.Line, Field: FieldDate, Raw: c.Raw, Reason: "unparsable date"})
					return
				}
				d.Date, d.HasDate = t, true
			},
		}},
	},
	{
		Field: FieldPrice,
		Rules: []Rule{
			{
				Keywords: []string{"total", "amount"},
				Extract: func(c Cell, d *Draft) {
					f, ok := ParseNumber(c.Value)
					if !ok {
						d.defaulted(FieldPrice, c.Raw, "unparsable line total")
					}
					d.Item.Price = decimal.NewFromFloat(f)
				},
			},
			{
				Keywords: []string{"price", "cost"},
				Extract: func(c Cell, d *Draft) {
					f, ok := ParseNumber(c.Value)
					if !ok {
						d.defaulted(FieldPrice, c.Raw, "unparsable unit price")
					}
					d.Item.Price = decimal.NewFromFloat(f).Mul(d.Item.Quantity)
				},
			},
		},
		Default: func(d *Draft) {
			d.Item.Price = decimal.Zero
			d.defaulted(FieldPrice, "", "no price column")
		},
	},
}

// ResolveRow maps one retained row onto a line item. The item date is only
// set from a valid row-level date; file-name fallback happens in Normalize.
func ResolveRow(row Row) Draft {
	d := Draft{
		Line: row.Line,
		Item: domain.LineItem{Quantity: decimal.Zero, Price: decimal.Zero},
	}
	for _, field := range Resolvers {
		field.apply(row, &d)
	}
	if d.HasDate {
		d.Item.Date = d.Date.Format(time.DateOnly)
	}
	return d
}
