// Package pricing resolves the price shown for a catalog product. It has no
// side effects and reads the clock only through the Resolver.
package pricing

import (
	"strings"
	"time"

	"qrmenu-api/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DefaultSize is the variation label the public menu asks for first.
const DefaultSize = "S"

// Rule is a standing promotion: on Weekday, products whose name contains
// Keyword (case-insensitive) are multiplied by Factor.
type Rule struct {
	Weekday time.Weekday
	Keyword string
	Factor  decimal.Decimal
}

func (r Rule) Applies(name string, now time.Time) bool {
	if r.Keyword == "" || now.Weekday() != r.Weekday {
		return false
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(r.Keyword))
}

// Display is the resolved price of a product.
type Display struct {
	Amount      decimal.Decimal `json:"amount"`
	Label       string          `json:"label"`
	Percentage  bool            `json:"percentage"`
	Promotional bool            `json:"promotional"`
	Variation   string          `json:"variation,omitempty"`
}

type Resolver struct {
	now   func() time.Time
	rules []Rule
}

func NewResolver(now func() time.Time, rules ...Rule) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now, rules: rules}
}

// Resolve returns the display price of p for the requested variation size.
// Variations must be loaded on p for size matching to apply.
func (r *Resolver) Resolve(p models.Product, size string) Display {
	if p.PriceByPercentage {
		return Display{Label: FormatPercent(p.Price), Percentage: true}
	}

	amount, variation := basePrice(p, size)
	promotional := false
	now := r.now()
	for _, rule := range r.rules {
		if rule.Applies(p.Name, now) {
			amount = amount.Mul(rule.Factor).Round(2)
			promotional = true
		}
	}

	return Display{
		Amount:      amount,
		Label:       amount.StringFixed(2),
		Promotional: promotional,
		Variation:   variation,
	}
}

func basePrice(p models.Product, size string) (decimal.Decimal, string) {
	if size != "" {
		for _, v := range p.Variations {
			if v.Name == size {
				return Discounted(v.Price, v.DiscountPercentage), v.Name
			}
		}
	}
	for _, v := range p.Variations {
		if v.IsDefault {
			return Discounted(v.Price, v.DiscountPercentage), v.Name
		}
	}
	return Discounted(p.Price, p.DiscountPercentage), ""
}

// Discounted applies an optional percentage discount, rounding half-up to
// two decimals.
func Discounted(price decimal.Decimal, discount decimal.NullDecimal) decimal.Decimal {
	if !discount.Valid || discount.Decimal.IsZero() {
		return price
	}
	factor := decimal.NewFromInt(1).Sub(discount.Decimal.Div(hundred))
	return price.Mul(factor).Round(2)
}

// FormatPercent renders a percentage price, dropping the fraction for whole
// numbers: 50 -> "50%", 12.5 -> "12.50%".
func FormatPercent(p decimal.Decimal) string {
	if p.Equal(p.Truncate(0)) {
		return p.StringFixed(0) + "%"
	}
	return p.StringFixed(2) + "%"
}
