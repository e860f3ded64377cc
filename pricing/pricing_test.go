package pricing

import (
	"testing"
	"time"

	"qrmenu-api/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var (
	wednesday = time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)
	thursday  = time.Date(2024, time.January, 4, 12, 0, 0, 0, time.UTC)
	wings     = Rule{Weekday: time.Wednesday, Keyword: "wings", Factor: decimal.RequireFromString("0.5")}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pct(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func fixed(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		product     models.Product
		size        string
		now         time.Time
		wantLabel   string
		wantPercent bool
		wantPromo   bool
		wantVariant string
	}{
		{
			name:      "product_discount",
			product:   models.Product{Name: "Jollof Rice", Price: dec("20.00"), DiscountPercentage: pct("25")},
			now:       thursday,
			wantLabel: "15.00",
		},
		{
			name: "requested_variation_without_discount",
			product: models.Product{Name: "Pizza", Price: dec("9.00"), Variations: []models.ProductVariation{
				{Name: "S", Price: dec("8.00"), IsDefault: true},
				{Name: "L", Price: dec("12.50")},
			}},
			size:        "L",
			now:         thursday,
			wantLabel:   "12.50",
			wantVariant: "L",
		},
		{
			name: "falls_back_to_default_variation",
			product: models.Product{Name: "Pizza", Price: dec("9.00"), Variations: []models.ProductVariation{
				{Name: "M", Price: dec("10.00"), DiscountPercentage: pct("10"), IsDefault: true},
				{Name: "L", Price: dec("12.50")},
			}},
			size:        "XL",
			now:         thursday,
			wantLabel:   "9.00",
			wantVariant: "M",
		},
		{
			name:      "falls_back_to_product_price",
			product:   models.Product{Name: "Soup", Price: dec("7.25")},
			size:      "S",
			now:       thursday,
			wantLabel: "7.25",
		},
		{
			name: "variation_discount_rounds_half_up",
			product: models.Product{Name: "Fish", Price: dec("1"), Variations: []models.ProductVariation{
				{Name: "S", Price: dec("10.05"), DiscountPercentage: pct("50")},
			}},
			size:        "S",
			now:         thursday,
			wantLabel:   "5.03",
			wantVariant: "S",
		},
		{
			name:        "percentage_mode_whole",
			product:     models.Product{Name: "Service", Price: dec("50"), PriceByPercentage: true},
			now:         thursday,
			wantLabel:   "50%",
			wantPercent: true,
		},
		{
			name:        "percentage_mode_fraction",
			product:     models.Product{Name: "Service", Price: dec("12.5"), PriceByPercentage: true},
			now:         thursday,
			wantLabel:   "12.50%",
			wantPercent: true,
		},
		{
			name:      "wings_on_wednesday",
			product:   models.Product{Name: "Buffalo Wings", Price: dec("10.00")},
			now:       wednesday,
			wantLabel: "5.00",
			wantPromo: true,
		},
		{
			name:      "wings_other_day",
			product:   models.Product{Name: "Buffalo Wings", Price: dec("10.00")},
			now:       thursday,
			wantLabel: "10.00",
		},
		{
			name:      "wings_after_discount",
			product:   models.Product{Name: "Hot WINGS", Price: dec("20.00"), DiscountPercentage: pct("25")},
			now:       wednesday,
			wantLabel: "7.50",
			wantPromo: true,
		},
		{
			name:        "wings_percentage_mode_untouched",
			product:     models.Product{Name: "Wings platter share", Price: dec("40"), PriceByPercentage: true},
			now:         wednesday,
			wantLabel:   "40%",
			wantPercent: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			resolver := NewResolver(fixed(testCase.now), wings)

			got := resolver.Resolve(testCase.product, testCase.size)

			assert.Equal(t, testCase.wantLabel, got.Label)
			assert.Equal(t, testCase.wantPercent, got.Percentage)
			assert.Equal(t, testCase.wantPromo, got.Promotional)
			assert.Equal(t, testCase.wantVariant, got.Variation)
		})
	}
}

func TestRuleParameters(t *testing.T) {
	friday := time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)
	rule := Rule{Weekday: time.Friday, Keyword: "fish", Factor: dec("0.8")}
	resolver := NewResolver(fixed(friday), rule)

	got := resolver.Resolve(models.Product{Name: "Fried Fish", Price: dec("10.00")}, "")

	assert.True(t, got.Amount.Equal(dec("8")))
	assert.True(t, got.Promotional)
}

func TestDiscountedIgnoresZero(t *testing.T) {
	assert.True(t, Discounted(dec("10"), pct("0")).Equal(dec("10")))
	assert.True(t, Discounted(dec("10"), decimal.NullDecimal{}).Equal(dec("10")))
}
