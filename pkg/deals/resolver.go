// Package deals resolves effective prices and best deals across retailer
// offers. Every function here is pure and safe to call from concurrent
// handlers; nothing returns an error; bad numbers are clamped instead.
package deals

import (
	"sort"

	"shopwise/pkg/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// StandardOption stands in for offers that list no payment options: the
// base price with no discount applied.
var StandardOption = models.PaymentOption{Label: "Standard price"}

// EffectivePrice is what a buyer pays for offer when paying with option.
// A precomputed FinalPrice wins over Discount, which is a percentage of the
// base price. The result is never negative.
func EffectivePrice(offer models.Offer, option models.PaymentOption) decimal.Decimal {
	var price decimal.Decimal

	switch {
	case option.FinalPrice != nil:
		price = *option.FinalPrice
	case option.Discount != nil:
		pct := clampPercent(*option.Discount)
		price = offer.BasePrice.Sub(offer.BasePrice.Mul(pct).Div(hundred))
	default:
		price = offer.BasePrice
	}

	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// BestDeal returns the cheapest (offer, option) pair among in-stock offers.
// On equal prices the earlier pair in input order wins. It returns nil when
// there is nothing purchasable.
func BestDeal(offers []models.Offer) *models.Deal {
	var best *models.Deal
	for _, d := range candidates(offers) {
		if best == nil || d.Price.LessThan(best.Price) {
			d := d
			best = &d
		}
	}
	return best
}

// Rank returns every in-stock (offer, option) pair ordered by ascending
// effective price, keeping input order between equal prices.
func Rank(offers []models.Offer) []models.Deal {
	ranked := candidates(offers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price.LessThan(ranked[j].Price)
	})
	return ranked
}

// SavingsPercent is the whole-number discount of finalPrice against
// originalPrice, clamped to [0,100]. A non-positive originalPrice yields 0.
func SavingsPercent(originalPrice, finalPrice decimal.Decimal) int {
	if !originalPrice.IsPositive() {
		return 0
	}

	pct := originalPrice.Sub(finalPrice).Mul(hundred).Div(originalPrice).Round(0)
	switch {
	case pct.IsNegative():
		return 0
	case pct.GreaterThan(hundred):
		return 100
	}
	return int(pct.IntPart())
}

func candidates(offers []models.Offer) []models.Deal {
	out := make([]models.Deal, 0, len(offers))
	for _, offer := range offers {
		if !offer.InStock {
			continue
		}
		for _, option := range Options(offer) {
			out = append(out, models.Deal{
				Retailer: offer.Retailer,
				Option:   option,
				Price:    EffectivePrice(offer, option),
			})
		}
	}
	return out
}

// Options returns the offer's payment options, or StandardOption alone when
// the offer has none.
func Options(offer models.Offer) []models.PaymentOption {
	if len(offer.PaymentOptions) == 0 {
		return []models.PaymentOption{StandardOption}
	}
	return offer.PaymentOptions
}

func clampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
