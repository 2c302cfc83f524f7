package deals

import (
	"shopwise/pkg/models"

	"github.com/shopspring/decimal"
)

// DiscountUnit says how a legacy payload expressed PaymentOption.Discount.
// Older catalog entries mix absolute currency amounts with percentages in
// the same field; NormalizeOption converts both to the percentage-only form.
type DiscountUnit int

const (
	DiscountPercent DiscountUnit = iota
	DiscountAbsolute
)

func (u DiscountUnit) String() string {
	if u == DiscountAbsolute {
		return "absolute"
	}
	return "percent"
}

// ParseDiscountUnit maps "absolute"/"amount" to DiscountAbsolute and
// everything else to DiscountPercent.
func ParseDiscountUnit(s string) DiscountUnit {
	switch s {
	case "absolute", "amount":
		return DiscountAbsolute
	}
	return DiscountPercent
}

// NormalizeOption rewrites option so that Discount, if set, is a percentage
// in [0,100] and FinalPrice, if set, lies in [0, basePrice]. Absolute
// discounts are folded into FinalPrice and Discount is cleared.
func NormalizeOption(basePrice decimal.Decimal, option models.PaymentOption, unit DiscountUnit) models.PaymentOption {
	out := option

	if unit == DiscountAbsolute && out.Discount != nil {
		if out.FinalPrice == nil {
			fp := basePrice.Sub(*out.Discount)
			out.FinalPrice = &fp
		}
		out.Discount = nil
	}

	if out.Discount != nil {
		pct := clampPercent(*out.Discount)
		out.Discount = &pct
	}

	if out.FinalPrice != nil {
		fp := *out.FinalPrice
		if fp.IsNegative() {
			fp = decimal.Zero
		}
		if basePrice.IsPositive() && fp.GreaterThan(basePrice) {
			fp = basePrice
		}
		out.FinalPrice = &fp
	}

	return out
}

// NormalizeOffer applies NormalizeOption to every option of offer and
// returns a copy; offer itself is left untouched.
func NormalizeOffer(offer models.Offer, unit DiscountUnit) models.Offer {
	out := offer
	out.PaymentOptions = make([]models.PaymentOption, len(offer.PaymentOptions))
	for i, opt := range offer.PaymentOptions {
		out.PaymentOptions[i] = NormalizeOption(offer.BasePrice, opt, unit)
	}
	return out
}
