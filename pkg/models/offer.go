package models

import "github.com/shopspring/decimal"

// Amounts go over the wire as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type PaymentKind string

const (
	KindCard    PaymentKind = "card"
	KindEMI     PaymentKind = "emi"
	KindVoucher PaymentKind = "voucher"
)

func (k PaymentKind) Valid() bool {
	switch k {
	case KindCard, KindEMI, KindVoucher:
		return true
	}
	return false
}

// PaymentOption is one way of paying for an offer. Discount is always a
// percentage of the offer's base price in [0,100]; absolute deductions are
// carried in FinalPrice instead.
type PaymentOption struct {
	Kind       PaymentKind      `json:"type"`
	Label      string           `json:"label"`
	Discount   *decimal.Decimal `json:"discount,omitempty"`
	FinalPrice *decimal.Decimal `json:"finalPrice,omitempty"`
	Bank       string           `json:"bank,omitempty"`
}

const (
	OriginLive    = "live"
	OriginFixture = "fixture"
)

// Offer is one retailer's listing of a product.
type Offer struct {
	Retailer       string          `json:"retailer"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	InStock        bool            `json:"inStock"`
	PaymentOptions []PaymentOption `json:"paymentOptions"`
	URL            string          `json:"url,omitempty"`
	DeliveryTime   string          `json:"deliveryTime,omitempty"`
	Origin         string          `json:"origin,omitempty"`
}

// Deal is a resolved (offer, option) pair with its effective price.
type Deal struct {
	Retailer string          `json:"retailer"`
	Option   PaymentOption   `json:"option"`
	Price    decimal.Decimal `json:"price"`
}

// Percent is a convenience for building option discounts in fixtures and tests.
func Percent(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// Price is a convenience for building precomputed final prices.
func Price(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
