// Package fixture generates deterministic offer and listing data. It backs
// every live source: when a retailer cannot be reached, its fixture offers
// stand in so a comparison can still be rendered.
package fixture

import (
	"context"
	"fmt"
	"hash/fnv"

	"shopwise/pkg/deals"
	"shopwise/pkg/models"
	"shopwise/pkg/platform"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

type profile struct {
	multiplier   decimal.Decimal
	defaultPrice decimal.Decimal
	deliveryTime string
	url          string
	options      []models.PaymentOption
}

var profiles = map[models.Platform]profile{
	models.PlatformAmazon: {
		multiplier:   decimal.RequireFromString("0.95"),
		defaultPrice: decimal.NewFromInt(15000),
		deliveryTime: "1-2 days",
		url:          "https://www.amazon.in/product-example",
		options: []models.PaymentOption{
			{Kind: models.KindCard, Label: "Card Payment", Bank: "All Banks"},
			{Kind: models.KindEMI, Label: "EMI Available", Discount: models.Percent(5)},
		},
	},
	models.PlatformFlipkart: {
		multiplier:   decimal.RequireFromString("1.05"),
		defaultPrice: decimal.NewFromInt(16500),
		deliveryTime: "2-3 days",
		url:          "https://www.flipkart.com/product-example",
		options: []models.PaymentOption{
			{Kind: models.KindCard, Label: "Axis Bank Card", Discount: models.Percent(5), Bank: "Axis"},
			{Kind: models.KindEMI, Label: "3 Month No Cost EMI", Discount: models.Percent(0)},
			{Kind: models.KindVoucher, Label: "SAVE10", Discount: models.Percent(10)},
		},
	},
	models.PlatformCroma: {
		multiplier:   decimal.RequireFromString("0.90"),
		defaultPrice: decimal.NewFromInt(14200),
		deliveryTime: "3-4 days",
		url:          "https://www.croma.com/product-example",
		options: []models.PaymentOption{
			{Kind: models.KindCard, Label: "SBI Card", Discount: models.Percent(3), Bank: "SBI"},
			{Kind: models.KindEMI, Label: "9 Month Low Cost EMI", Discount: models.Percent(0)},
			{Kind: models.KindVoucher, Label: "WELCOME500", Discount: models.Percent(2)},
		},
	},
}

// Source produces a fixed offer for one platform. The base price follows
// the reference price when one is known and a per-platform default
// otherwise.
type Source struct {
	Platform models.Platform
}

func NewSource(p models.Platform) *Source {
	return &Source{Platform: p}
}

func (s *Source) Name() string {
	return "fixture:" + string(s.Platform)
}

func (s *Source) FetchOffers(_ context.Context, ref models.ProductRef) ([]models.Offer, error) {
	prof, ok := profiles[s.Platform]
	if !ok {
		return nil, errors.Wrapf(models.ErrUnsupportedPlatform, "fixture %q", s.Platform)
	}

	price := prof.defaultPrice
	if ref.Price != nil && ref.Price.IsPositive() {
		price = ref.Price.Mul(prof.multiplier).Round(2)
	}

	options := make([]models.PaymentOption, len(prof.options))
	copy(options, prof.options)

	return []models.Offer{{
		Retailer:       platform.Title(s.Platform),
		BasePrice:      price,
		InStock:        true,
		PaymentOptions: options,
		URL:            prof.url,
		DeliveryTime:   prof.deliveryTime,
		Origin:         models.OriginFixture,
	}}, nil
}

var (
	categories = []string{"Electronics", "Home Appliances", "Fashion", "Books", "Toys"}
	badgeSets  = [][]string{{"Prime", "Fast Delivery"}, {"Deal of the Day"}, {"Limited Stock"}, {"Flash Sale"}, {"New Arrival"}}
)

// Listings returns limit mock search results for keywords. The same input
// always yields the same rows.
func Listings(keywords string, limit int) []models.Listing {
	h := fnv.New32a()
	_, _ = h.Write([]byte(keywords))
	seed := int64(h.Sum32())

	out := make([]models.Listing, 0, limit)
	for i := 0; i < limit; i++ {
		n := seed + int64(i)*7919
		original := decimal.NewFromInt(10000 + n%90000)
		discount := decimal.NewFromInt(5 + (n/7)%30)
		current := original.Mul(decimal.NewFromInt(100).Sub(discount)).Div(decimal.NewFromInt(100)).Round(0)

		availability := "In Stock"
		if n%10 == 0 {
			availability = "Limited Stock"
		}
		rating := 3.5
		if n%2 == 1 {
			rating = 4.5
		}

		id := fmt.Sprintf("MOCK%d", i+1)
		out = append(out, models.Listing{
			ID:            id,
			Title:         fmt.Sprintf("%s Product %d with Amazing Features and Specs", categories[i%len(categories)], i+1),
			OriginalPrice: original,
			CurrentPrice:  current,
			Discount:      deals.SavingsPercent(original, current),
			Image:         fmt.Sprintf("https://placehold.co/300x300?text=Product+%d", i+1),
			Rating:        rating,
			Store:         "Amazon",
			URL:           "https://www.amazon.com/dp/" + id,
			Availability:  availability,
			Badges:        badgeSets[i%len(badgeSets)],
			PaymentOptions: []models.PaymentOption{
				{Kind: models.KindCard, Label: "Card Payment", Bank: "All Banks"},
				{Kind: models.KindEMI, Label: "EMI Available", Discount: models.Percent(float64(5 + n%10))},
				{Kind: models.KindVoucher, Label: "Voucher SAVE10", Discount: models.Percent(10)},
			},
		})
	}
	return out
}
