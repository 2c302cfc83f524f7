package models

import "github.com/shopspring/decimal"

type Platform string

const (
	PlatformAmazon   Platform = "amazon"
	PlatformFlipkart Platform = "flipkart"
	PlatformCroma    Platform = "croma"
)

// ProductRef identifies the product a comparison was requested for.
type ProductRef struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Platform Platform         `json:"platform"`
	URL      string           `json:"url"`
	Price    *decimal.Decimal `json:"price"`
	Image    *string          `json:"image"`
}

type Specification struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Product struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Image          string          `json:"image,omitempty"`
	Rating         float64         `json:"rating,omitempty"`
	Badges         []string        `json:"badges,omitempty"`
	Specifications []Specification `json:"specifications,omitempty"`
	OriginalPrice  decimal.Decimal `json:"originalPrice"`
	Offers         []Offer         `json:"offers"`
}

// Listing is a single row of a product search result.
type Listing struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	OriginalPrice  decimal.Decimal `json:"originalPrice"`
	CurrentPrice   decimal.Decimal `json:"currentPrice"`
	Discount       int             `json:"discount"`
	Image          string          `json:"image"`
	Rating         float64         `json:"rating"`
	Store          string          `json:"store"`
	URL            string          `json:"url"`
	Availability   string          `json:"availability"`
	Badges         []string        `json:"badges"`
	PaymentOptions []PaymentOption `json:"paymentOptions"`
}
