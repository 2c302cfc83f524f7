// Package rapidapi talks to the Amazon price search API hosted on RapidAPI.
package rapidapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopwise/pkg/deals"
	"shopwise/pkg/models"
	"shopwise/pkg/platform"
	"shopwise/pkg/sources/jsonld"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	Source         = "rapidapi:amazon"
	defaultImage   = "https://placehold.co/300x300?text=No+Image"
	defaultRating  = 4.0
	defaultTimeout = 15 * time.Second
)

var ErrNoAPIKey = errors.New("rapidapi key not configured")

type Client struct {
	HTTPClient *http.Client
	Endpoint   string
	Host       string
	Key        string
}

func NewClient(endpoint, host, key string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Host:       host,
		Key:        key,
	}
}

// item mirrors the API payload. Prices and ratings come back as strings
// or numbers depending on the listing, so they are decoded loosely.
type item struct {
	ASIN          string `json:"ASIN"`
	Title         string `json:"title"`
	ListPrice     any    `json:"listPrice"`
	Price         any    `json:"price"`
	ImageURL      string `json:"imageUrl"`
	Rating        any    `json:"rating"`
	DetailPageURL string `json:"detailPageURL"`
}

func (c *Client) Name() string {
	return Source
}

func (c *Client) search(ctx context.Context, keywords string) ([]item, error) {
	if c.Key == "" {
		return nil, ErrNoAPIKey
	}

	u := c.Endpoint + "/search?keywords=" + url.QueryEscape(keywords)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("X-RapidAPI-Key", c.Key)
	req.Header.Set("X-RapidAPI-Host", c.Host)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("search: status code %d", resp.StatusCode)
	}

	var items []item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	return items, nil
}

// Search returns up to limit listings for keywords. An empty result is
// reported as models.ErrNoOffers so callers can fall back.
func (c *Client) Search(ctx context.Context, keywords string, limit int) ([]models.Listing, error) {
	items, err := c.search(ctx, keywords)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Wrapf(models.ErrNoOffers, "search %q", keywords)
	}
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]models.Listing, 0, len(items))
	for i, it := range items {
		out = append(out, it.listing(i))
	}
	return out, nil
}

// FetchOffers searches by the reference title and turns the first priced
// result into the Amazon offer.
func (c *Client) FetchOffers(ctx context.Context, ref models.ProductRef) ([]models.Offer, error) {
	items, err := c.search(ctx, platform.SearchTerm(ref.Title))
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		price := jsonld.ParsePrice(cast.ToString(it.Price))
		if !price.IsPositive() {
			continue
		}
		return []models.Offer{{
			Retailer:       platform.Title(models.PlatformAmazon),
			BasePrice:      price,
			InStock:        true,
			PaymentOptions: paymentOptions(),
			URL:            it.url(),
		}}, nil
	}
	return nil, errors.Wrapf(models.ErrNoOffers, "search %q", ref.Title)
}

func (it item) url() string {
	if it.DetailPageURL != "" {
		return it.DetailPageURL
	}
	return "https://www.amazon.com/dp/" + it.ASIN
}

func (it item) listing(i int) models.Listing {
	current := jsonld.ParsePrice(cast.ToString(it.Price))
	original := jsonld.ParsePrice(cast.ToString(it.ListPrice))
	if original.IsZero() {
		original = current
	}

	id := it.ASIN
	if id == "" {
		id = "AMZ" + cast.ToString(i+1)
	}
	title := it.Title
	if title == "" {
		title = "Amazon Product"
	}
	image := it.ImageURL
	if image == "" {
		image = defaultImage
	}
	rating := cast.ToFloat64(it.Rating)
	if rating <= 0 {
		rating = defaultRating
	}

	return models.Listing{
		ID:             id,
		Title:          title,
		OriginalPrice:  original,
		CurrentPrice:   current,
		Discount:       discount(original, current),
		Image:          image,
		Rating:         rating,
		Store:          "Amazon",
		URL:            it.url(),
		Availability:   "In Stock",
		Badges:         []string{"Prime", "Fast Delivery"},
		PaymentOptions: paymentOptions(),
	}
}

func discount(original, current decimal.Decimal) int {
	if !current.IsPositive() {
		return 0
	}
	return deals.SavingsPercent(original, current)
}

func paymentOptions() []models.PaymentOption {
	return []models.PaymentOption{
		{Kind: models.KindCard, Label: "Card Payment", Bank: "All Banks"},
		{Kind: models.KindEMI, Label: "EMI Available", Discount: models.Percent(5)},
	}
}
