package flipkart

import (
	"context"
	"net/url"
	"strings"

	"shopwise/pkg/logger"
	"shopwise/pkg/models"
	"shopwise/pkg/platform"
	"shopwise/pkg/sources/jsonld"

	"github.com/go-faster/errors"
	"github.com/gocolly/colly/v2"
	"github.com/shopspring/decimal"
)

const (
	Source    = "FLIPKART"
	BaseURL   = "https://www.flipkart.com"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Flipkart rotates class names; older and newer price/title classes are
// both tried.
var (
	priceSelectors = []string{"div.Nx9bqj", "div._30jeq3", "div._16Jk6d"}
	titleSelectors = []string{"span.VU-ZEz", "span.B_NuCI", "h1"}
	soldOutMarkers = []string{"Sold Out", "Currently Unavailable", "Coming Soon"}
)

type Scraper struct {
	Collector *colly.Collector
	BaseURL   string
}

func NewScraper() *Scraper {
	c := colly.NewCollector(
		colly.AllowedDomains("www.flipkart.com", "flipkart.com"),
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	return &Scraper{
		Collector: c,
		BaseURL:   BaseURL,
	}
}

func (s *Scraper) Name() string {
	return Source
}

// target visits the product page itself when the comparison started on
// Flipkart, and the search page for the reference title otherwise.
func (s *Scraper) target(ref models.ProductRef) string {
	if ref.Platform == models.PlatformFlipkart && ref.URL != "" {
		return ref.URL
	}
	return s.BaseURL + "/search?q=" + url.QueryEscape(platform.SearchTerm(ref.Title))
}

func (s *Scraper) FetchOffers(ctx context.Context, ref models.ProductRef) ([]models.Offer, error) {
	c := s.Collector.Clone()
	c.Context = ctx

	pageURL := s.target(ref)
	productPage := ref.URL != "" && pageURL == ref.URL
	offer := models.Offer{
		Retailer: platform.Title(models.PlatformFlipkart),
		URL:      pageURL,
		InStock:  true,
	}
	var name string

	c.OnHTML("html", func(e *colly.HTMLElement) {
		if p, ok := jsonld.Parse(e.DOM); ok && p.Price.IsPositive() {
			name = p.Name
			offer.BasePrice = p.Price
			offer.InStock = p.InStock
			return
		}

		offer.BasePrice = firstPrice(e)
		for _, sel := range titleSelectors {
			if t := strings.TrimSpace(e.ChildText(sel)); t != "" {
				name = t
				break
			}
		}

		// Search results mix tiles of other products, so page-wide
		// markers only mean something on the product page.
		if !productPage {
			return
		}
		text := e.Text
		for _, marker := range soldOutMarkers {
			if strings.Contains(text, marker) {
				offer.InStock = false
				break
			}
		}
	})

	logger.L().Debugw("navigating", "source", Source, "url", pageURL)
	if err := c.Visit(pageURL); err != nil {
		return nil, errors.Wrap(err, "visit")
	}

	if !offer.BasePrice.IsPositive() {
		return nil, errors.Wrapf(models.ErrProductNotFound, "no price on %s", pageURL)
	}
	logger.L().Debugw("scraped", "source", Source, "name", name, "price", offer.BasePrice)

	offer.PaymentOptions = paymentOptions()
	return []models.Offer{offer}, nil
}

func firstPrice(e *colly.HTMLElement) decimal.Decimal {
	for _, sel := range priceSelectors {
		var found decimal.Decimal
		e.ForEachWithBreak(sel, func(_ int, el *colly.HTMLElement) bool {
			found = jsonld.ParsePrice(el.Text)
			return !found.IsPositive()
		})
		if found.IsPositive() {
			return found
		}
	}
	return decimal.Zero
}

// Bank offers are not in the page markup; these are the standing ones.
func paymentOptions() []models.PaymentOption {
	return []models.PaymentOption{
		{Kind: models.KindCard, Label: "Flipkart Axis Bank Card", Discount: models.Percent(5), Bank: "Axis"},
		{Kind: models.KindEMI, Label: "No Cost EMI", Discount: models.Percent(0)},
	}
}
