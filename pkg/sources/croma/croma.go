package croma

import (
	"context"
	"net/url"
	"strings"
	"time"

	"shopwise/pkg/logger"
	"shopwise/pkg/models"
	"shopwise/pkg/platform"
	"shopwise/pkg/sources/jsonld"

	"github.com/chromedp/chromedp"
	"github.com/go-faster/errors"
)

const (
	Source    = "CROMA"
	BaseURL   = "https://www.croma.com"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Croma renders prices client-side, so pages are loaded in a headless
// browser before the markup is parsed.
type Scraper struct {
	BaseURL string
	Timeout time.Duration
	// Render loads url and returns the page HTML. Tests replace it.
	Render func(ctx context.Context, url string) (string, error)
}

func NewScraper() *Scraper {
	return &Scraper{
		BaseURL: BaseURL,
		Timeout: 45 * time.Second,
		Render:  render,
	}
}

func (s *Scraper) Name() string {
	return Source
}

func (s *Scraper) target(ref models.ProductRef) string {
	if ref.Platform == models.PlatformCroma && ref.URL != "" {
		return ref.URL
	}
	return s.BaseURL + "/searchB?q=" + url.QueryEscape(platform.SearchTerm(ref.Title))
}

func (s *Scraper) FetchOffers(ctx context.Context, ref models.ProductRef) ([]models.Offer, error) {
	pageURL := s.target(ref)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	logger.L().Debugw("navigating", "source", Source, "url", pageURL)
	html, err := s.Render(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "chromedp")
	}

	p, ok := jsonld.ParseHTML(html)
	if !ok || !p.Price.IsPositive() {
		return nil, errors.Wrapf(models.ErrProductNotFound, "no product markup on %s", pageURL)
	}

	offerURL := pageURL
	if p.URL != "" {
		if _, err := url.Parse(p.URL); err == nil {
			offerURL = p.URL
		}
	}

	return []models.Offer{{
		Retailer:       platform.Title(models.PlatformCroma),
		BasePrice:      p.Price,
		InStock:        p.InStock,
		PaymentOptions: paymentOptions(),
		URL:            offerURL,
	}}, nil
}

func render(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(html) == "" {
		return "", errors.New("empty page")
	}
	return html, nil
}

func paymentOptions() []models.PaymentOption {
	return []models.PaymentOption{
		{Kind: models.KindCard, Label: "SBI Card", Discount: models.Percent(3), Bank: "SBI"},
		{Kind: models.KindEMI, Label: "Low Cost EMI", Discount: models.Percent(0)},
	}
}
