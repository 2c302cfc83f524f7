// Package compare answers the three requests the service handles: comparing
// a product URL across retailers, searching listings, and showing a catalog
// product with its resolved deals.
package compare

import (
	"context"
	"strings"
	"time"

	"shopwise/pkg/deals"
	"shopwise/pkg/logger"
	"shopwise/pkg/models"
	"shopwise/pkg/platform"
	"shopwise/pkg/sources"
	"shopwise/pkg/sources/fixture"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultKeywords = "popular electronics"
	DefaultLimit    = 30
	MaxLimit        = 100
)

var ErrBadSelection = errors.New("no such retailer or payment option")

// OfferCache stores live offers per (platform, product).
type OfferCache interface {
	Get(p models.Platform, productID string) ([]models.Offer, bool)
	Set(p models.Platform, productID string, offers []models.Offer)
}

type Searcher interface {
	Search(ctx context.Context, keywords string, limit int) ([]models.Listing, error)
}

type Service struct {
	Registry *sources.Registry
	Catalog  *fixture.Catalog
	// Cache and Searcher are optional.
	Cache    OfferCache
	Searcher Searcher
	// SearchTimeout bounds a live search before fixture listings are used.
	SearchTimeout time.Duration

	sem chan struct{}
}

// New returns a Service that runs at most concurrency fetches at once
// across all requests.
func New(reg *sources.Registry, catalog *fixture.Catalog, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		Registry: reg,
		Catalog:  catalog,
		sem:      make(chan struct{}, concurrency),
	}
}

type Comparison struct {
	OriginalProduct models.ProductRef `json:"originalProduct"`
	OriginalPrice   decimal.Decimal   `json:"originalPrice"`
	Offers          []models.Offer    `json:"offers"`
	AllDeals        []models.Deal     `json:"allDeals"`
	BestDeal        *models.Deal      `json:"bestDeal"`
	SavingsPercent  int               `json:"savingsPercent"`
}

// Compare gathers one offer set per registered platform for the product at
// rawURL and resolves the deals. The platform the URL belongs to is listed
// first.
func (s *Service) Compare(ctx context.Context, rawURL string) (*Comparison, error) {
	ref, err := platform.Ref(rawURL)
	if err != nil {
		return nil, err
	}

	order := s.order(ref.Platform)
	results := make([][]models.Offer, len(order))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range order {
		g.Go(func() error {
			offers, err := s.fetch(gctx, p, ref)
			if err != nil {
				return errors.Wrapf(err, "fetch %s", p)
			}
			results[i] = offers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var offers []models.Offer
	for _, r := range results {
		offers = append(offers, r...)
	}

	c := &Comparison{
		OriginalProduct: ref,
		OriginalPrice:   originalPrice(ref, offers),
		Offers:          offers,
		AllDeals:        deals.Rank(offers),
		BestDeal:        deals.BestDeal(offers),
	}
	if c.BestDeal != nil {
		c.SavingsPercent = deals.SavingsPercent(c.OriginalPrice, c.BestDeal.Price)
	}

	logger.L().Infow("compared",
		"platform", ref.Platform,
		"product", ref.ID,
		"offers", len(offers),
		"savings", c.SavingsPercent,
	)
	return c, nil
}

func (s *Service) order(first models.Platform) []models.Platform {
	all := s.Registry.Platforms()
	out := make([]models.Platform, 0, len(all))
	if s.Registry.For(first) != nil {
		out = append(out, first)
	}
	for _, p := range all {
		if p != first {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) fetch(ctx context.Context, p models.Platform, ref models.ProductRef) ([]models.Offer, error) {
	key := ref.ID
	if key == "" {
		key = ref.URL
	}

	if s.Cache != nil {
		if offers, ok := s.Cache.Get(p, key); ok {
			return offers, nil
		}
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	offers, err := s.Registry.For(p).FetchOffers(ctx, ref)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil && allLive(offers) {
		s.Cache.Set(p, key, offers)
	}
	return offers, nil
}

func allLive(offers []models.Offer) bool {
	if len(offers) == 0 {
		return false
	}
	for _, o := range offers {
		if o.Origin != models.OriginLive {
			return false
		}
	}
	return true
}

// originalPrice is the reference price when the request carried one, and
// otherwise the highest in-stock base price on offer.
func originalPrice(ref models.ProductRef, offers []models.Offer) decimal.Decimal {
	if ref.Price != nil && ref.Price.IsPositive() {
		return *ref.Price
	}
	highest := decimal.Zero
	for _, o := range offers {
		if o.InStock && o.BasePrice.GreaterThan(highest) {
			highest = o.BasePrice
		}
	}
	return highest
}

// Search returns listings for keywords from the live searcher, or
// deterministic fixture listings when it is missing or fails.
func (s *Service) Search(ctx context.Context, keywords string, limit int) ([]models.Listing, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		keywords = DefaultKeywords
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	if s.Searcher != nil {
		sctx := ctx
		if s.SearchTimeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(ctx, s.SearchTimeout)
			defer cancel()
		}

		listings, err := s.Searcher.Search(sctx, keywords, limit)
		if err == nil && len(listings) > 0 {
			return listings, nil
		}
		logger.L().Warnw("live search failed, using fixtures", "keywords", keywords, "error", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fixture.Listings(keywords, limit), nil
}

type ProductDetail struct {
	models.Product
	BestDeal       *models.Deal  `json:"bestDeal"`
	AllDeals       []models.Deal `json:"allDeals"`
	SavingsPercent int           `json:"savingsPercent"`
	Selected       *models.Deal  `json:"selected,omitempty"`
}

// Detail resolves a catalog product. When retailer is set, Selected carries
// the effective price of that retailer's option at index option.
func (s *Service) Detail(id, retailer string, option int) (*ProductDetail, error) {
	p, err := s.Catalog.Get(id)
	if err != nil {
		return nil, err
	}

	d := &ProductDetail{
		Product:  p,
		BestDeal: deals.BestDeal(p.Offers),
		AllDeals: deals.Rank(p.Offers),
	}
	if d.BestDeal != nil {
		d.SavingsPercent = deals.SavingsPercent(p.OriginalPrice, d.BestDeal.Price)
	}

	if retailer != "" {
		sel, err := selectDeal(p.Offers, retailer, option)
		if err != nil {
			return nil, err
		}
		d.Selected = sel
	}
	return d, nil
}

func selectDeal(offers []models.Offer, retailer string, option int) (*models.Deal, error) {
	for _, o := range offers {
		if !strings.EqualFold(o.Retailer, retailer) {
			continue
		}
		opts := deals.Options(o)
		if option < 0 || option >= len(opts) {
			return nil, errors.Wrapf(ErrBadSelection, "%s has %d options, got index %d", o.Retailer, len(opts), option)
		}
		return &models.Deal{
			Retailer: o.Retailer,
			Option:   opts[option],
			Price:    deals.EffectivePrice(o, opts[option]),
		}, nil
	}
	return nil, errors.Wrapf(ErrBadSelection, "retailer %q", retailer)
}
