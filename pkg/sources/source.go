// Package sources gathers retailer offers for a product. Live sources are
// best effort; Fallback turns their failures into fixture data so callers
// always get something to resolve.
package sources

import (
	"context"
	"time"

	"shopwise/pkg/logger"
	"shopwise/pkg/models"

	"github.com/go-faster/errors"
)

// Source fetches the offers one retailer has for ref.
type Source interface {
	Name() string
	FetchOffers(ctx context.Context, ref models.ProductRef) ([]models.Offer, error)
}

// Registry maps platforms to the source that serves them, in registration
// order.
type Registry struct {
	order   []models.Platform
	sources map[models.Platform]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[models.Platform]Source)}
}

// Register adds or replaces the source for p.
func (r *Registry) Register(p models.Platform, s Source) {
	if _, ok := r.sources[p]; !ok {
		r.order = append(r.order, p)
	}
	r.sources[p] = s
}

// For returns the source for p, or nil.
func (r *Registry) For(p models.Platform) Source {
	return r.sources[p]
}

func (r *Registry) Platforms() []models.Platform {
	out := make([]models.Platform, len(r.order))
	copy(out, r.order)
	return out
}

// Outcome records what Fallback did for a single fetch.
type Outcome struct {
	Offers []models.Offer
	Origin string
	// Cause is the primary's failure when the secondary was used.
	Cause error
}

func (o Outcome) FellBack() bool {
	return o.Origin == models.OriginFixture
}

// Fallback runs Primary under Timeout and uses Secondary whenever Primary
// errors, times out, or returns no offer with a positive base price. A nil
// Primary always uses Secondary.
type Fallback struct {
	Primary   Source
	Secondary Source
	Timeout   time.Duration
}

func (f *Fallback) Name() string {
	if f.Primary == nil {
		return f.Secondary.Name()
	}
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

func (f *Fallback) FetchOffers(ctx context.Context, ref models.ProductRef) ([]models.Offer, error) {
	out, err := f.Resolve(ctx, ref)
	return out.Offers, err
}

// Resolve is FetchOffers with the fallback decision exposed.
func (f *Fallback) Resolve(ctx context.Context, ref models.ProductRef) (Outcome, error) {
	var cause error

	if f.Primary != nil {
		offers, err := f.live(ctx, ref)
		if err == nil {
			return Outcome{Offers: tag(offers, models.OriginLive), Origin: models.OriginLive}, nil
		}
		cause = err
		logger.L().Warnw("live source failed, using fixtures",
			"source", f.Primary.Name(),
			"product", ref.ID,
			"error", err,
		)
	}

	offers, err := f.Secondary.FetchOffers(ctx, ref)
	if err != nil {
		return Outcome{Cause: cause}, errors.Wrapf(err, "fallback %s", f.Secondary.Name())
	}
	return Outcome{Offers: tag(offers, models.OriginFixture), Origin: models.OriginFixture, Cause: cause}, nil
}

func (f *Fallback) live(ctx context.Context, ref models.ProductRef) ([]models.Offer, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	type result struct {
		offers []models.Offer
		err    error
	}
	done := make(chan result, 1)
	go func() {
		offers, err := f.Primary.FetchOffers(ctx, ref)
		done <- result{offers, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), f.Primary.Name())
	case res := <-done:
		if res.err != nil {
			return nil, errors.Wrap(res.err, f.Primary.Name())
		}
		valid := priced(res.offers)
		if len(valid) == 0 {
			return nil, errors.Wrap(models.ErrNoOffers, f.Primary.Name())
		}
		return valid, nil
	}
}

func priced(offers []models.Offer) []models.Offer {
	out := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if o.BasePrice.IsPositive() {
			out = append(out, o)
		}
	}
	return out
}

func tag(offers []models.Offer, origin string) []models.Offer {
	out := make([]models.Offer, len(offers))
	for i, o := range offers {
		o.Origin = origin
		out[i] = o
	}
	return out
}
