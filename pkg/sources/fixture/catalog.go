package fixture

import (
	_ "embed"
	"encoding/json"

	"shopwise/pkg/deals"
	"shopwise/pkg/models"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

//go:embed catalog.json
var catalogJSON []byte

type catalogEntry struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Image          string                 `json:"image"`
	Description    string                 `json:"description"`
	Rating         float64                `json:"rating"`
	Badges         []string               `json:"badges"`
	OriginalPrice  decimal.Decimal        `json:"originalPrice"`
	Specifications []models.Specification `json:"specifications"`
	Retailers      []catalogRetailer      `json:"retailers"`
}

// catalogRetailer keeps the legacy payload shape, where the unit of
// paymentOptions[].discount is given per retailer.
type catalogRetailer struct {
	Name           string                 `json:"name"`
	Price          decimal.Decimal        `json:"price"`
	InStock        bool                   `json:"inStock"`
	DeliveryTime   string                 `json:"deliveryTime"`
	DiscountUnit   string                 `json:"discountUnit"`
	PaymentOptions []models.PaymentOption `json:"paymentOptions"`
}

// Catalog is the read-only product catalog. Products are normalized on
// load so every discount is a percentage.
type Catalog struct {
	products []models.Product
	byID     map[string]int
}

// DefaultCatalog parses the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(catalogJSON)
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	c := &Catalog{byID: make(map[string]int, len(entries))}
	for _, e := range entries {
		if e.ID == "" {
			return nil, errors.Errorf("catalog entry %q has no id", e.Title)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, errors.Errorf("duplicate catalog id %q", e.ID)
		}

		p := models.Product{
			ID:             e.ID,
			Title:          e.Title,
			Description:    e.Description,
			Image:          e.Image,
			Rating:         e.Rating,
			Badges:         e.Badges,
			Specifications: e.Specifications,
			OriginalPrice:  e.OriginalPrice,
		}
		for _, r := range e.Retailers {
			if !r.Price.IsPositive() {
				return nil, errors.Errorf("catalog %s/%s: price must be positive", e.ID, r.Name)
			}
			offer := models.Offer{
				Retailer:       r.Name,
				BasePrice:      r.Price,
				InStock:        r.InStock,
				PaymentOptions: r.PaymentOptions,
				DeliveryTime:   r.DeliveryTime,
				Origin:         models.OriginFixture,
			}
			p.Offers = append(p.Offers, deals.NormalizeOffer(offer, deals.ParseDiscountUnit(r.DiscountUnit)))
		}

		c.byID[e.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	return c, nil
}

// Get returns the product with the given id or models.ErrProductNotFound.
func (c *Catalog) Get(id string) (models.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, errors.Wrapf(models.ErrProductNotFound, "catalog %q", id)
	}
	return c.products[i], nil
}

// List returns all products in catalog order.
func (c *Catalog) List() []models.Product {
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}
