// Package jsonld reads schema.org Product markup out of retailer pages.
package jsonld

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

var (
	reNonPrice  = regexp.MustCompile(`[^0-9.]`)
	unavailable = []string{"outofstock", "soldout", "discontinued"}
)

type Product struct {
	Name     string
	Price    decimal.Decimal
	Currency string
	InStock  bool
	URL      string
}

type productLD struct {
	Type   json.RawMessage `json:"@type"`
	Name   string          `json:"name"`
	Offers json.RawMessage `json:"offers"`
}

type offerLD struct {
	Price         json.RawMessage `json:"price"` // string or number
	LowPrice      json.RawMessage `json:"lowPrice"`
	PriceCurrency string          `json:"priceCurrency"`
	Availability  string          `json:"availability"`
	URL           string          `json:"url"`
}

// Parse returns the first Product found in the ld+json scripts under sel.
func Parse(sel *goquery.Selection) (*Product, bool) {
	var found *Product
	sel.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if p, ok := parseScript(s.Text()); ok {
			found = p
			return false
		}
		return true
	})
	return found, found != nil
}

// ParseHTML is Parse for a raw HTML string.
func ParseHTML(html string) (*Product, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}
	return Parse(doc.Selection)
}

func parseScript(text string) (*Product, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	var candidates []productLD
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &candidates); err != nil {
			return nil, false
		}
	} else {
		var one struct {
			productLD
			Graph []productLD `json:"@graph"`
		}
		if err := json.Unmarshal([]byte(text), &one); err != nil {
			return nil, false
		}
		candidates = append([]productLD{one.productLD}, one.Graph...)
	}

	for _, c := range candidates {
		if !isProduct(c.Type) {
			continue
		}
		p := &Product{Name: strings.TrimSpace(c.Name), InStock: true}
		if o, ok := firstOffer(c.Offers); ok {
			p.Price = price(o.Price)
			if p.Price.IsZero() {
				p.Price = price(o.LowPrice)
			}
			p.Currency = o.PriceCurrency
			p.InStock = available(o.Availability)
			p.URL = o.URL
		}
		return p, true
	}
	return nil, false
}

// Availability is optional; only an explicit unavailable value marks the
// product out of stock.
func available(availability string) bool {
	a := strings.ToLower(availability)
	for _, v := range unavailable {
		if strings.HasSuffix(a, v) {
			return false
		}
	}
	return true
}

func isProduct(raw json.RawMessage) bool {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s == "Product"
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		for _, t := range list {
			if t == "Product" {
				return true
			}
		}
	}
	return false
}

func firstOffer(raw json.RawMessage) (offerLD, bool) {
	if len(raw) == 0 {
		return offerLD{}, false
	}
	var o offerLD
	if json.Unmarshal(raw, &o) == nil {
		return o, true
	}
	var list []offerLD
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0], true
	}
	return offerLD{}, false
}

func price(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	return ParsePrice(s)
}

// ParsePrice reads a display price such as "₹1,29,999.00" or "$ 349.99".
// Unparseable input yields zero.
func ParsePrice(s string) decimal.Decimal {
	cleaned := reNonPrice.ReplaceAllString(strings.ReplaceAll(s, ",", ""), "")
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
