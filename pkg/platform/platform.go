package platform

import (
	"fmt"
	"regexp"
	"strings"

	"shopwise/pkg/models"

	"github.com/go-faster/errors"
)

var ErrURLRequired = errors.New("url is required")

var (
	reAmazonID = regexp.MustCompile(`/dp/([A-Z0-9]+)`)
	reSlugID   = regexp.MustCompile(`/p/([a-zA-Z0-9]+)`)
)

// Supported lists the platforms in comparison order.
var Supported = []models.Platform{
	models.PlatformAmazon,
	models.PlatformFlipkart,
	models.PlatformCroma,
}

// Detect picks the platform from a product URL by host keyword.
func Detect(url string) (models.Platform, bool) {
	lower := strings.ToLower(url)
	for _, p := range Supported {
		if strings.Contains(lower, string(p)) {
			return p, true
		}
	}
	return "", false
}

// ExtractID pulls the platform's product identifier out of url, or returns
// an empty string.
func ExtractID(p models.Platform, url string) string {
	var re *regexp.Regexp
	switch p {
	case models.PlatformAmazon:
		re = reAmazonID
	case models.PlatformFlipkart, models.PlatformCroma:
		re = reSlugID
	default:
		return ""
	}

	if m := re.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}
	return ""
}

// Ref builds the reference product for a comparison request from its URL.
// Nothing is fetched; title and id come from the URL alone.
func Ref(url string) (models.ProductRef, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return models.ProductRef{}, ErrURLRequired
	}

	p, ok := Detect(url)
	if !ok {
		return models.ProductRef{}, errors.Wrapf(models.ErrUnsupportedPlatform, "detect %q", url)
	}

	id := ExtractID(p, url)
	title := "Product from " + string(p)
	if id != "" {
		title = fmt.Sprintf("%s Product %s", Title(p), id)
	}

	return models.ProductRef{
		ID:       id,
		Title:    title,
		Platform: p,
		URL:      url,
	}, nil
}

// Title is the display name of a platform, e.g. "Flipkart".
func Title(p models.Platform) string {
	s := string(p)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SearchTerm keeps the first five words of a title, which matches listings
// on the search APIs better than the full title.
func SearchTerm(title string) string {
	words := strings.Fields(title)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
