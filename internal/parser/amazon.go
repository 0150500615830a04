package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
)

// Selector fallback chains for the product detail page. Order matters:
// the first selector that yields a usable value wins.
var (
	titleSelectors = []string{
		"#productTitle",
		".product-title",
		"h1.a-size-large",
	}

	priceSelectors = []string{
		".a-price .a-offscreen",
		".a-price-whole",
		"#price_inside_buybox",
		".a-price.a-text-price.a-size-medium.apexPriceToPay .a-offscreen",
		".a-price-range .a-offscreen",
	}

	ratingCountSelectors = []string{
		"#acrCustomerReviewText",
		".a-size-base.a-color-base",
	}

	availabilitySelectors = []string{
		"#availability span",
		".a-size-medium.a-color-success",
		".a-size-medium.a-color-price",
	}

	descriptionSelectors = []string{
		"#productDescription p",
		"#aplus .aplus-p1",
		".a-section.a-spacing-medium",
	}
)

var (
	ratingPattern = regexp.MustCompile(`(\d+\.?\d*)`)
	hiResPattern  = regexp.MustCompile(`"hiRes":"([^"]+)"`)
)

// AmazonParser extracts product fields from Amazon HTML. A missing field is
// never an error; the corresponding record field stays empty.
type AmazonParser struct{}

func NewAmazonParser() *AmazonParser {
	return &AmazonParser{}
}

func (p *AmazonParser) ParseProductPage(html, asin, pageURL string) (*models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	product := models.NewProduct(asin, pageURL)

	product.Title = p.extractTitle(doc)
	product.Price = p.extractPrice(doc)
	product.Rating = p.extractRating(doc)
	product.RatingCount = p.extractRatingCount(doc)
	product.Availability = p.extractAvailability(doc)
	product.Images = p.extractImages(doc, html)
	product.Features = p.extractFeatures(doc)
	product.Description = p.extractDescription(doc)

	return product, nil
}

func (p *AmazonParser) extractTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func (p *AmazonParser) extractPrice(doc *goquery.Document) string {
	for _, selector := range priceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" && strings.ContainsAny(text, "$€£") {
			return text
		}
	}
	return ""
}

func (p *AmazonParser) extractRating(doc *goquery.Document) string {
	text := doc.Find("span.a-icon-alt").First().Text()
	if text == "" {
		return ""
	}

	if match := ratingPattern.FindStringSubmatch(text); len(match) > 1 {
		return match[1]
	}
	return ""
}

func (p *AmazonParser) extractRatingCount(doc *goquery.Document) string {
	for _, selector := range ratingCountSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" && strings.Contains(strings.ToLower(text), "rating") {
			return text
		}
	}
	return ""
}

func (p *AmazonParser) extractAvailability(doc *goquery.Document) string {
	for _, selector := range availabilitySelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		// Availability blurbs are short; long matches are unrelated sections
		if text != "" && len(text) < 100 {
			return text
		}
	}
	return ""
}

// extractImages prefers the hiRes URLs embedded in the page's image-block
// script, falling back to the landing image element.
func (p *AmazonParser) extractImages(doc *goquery.Document, html string) []string {
	var images []string
	seen := make(map[string]bool)

	for _, match := range hiResPattern.FindAllStringSubmatch(html, -1) {
		src := match[1]
		if !seen[src] {
			seen[src] = true
			images = append(images, src)
		}
	}

	if len(images) > 0 {
		return images
	}

	doc.Find(`img[data-a-image-name="landingImage"], #landingImage`).Each(func(i int, s *goquery.Selection) {
		if src, exists := s.Attr("src"); exists && strings.Contains(src, "http") && !seen[src] {
			seen[src] = true
			images = append(images, src)
		}
	})

	return images
}

func (p *AmazonParser) extractFeatures(doc *goquery.Document) []string {
	var features []string

	doc.Find("#feature-bullets li span.a-list-item").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		// Drop empty bullets and boilerplate stubs
		if len(text) > 10 {
			features = append(features, text)
		}
	})

	return features
}

func (p *AmazonParser) extractDescription(doc *goquery.Document) string {
	for _, selector := range descriptionSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if len(text) > 50 {
			return text
		}
	}
	return ""
}

// SearchResult is one entry from a search listing page.
type SearchResult struct {
	ASIN  string
	Title string
	URL   string
}

// ParseSearchResults extracts product links from a search results page.
// Relative links are resolved against baseURL and query strings dropped.
func (p *AmazonParser) ParseSearchResults(html, baseURL string) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []SearchResult

	doc.Find(`[data-component-type="s-search-result"]`).Each(func(i int, s *goquery.Selection) {
		asin, _ := s.Attr("data-asin")

		link := s.Find("h2 a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		href = strings.SplitN(href, "?", 2)[0]
		resolved := resolveURL(baseURL, href)
		if resolved == "" {
			return
		}

		results = append(results, SearchResult{
			ASIN:  asin,
			Title: strings.TrimSpace(link.Text()),
			URL:   resolved,
		})
	})

	return results, nil
}

func resolveURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(ref).String()
}
