package extractor

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/Eliedson1979/amazon-scraper/config"
	"github.com/Eliedson1979/amazon-scraper/models"
)

func testConfig() config.ExtractorConfig {
	return config.ExtractorConfig{
		BaseURL:        "https://www.amazon.com.br",
		MaxResults:     20,
		BlockedMarkers: config.DefaultBlockedMarkers,
		ReviewTokens:   config.DefaultReviewTokens,
	}
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	ex, err := New(testConfig())
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return ex
}

func mustParse(t *testing.T, rawHTML string) *goquery.Document {
	t.Helper()
	doc, err := Parse(rawHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// productBlock renders one search-result container with the given fields.
func productBlock(title, rating, reviews, imgSrc, href string) string {
	var b strings.Builder
	b.WriteString(`<div data-component-type="s-search-result" data-asin="B0TEST">`)
	b.WriteString(`<h2><a href="` + href + `"><span>` + title + `</span></a></h2>`)
	if rating != "" {
		b.WriteString(`<i class="a-icon a-icon-star-small"><span class="a-icon-alt">` + rating + `</span></i>`)
	}
	if reviews != "" {
		b.WriteString(`<span class="a-size-base s-underline-text">` + reviews + `</span>`)
	}
	if imgSrc != "" {
		b.WriteString(`<img class="s-image" src="` + imgSrc + `"/>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func resultsPage(blocks ...string) string {
	return `<html><body><div class="s-search-results">` + strings.Join(blocks, "") + `</div></body></html>`
}

func TestExtractFixturePage(t *testing.T) {
	page := resultsPage(
		productBlock("Notebook Gamer Acer Nitro 5", "4,7 de 5 estrelas", "1.234 avaliações", "//m.media-amazon.com/images/I/one.jpg", "/dp/B0AAA"),
		productBlock("Notebook Lenovo IdeaPad 3i", "4.5 out of 5 stars", "987 avaliações", "https://m.media-amazon.com/images/I/two.jpg", "https://www.amazon.com.br/dp/B0BBB"),
		productBlock("", "4,0 de 5 estrelas", "50 avaliações", "", "/dp/B0CCC"),
		productBlock("Notebook Dell Inspiron 15", "", "", "/images/I/three.jpg", "/dp/B0DDD"),
	)

	ex := newTestExtractor(t)
	result, err := ex.Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if got := len(result.Products); got != 3 {
		t.Fatalf("products = %d, want 3", got)
	}
	for i, p := range result.Products {
		if p.Position != i+1 {
			t.Errorf("product %d position = %d, want %d", i, p.Position, i+1)
		}
		if p.Rating < 0 || p.Rating > 5 {
			t.Errorf("product %d rating %v out of range", i, p.Rating)
		}
		if p.ReviewCount < 0 {
			t.Errorf("product %d review count %d negative", i, p.ReviewCount)
		}
	}

	first := result.Products[0]
	if first.Rating != 4.7 {
		t.Errorf("first rating = %v, want 4.7", first.Rating)
	}
	if first.ReviewCount != 1234 {
		t.Errorf("first review count = %d, want 1234", first.ReviewCount)
	}
	if first.ImageURL != "https://m.media-amazon.com/images/I/one.jpg" {
		t.Errorf("first image = %q", first.ImageURL)
	}
	if first.ProductURL != "https://www.amazon.com.br/dp/B0AAA" {
		t.Errorf("first url = %q", first.ProductURL)
	}

	second := result.Products[1]
	if second.Rating != 4.5 {
		t.Errorf("second rating = %v, want 4.5", second.Rating)
	}
	if second.ProductURL != "https://www.amazon.com.br/dp/B0BBB" {
		t.Errorf("second url should pass through unchanged, got %q", second.ProductURL)
	}

	// The last block has no rating or reviews; both default to zero.
	third := result.Products[2]
	if third.Rating != 0 || third.ReviewCount != 0 {
		t.Errorf("missing rating/reviews should default to 0, got %v / %d", third.Rating, third.ReviewCount)
	}
	if third.ImageURL != "https://www.amazon.com.br/images/I/three.jpg" {
		t.Errorf("host-relative image = %q", third.ImageURL)
	}
}

func TestExtractRating(t *testing.T) {
	tests := []struct {
		name   string
		rating string
		want   float64
	}{
		{name: "comma separator", rating: "4,7 de 5 estrelas", want: 4.7},
		{name: "dot separator", rating: "4.5 out of 5 stars", want: 4.5},
		{name: "integer", rating: "5 de 5 estrelas", want: 5},
		{name: "rounded to one decimal", rating: "4,75 de 5", want: 4.8},
		{name: "clamped above five", rating: "9,9", want: 5},
		{name: "no digits", rating: "estrelas", want: 0},
	}

	ex := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := resultsPage(productBlock("Produto de Teste", tt.rating, "", "", "/dp/X"))
			result, err := ex.Extract(mustParse(t, page))
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if len(result.Products) != 1 {
				t.Fatalf("products = %d, want 1", len(result.Products))
			}
			if got := result.Products[0].Rating; got != tt.want {
				t.Fatalf("rating %q = %v, want %v", tt.rating, got, tt.want)
			}
		})
	}
}

func TestExtractRatingFromAltAttribute(t *testing.T) {
	page := resultsPage(`<div data-component-type="s-search-result">` +
		`<h2><a href="/dp/X"><span>Produto de Teste</span></a></h2>` +
		`<i class="a-icon-star" alt="3,9 de 5 estrelas"></i>` +
		`</div>`)

	ex := newTestExtractor(t)
	result, err := ex.Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := result.Products[0].Rating; got != 3.9 {
		t.Fatalf("rating from alt = %v, want 3.9", got)
	}
}

func TestExtractReviewCount(t *testing.T) {
	tests := []struct {
		name    string
		reviews string
		want    int
	}{
		{name: "thousands dot", reviews: "1.234 avaliações", want: 1234},
		{name: "thousands comma", reviews: "12,345 ratings", want: 12345},
		{name: "plain", reviews: "87 avaliações", want: 87},
		{name: "classificações token", reviews: "432 classificações", want: 432},
		{name: "digits without token ignored", reviews: "2024", want: 0},
		{name: "token without digits ignored", reviews: "sem avaliações ainda? nenhuma", want: 0},
	}

	ex := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := resultsPage(productBlock("Produto de Teste", "", tt.reviews, "", "/dp/X"))
			result, err := ex.Extract(mustParse(t, page))
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got := result.Products[0].ReviewCount; got != tt.want {
				t.Fatalf("reviews %q = %d, want %d", tt.reviews, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "protocol relative", in: "//m.media-amazon.com/img.jpg", want: "https://m.media-amazon.com/img.jpg"},
		{name: "host relative", in: "/dp/B0TEST", want: "https://www.amazon.com.br/dp/B0TEST"},
		{name: "absolute untouched", in: "https://example.com/x", want: "https://example.com/x"},
		{name: "empty stays empty", in: "", want: ""},
	}

	ex := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ex.normalizeURL(tt.in); got != tt.want {
				t.Fatalf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTitleRules(t *testing.T) {
	longTitle := strings.Repeat("x", 250)
	page := resultsPage(
		productBlock("TV", "4,0", "10 avaliações", "", "/dp/SHORT"),
		productBlock(longTitle, "4,0", "10 avaliações", "", "/dp/LONG"),
	)

	ex := newTestExtractor(t)
	result, err := ex.Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if got := len(result.Products); got != 1 {
		t.Fatalf("products = %d, want 1 (short title discarded)", got)
	}
	if got := len([]rune(result.Products[0].Title)); got != 200 {
		t.Fatalf("title length = %d, want 200", got)
	}
	if result.Products[0].Position != 1 {
		t.Fatalf("position = %d, want 1", result.Products[0].Position)
	}
}

func TestExtractCapsAtMaxResults(t *testing.T) {
	blocks := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		blocks = append(blocks, productBlock(
			fmt.Sprintf("Produto número %d", i+1),
			"4,0 de 5 estrelas", "10 avaliações", "", fmt.Sprintf("/dp/B%04d", i),
		))
	}

	ex := newTestExtractor(t)
	result, err := ex.Extract(mustParse(t, resultsPage(blocks...)))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if got := len(result.Products); got != 20 {
		t.Fatalf("products = %d, want 20", got)
	}
	for i, p := range result.Products {
		if p.Position != i+1 {
			t.Fatalf("position[%d] = %d, want %d", i, p.Position, i+1)
		}
	}
	if result.CandidatesSeen != 20 {
		t.Fatalf("candidates seen = %d, want 20", result.CandidatesSeen)
	}
}

func TestSelectorFallbackOrder(t *testing.T) {
	// No data-component-type attributes: only the second candidate matches.
	page := `<html><body>` +
		`<div class="s-result-item" data-asin="B0FALL"><h2><a href="/dp/B0FALL"><span>Produto Alternativo</span></a></h2></div>` +
		`</body></html>`

	ex := newTestExtractor(t)
	result, err := ex.Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(result.Products))
	}
	if result.SelectorUsed != `div.s-result-item[data-asin]` {
		t.Fatalf("selector used = %q", result.SelectorUsed)
	}
}

func TestExtractBlockedByCaptchaForm(t *testing.T) {
	page := `<html><body><form action="/errors/validateCaptcha" method="get">` +
		`<input id="captchacharacters" name="field-keywords"/></form></body></html>`

	ex := newTestExtractor(t)
	_, err := ex.Extract(mustParse(t, page))
	assertBlocked(t, err)
}

func TestExtractBlockedByMarkerText(t *testing.T) {
	page := `<html><body><h4>Digite os caracteres que você vê abaixo</h4></body></html>`

	ex := newTestExtractor(t)
	_, err := ex.Extract(mustParse(t, page))
	assertBlocked(t, err)
}

func assertBlocked(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected blocked error, got nil")
	}
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		t.Fatalf("expected *models.ScrapeError, got %T", err)
	}
	if scrapeErr.Code != models.ErrCodeBlocked {
		t.Fatalf("code = %q, want %q", scrapeErr.Code, models.ErrCodeBlocked)
	}
}

func TestExtractEmptyPageIsNotAnError(t *testing.T) {
	page := `<html><body><p>Nenhum resultado para sua busca.</p></body></html>`

	ex := newTestExtractor(t)
	result, err := ex.Extract(mustParse(t, page))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(result.Products) != 0 {
		t.Fatalf("products = %d, want 0", len(result.Products))
	}
	if result.SelectorUsed != "" {
		t.Fatalf("selector used = %q, want empty", result.SelectorUsed)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	page := resultsPage(
		productBlock("Produto Um", "4,1 de 5 estrelas", "11 avaliações", "//img/one.jpg", "/dp/ONE"),
		productBlock("Produto Dois", "4,2 de 5 estrelas", "22 avaliações", "//img/two.jpg", "/dp/TWO"),
	)

	ex := newTestExtractor(t)
	doc := mustParse(t, page)

	first, err := ex.Extract(doc)
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	second, err := ex.Extract(doc)
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}

	if !reflect.DeepEqual(first.Products, second.Products) {
		t.Fatalf("extraction not idempotent:\nfirst:  %+v\nsecond: %+v", first.Products, second.Products)
	}
}
