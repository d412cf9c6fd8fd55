// Package extractor turns a parsed search-results document into a bounded
// list of product records. Extraction is defensive: each candidate element
// is handled independently and a malformed one is skipped, never fatal.
package extractor

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/Eliedson1979/amazon-scraper/config"
	"github.com/Eliedson1979/amazon-scraper/models"
)

const (
	minTitleLen = 3
	maxTitleLen = 200
)

// decimalRe matches the first decimal number in a rating text, accepting
// either "," or "." as the separator ("4,7 de 5 estrelas" → "4,7").
var decimalRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// digitRunRe matches the integer left after thousands separators are stripped.
var digitRunRe = regexp.MustCompile(`\d+`)

// compiledSelector keeps the source string alongside its compiled form so
// diagnostics can report which candidate matched.
type compiledSelector struct {
	raw string
	sel cascadia.Selector
}

// Extractor extracts product records from a search-results document.
// It is read-only after construction and safe for concurrent use.
type Extractor struct {
	cfg config.ExtractorConfig

	containers []compiledSelector
	titles     []cascadia.Selector
	ratings    []cascadia.Selector
	reviews    []cascadia.Selector
	images     []cascadia.Selector
	links      []cascadia.Selector
	captcha    []cascadia.Selector

	reviewTokens   []string
	blockedMarkers []string
}

// Result is the outcome of one extraction pass.
type Result struct {
	// Products holds at most cfg.MaxResults accepted records, positions 1..N.
	Products []models.Product

	// SelectorUsed is the container selector that matched, empty when none did.
	SelectorUsed string

	// CandidatesSeen is how many container elements were walked (capped).
	CandidatesSeen int
}

// New builds an extractor, compiling all selector lists up front so that a
// bad selector fails at startup rather than per request.
func New(cfg config.ExtractorConfig) (*Extractor, error) {
	containers, err := compileNamed(defaultContainerSelectors)
	if err != nil {
		return nil, err
	}

	ex := &Extractor{
		cfg:            cfg,
		containers:     containers,
		blockedMarkers: lowerAll(cfg.BlockedMarkers),
		reviewTokens:   lowerAll(cfg.ReviewTokens),
	}

	for _, group := range []struct {
		dst *[]cascadia.Selector
		src []string
	}{
		{&ex.titles, defaultTitleSelectors},
		{&ex.ratings, defaultRatingSelectors},
		{&ex.reviews, defaultReviewSelectors},
		{&ex.images, defaultImageSelectors},
		{&ex.links, defaultLinkSelectors},
		{&ex.captcha, defaultCaptchaSelectors},
	} {
		sels, err := compile(group.src)
		if err != nil {
			return nil, err
		}
		*group.dst = sels
	}

	return ex, nil
}

// Parse builds a queryable document from raw HTML.
func Parse(rawHTML string) (*goquery.Document, error) {
	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return goquery.NewDocumentFromNode(node), nil
}

// Extract walks the document and returns the accepted product records in
// source order. A document with no matching containers and no block markers
// yields an empty result, not an error. Extract never mutates the document,
// so repeated calls over the same document are identical.
func (ex *Extractor) Extract(doc *goquery.Document) (*Result, error) {
	var chosen compiledSelector
	var nodes *goquery.Selection
	for _, c := range ex.containers {
		if s := doc.FindMatcher(c.sel); s.Length() > 0 {
			chosen, nodes = c, s
			break
		}
	}

	if nodes == nil {
		if ex.blocked(doc) {
			return nil, models.NewScrapeError(models.ErrCodeBlocked, nil)
		}
		return &Result{Products: []models.Product{}}, nil
	}

	limit := nodes.Length()
	if limit > ex.cfg.MaxResults {
		limit = ex.cfg.MaxResults
	}

	products := make([]models.Product, 0, limit)
	nodes.Slice(0, limit).Each(func(i int, s *goquery.Selection) {
		p, ok := ex.extractOne(i, s)
		if !ok {
			return
		}
		p.Position = len(products) + 1
		products = append(products, p)
	})

	slog.Debug("extraction finished",
		slog.String("selector", chosen.raw),
		slog.Int("candidates", limit),
		slog.Int("accepted", len(products)),
	)

	return &Result{
		Products:       products,
		SelectorUsed:   chosen.raw,
		CandidatesSeen: limit,
	}, nil
}

// extractOne derives a record from a single candidate element. Any panic
// from unexpected markup is contained here and discards only this element.
func (ex *Extractor) extractOne(index int, s *goquery.Selection) (p models.Product, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("candidate element skipped",
				slog.Int("index", index),
				slog.Any("panic", r),
			)
			ok = false
		}
	}()

	title, ok := ex.extractTitle(s)
	if !ok {
		return models.Product{}, false
	}

	return models.Product{
		Title:       title,
		Rating:      ex.extractRating(s),
		ReviewCount: ex.extractReviewCount(s),
		ImageURL:    ex.normalizeURL(ex.extractImageURL(s)),
		ProductURL:  ex.normalizeURL(ex.extractProductURL(s)),
	}, true
}

// extractTitle returns the first non-empty title text of at least three
// characters, truncated to 200. A missing title rejects the whole record.
func (ex *Extractor) extractTitle(s *goquery.Selection) (string, bool) {
	for _, sel := range ex.titles {
		text := strings.TrimSpace(s.FindMatcher(sel).First().Text())
		if text == "" {
			continue
		}
		if len([]rune(text)) < minTitleLen {
			return "", false
		}
		return truncate(text, maxTitleLen), true
	}
	return "", false
}

// extractRating reads the star rating from the first matching icon or
// offscreen element, falling back to its alt attribute, and returns the
// value rounded to one decimal place. Unparsable ratings default to 0.
func (ex *Extractor) extractRating(s *goquery.Selection) float64 {
	for _, sel := range ex.ratings {
		node := s.FindMatcher(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(node.Text())
		if text == "" {
			text = strings.TrimSpace(node.AttrOr("alt", ""))
		}
		match := decimalRe.FindString(text)
		if match == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
		if err != nil {
			continue
		}
		if value < 0 {
			value = 0
		}
		if value > 5 {
			value = 5
		}
		return math.Round(value*10) / 10
	}
	return 0
}

// extractReviewCount scans the review sub-selectors for the first text
// containing both a digit and a review token, strips thousands separators,
// and parses the digit run. Absent counts default to 0.
func (ex *Extractor) extractReviewCount(s *goquery.Selection) int {
	count := 0
	for _, sel := range ex.reviews {
		found := false
		s.FindMatcher(sel).EachWithBreak(func(_ int, node *goquery.Selection) bool {
			text := strings.TrimSpace(node.Text())
			if text == "" {
				text = strings.TrimSpace(node.AttrOr("aria-label", ""))
			}
			if !containsDigit(text) || !ex.containsReviewToken(text) {
				return true
			}
			stripped := strings.NewReplacer(".", "", ",", "").Replace(text)
			run := digitRunRe.FindString(stripped)
			if run == "" {
				return true
			}
			n, err := strconv.Atoi(run)
			if err != nil {
				return true
			}
			count = n
			found = true
			return false
		})
		if found {
			return count
		}
	}
	return 0
}

// extractImageURL reads src from the first matching image, falling back to
// the lazy-load data attributes.
func (ex *Extractor) extractImageURL(s *goquery.Selection) string {
	for _, sel := range ex.images {
		node := s.FindMatcher(sel).First()
		if node.Length() == 0 {
			continue
		}
		if src := strings.TrimSpace(node.AttrOr("src", "")); src != "" {
			return src
		}
		for _, attr := range lazyImageAttrs {
			if src := strings.TrimSpace(node.AttrOr(attr, "")); src != "" {
				return src
			}
		}
	}
	return ""
}

// extractProductURL reads the href of the first matching link.
func (ex *Extractor) extractProductURL(s *goquery.Selection) string {
	for _, sel := range ex.links {
		node := s.FindMatcher(sel).First()
		if node.Length() == 0 {
			continue
		}
		if href := strings.TrimSpace(node.AttrOr("href", "")); href != "" {
			return href
		}
	}
	return ""
}

// normalizeURL absolutizes protocol-relative and host-relative URLs against
// the configured base. Absolute URLs pass through; empty stays empty.
func (ex *Extractor) normalizeURL(u string) string {
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "/"):
		return ex.cfg.BaseURL + u
	default:
		return u
	}
}

// blocked reports whether the document is a captcha or access-denied page
// rather than a results page with no results.
func (ex *Extractor) blocked(doc *goquery.Document) bool {
	for _, sel := range ex.captcha {
		if doc.FindMatcher(sel).Length() > 0 {
			return true
		}
	}
	text := strings.ToLower(doc.Text())
	for _, marker := range ex.blockedMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func (ex *Extractor) containsReviewToken(text string) bool {
	lower := strings.ToLower(text)
	for _, token := range ex.reviewTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func containsDigit(text string) bool {
	return strings.ContainsFunc(text, unicode.IsDigit)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func compile(selectors []string) ([]cascadia.Selector, error) {
	out := make([]cascadia.Selector, 0, len(selectors))
	for _, raw := range selectors {
		sel, err := cascadia.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile selector %q: %w", raw, err)
		}
		out = append(out, sel)
	}
	return out, nil
}

func compileNamed(selectors []string) ([]compiledSelector, error) {
	out := make([]compiledSelector, 0, len(selectors))
	for _, raw := range selectors {
		sel, err := cascadia.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile selector %q: %w", raw, err)
		}
		out = append(out, compiledSelector{raw: raw, sel: sel})
	}
	return out, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}
