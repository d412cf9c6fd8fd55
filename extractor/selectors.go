package extractor

// Candidate selectors for product-result containers, tried in order; the
// first one yielding at least one element wins. The list covers the markup
// variants the storefront serves for search results.
var defaultContainerSelectors = []string{
	`div[data-component-type="s-search-result"]`,
	`div.s-result-item[data-asin]`,
	`div.s-search-results div[data-asin]`,
	`[data-cel-widget^="search_result_"]`,
}

// Title sub-selectors, highest priority first.
var defaultTitleSelectors = []string{
	`h2 a span`,
	`h2 span`,
	`span.a-size-medium`,
	`span.a-size-base-plus`,
	`h2`,
}

// Rating sub-selectors. The offscreen alt span carries text like
// "4,7 de 5 estrelas"; the icon variants expose the same string via their
// inner span or an alt attribute.
var defaultRatingSelectors = []string{
	`span.a-icon-alt`,
	`i.a-icon-star-small`,
	`i.a-icon-star`,
}

// Review-count sub-selectors. All matches are scanned; the first whose text
// contains both a digit and a review token is used.
var defaultReviewSelectors = []string{
	`span.a-size-base.s-underline-text`,
	`a[href*="customerReviews"]`,
	`span.a-size-base`,
}

// Image sub-selectors.
var defaultImageSelectors = []string{
	`img.s-image`,
	`img`,
}

// Lazy-load attributes tried when an image has no usable src.
var lazyImageAttrs = []string{"data-src", "data-image-source"}

// Product-link sub-selectors.
var defaultLinkSelectors = []string{
	`h2 a`,
	`a.a-link-normal.s-no-outline`,
	`a.a-link-normal`,
}

// Captcha-form markers; any match means the page is a bot challenge, not a
// results page.
var defaultCaptchaSelectors = []string{
	`form[action*="validateCaptcha"]`,
	`input#captchacharacters`,
}
