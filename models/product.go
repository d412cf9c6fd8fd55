// Package models defines the data structures shared between the scraping
// pipeline and the API layer.
package models

// Product is one extracted product summary from a search-results page.
// A Product is never mutated after the extractor builds it.
type Product struct {
	// Title is the product name, 3-200 characters after trimming.
	Title string `json:"title"`

	// Rating is the star rating on a 0.0-5.0 scale, one decimal place.
	// Zero when the page did not expose a parsable rating.
	Rating float64 `json:"rating"`

	// ReviewCount is the number of customer reviews; zero when absent.
	ReviewCount int `json:"reviewCount"`

	// ImageURL is an absolute image URL, or empty.
	ImageURL string `json:"imageUrl"`

	// ProductURL is an absolute product-page URL, or empty.
	ProductURL string `json:"productUrl"`

	// Position is the 1-based rank of the product among the accepted
	// records, in document order.
	Position int `json:"position"`
}
