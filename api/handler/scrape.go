package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Eliedson1979/amazon-scraper/extractor"
	"github.com/Eliedson1979/amazon-scraper/models"
	"github.com/Eliedson1979/amazon-scraper/scraper"
)

// maxKeywordLen caps the search term before it reaches the fetcher.
const maxKeywordLen = 100

// Scrape returns a handler for GET /api/scrape?keyword=<term>.
//
// Orchestration flow:
//  1. Validate and bound the keyword.
//  2. Fetcher.Fetch → raw HTML (retries happen inside).
//  3. extractor.Parse → document.
//  4. Extractor.Extract → product records.
//  5. Respond with the envelope, diagnostics only when includeDiagnostics.
func Scrape(f *scraper.Fetcher, ex *extractor.Extractor, m *scraper.Metrics, includeDiagnostics bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		keyword := strings.TrimSpace(c.Query("keyword"))
		if keyword == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   "keyword query parameter is required",
			})
			return
		}
		if runes := []rune(keyword); len(runes) > maxKeywordLen {
			keyword = string(runes[:maxKeywordLen])
		}

		fetched, err := f.Fetch(c.Request.Context(), keyword)
		if err != nil {
			respondError(c, err, includeDiagnostics)
			return
		}

		doc, err := extractor.Parse(fetched.HTML)
		if err != nil {
			respondError(c, err, includeDiagnostics)
			return
		}

		result, err := ex.Extract(doc)
		if err != nil {
			var scrapeErr *models.ScrapeError
			if errors.As(err, &scrapeErr) && scrapeErr.Code == models.ErrCodeBlocked {
				m.IncBlocked()
			}
			respondError(c, err, includeDiagnostics)
			return
		}

		if len(result.Products) == 0 {
			m.IncEmptyPage()
		}
		m.AddProducts(len(result.Products))

		resp := models.ScrapeResponse{
			Success:       true,
			Keyword:       keyword,
			ResultsCount:  len(result.Products),
			ExecutionTime: executionTime(start),
			Data:          result.Products,
		}
		if includeDiagnostics {
			resp.Diagnostics = &models.Diagnostics{
				Attempts:       fetched.Attempts,
				BodyBytes:      len(fetched.HTML),
				SelectorUsed:   result.SelectorUsed,
				CandidatesSeen: result.CandidatesSeen,
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error body. Underlying details are exposed only in
// debug mode, never in release.
func respondError(c *gin.Context, err error, includeDetails bool) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err)
	}

	body := models.ErrorResponse{
		Success: false,
		Error:   scrapeErr.Message,
	}
	if includeDetails && scrapeErr.Err != nil {
		body.Details = scrapeErr.Err.Error()
	}

	c.JSON(mapErrorToStatus(scrapeErr), body)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeConnection, models.ErrCodeUnavailable:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusRequestTimeout // 408
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeBlocked:
		return http.StatusForbidden // 403
	default:
		return http.StatusInternalServerError // 500
	}
}

func executionTime(start time.Time) string {
	return strconv.FormatInt(time.Since(start).Milliseconds(), 10) + "ms"
}
