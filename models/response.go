package models

// ScrapeResponse is the success body for GET /api/scrape.
type ScrapeResponse struct {
	Success bool `json:"success"`

	// Keyword echoes the (trimmed, truncated) search term that was used.
	Keyword string `json:"keyword"`

	// ResultsCount is len(Data).
	ResultsCount int `json:"resultsCount"`

	// ExecutionTime is the end-to-end duration, formatted as "<ms>ms".
	ExecutionTime string `json:"executionTime"`

	Data []Product `json:"data"`

	// Diagnostics is included only when the server runs in debug mode.
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// Diagnostics carries internal details about one scrape, for debugging only.
type Diagnostics struct {
	// Attempts is how many fetch attempts the request consumed.
	Attempts int `json:"attempts"`

	// BodyBytes is the size of the fetched HTML.
	BodyBytes int `json:"bodyBytes"`

	// SelectorUsed is the candidate selector that matched the result list,
	// or empty when no selector matched.
	SelectorUsed string `json:"selectorUsed"`

	// CandidatesSeen is how many result containers the extractor walked.
	CandidatesSeen int `json:"candidatesSeen"`
}

// ErrorResponse is the body for all non-2xx API responses.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`

	// Details carries the underlying error message; omitted in release mode.
	Details string `json:"details,omitempty"`
}

// InfoResponse is the body for GET /.
type InfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Endpoints map[string]string `json:"endpoints"`
}
