// internal/workers/search/fourget-html-bridge/models.go
package fourgethtmlbridge

import (
	"fourget-bridge/pkg/results"
)

type Input struct {
	RequestID  string `json:"requestId,omitempty"`
	Scraper    string `json:"scraper"`
	Query      string `json:"query"`
	Locale     string `json:"locale,omitempty"`
	SafeSearch int    `json:"safesearch,omitempty"`
}

type Output struct {
	RequestID string           `json:"requestId"`
	Engine    string           `json:"engine"`
	TargetURL string           `json:"targetUrl"`
	Results   []results.Tagged `json:"results"`
	Stats     results.Stats    `json:"stats"`
}
