// internal/workers/search/fourget-search/models.go
package fourgetsearch

import (
	"fourget-bridge/pkg/results"
)

type Input struct {
	RequestID string                 `json:"requestId,omitempty"`
	Engine    string                 `json:"engine"`
	Query     string                 `json:"query"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

type Output struct {
	RequestID string           `json:"requestId"`
	Engine    string           `json:"engine"`
	Results   []results.Tagged `json:"results"`
	Stats     results.Stats    `json:"stats"`
}
