// internal/workers/search/engine-filters/models.go
package enginefilters

import "fourget-bridge/internal/common/sidecar"

type Input struct {
	Engine string `json:"engine"`
	// Refresh drops the cached filters before the lookup.
	Refresh bool `json:"refresh,omitempty"`
}

type Output struct {
	Engine   string            `json:"engine"`
	Filters  sidecar.Filters   `json:"filters"`
	Defaults map[string]string `json:"defaults"`
}
