// internal/workers/search/sidecar-health/models.go
package sidecarhealth

type Output struct {
	Status      string            `json:"status"`
	Healthy     bool              `json:"healthy"`
	Checks      map[string]string `json:"checks"`
	EngineCount int               `json:"engineCount"`
	CheckedAt   string            `json:"checkedAt"`
}
