// pkg/registry/schema.go
package registry

// Manifest maps an engine name to what its 4get scraper accepts and emits.
type Manifest map[string]EngineSpec

type EngineSpec struct {
	Inputs       []string                `json:"inputs"`
	Capabilities Capabilities            `json:"capabilities"`
	Outputs      map[string]FieldSupport `json:"outputs"`
}

type Capabilities struct {
	Paging   bool `json:"paging"`
	Time     bool `json:"time"`
	NSFW     bool `json:"nsfw"`
	Language bool `json:"language"`
	Country  bool `json:"country"`
}

// FieldSupport records, per output field, whether the scraper fills it.
type FieldSupport map[string]bool

// EngineIndex is the sidecar's manifest.json: engine name to scraper file
// and class.
type EngineIndex map[string]IndexEntry

type IndexEntry struct {
	File  string `json:"file"`
	Class string `json:"class"`
}

const manifestSchema = `{
  "type": "object",
  "propertyNames": {"pattern": "^[a-z0-9_]+$"},
  "additionalProperties": {
    "type": "object",
    "required": ["inputs", "capabilities", "outputs"],
    "properties": {
      "inputs": {"type": "array", "items": {"type": "string"}},
      "capabilities": {
        "type": "object",
        "required": ["paging", "time", "nsfw", "language", "country"],
        "properties": {
          "paging": {"type": "boolean"},
          "time": {"type": "boolean"},
          "nsfw": {"type": "boolean"},
          "language": {"type": "boolean"},
          "country": {"type": "boolean"}
        },
        "additionalProperties": false
      },
      "outputs": {
        "type": "object",
        "additionalProperties": {
          "type": "object",
          "additionalProperties": {"type": "boolean"}
        }
      }
    }
  }
}`
