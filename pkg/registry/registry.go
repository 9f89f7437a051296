// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"fourget-bridge/internal/common/errors"
	"fourget-bridge/internal/common/validation"
)

var manifestValidator = sync.OnceValues(func() (*validation.Validator, error) {
	return validation.CompileJSON([]byte(manifestSchema))
})

// LoadManifest reads and validates a capability manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest validates data against the manifest schema and decodes it.
func ParseManifest(data []byte) (Manifest, error) {
	v, err := manifestValidator()
	if err != nil {
		return nil, err
	}
	if res := v.ValidateJSON(data); !res.Valid {
		return nil, errors.NewManifestInvalidError(res.Error())
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewManifestInvalidError(err.Error())
	}
	return m, nil
}

// Engine looks an engine up by name, case-insensitively.
func (m Manifest) Engine(name string) (EngineSpec, bool) {
	spec, ok := m[strings.ToLower(name)]
	return spec, ok
}

// Names returns the engine names in sorted order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supports reports whether engine emits results of category. An engine whose
// outputs could not be extracted is assumed to support every category.
func (m Manifest) Supports(engine, category string) bool {
	spec, ok := m.Engine(engine)
	if !ok {
		return false
	}
	if len(spec.Outputs) == 0 {
		return true
	}
	_, ok = spec.Outputs[category]
	return ok
}

// Write encodes m as indented JSON.
func (m Manifest) Write(w io.Writer) error {
	return writeJSON(w, m, "  ")
}

// Save writes m to path, creating parent directories.
func (m Manifest) Save(path string) error {
	return saveJSON(path, func(w io.Writer) error { return m.Write(w) })
}

// Write encodes the index the way the sidecar's PHP generator does.
func (idx EngineIndex) Write(w io.Writer) error {
	return writeJSON(w, idx, "    ")
}

func (idx EngineIndex) Save(path string) error {
	return saveJSON(path, func(w io.Writer) error { return idx.Write(w) })
}

func writeJSON(w io.Writer, v interface{}, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	return enc.Encode(v)
}

func saveJSON(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
