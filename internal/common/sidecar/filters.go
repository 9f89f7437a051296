// internal/common/sidecar/filters.go
package sidecar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Filter is one entry of an engine's getfilters() answer. Options keeps the
// option keys in the order the scraper declared them; the first one is the
// scraper's default.
type Filter struct {
	Display string   `json:"display"`
	Options []string `json:"options,omitempty"`
}

// Default returns the first declared option.
func (f Filter) Default() (string, bool) {
	if len(f.Options) == 0 {
		return "", false
	}
	return f.Options[0], true
}

// Filters maps filter names (nsfw, country, time, ...) to their definition.
type Filters map[string]Filter

// Names returns the filter names in sorted order.
func (fs Filters) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (fs Filters) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// ParseFilters decodes a filters.php body. PHP encodes an empty array as
// [], which yields an empty set. Entries that are not objects, or whose
// display is not a string, are ignored.
func ParseFilters(data []byte) (Filters, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '[' {
		var list []json.RawMessage
		if len(data) > 0 {
			if err := json.Unmarshal(data, &list); err != nil {
				return nil, fmt.Errorf("decode filters: %w", err)
			}
		}
		return Filters{}, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}

	out := make(Filters, len(entries))
	for name, raw := range entries {
		var entry struct {
			Display json.RawMessage `json:"display"`
			Option  json.RawMessage `json:"option"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		f := Filter{}
		if len(entry.Display) > 0 {
			if err := json.Unmarshal(entry.Display, &f.Display); err != nil {
				continue
			}
		}
		options, err := objectKeys(entry.Option)
		if err != nil {
			return nil, fmt.Errorf("decode filter %q: %w", name, err)
		}
		f.Options = options
		out[name] = f
	}
	return out, nil
}

// objectKeys lists the keys of a JSON object in document order. Anything
// other than an object yields nil.
func objectKeys(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
