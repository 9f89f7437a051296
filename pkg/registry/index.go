// pkg/registry/index.go
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// engineAliases renames scrapers whose file name differs from the engine
// name clients use.
var engineAliases = map[string]string{
	"ddg": "duckduckgo",
}

// BuildEngineIndex lists the scrapers in dir for the sidecar. sc.php is
// skipped unless it declares class sc.
func BuildEngineIndex(dir string) (EngineIndex, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("scraper directory: %w", err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.php"))
	if err != nil {
		return nil, err
	}

	idx := make(EngineIndex, len(paths))
	for _, path := range paths {
		base := filepath.Base(path)
		if base == "sc.php" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", base, err)
			}
			if !strings.Contains(string(data), "class sc") {
				continue
			}
		}

		name := strings.TrimSuffix(base, ".php")
		entry := IndexEntry{File: "scraper/" + base, Class: name}
		if alias, ok := engineAliases[name]; ok {
			name = alias
		}
		idx[name] = entry
	}
	return idx, nil
}
