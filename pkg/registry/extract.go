// pkg/registry/extract.go
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	getParamRe     = regexp.MustCompile(`\$get\s*\[\s*["']([a-zA-Z0-9_]+)["']\s*\]`)
	filterParamRe  = regexp.MustCompile(`(?m)^\s*["']([a-zA-Z0-9_]+)["']\s*=>\s*\[`)
	lineCommentRe  = regexp.MustCompile(`//.*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	thumbURLNullRe = regexp.MustCompile(`(?i)["']url["']\s*=>\s*null`)
	emptyValueRe   = regexp.MustCompile(`(?i)^(null\b|\[\s*\]|array\s*\(\s*\))`)
)

// filterMetaKeys are keys of a filter definition, not request parameters.
var filterMetaKeys = map[string]bool{"option": true}

// KnownFields are the result fields looked for in scraper output.
var KnownFields = []string{"title", "url", "description", "thumb", "date", "duration", "views", "author", "source"}

// outputMethods maps scraper methods to the result categories they can fill.
var outputMethods = []struct {
	method     string
	categories []string
}{
	{"web", []string{"web", "image", "video", "news"}},
	{"image", []string{"image"}},
	{"video", []string{"video", "livestream", "reel"}},
	{"news", []string{"news"}},
	{"music", []string{"song", "album", "playlist", "podcast"}},
}

var fieldPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(KnownFields))
	for _, f := range KnownFields {
		out[f] = regexp.MustCompile(`["']` + f + `["']\s*=>\s*`)
	}
	return out
}()

// ExtractEngine derives an engine spec from the PHP source of a scraper.
func ExtractEngine(source string) EngineSpec {
	inputs := extractInputs(source)
	return EngineSpec{
		Inputs:       inputs,
		Capabilities: deriveCapabilities(inputs),
		Outputs:      extractOutputs(source),
	}
}

// ExtractDir scans every *.php scraper in dir. The engine name is the file
// name without its extension.
func ExtractDir(dir string) (Manifest, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("scraper directory: %w", err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.php"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	m := make(Manifest, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".php")
		m[name] = ExtractEngine(string(data))
	}
	return m, nil
}

func extractInputs(source string) []string {
	seen := make(map[string]struct{})
	for _, match := range getParamRe.FindAllStringSubmatch(source, -1) {
		seen[match[1]] = struct{}{}
	}
	if body, ok := functionBody(source, "getfilters"); ok {
		for _, match := range filterParamRe.FindAllStringSubmatch(body, -1) {
			if !filterMetaKeys[match[1]] {
				seen[match[1]] = struct{}{}
			}
		}
	}

	inputs := make([]string, 0, len(seen))
	for in := range seen {
		inputs = append(inputs, in)
	}
	sort.Strings(inputs)
	return inputs
}

func deriveCapabilities(inputs []string) Capabilities {
	has := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		has[in] = true
	}
	return Capabilities{
		Paging:   has["npt"] || has["offset"] || has["cursor"],
		Time:     has["time"] || has["date"] || has["newer"] || has["older"],
		NSFW:     has["nsfw"] || has["safe"] || has["safesearch"],
		Language: has["lang"] || has["language"],
		Country:  has["country"] || has["region"],
	}
}

func extractOutputs(source string) map[string]FieldSupport {
	outputs := make(map[string]FieldSupport)
	for _, om := range outputMethods {
		body, ok := functionBody(source, om.method)
		if !ok {
			continue
		}
		for _, category := range om.categories {
			fields := fieldSupport(body, category)
			if len(fields) == 0 {
				continue
			}
			if existing, ok := outputs[category]; ok {
				for f, v := range fields {
					existing[f] = v
				}
				continue
			}
			outputs[category] = fields
		}
	}
	return outputs
}

// fieldSupport inspects the field assignments of body. A field assigned
// null, [] or array(), or a thumb array whose url is null, is unsupported.
// Nothing is reported unless the body mentions the category as a string
// literal.
func fieldSupport(body, category string) FieldSupport {
	if !strings.Contains(body, `"`+category+`"`) && !strings.Contains(body, `'`+category+`'`) {
		return nil
	}

	fields := make(FieldSupport)
	for _, field := range KnownFields {
		matches := fieldPatterns[field].FindAllStringIndex(body, -1)
		if len(matches) == 0 {
			continue
		}

		supported := true
		for _, loc := range matches {
			value := body[loc[1]:]
			if emptyValueRe.MatchString(value) {
				supported = false
			}
			if field == "thumb" && strings.HasPrefix(value, "[") {
				if len(value) > 200 {
					value = value[:200]
				}
				if thumbURLNullRe.MatchString(value) {
					supported = false
				}
			}
		}
		fields[field] = supported
	}
	return fields
}

// functionBody returns the body of the first function named name, found by
// brace matching from the opening brace, with comments stripped.
func functionBody(source, name string) (string, bool) {
	re := regexp.MustCompile(`(?i)function\s+` + regexp.QuoteMeta(name) + `\s*\(`)
	loc := re.FindStringIndex(source)
	if loc == nil {
		return "", false
	}

	open := strings.IndexByte(source[loc[1]:], '{')
	if open < 0 {
		return "", false
	}
	open += loc[1]

	depth := 1
	i := open + 1
	for depth > 0 && i < len(source) {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		i++
	}

	// An unbalanced body runs to the end of the file minus its last byte.
	end := i - 1
	if end < open+1 {
		end = open + 1
	}
	body := source[open+1 : end]

	body = lineCommentRe.ReplaceAllString(body, "")
	body = blockCommentRe.ReplaceAllString(body, "")
	return body, true
}
