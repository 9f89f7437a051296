// internal/workers/search/fourget-search/params.go
package fourgetsearch

import (
	"strings"
	"time"

	"fourget-bridge/internal/common/config"
	"fourget-bridge/internal/common/sidecar"

	"github.com/spf13/cast"
)

var nsfwLevels = map[int]string{0: "yes", 1: "maybe", 2: "no"}

var timeRanges = map[string]time.Duration{
	"day":   24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

var yandexLanguages = map[string]bool{
	"en": true, "ru": true, "be": true, "fr": true, "de": true,
	"id": true, "kk": true, "tt": true, "tr": true, "uk": true,
}

// engineOverrides copies engine-specific job params onto 4get params
// (4get name -> job param name).
var engineOverrides = map[string]map[string]string{
	"google":     {"hl": "google_language", "gl": "google_country"},
	"brave":      {"spellcheck": "brave_spellcheck", "country": "brave_country"},
	"duckduckgo": {"extendedsearch": "ddg_extendedsearch", "country": "ddg_region"},
	"yandex":     {"lang": "yandex_language"},
	"marginalia": {"recent": "marginalia_recent", "intitle": "marginalia_intitle"},
	"baidu":      {"category": "baidu_category"},
}

// PageSize is the offset step per result page.
const PageSize = 10

// MapParams builds the 4get parameters for one search. Filter defaults come
// first, then the generic params, then engine overrides, then configured
// overrides and fixed params.
func MapParams(engine, query string, params map[string]interface{}, filters sidecar.Filters, overrides config.EngineConfig, now time.Time) map[string]interface{} {
	engine = strings.ToLower(engine)
	out := map[string]interface{}{"s": query}

	for _, name := range filters.Names() {
		if def, ok := filters[name].Default(); ok {
			out[name] = def
		}
	}

	if v, ok := params["safesearch"]; ok {
		out["nsfw"] = nsfwLevel(v)
	}

	if lang, ok := stringParam(params, "language"); ok {
		mapLanguage(out, engine, lang)
	}

	timeRange, hasTimeRange := stringParam(params, "time_range")
	if span, ok := timeRanges[timeRange]; hasTimeRange && ok {
		out["newer"] = now.Add(-span).Unix()
		if filters.Has("older") {
			out["older"] = now.Unix()
		}
	}

	if v, ok := params["pageno"]; ok {
		if page := cast.ToInt(v); page > 1 {
			out["offset"] = (page - 1) * PageSize
		}
	}

	if engine == "marginalia" && hasTimeRange {
		out["recent"] = "no"
	}
	copyParams(out, params, engineOverrides[engine])
	copyParams(out, params, overrides.ParamMap)

	for k, v := range overrides.FixedParams {
		out[k] = v
	}
	return out
}

func nsfwLevel(v interface{}) string {
	level, err := cast.ToIntE(v)
	if err != nil {
		return "yes"
	}
	if s, ok := nsfwLevels[level]; ok {
		return s
	}
	return "yes"
}

// mapLanguage splits ll-CC into lang and country. A bare language gets
// country us. Yandex takes a fixed set of languages and no country.
func mapLanguage(out map[string]interface{}, engine, tag string) {
	parts := strings.Split(tag, "-")
	lang := parts[0]
	country := "us"
	if len(parts) > 1 {
		country = parts[1]
	}

	if engine == "yandex" {
		if yandexLanguages[lang] {
			out["lang"] = lang
		}
		return
	}
	out["lang"] = lang
	out["country"] = strings.ToLower(country)
}

func copyParams(out, params map[string]interface{}, mapping map[string]string) {
	for target, source := range mapping {
		if v, ok := params[source]; ok {
			out[target] = v
		}
	}
}

// stringParam returns a non-empty string param.
func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", false
	}
	s := cast.ToString(v)
	return s, s != ""
}
