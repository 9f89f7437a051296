// pkg/results/pipeline.go
package results

import (
	"time"
)

// Stats summarises one pipeline run for callers that log or export metrics.
type Stats struct {
	Malformed bool                        `json:"malformed,omitempty"`
	Emitted   map[Kind]int                `json:"emitted"`
	Dropped   map[Kind]map[DropReason]int `json:"dropped,omitempty"`
	Skipped   map[Kind]int                `json:"skipped,omitempty"`
}

// TotalDropped counts rejected items across categories.
func (s Stats) TotalDropped() int {
	total := 0
	for _, reasons := range s.Dropped {
		for _, n := range reasons {
			total += n
		}
	}
	return total
}

// Options tune the date heuristic.
type Options struct {
	Location              *time.Location
	PlaceholderYearWindow int
}

// DefaultOptions uses the process time zone and the default year window.
func DefaultOptions() Options {
	return Options{Location: time.Local, PlaceholderYearWindow: DefaultPlaceholderYearWindow}
}

// Pipeline turns a raw engine payload into an ordered canonical sequence.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	filter     *Filter
	normalizer *Normalizer
}

func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		filter:     NewFilter(opts.Location, opts.PlaceholderYearWindow),
		normalizer: NewNormalizer(opts.Location),
	}
}

// Filter exposes the pipeline's quality filter.
func (p *Pipeline) Filter() *Filter { return p.filter }

// Normalize runs the pipeline and discards the stats.
func (p *Pipeline) Normalize(payload interface{}, now time.Time) []Result {
	out, _ := p.Run(payload, now)
	return out
}

// Run emits spelling, related and answer entries first, then admissible
// items of each category in the fixed category order. A malformed payload
// yields an empty sequence.
func (p *Pipeline) Run(payload interface{}, now time.Time) ([]Result, Stats) {
	stats := Stats{
		Emitted: make(map[Kind]int),
		Dropped: make(map[Kind]map[DropReason]int),
		Skipped: make(map[Kind]int),
	}

	resp, err := ParseResponse(payload)
	if err != nil {
		stats.Malformed = true
		return []Result{}, stats
	}
	for kind, n := range resp.Skipped {
		stats.Skipped[kind] = n
	}

	out := make([]Result, 0)
	emit := func(r Result) {
		out = append(out, r)
		stats.Emitted[r.Kind()]++
	}
	admit := func(kind Kind, item Item) bool {
		reason := p.filter.Check(item, now)
		if reason == "" {
			return true
		}
		if stats.Dropped[kind] == nil {
			stats.Dropped[kind] = make(map[DropReason]int)
		}
		stats.Dropped[kind][reason]++
		return false
	}

	if resp.Spelling != nil {
		emit(SuggestionResult{Text: *resp.Spelling})
	}
	for _, text := range resp.Related {
		emit(SuggestionResult{Text: text})
	}
	for _, answer := range resp.Answers {
		emit(answer)
	}

	for _, item := range resp.Web {
		if admit(KindWeb, item) {
			emit(p.normalizer.Web(item))
		}
	}
	for _, item := range resp.Image {
		if admit(KindImage, item) {
			emit(p.normalizer.Image(item))
		}
	}
	for _, item := range resp.Video {
		if admit(KindVideo, item) {
			emit(p.normalizer.Video(item))
		}
	}
	for _, item := range resp.News {
		if admit(KindNews, item) {
			emit(p.normalizer.News(item))
		}
	}

	return out, stats
}

var defaultPipeline = NewPipeline(DefaultOptions())

// Normalize runs the default pipeline.
func Normalize(payload interface{}, now time.Time) []Result {
	return defaultPipeline.Normalize(payload, now)
}
