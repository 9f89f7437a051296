// pkg/results/types.go
package results

// Kind identifies a canonical result variant. The four item categories share
// their names with the raw payload keys.
type Kind string

const (
	KindSuggestion Kind = "suggestion"
	KindAnswer     Kind = "answer"
	KindWeb        Kind = "web"
	KindImage      Kind = "image"
	KindVideo      Kind = "video"
	KindNews       Kind = "news"
)

// Categories is the fixed order in which item categories are emitted.
var Categories = []Kind{KindWeb, KindImage, KindVideo, KindNews}

// Result is one canonical output unit.
type Result interface {
	Kind() Kind
}

type SuggestionResult struct {
	Text string `json:"text"`
}

type AnswerResult struct {
	Title   *string `json:"title"`
	Content string  `json:"content"`
	URL     *string `json:"url"`
}

type WebResult struct {
	Title         *string `json:"title"`
	URL           *string `json:"url"`
	Content       string  `json:"content"`
	Thumbnail     *string `json:"thumbnail,omitempty"`
	PublishedDate *string `json:"publishedDate,omitempty"`
}

type ImageResult struct {
	Title      *string `json:"title"`
	URL        *string `json:"url"`
	ImgSrc     *string `json:"imgSrc,omitempty"`
	Thumbnail  *string `json:"thumbnail,omitempty"`
	Resolution *string `json:"resolution,omitempty"`
}

type VideoResult struct {
	Title         *string     `json:"title"`
	URL           *string     `json:"url"`
	Content       string      `json:"content"`
	Duration      interface{} `json:"duration,omitempty"`
	Views         *string     `json:"views,omitempty"`
	Thumbnail     *string     `json:"thumbnail,omitempty"`
	PublishedDate *string     `json:"publishedDate,omitempty"`
}

type NewsResult struct {
	Title         *string `json:"title"`
	URL           *string `json:"url"`
	Content       string  `json:"content"`
	Thumbnail     *string `json:"thumbnail,omitempty"`
	PublishedDate *string `json:"publishedDate,omitempty"`
}

func (SuggestionResult) Kind() Kind { return KindSuggestion }
func (AnswerResult) Kind() Kind     { return KindAnswer }
func (WebResult) Kind() Kind        { return KindWeb }
func (ImageResult) Kind() Kind      { return KindImage }
func (VideoResult) Kind() Kind      { return KindVideo }
func (NewsResult) Kind() Kind       { return KindNews }

// Tagged pairs a result with its variant name so a serialized sequence stays
// self-describing.
type Tagged struct {
	Type   Kind   `json:"type"`
	Result Result `json:"result"`
}

// Tag wraps every result in a Tagged envelope, preserving order.
func Tag(rs []Result) []Tagged {
	out := make([]Tagged, 0, len(rs))
	for _, r := range rs {
		out = append(out, Tagged{Type: r.Kind(), Result: r})
	}
	return out
}
