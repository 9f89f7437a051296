// pkg/results/normalize.go
package results

import (
	"time"
)

const dateLayout = "2006-01-02"

// Normalizer maps admissible typed items to canonical results.
type Normalizer struct {
	location *time.Location
}

// NewNormalizer creates a normalizer formatting dates in loc (time.Local when nil).
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{location: loc}
}

func (n *Normalizer) Web(item WebRaw) WebResult {
	return WebResult{
		Title:         copyText(item.Title),
		URL:           copyText(item.URL),
		Content:       content(item.ItemFields),
		Thumbnail:     thumbnail(item.Thumb),
		PublishedDate: n.publishedDate(item.Date),
	}
}

func (n *Normalizer) News(item NewsRaw) NewsResult {
	return NewsResult{
		Title:         copyText(item.Title),
		URL:           copyText(item.URL),
		Content:       content(item.ItemFields),
		Thumbnail:     thumbnail(item.Thumb),
		PublishedDate: n.publishedDate(item.Date),
	}
}

func (n *Normalizer) Video(item VideoRaw) VideoResult {
	return VideoResult{
		Title:         copyText(item.Title),
		URL:           copyText(item.URL),
		Content:       content(item.ItemFields),
		Duration:      cloneValue(item.Duration),
		Views:         copyText(item.Views),
		Thumbnail:     thumbnail(item.Thumb),
		PublishedDate: n.publishedDate(item.Date),
	}
}

// Image uses the first source as the full-size image and the last one as the
// thumbnail when more than one variant exists.
func (n *Normalizer) Image(item ImageRaw) ImageResult {
	out := ImageResult{
		Title: copyText(item.Title),
		URL:   copyText(item.URL),
	}
	if len(item.Sources) == 0 {
		return out
	}
	largest := item.Sources[0]
	out.ImgSrc = copyText(largest.URL)
	if len(item.Sources) > 1 {
		out.Thumbnail = copyText(item.Sources[len(item.Sources)-1].URL)
	}
	if largest.Width != nil && largest.Height != nil {
		res := *largest.Width + "x" + *largest.Height
		out.Resolution = &res
	}
	return out
}

// content walks description, snippet, content and returns the first
// non-empty value.
func content(f ItemFields) string {
	if v, ok := firstNonEmpty(f.Description, f.Snippet, f.Content); ok {
		return v
	}
	return ""
}

func firstNonEmpty(chain ...*string) (string, bool) {
	for _, v := range chain {
		if v != nil && *v != "" {
			return *v, true
		}
	}
	return "", false
}

func thumbnail(t Thumb) *string {
	switch t.Shape {
	case ThumbString:
		return copyText(&t.URL)
	case ThumbObject:
		if t.URL != "" {
			return copyText(&t.URL)
		}
	}
	return nil
}

func (n *Normalizer) publishedDate(ts Timestamp) *string {
	if ts.State != DateParsed {
		return nil
	}
	d := time.Unix(ts.Unix, 0).In(n.location).Format(dateLayout)
	return &d
}

func copyText(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
