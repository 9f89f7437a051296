// pkg/results/filter.go
package results

import (
	"strings"
	"time"
)

// DefaultPlaceholderYearWindow is how many years before the reference year a
// midnight-exact timestamp is still treated as a placeholder. Genuine recent
// midnight timestamps are dropped along with the placeholders.
const DefaultPlaceholderYearWindow = 1

// BrokenThumbnailPatterns are matched case-insensitively against thumbnail URLs.
var BrokenThumbnailPatterns = []string{
	"data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP",
	"placeholder",
	"empty",
	"broken",
	"404",
	"1x1",
	"0x0",
	"transparent.gif",
}

// Filter decides per-item admissibility.
type Filter struct {
	patterns   []string
	yearWindow int
	location   *time.Location
}

// NewFilter creates a filter using the given time zone for the midnight check.
// A nil location means time.Local; a negative window means the default.
func NewFilter(loc *time.Location, yearWindow int) *Filter {
	if loc == nil {
		loc = time.Local
	}
	if yearWindow < 0 {
		yearWindow = DefaultPlaceholderYearWindow
	}
	patterns := make([]string, len(BrokenThumbnailPatterns))
	for i, p := range BrokenThumbnailPatterns {
		patterns[i] = strings.ToLower(p)
	}
	return &Filter{patterns: patterns, yearWindow: yearWindow, location: loc}
}

// IsBrokenThumbnail reports whether the item's thumbnail is a known
// placeholder or has an unusable shape.
func (f *Filter) IsBrokenThumbnail(item Item) bool {
	thumb := item.Fields().Thumb
	switch thumb.Shape {
	case ThumbAbsent:
		return false
	case ThumbMalformed:
		return true
	}
	u := strings.ToLower(thumb.URL)
	for _, p := range f.patterns {
		if strings.Contains(u, p) {
			return true
		}
	}
	return false
}

// IsInvalidDate reports whether the item's timestamp is unparseable, a
// midnight placeholder within the year window, or in the future.
func (f *Filter) IsInvalidDate(item Item, now time.Time) bool {
	date := item.Fields().Date
	switch date.State {
	case DateAbsent:
		return false
	case DateUnparseable:
		return true
	}
	t := time.Unix(date.Unix, 0).In(f.location)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 &&
		t.Year() >= now.In(f.location).Year()-f.yearWindow {
		return true
	}
	return t.After(now)
}

// Admissible is true when neither check flags the item.
func (f *Filter) Admissible(item Item, now time.Time) bool {
	return !f.IsBrokenThumbnail(item) && !f.IsInvalidDate(item, now)
}

// DropReason names why an item was rejected.
type DropReason string

const (
	DropBrokenThumbnail DropReason = "broken_thumbnail"
	DropInvalidDate     DropReason = "invalid_date"
)

// Check returns the first failing check, or "" when the item is admissible.
func (f *Filter) Check(item Item, now time.Time) DropReason {
	if f.IsBrokenThumbnail(item) {
		return DropBrokenThumbnail
	}
	if f.IsInvalidDate(item, now) {
		return DropInvalidDate
	}
	return ""
}
