// pkg/results/raw.go
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// RawResponse is one engine payload as decoded from the sidecar.
type RawResponse map[string]interface{}

// RawItem is one entry of a category list.
type RawItem map[string]interface{}

var (
	ErrMalformedResponse = errors.New("response is not a mapping")
	ErrMalformedCategory = errors.New("category is not a sequence")
)

// ThumbShape describes what an item's "thumb" field held.
type ThumbShape int

const (
	ThumbAbsent ThumbShape = iota
	ThumbString
	ThumbObject
	ThumbMalformed
)

// Thumb is the resolved "thumb" field. URL is the string itself or the
// mapping's "url" entry.
type Thumb struct {
	Shape ThumbShape
	URL   string
}

// DateState describes what an item's "date" field held.
type DateState int

const (
	DateAbsent DateState = iota
	DateParsed
	DateUnparseable
)

// Timestamp is the resolved "date" field, in epoch seconds.
type Timestamp struct {
	State DateState
	Unix  int64
}

// ItemFields are the fields every category shares.
type ItemFields struct {
	Title       *string
	URL         *string
	Description *string
	Snippet     *string
	Content     *string
	Thumb       Thumb
	Date        Timestamp
}

// Fields exposes the shared fields to the quality filter.
func (f ItemFields) Fields() ItemFields { return f }

// Item is any typed raw variant.
type Item interface {
	Fields() ItemFields
}

type WebRaw struct {
	ItemFields
}

type NewsRaw struct {
	ItemFields
}

type VideoRaw struct {
	ItemFields
	Duration interface{}
	Views    *string
}

// ImageSource is one resolution variant of an image, largest first.
type ImageSource struct {
	URL    *string
	Width  *string
	Height *string
}

type ImageRaw struct {
	ItemFields
	Sources []ImageSource
}

// Response is a RawResponse decoded into typed variants. Entries that were
// not mappings are counted in Skipped and otherwise ignored.
type Response struct {
	Spelling *string
	Related  []string
	Answers  []AnswerResult
	Web      []WebRaw
	Image    []ImageRaw
	Video    []VideoRaw
	News     []NewsRaw
	Skipped  map[Kind]int
}

// ParseJSON decodes a sidecar body and parses it.
func ParseJSON(data []byte) (*Response, error) {
	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return ParseResponse(payload)
}

// ParseResponse validates the payload shape and decodes every category into
// its typed variant. A non-mapping payload or any present category that is
// not a sequence fails the whole response.
func ParseResponse(payload interface{}) (*Response, error) {
	raw, ok := asMapping(payload)
	if !ok {
		return nil, ErrMalformedResponse
	}

	lists := make(map[Kind][]interface{}, len(Categories))
	for _, kind := range Categories {
		v, present := raw[string(kind)]
		if !present || v == nil {
			continue
		}
		list, ok := asSequence(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMalformedCategory, kind)
		}
		lists[kind] = list
	}

	resp := &Response{
		Spelling: parseSpelling(raw["spelling"]),
		Related:  parseRelated(raw["related"]),
		Answers:  parseAnswers(raw["answer"]),
		Skipped:  make(map[Kind]int),
	}

	for _, kind := range Categories {
		for _, entry := range lists[kind] {
			item, ok := asMapping(entry)
			if !ok {
				resp.Skipped[kind]++
				continue
			}
			switch kind {
			case KindWeb:
				resp.Web = append(resp.Web, WebRaw{ItemFields: parseFields(item)})
			case KindImage:
				resp.Image = append(resp.Image, parseImage(item))
			case KindVideo:
				resp.Video = append(resp.Video, parseVideo(item))
			case KindNews:
				resp.News = append(resp.News, NewsRaw{ItemFields: parseFields(item)})
			}
		}
	}

	return resp, nil
}

func parseFields(item map[string]interface{}) ItemFields {
	return ItemFields{
		Title:       optionalText(item["title"]),
		URL:         optionalText(item["url"]),
		Description: optionalText(item["description"]),
		Snippet:     optionalText(item["snippet"]),
		Content:     optionalText(item["content"]),
		Thumb:       parseThumb(item["thumb"]),
		Date:        parseDate(item["date"]),
	}
}

func parseVideo(item map[string]interface{}) VideoRaw {
	v := VideoRaw{ItemFields: parseFields(item)}
	if truthy(item["duration"]) {
		v.Duration = cloneValue(item["duration"])
	}
	if truthy(item["views"]) {
		v.Views = optionalText(item["views"])
	}
	return v
}

func parseImage(item map[string]interface{}) ImageRaw {
	img := ImageRaw{ItemFields: parseFields(item)}
	list, _ := asSequence(item["source"])
	for _, entry := range list {
		src, ok := asMapping(entry)
		if !ok {
			img.Sources = append(img.Sources, ImageSource{})
			continue
		}
		s := ImageSource{URL: optionalText(src["url"])}
		if truthy(src["width"]) {
			s.Width = optionalText(src["width"])
		}
		if truthy(src["height"]) {
			s.Height = optionalText(src["height"])
		}
		img.Sources = append(img.Sources, s)
	}
	return img
}

// parseThumb resolves the "thumb" field. Falsy values count as absent; a
// mapping whose url is neither a string nor null is malformed.
func parseThumb(v interface{}) Thumb {
	if !truthy(v) {
		if s, ok := v.(string); ok {
			return Thumb{Shape: ThumbString, URL: s}
		}
		if _, ok := asMapping(v); ok {
			return Thumb{Shape: ThumbObject}
		}
		return Thumb{Shape: ThumbAbsent}
	}
	switch t := v.(type) {
	case string:
		return Thumb{Shape: ThumbString, URL: t}
	default:
		m, ok := asMapping(t)
		if !ok {
			return Thumb{Shape: ThumbMalformed}
		}
		switch u := m["url"].(type) {
		case nil:
			return Thumb{Shape: ThumbObject}
		case string:
			return Thumb{Shape: ThumbObject, URL: u}
		default:
			return Thumb{Shape: ThumbMalformed}
		}
	}
}

func parseDate(v interface{}) Timestamp {
	if !truthy(v) {
		return Timestamp{State: DateAbsent}
	}
	unix, ok := parseEpoch(v)
	if !ok {
		return Timestamp{State: DateUnparseable}
	}
	return Timestamp{State: DateParsed, Unix: unix}
}

// parseEpoch accepts integers, floats (truncated) and base-10 integer strings
// with surrounding whitespace.
func parseEpoch(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || math.Abs(t) >= math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return parseEpoch(f)
	}
	if isComposite(v) {
		return 0, false
	}
	n, err := cast.ToInt64E(v)
	return n, err == nil
}

func parseSpelling(v interface{}) *string {
	m, ok := asMapping(v)
	if !ok {
		return nil
	}
	if typ, _ := m["type"].(string); typ == "no_correction" {
		return nil
	}
	return optionalText(m["correction"])
}

func parseRelated(v interface{}) []string {
	list, ok := asSequence(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, entry := range list {
		if s := optionalText(entry); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func parseAnswers(v interface{}) []AnswerResult {
	list, ok := asSequence(v)
	if !ok {
		return nil
	}
	out := make([]AnswerResult, 0, len(list))
	for _, entry := range list {
		m, ok := asMapping(entry)
		if !ok {
			continue
		}
		out = append(out, AnswerResult{
			Title:   optionalText(m["title"]),
			Content: answerContent(m["description"]),
			URL:     optionalText(m["url"]),
		})
	}
	return out
}

// answerContent joins description elements with single spaces. Mappings
// contribute their "value", strings contribute themselves.
func answerContent(v interface{}) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	}
	if list, ok := asSequence(v); ok {
		parts := make([]string, 0, len(list))
		for _, elem := range list {
			if m, ok := asMapping(elem); ok {
				if s := optionalText(m["value"]); s != nil {
					parts = append(parts, *s)
				}
				continue
			}
			if s, ok := elem.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	if s := optionalText(v); s != nil {
		return *s
	}
	return ""
}

// optionalText coerces scalars to text. Null and composite values yield nil.
func optionalText(v interface{}) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return &t
	}
	if isComposite(v) {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil
	}
	return &s
}

func asMapping(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case RawItem:
		return m, true
	case RawResponse:
		return m, true
	}
	return nil, false
}

// asSequence accepts decoded JSON arrays and the slice types Go callers
// build payloads from.
func asSequence(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []RawItem:
		out := make([]interface{}, len(l))
		for i, e := range l {
			out[i] = e
		}
		return out, true
	case []map[string]interface{}:
		out := make([]interface{}, len(l))
		for i, e := range l {
			out[i] = e
		}
		return out, true
	case []string:
		out := make([]interface{}, len(l))
		for i, e := range l {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

func isComposite(v interface{}) bool {
	if _, ok := asMapping(v); ok {
		return true
	}
	_, ok := asSequence(v)
	return ok
}

// truthy follows JSON truthiness: null, false, zero, empty string and empty
// containers are false.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	}
	if m, ok := asMapping(v); ok {
		return len(m) > 0
	}
	if l, ok := asSequence(v); ok {
		return len(l) > 0
	}
	if n, err := cast.ToFloat64E(v); err == nil {
		return n != 0
	}
	return true
}

func cloneValue(v interface{}) interface{} {
	if m, ok := asMapping(v); ok {
		out := make(map[string]interface{}, len(m))
		for k, e := range m {
			out[k] = cloneValue(e)
		}
		return out
	}
	if l, ok := asSequence(v); ok {
		out := make([]interface{}, len(l))
		for i, e := range l {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
