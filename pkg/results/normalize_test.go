// pkg/results/normalize_test.go
package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_ContentFallback(t *testing.T) {
	n := NewNormalizer(time.UTC)

	tests := []struct {
		name string
		item map[string]interface{}
		want string
	}{
		{"description wins", map[string]interface{}{"description": "d", "snippet": "s", "content": "c"}, "d"},
		{"empty description skipped", map[string]interface{}{"description": "", "snippet": "s"}, "s"},
		{"null snippet skipped", map[string]interface{}{"snippet": nil, "content": "c"}, "c"},
		{"numeric description", map[string]interface{}{"description": 12.0}, "12"},
		{"nothing", map[string]interface{}{"title": "t"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Web(webItem(tt.item)).Content)
			assert.Equal(t, tt.want, n.News(NewsRaw{ItemFields: parseFields(tt.item)}).Content)
			assert.Equal(t, tt.want, n.Video(parseVideo(tt.item)).Content)
		})
	}
}

func TestNormalizer_Thumbnail(t *testing.T) {
	n := NewNormalizer(time.UTC)

	tests := []struct {
		name  string
		thumb interface{}
		want  *string
	}{
		{"string", "http://x/t.png", ptr("http://x/t.png")},
		{"mapping", map[string]interface{}{"url": "http://x/t.png", "ratio": "16:9"}, ptr("http://x/t.png")},
		{"mapping without url", map[string]interface{}{"ratio": "16:9"}, nil},
		{"mapping with empty url", map[string]interface{}{"url": ""}, nil},
		{"null", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Web(webItem(map[string]interface{}{"thumb": tt.thumb})).Thumbnail
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_PublishedDate(t *testing.T) {
	n := NewNormalizer(time.UTC)

	assert.Equal(t, ptr("2023-11-14"), n.Web(webItem(map[string]interface{}{"date": 1700000000.0})).PublishedDate)
	assert.Equal(t, ptr("2023-11-14"), n.Web(webItem(map[string]interface{}{"date": "1700000000"})).PublishedDate)
	assert.Nil(t, n.Web(webItem(map[string]interface{}{"date": "soon"})).PublishedDate)
	assert.Nil(t, n.Web(webItem(map[string]interface{}{})).PublishedDate)

	// midnight placeholders are only rejected by the filter
	midnight := float64(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix())
	assert.Equal(t, ptr("2024-01-01"), n.Web(webItem(map[string]interface{}{"date": midnight})).PublishedDate)

	tokyo := NewNormalizer(time.FixedZone("JST", 9*3600))
	assert.Equal(t, ptr("2023-11-15"), tokyo.Web(webItem(map[string]interface{}{"date": 1700000000.0})).PublishedDate)
}

func TestNormalizer_Video(t *testing.T) {
	n := NewNormalizer(time.UTC)

	full := n.Video(parseVideo(map[string]interface{}{
		"title":    "V",
		"url":      "http://v",
		"snippet":  "clip",
		"duration": 125.0,
		"views":    1234.0,
		"thumb":    map[string]interface{}{"url": "http://v/t.jpg"},
	}))
	assert.Equal(t, VideoResult{
		Title:     ptr("V"),
		URL:       ptr("http://v"),
		Content:   "clip",
		Duration:  125.0,
		Views:     ptr("1234"),
		Thumbnail: ptr("http://v/t.jpg"),
	}, full)

	bare := n.Video(parseVideo(map[string]interface{}{"title": "V", "duration": 0.0, "views": ""}))
	assert.Nil(t, bare.Duration)
	assert.Nil(t, bare.Views)
	assert.Nil(t, bare.URL)
}

func TestNormalizer_Image(t *testing.T) {
	n := NewNormalizer(time.UTC)

	single := n.Image(parseImage(map[string]interface{}{
		"title":  "T",
		"source": []interface{}{map[string]interface{}{"url": "only.jpg", "width": 640.0}},
	}))
	assert.Equal(t, ptr("only.jpg"), single.ImgSrc)
	assert.Nil(t, single.Thumbnail)
	assert.Nil(t, single.Resolution, "height missing")

	none := n.Image(parseImage(map[string]interface{}{"title": "T", "source": []interface{}{}}))
	assert.Equal(t, ImageResult{Title: ptr("T")}, none)

	stringDims := n.Image(parseImage(map[string]interface{}{
		"source": []interface{}{
			map[string]interface{}{"url": "a.jpg", "width": "1920", "height": "1080"},
			"garbage",
			map[string]interface{}{"url": "c.jpg"},
		},
	}))
	assert.Equal(t, ptr("a.jpg"), stringDims.ImgSrc)
	assert.Equal(t, ptr("c.jpg"), stringDims.Thumbnail)
	assert.Equal(t, ptr("1920x1080"), stringDims.Resolution)

	notAList := n.Image(parseImage(map[string]interface{}{"source": "big.jpg"}))
	assert.Nil(t, notAList.ImgSrc)
}

func TestParseJSON(t *testing.T) {
	resp, err := ParseJSON([]byte(`{"web":[{"title":"x"}],"related":["r"]}`))
	assert.NoError(t, err)
	assert.Len(t, resp.Web, 1)
	assert.Equal(t, []string{"r"}, resp.Related)

	_, err = ParseJSON([]byte(`{"web":`))
	assert.Error(t, err)

	_, err = ParseJSON([]byte(`{"video":{"title":"x"}}`))
	assert.ErrorIs(t, err, ErrMalformedCategory)

	_, err = ParseJSON([]byte(`[]`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
