package registry

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fourget-bridge/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const braveScraper = `<?php
class brave {
	public function getfilters($page) {
		switch ($page) {
			case "web":
				return [
					"country" => [
						"display" => "Country",
						"option" => ["all" => "All"]
					],
					"nsfw" => [
						"display" => "NSFW",
						"option" => ["yes" => "Yes", "no" => "No"]
					],
					// "legacy" => [
					"spellcheck" => [
						"display" => "Spellcheck",
						"option" => ["yes" => "Yes"]
					]
				];
		}
	}

	public function web($get) {
		$search = $get["s"];
		$npt = $get['npt'];
		$out = ["status" => "ok", "web" => [], "video" => []];
		$out["web"][] = [
			"title" => $title,
			"description" => $desc,
			"url" => $url,
			"date" => null,
			"thumb" => [
				"url" => null,
				"ratio" => null
			],
		];
		$out["video"][] = [
			"title" => $title,
			"url" => $url,
			"views" => $views,
		];
		return $out;
	}

	public function news($get) {
		$out = ["news" => []];
		$out["news"][] = [
			"title" => $t,
			"author" => [],
			"thumb" => ["url" => $thumb, "ratio" => "16:9"],
		];
		return $out;
	}
}
`

func TestExtractEngine(t *testing.T) {
	spec := ExtractEngine(braveScraper)

	assert.Equal(t, []string{"country", "npt", "nsfw", "s", "spellcheck"}, spec.Inputs)
	assert.Equal(t, Capabilities{Paging: true, NSFW: true, Country: true}, spec.Capabilities)

	require.Contains(t, spec.Outputs, "web")
	web := spec.Outputs["web"]
	assert.True(t, web["title"])
	assert.True(t, web["description"])
	assert.False(t, web["date"])
	assert.False(t, web["thumb"])
	assert.NotContains(t, web, "duration")

	require.Contains(t, spec.Outputs, "news")
	assert.False(t, spec.Outputs["news"]["author"])
	assert.True(t, spec.Outputs["news"]["thumb"])

	assert.Contains(t, spec.Outputs, "video")
	assert.NotContains(t, spec.Outputs, "image")
}

func TestDeriveCapabilities(t *testing.T) {
	tests := []struct {
		inputs []string
		want   Capabilities
	}{
		{nil, Capabilities{}},
		{[]string{"offset"}, Capabilities{Paging: true}},
		{[]string{"cursor", "older"}, Capabilities{Paging: true, Time: true}},
		{[]string{"safesearch", "language", "region"}, Capabilities{NSFW: true, Language: true, Country: true}},
		{[]string{"date", "lang", "safe"}, Capabilities{Time: true, Language: true, NSFW: true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, deriveCapabilities(tt.inputs), "%v", tt.inputs)
	}
}

func TestFunctionBody(t *testing.T) {
	src := "function Web($get) { if (x) { /* } */ y(); } // tail\n}\nfunction other() {}"

	body, ok := functionBody(src, "web")
	require.True(t, ok)
	assert.Contains(t, body, "y();")
	assert.NotContains(t, body, "other")

	_, ok = functionBody(src, "image")
	assert.False(t, ok)

	body, ok = functionBody("function web() { unbalanced {", "web")
	require.True(t, ok)
	assert.Equal(t, " unbalanced ", body)

	body, ok = functionBody("function web() {", "web")
	require.True(t, ok)
	assert.Equal(t, "", body)
}

func TestExtractDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brave.php"), []byte(braveScraper), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mojeek.php"), []byte(`<?php class mojeek {}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0644))

	m, err := ExtractDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"brave", "mojeek"}, m.Names())
	assert.Empty(t, m["mojeek"].Outputs)

	_, err = ExtractDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestManifest_SaveAndLoad(t *testing.T) {
	m := Manifest{"brave": ExtractEngine(braveScraper)}
	path := filepath.Join(t.TempDir(), "configs", "4get_capabilities.json")
	require.NoError(t, m.Save(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m["brave"].Capabilities, loaded["brave"].Capabilities)

	spec, ok := loaded.Engine("Brave")
	require.True(t, ok)
	assert.Equal(t, m["brave"].Inputs, spec.Inputs)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":           `{"brave":`,
		"missing outputs":    `{"brave": {"inputs": [], "capabilities": {"paging": true, "time": false, "nsfw": false, "language": false, "country": false}}}`,
		"capability type":    `{"brave": {"inputs": [], "capabilities": {"paging": "yes", "time": false, "nsfw": false, "language": false, "country": false}, "outputs": {}}}`,
		"uppercase engine":   `{"Brave": {"inputs": [], "capabilities": {"paging": true, "time": false, "nsfw": false, "language": false, "country": false}, "outputs": {}}}`,
		"field support type": `{"brave": {"inputs": [], "capabilities": {"paging": true, "time": false, "nsfw": false, "language": false, "country": false}, "outputs": {"web": {"title": 1}}}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest([]byte(doc))
			require.Error(t, err)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeManifestInvalid, stdErr.Code)
		})
	}
}

func TestManifest_Supports(t *testing.T) {
	m := Manifest{
		"brave":  {Outputs: map[string]FieldSupport{"web": {"title": true}, "video": {"title": true}}},
		"mojeek": {Outputs: map[string]FieldSupport{}},
	}

	assert.True(t, m.Supports("brave", "web"))
	assert.False(t, m.Supports("brave", "image"))
	assert.True(t, m.Supports("mojeek", "image"))
	assert.False(t, m.Supports("yahoo", "web"))
}

func TestBuildEngineIndex(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"ddg.php":    "<?php class ddg {}",
		"brave.php":  "<?php class brave {}",
		"sc.php":     "<?php // helpers only",
		"google.php": "<?php class google {}",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}

	idx, err := BuildEngineIndex(dir)
	require.NoError(t, err)

	assert.Len(t, idx, 3)
	assert.Equal(t, IndexEntry{File: "scraper/ddg.php", Class: "ddg"}, idx["duckduckgo"])
	assert.NotContains(t, idx, "ddg")
	assert.NotContains(t, idx, "sc")

	var buf bytes.Buffer
	require.NoError(t, idx.Write(&buf))
	assert.Contains(t, buf.String(), `"file": "scraper/brave.php"`)

	var decoded map[string]IndexEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, idx["google"], decoded["google"])
}

func TestBuildEngineIndex_KeepsRealSc(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sc.php"), []byte("<?php class sc {}"), 0644))

	idx, err := BuildEngineIndex(dir)
	require.NoError(t, err)
	assert.Contains(t, idx, "sc")
}

func TestLoadManifest_ShippedManifest(t *testing.T) {
	m, err := LoadManifest(filepath.Join("..", "..", "configs", "4get_capabilities.json"))
	require.NoError(t, err)

	assert.Contains(t, m.Names(), "brave")
	spec, ok := m.Engine("Google")
	require.True(t, ok)
	assert.True(t, spec.Capabilities.Language)
	assert.False(t, m.Supports("marginalia", "image"))
}
