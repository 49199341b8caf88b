package extractor

import (
	"path"
	"strings"

	"github.com/rafabd1/LeakHound/core/category"
)

// Substrings that mark a path-like match as build noise, date formats or
// browser sniffing code rather than a real endpoint or resource.
var noiseMarkers = []string{
	"multipart/form-data", "node_modules/", "pause/break", "partial/ajax",
	"chrome/", "firefox/", "edge/", "examples/element-ui",
	"static/js/", "static/css/", "stylesheet/less", "jpg/jpeg/png/pdf",
	"yyyy/mm/dd", "dd/mm/yyyy", "mm/dd/yy", "yy/mm/dd", "m/d/y", "xx/xx",
	"zrender/vml/vml",
	"/rem/g", "/vw/g", "/vh/g", "/-/g", "/./g", "/f.value",
	"/i.test", "/i.exec", "/.test", "/.exec",
	"/t.getwidth", "/t.getheight", "/t.get", "/e.offset", "/t.ratio/a.value",
	"/d.count", "/math.ln10", "/top/.test", "/y/.test",
}

// assetBuckets routes static file references to the resource category
// they belong to. Other static files (fonts, audio, video) have no bucket.
var assetBuckets = map[string]category.Category{
	".jpg": category.Images, ".jpeg": category.Images, ".png": category.Images, ".gif": category.Images,
	".bmp": category.Images, ".webp": category.Images, ".svg": category.Images, ".ico": category.Images,
	".tiff": category.Images, ".tif": category.Images,
	".css": category.CSSFiles, ".scss": category.CSSFiles, ".sass": category.CSSFiles, ".less": category.CSSFiles,
	".js": category.JSFiles, ".jsx": category.JSFiles, ".ts": category.JSFiles, ".tsx": category.JSFiles,
	".coffee": category.JSFiles,
	".vue":    category.VueFiles,
}

var staticExtensions = map[string]struct{}{
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {}, ".eot": {},
	".mp3": {}, ".wav": {}, ".ogg": {}, ".m4a": {}, ".aac": {}, ".flac": {},
	".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {}, ".webm": {}, ".mkv": {},
}

func isNoise(value string) bool {
	lower := strings.ToLower(value)
	for _, marker := range noiseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func extension(value string) string {
	p := strings.ToLower(value)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Ext(p)
}

// isStaticFile reports whether value points at an asset rather than an API.
func isStaticFile(value string) bool {
	ext := extension(value)
	if _, asset := assetBuckets[ext]; asset {
		return true
	}
	_, static := staticExtensions[ext]
	return static
}

// classifyPath keeps API paths in c, moves asset references to their
// resource bucket and drops other static files.
func classifyPath(c category.Category, value string) (category.Category, string, bool) {
	if isNoise(value) {
		return c, "", false
	}
	if target, asset := assetBuckets[extension(value)]; asset {
		return target, value, true
	}
	if isStaticFile(value) {
		return c, "", false
	}
	return c, value, true
}

// clean applies the per-category rewriting and noise rules. It returns the
// category the value belongs to, which differs from c for asset paths, and
// false when the value must be dropped.
func clean(c category.Category, value string) (category.Category, string, bool) {
	switch c {
	case category.AbsoluteAPIs:
		if strings.Contains(value, "http://") || strings.Contains(value, "https://") {
			return c, "", false
		}
		return classifyPath(c, value)
	case category.RelativeAPIs:
		if strings.HasPrefix(value, "./") {
			value = value[1:]
		}
		return classifyPath(c, value)
	case category.Paths:
		if isNoise(value) {
			return c, "", false
		}
	case category.JSFiles:
		value = strings.Trim(value, "\"'`")
	case category.CSSFiles, category.Images, category.URLs:
		value = strings.Trim(value, "\"'`")
		if isNoise(value) {
			return c, "", false
		}
	}
	return c, value, value != ""
}
