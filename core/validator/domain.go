package validator

import (
	"regexp"
	"strings"
)

var (
	labelRegex  = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	ipv4Regex   = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	digitLedDot = regexp.MustCompile(`^\d+\.\d+`)
)

// Suffixes that show up as the last label of file names and property
// accesses far more often than as real top-level domains.
var nonDomainSuffixes = map[string]struct{}{
	"js": {}, "css": {}, "html": {}, "htm": {}, "php": {}, "asp": {}, "aspx": {}, "jsp": {},
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "ico": {}, "svg": {}, "webp": {},
	"mp3": {}, "mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "flv": {},
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {},
	"zip": {}, "rar": {}, "tar": {}, "gz": {},
	"json": {}, "xml": {}, "txt": {}, "log": {}, "md": {},
	"scss": {}, "less": {}, "ts": {}, "tsx": {}, "jsx": {}, "vue": {},
	"woff": {}, "woff2": {}, "ttf": {}, "eot": {}, "otf": {}, "swf": {}, "map": {},
}

// JavaScript expressions that are shaped exactly like host names.
var domainBlacklist = map[string]struct{}{
	"el.datepicker.today":  {},
	"obj.style.top":        {},
	"window.top":           {},
	"mydragdiv.style.top":  {},
	"container.style.top":  {},
	"location.host":        {},
	"page.info":            {},
	"res.info":             {},
	"item.info":            {},
	"vuejs.org":            {},
}

// HostOf strips scheme, leading "www.", path, query, fragment and port.
func HostOf(candidate string) string {
	host := strings.ToLower(strings.TrimSpace(candidate))
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	host = strings.TrimPrefix(host, "//")
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// Domain validates a host name candidate.
func Domain(candidate string) Result {
	host := HostOf(candidate)
	if host == "" {
		return reject(ReasonEmpty)
	}
	if len(host) < 4 || len(host) > 253 {
		return reject(ReasonLength)
	}
	if !strings.Contains(host, ".") || strings.HasPrefix(host, ".") ||
		strings.HasSuffix(host, ".") || strings.Contains(host, "..") {
		return reject(ReasonFormat)
	}
	if _, bad := domainBlacklist[host]; bad {
		return reject(ReasonBlacklisted)
	}

	labels := strings.Split(host, ".")
	tld := labels[len(labels)-1]
	if _, bad := nonDomainSuffixes[tld]; bad {
		return reject(ReasonSuffix)
	}
	if allDigits(tld) || len(tld) < 2 || len(tld) > 63 {
		return reject(ReasonSuffix)
	}
	if !ipv4Regex.MatchString(host) && digitLedDot.MatchString(host) {
		return reject(ReasonFormat)
	}
	for _, label := range labels {
		if len(label) > 63 || !labelRegex.MatchString(label) {
			return reject(ReasonFormat)
		}
	}

	return ok(host)
}
