package validator

import "strings"

type keyFormat struct {
	prefix   string
	min, max int
	charset  func(r rune) bool
}

func isUpperAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isAlnum(r rune) bool {
	return isUpperAlnum(r) || (r >= 'a' && r <= 'z')
}

func isLowerAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func isTokenRune(r rune) bool {
	return isAlnum(r) || r == '_' || r == '-'
}

// Ordered so longer prefixes win over shorter ones sharing a stem.
var keyFormats = []keyFormat{
	{prefix: "github_pat_", min: 47, max: 266, charset: isTokenRune},
	{prefix: "ghp_", min: 40, max: 259, charset: isTokenRune},
	{prefix: "gho_", min: 40, max: 259, charset: isTokenRune},
	{prefix: "ghu_", min: 40, max: 259, charset: isTokenRune},
	{prefix: "ghs_", min: 40, max: 259, charset: isTokenRune},
	{prefix: "ghr_", min: 40, max: 259, charset: isTokenRune},
	{prefix: "glpat-", min: 26, max: 28, charset: func(r rune) bool { return isTokenRune(r) || r == '=' }},
	{prefix: "AKIA", min: 20, max: 20, charset: isUpperAlnum},
	{prefix: "LTAI", min: 16, max: 34, charset: isAlnum},
	{prefix: "AKID", min: 17, max: 44, charset: isAlnum},
	{prefix: "AIza", min: 39, max: 39, charset: isTokenRune},
	{prefix: "wx", min: 17, max: 20, charset: isLowerAlnum},
	{prefix: "ww", min: 17, max: 20, charset: isLowerAlnum},
}

// KeyFormat checks vendor key prefixes against their documented length and
// alphabet. Unknown prefixes fall back to a generic token sanity check.
func KeyFormat(candidate string) Result {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return reject(ReasonEmpty)
	}
	for _, f := range keyFormats {
		if !strings.HasPrefix(s, f.prefix) {
			continue
		}
		if len(s) < f.min || len(s) > f.max {
			return reject(ReasonLength)
		}
		for _, r := range s[len(f.prefix):] {
			if !f.charset(r) {
				return reject(ReasonFormat)
			}
		}
		return ok(s)
	}

	if len(s) < 8 || len(s) > 500 {
		return reject(ReasonLength)
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return reject(ReasonFormat)
	}
	return ok(s)
}
