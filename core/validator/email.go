package validator

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email validates the structure of an address and its domain part.
func Email(candidate string) Result {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return reject(ReasonEmpty)
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return reject(ReasonFormat)
	}
	if at > 64 {
		return reject(ReasonLength)
	}
	if !emailRegex.MatchString(s) {
		return reject(ReasonFormat)
	}
	if d := Domain(s[at+1:]); !d.Valid {
		return reject(ReasonDomain)
	}
	return ok(strings.ToLower(s))
}
