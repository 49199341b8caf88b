package patterns

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rafabd1/LeakHound/core/category"
)

// Origin records where a rule came from.
type Origin int

const (
	OriginBuiltin Origin = iota
	OriginOverride
	OriginCustom
)

func (o Origin) String() string {
	switch o {
	case OriginOverride:
		return "user-override"
	case OriginCustom:
		return "user-custom"
	default:
		return "builtin"
	}
}

// Rule is one named extraction pattern. Source is kept uncompiled; the
// Registry owns compilation.
type Rule struct {
	Category  string
	Name      string
	Source    string
	Flags     string
	Enabled   bool
	Origin    Origin
	MinLength int
	MaxLength int
}

// Builtin resolves the rule's category when it is not a custom one.
func (r Rule) Builtin() (category.Category, bool) {
	return category.Parse(r.Category)
}

func (r Rule) cacheKey() string {
	return r.Category + "\x00" + r.Flags + "\x00" + r.Source
}

var literalRegex = regexp.MustCompile(`^/(.*)/([gimsuy]*)$`)

// ParseSource accepts either a bare pattern or the /pattern/flags literal
// form and returns the pattern text with its flags.
func ParseSource(input string) (source, flags string) {
	input = strings.TrimSpace(input)
	if m := literalRegex.FindStringSubmatch(input); m != nil && m[1] != "" {
		return m[1], m[2]
	}
	return input, ""
}

// NormalizeFlags deduplicates flags, orders them canonically and always
// includes the global flag, so iteration visits every match.
func NormalizeFlags(flags string) string {
	var b strings.Builder
	b.WriteByte('g')
	for _, f := range "imsuy" {
		if strings.ContainsRune(flags, f) {
			b.WriteRune(f)
		}
	}
	return b.String()
}

// options maps flags onto the regexp2 engine. "g" is implied by iteration;
// "u" and "y" have no counterpart and are ignored.
func options(flags string) regexp2.RegexOptions {
	opts := regexp2.None
	if strings.ContainsRune(flags, 'i') {
		opts |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(flags, 'm') {
		opts |= regexp2.Multiline
	}
	if strings.ContainsRune(flags, 's') {
		opts |= regexp2.Singleline
	}
	return opts
}
