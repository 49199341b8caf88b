// Package validator holds the false-positive filters applied to raw pattern
// matches. Every validator is total: malformed input produces a negative
// Result, never a panic.
package validator

import (
	"strings"

	"golang.org/x/text/width"
)

// Reason explains a negative validation outcome.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonEmpty
	ReasonLength
	ReasonFormat
	ReasonSuffix
	ReasonBlacklisted
	ReasonRepeated
	ReasonSequence
	ReasonPrefix
	ReasonProvince
	ReasonDate
	ReasonChecksum
	ReasonDomain
)

var reasonNames = map[Reason]string{
	ReasonNone:        "",
	ReasonEmpty:       "empty",
	ReasonLength:      "length",
	ReasonFormat:      "format",
	ReasonSuffix:      "suffix",
	ReasonBlacklisted: "blacklisted",
	ReasonRepeated:    "repeated",
	ReasonSequence:    "sequence",
	ReasonPrefix:      "prefix",
	ReasonProvince:    "province",
	ReasonDate:        "date",
	ReasonChecksum:    "checksum",
	ReasonDomain:      "domain",
}

func (r Reason) String() string {
	return reasonNames[r]
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the outcome of one validation. IDCard and Phone are only set by
// the validators that extract structured fields.
type Result struct {
	Valid      bool        `json:"valid"`
	Reason     Reason      `json:"reason,omitempty"`
	Normalized string      `json:"value,omitempty"`
	IDCard     *IDCardInfo `json:"idCard,omitempty"`
	Phone      *PhoneInfo  `json:"phone,omitempty"`
}

func ok(normalized string) Result {
	return Result{Valid: true, Normalized: normalized}
}

func reject(reason Reason) Result {
	return Result{Reason: reason}
}

// Validator filters candidates for one category.
type Validator interface {
	Validate(candidate string) Result
}

// Func adapts a plain function to the Validator interface.
type Func func(candidate string) Result

func (f Func) Validate(candidate string) Result {
	return f(candidate)
}

// Length accepts candidates whose rune count lies in [min, max]. A
// non-positive max means unbounded.
func Length(min, max int) Validator {
	return Func(func(candidate string) Result {
		n := len([]rune(candidate))
		if n == 0 {
			return reject(ReasonEmpty)
		}
		if n < min || (max > 0 && n > max) {
			return reject(ReasonLength)
		}
		return ok(candidate)
	})
}

// foldDigits narrows fullwidth characters so "１３８" is read as "138".
func foldDigits(s string) string {
	return width.Narrow.String(s)
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func allSame(s string) bool {
	if len(s) < 2 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// sequential reports whether every digit differs from the previous one by
// the same step of +1 or -1.
func sequential(s string) bool {
	if len(s) < 3 {
		return false
	}
	step := int(s[1]) - int(s[0])
	if step != 1 && step != -1 {
		return false
	}
	for i := 2; i < len(s); i++ {
		if int(s[i])-int(s[i-1]) != step {
			return false
		}
	}
	return true
}
