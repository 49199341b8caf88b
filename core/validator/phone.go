package validator

import "strings"

// PhoneKind distinguishes the phone number families the validator knows.
type PhoneKind string

const (
	PhoneCN            PhoneKind = "cn-mobile"
	PhoneInternational PhoneKind = "international"
)

type PhoneInfo struct {
	Kind   PhoneKind `json:"kind"`
	Digits string    `json:"digits"`
}

// Phone accepts CN mobile numbers and, for inputs written with a leading
// "+", loosely formatted international numbers.
func Phone(candidate string) Result {
	s := strings.TrimSpace(foldDigits(candidate))
	if s == "" {
		return reject(ReasonEmpty)
	}

	cn := ChinesePhone(s)
	if cn.Valid || !strings.HasPrefix(s, "+") || isCNCountryCode(s) {
		return cn
	}
	return InternationalPhone(s)
}

func isCNCountryCode(s string) bool {
	d := onlyDigits(s)
	return strings.HasPrefix(d, "86") || strings.HasPrefix(d, "0086")
}

// ChinesePhone validates an 11-digit mainland mobile number, optionally
// carrying a +86 or 0086 country code.
func ChinesePhone(candidate string) Result {
	d := onlyDigits(foldDigits(candidate))
	switch {
	case len(d) == 15 && strings.HasPrefix(d, "0086"):
		d = d[4:]
	case len(d) == 13 && strings.HasPrefix(d, "86"):
		d = d[2:]
	}
	if d == "" {
		return reject(ReasonEmpty)
	}
	if len(d) != 11 {
		return reject(ReasonLength)
	}
	if d[0] != '1' || d[1] < '3' || d[1] > '9' {
		return reject(ReasonPrefix)
	}
	if allSame(d) || allSame(d[3:]) {
		return reject(ReasonRepeated)
	}
	if rest := d[1:]; rest == "0123456789" || rest == "9876543210" {
		return reject(ReasonSequence)
	}

	r := ok(d)
	r.Phone = &PhoneInfo{Kind: PhoneCN, Digits: d}
	return r
}

// InternationalPhone applies the loose international heuristics.
func InternationalPhone(candidate string) Result {
	s := strings.TrimSpace(foldDigits(candidate))
	if s == "" {
		return reject(ReasonEmpty)
	}
	if strings.Contains(s, ".") || strings.Count(s, "-") > 3 {
		return reject(ReasonFormat)
	}
	for _, r := range strings.TrimPrefix(s, "+") {
		if !(r >= '0' && r <= '9') && r != '-' && r != ' ' && r != '(' && r != ')' {
			return reject(ReasonFormat)
		}
	}

	d := onlyDigits(s)
	if len(d) < 7 || len(d) > 15 {
		return reject(ReasonLength)
	}
	if allSame(d) {
		return reject(ReasonRepeated)
	}
	if sequential(d) {
		return reject(ReasonSequence)
	}

	r := ok("+" + d)
	r.Phone = &PhoneInfo{Kind: PhoneInternational, Digits: d}
	return r
}
