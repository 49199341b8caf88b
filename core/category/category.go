package category

import "strings"

// Category identifies one builtin result bucket.
type Category int

const (
	AbsoluteAPIs Category = iota
	RelativeAPIs
	Domains
	Emails
	PhoneNumbers
	Credentials
	IPAddresses
	Paths
	JWTs
	GithubURLs
	VueFiles
	Companies
	Comments
	IDCards
	BearerTokens
	BasicAuth
	AuthHeaders
	WechatAppIDs
	AWSKeys
	GoogleAPIKeys
	GithubTokens
	GitlabTokens
	WebhookURLs
	CryptoUsage
	SensitiveKeywords

	// Resource categories feed the crawler queue and are never overridable.
	JSFiles
	CSSFiles
	Images
	URLs

	Count
)

// CustomPrefix marks user-declared categories.
const CustomPrefix = "custom_"

var keys = [Count]string{
	AbsoluteAPIs:      "absoluteApis",
	RelativeAPIs:      "relativeApis",
	Domains:           "domains",
	Emails:            "emails",
	PhoneNumbers:      "phoneNumbers",
	Credentials:       "credentials",
	IPAddresses:       "ipAddresses",
	Paths:             "paths",
	JWTs:              "jwts",
	GithubURLs:        "githubUrls",
	VueFiles:          "vueFiles",
	Companies:         "companies",
	Comments:          "comments",
	IDCards:           "idCards",
	BearerTokens:      "bearerTokens",
	BasicAuth:         "basicAuth",
	AuthHeaders:       "authHeaders",
	WechatAppIDs:      "wechatAppIds",
	AWSKeys:           "awsKeys",
	GoogleAPIKeys:     "googleApiKeys",
	GithubTokens:      "githubTokens",
	GitlabTokens:      "gitlabTokens",
	WebhookURLs:       "webhookUrls",
	CryptoUsage:       "cryptoUsage",
	SensitiveKeywords: "sensitiveKeywords",
	JSFiles:           "jsFiles",
	CSSFiles:          "cssFiles",
	Images:            "images",
	URLs:              "urls",
}

var byKey = func() map[string]Category {
	m := make(map[string]Category, Count)
	for c := Category(0); c < Count; c++ {
		m[keys[c]] = c
	}
	return m
}()

// Key returns the wire name of the category.
func (c Category) Key() string {
	if c < 0 || c >= Count {
		return ""
	}
	return keys[c]
}

func (c Category) String() string {
	return c.Key()
}

// Overridable reports whether user configuration may replace the builtin
// rule for c. The composite sensitiveKeywords bucket and the crawler
// resource categories are fixed.
func (c Category) Overridable() bool {
	return c >= 0 && c < SensitiveKeywords
}

// IsResource reports whether c is one of the crawler resource buckets.
func (c Category) IsResource() bool {
	return c >= JSFiles && c < Count
}

// Parse resolves a builtin key.
func Parse(key string) (Category, bool) {
	c, ok := byKey[key]
	return c, ok
}

// IsCustom reports whether key names a user-declared category.
func IsCustom(key string) bool {
	return len(key) > len(CustomPrefix) && strings.HasPrefix(key, CustomPrefix)
}

// All returns every builtin category in declaration order.
func All() []Category {
	out := make([]Category, Count)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// OverridableKeys returns the keys accepted in an override configuration.
func OverridableKeys() []string {
	out := make([]string, 0, SensitiveKeywords)
	for c := Category(0); c < SensitiveKeywords; c++ {
		out = append(out, keys[c])
	}
	return out
}
