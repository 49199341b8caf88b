package patterns

import (
	"bytes"
	"testing"

	"github.com/rafabd1/LeakHound/core/category"
	"github.com/rafabd1/LeakHound/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findRule(t *testing.T, rules []Rule, key string) Rule {
	t.Helper()
	for _, r := range rules {
		if r.Category == key {
			return r
		}
	}
	t.Fatalf("rule %q not found", key)
	return Rule{}
}

func TestDefaultRulesCoverEveryCategory(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, int(category.Count))

	reg := NewRegistry()
	for i, rule := range rules {
		assert.Equal(t, category.Category(i).Key(), rule.Category)
		assert.Equal(t, OriginBuiltin, rule.Origin)
		assert.True(t, rule.Enabled)
		assert.Contains(t, rule.Flags, "g")
		assert.NotEmpty(t, rule.Name, rule.Category)
		assert.Positive(t, rule.MaxLength, rule.Category)

		_, err := reg.Compile(rule)
		assert.NoError(t, err, "builtin pattern for %s must compile", rule.Category)
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		input, source, flags string
	}{
		{"abc", "abc", ""},
		{"  /abc/gi  ", "abc", "gi"},
		{"/a/b/", "a/b", ""},
		{"/path/to/api", "/path/to/api", ""},
		{"//", "//", ""},
	}
	for _, tt := range tests {
		source, flags := ParseSource(tt.input)
		assert.Equal(t, tt.source, source, tt.input)
		assert.Equal(t, tt.flags, flags, tt.input)
	}
}

func TestNormalizeFlags(t *testing.T) {
	assert.Equal(t, "g", NormalizeFlags(""))
	assert.Equal(t, "gi", NormalizeFlags("i"))
	assert.Equal(t, "gim", NormalizeFlags("mig"))
	assert.Equal(t, "gis", NormalizeFlags("siis"))
}

func TestApplyOverridesReplacesBuiltin(t *testing.T) {
	reg := NewRegistry()
	rules := reg.ApplyOverrides(map[string]string{"emails": `[a-z]+@corp\.example`})

	email := findRule(t, rules, "emails")
	assert.Equal(t, OriginOverride, email.Origin)
	assert.Equal(t, `[a-z]+@corp\.example`, email.Source)
	assert.Equal(t, "g", email.Flags)
	assert.Equal(t, 3, email.MinLength)

	count := 0
	for _, r := range rules {
		if r.Category == "emails" {
			count++
		}
	}
	assert.Equal(t, 1, count, "an override replaces, never appends")
}

func TestApplyOverridesFailsSoft(t *testing.T) {
	var logs bytes.Buffer
	reg := NewRegistry(WithLogger(zerolog.New(&logs)))

	var rules []Rule
	assert.NotPanics(t, func() {
		rules = reg.ApplyOverrides(map[string]string{"emails": "(unterminated["})
	})

	email := findRule(t, rules, "emails")
	assert.Equal(t, OriginBuiltin, email.Origin)
	assert.Equal(t, builtinSources[category.Emails], email.Source)
	assert.Contains(t, logs.String(), "invalid override pattern")
	assert.Contains(t, logs.String(), `"component":"patterns"`)
}

func TestApplyOverridesIgnoresBlankAndUnknown(t *testing.T) {
	reg := NewRegistry()
	rules := reg.ApplyOverrides(map[string]string{
		"domains":           "   ",
		"notACategory":      "x",
		"sensitiveKeywords": "x",
		"jsFiles":           "x",
	})
	assert.Equal(t, DefaultRules(), rules)
}

func TestApplyOverridesAddsCustomRules(t *testing.T) {
	reg := NewRegistry()
	rules := reg.ApplyOverrides(map[string]string{
		"custom_ticket": `/TCK-\d+/i`,
		"custom_broken": `(`,
	})

	require.Len(t, rules, int(category.Count)+1)
	ticket := rules[len(rules)-1]
	assert.Equal(t, "custom_ticket", ticket.Category)
	assert.Equal(t, "ticket", ticket.Name)
	assert.Equal(t, OriginCustom, ticket.Origin)
	assert.Equal(t, "gi", ticket.Flags)

	re, err := reg.Compile(ticket)
	require.NoError(t, err)
	m, err := re.FindStringMatch("see tck-42")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "tck-42", m.String())
}

func TestOverridesDoNotStack(t *testing.T) {
	reg := NewRegistry()
	reg.ApplyOverrides(map[string]string{"custom_a": "a", "jwts": "ey"})
	rules := reg.ApplyOverrides(map[string]string{"custom_b": "b"})

	keys := map[string]bool{}
	for _, r := range rules {
		keys[r.Category] = true
	}
	assert.False(t, keys["custom_a"])
	assert.True(t, keys["custom_b"])
	assert.Equal(t, OriginBuiltin, findRule(t, rules, "jwts").Origin)
}

func TestCompileCacheInvalidatedByApplyOverrides(t *testing.T) {
	reg := NewRegistry()
	rule := findRule(t, reg.Rules(), "emails")

	first, err := reg.Compile(rule)
	require.NoError(t, err)
	again, err := reg.Compile(rule)
	require.NoError(t, err)
	assert.Same(t, first, again)

	gen := reg.Generation()
	reg.ApplyOverrides(nil)
	assert.Greater(t, reg.Generation(), gen)

	rebuilt, err := reg.Compile(rule)
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)
}

func TestCompileKeyIncludesFlags(t *testing.T) {
	reg := NewRegistry()
	plain, err := reg.Compile(Rule{Category: "custom_x", Source: "abc", Flags: "g"})
	require.NoError(t, err)
	folded, err := reg.Compile(Rule{Category: "custom_x", Source: "abc", Flags: "gi"})
	require.NoError(t, err)
	assert.NotSame(t, plain, folded)

	ok, _ := folded.MatchString("ABC")
	assert.True(t, ok)
	ok, _ = plain.MatchString("ABC")
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	reg := NewRegistry()
	reg.ApplyOverrides(map[string]string{"custom_a": "a"})
	reg.Reset()
	assert.Equal(t, DefaultRules(), reg.Rules())
	assert.Equal(t, 0, reg.CacheStats().Size)
}

func TestClearCacheKeepsOverrides(t *testing.T) {
	reg := NewRegistry()
	reg.ApplyOverrides(map[string]string{"custom_a": "a+"})
	rule := findRule(t, reg.Rules(), "custom_a")
	_, err := reg.Compile(rule)
	require.NoError(t, err)
	require.Equal(t, 1, reg.CacheStats().Size)

	reg.ClearCache()
	assert.Equal(t, 0, reg.CacheStats().Size)
	findRule(t, reg.Rules(), "custom_a")
}

func enabledKeys(rules []Rule) []string {
	var out []string
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r.Category)
		}
	}
	return out
}

func TestRestrict(t *testing.T) {
	reg := NewRegistry()
	reg.ApplyOverrides(map[string]string{"custom_order": "ORD-[0-9]+"})

	require.NoError(t, reg.Restrict([]string{"emails", "custom_order", "awsKeys"}, []string{"awsKeys"}))
	assert.Equal(t, []string{"emails", "custom_order"}, enabledKeys(reg.Rules()))

	reg.ApplyOverrides(map[string]string{"custom_order": "ORD-[0-9]+"})
	assert.Equal(t, []string{"emails", "custom_order"}, enabledKeys(reg.Rules()), "restriction survives overrides")

	require.NoError(t, reg.Restrict(nil, []string{"comments"}))
	assert.NotContains(t, enabledKeys(reg.Rules()), "comments")
	assert.Contains(t, enabledKeys(reg.Rules()), "awsKeys")

	err := reg.Restrict([]string{"nope"}, nil)
	require.Error(t, err)
	assert.True(t, utils.IsConfigError(err))
	assert.NotContains(t, enabledKeys(reg.Rules()), "comments")

	reg.Reset()
	assert.Len(t, enabledKeys(reg.Rules()), len(DefaultRules()))
}
