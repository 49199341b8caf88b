package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rafabd1/LeakHound/core/category"
)

// Results maps every builtin category to its findings and carries the
// user-declared custom_* categories separately. Builtin keys are always
// present; custom keys only when they hold at least one value.
type Results struct {
	fixed  [category.Count][]string
	Custom map[string][]string
}

func New() *Results {
	r := &Results{Custom: make(map[string][]string)}
	for i := range r.fixed {
		r.fixed[i] = []string{}
	}
	return r
}

// Get returns the findings of a builtin category.
func (r *Results) Get(c category.Category) []string {
	if c < 0 || c >= category.Count {
		return nil
	}
	return r.fixed[c]
}

// Lookup resolves either a builtin or a custom key.
func (r *Results) Lookup(key string) ([]string, bool) {
	if c, ok := category.Parse(key); ok {
		return r.fixed[c], true
	}
	values, ok := r.Custom[key]
	return values, ok
}

// Put replaces the values stored under key. Unknown non-custom keys are
// ignored and reported as false.
func (r *Results) Put(key string, values []string) bool {
	if c, ok := category.Parse(key); ok {
		if values == nil {
			values = []string{}
		}
		r.fixed[c] = values
		return true
	}
	if !category.IsCustom(key) {
		return false
	}
	if len(values) == 0 {
		delete(r.Custom, key)
		return true
	}
	if r.Custom == nil {
		r.Custom = make(map[string][]string)
	}
	r.Custom[key] = values
	return true
}

// Keys lists builtin keys in declaration order followed by the sorted
// custom keys.
func (r *Results) Keys() []string {
	keys := make([]string, 0, int(category.Count)+len(r.Custom))
	for _, c := range category.All() {
		keys = append(keys, c.Key())
	}
	return append(keys, r.customKeys()...)
}

func (r *Results) customKeys() []string {
	keys := make([]string, 0, len(r.Custom))
	for k, v := range r.Custom {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Total counts all findings across categories.
func (r *Results) Total() int {
	n := 0
	for _, v := range r.fixed {
		n += len(v)
	}
	for _, v := range r.Custom {
		n += len(v)
	}
	return n
}

// Each visits every key in Keys order.
func (r *Results) Each(fn func(key string, values []string)) {
	for _, key := range r.Keys() {
		values, _ := r.Lookup(key)
		fn(key, values)
	}
}

func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	r.Each(func(key string, values []string) {
		if err != nil {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		var k, v []byte
		if k, err = json.Marshal(key); err != nil {
			return
		}
		if v, err = json.Marshal(values); err != nil {
			return
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Results) UnmarshalJSON(data []byte) error {
	raw := make(map[string][]string)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fresh := New()
	for key, values := range raw {
		if !fresh.Put(key, values) {
			return fmt.Errorf("unknown result category %q", key)
		}
	}
	*r = *fresh
	return nil
}
