package results

import (
	"sync"

	"github.com/rafabd1/LeakHound/core/category"
)

// table holds one ordered set per category.
type table struct {
	fixed  [category.Count]*Set
	custom map[string]*Set
}

func newTable() table {
	t := table{custom: make(map[string]*Set)}
	for i := range t.fixed {
		t.fixed[i] = NewSet()
	}
	return t
}

func (t *table) set(key string) *Set {
	if c, ok := category.Parse(key); ok {
		return t.fixed[c]
	}
	if !category.IsCustom(key) {
		return nil
	}
	s, exists := t.custom[key]
	if !exists {
		s = NewSet()
		t.custom[key] = s
	}
	return s
}

func (t *table) results() *Results {
	r := New()
	for i, s := range t.fixed {
		r.fixed[i] = s.Items()
	}
	for key, s := range t.custom {
		if s.Len() > 0 {
			r.Custom[key] = s.Items()
		}
	}
	return r
}

// Builder collects the findings of a single extraction pass.
type Builder struct {
	t table
}

func NewBuilder() *Builder {
	return &Builder{t: newTable()}
}

// Add inserts value under key and reports whether it was new.
func (b *Builder) Add(key, value string) bool {
	s := b.t.set(key)
	if s == nil {
		return false
	}
	return s.Add(value)
}

// AddCategory is Add for a builtin category.
func (b *Builder) AddCategory(c category.Category, value string) bool {
	if c < 0 || c >= category.Count {
		return false
	}
	return b.t.fixed[c].Add(value)
}

func (b *Builder) Results() *Results {
	return b.t.results()
}

// Accumulator is the cumulative result set of one scan session. All
// methods are safe for concurrent use.
type Accumulator struct {
	mu sync.Mutex
	t  table
}

func NewAccumulator() *Accumulator {
	return &Accumulator{t: newTable()}
}

// Merge folds incoming into the accumulator, appending only unseen values,
// and reports whether anything was appended.
func (a *Accumulator) Merge(incoming *Results) bool {
	if incoming == nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	changed := false
	for i, values := range incoming.fixed {
		s := a.t.fixed[i]
		for _, v := range values {
			if s.Add(v) {
				changed = true
			}
		}
	}
	for key, values := range incoming.Custom {
		if len(values) == 0 {
			continue
		}
		s := a.t.set(key)
		if s == nil {
			continue
		}
		for _, v := range values {
			if s.Add(v) {
				changed = true
			}
		}
	}
	return changed
}

// Snapshot returns a deep copy of the current state.
func (a *Accumulator) Snapshot() *Results {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.t.results()
}

// Count returns the number of findings accumulated so far.
func (a *Accumulator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, s := range a.t.fixed {
		n += s.Len()
	}
	for _, s := range a.t.custom {
		n += s.Len()
	}
	return n
}

// Reset discards all state, ready for a new top-level scan.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.t = newTable()
}
