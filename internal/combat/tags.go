package combat

import (
	"sort"
	"strings"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
)

// TagEntry is one active tag and its tag-owned value. The value holds the
// encoded settings and any persistent state the tag carries between stages.
type TagEntry struct {
	ID    catalog.TagID `json:"id"`
	Value string        `json:"value,omitempty"`
}

// TagState is a set of active tags sorted by id. It is treated as immutable:
// every modifier returns a new slice.
type TagState []TagEntry

func newTagState(values map[catalog.TagID]string) TagState {
	if len(values) == 0 {
		return nil
	}
	out := make(TagState, 0, len(values))
	for id, v := range values {
		out = append(out, TagEntry{ID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t TagState) find(id catalog.TagID) (int, bool) {
	i := sort.Search(len(t), func(i int) bool { return t[i].ID >= id })
	return i, i < len(t) && t[i].ID == id
}

// Has reports whether id is active.
func (t TagState) Has(id catalog.TagID) bool {
	_, ok := t.find(id)
	return ok
}

// Get returns the value of id.
func (t TagState) Get(id catalog.TagID) (string, bool) {
	i, ok := t.find(id)
	if !ok {
		return "", false
	}
	return t[i].Value, true
}

// With returns a copy of t where id carries value.
func (t TagState) With(id catalog.TagID, value string) TagState {
	i, ok := t.find(id)
	out := make(TagState, 0, len(t)+1)
	out = append(out, t[:i]...)
	out = append(out, TagEntry{ID: id, Value: value})
	if ok {
		i++
	}
	return append(out, t[i:]...)
}

// Without returns a copy of t with id removed.
func (t TagState) Without(id catalog.TagID) TagState {
	i, ok := t.find(id)
	if !ok {
		return t
	}
	out := make(TagState, 0, len(t)-1)
	out = append(out, t[:i]...)
	return append(out, t[i+1:]...)
}

func compareTags(a, b TagState) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(string(a[i].ID), string(b[i].ID)); c != 0 {
			return c
		}
		if c := strings.Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
