package triggers

import "reflect"

type changeKind int

const (
	changeAdded changeKind = iota
	changeModified
	changeRemoved
)

type docChange struct {
	kind changeKind
	id   string
	data map[string]any
}

// stateCache remembers the watched fields of every document seen so far, so
// a modification can be replayed as a before/after pair.
type stateCache struct {
	fields []string
	docs   map[string]map[string]any
}

func newStateCache(fields ...string) *stateCache {
	return &stateCache{fields: fields, docs: map[string]map[string]any{}}
}

// apply records the change and reports whether it should be dispatched.
// Only modifications of already-known documents whose watched fields moved
// are dispatched.
func (c *stateCache) apply(ch docChange) (before, after map[string]any, dispatch bool) {
	switch ch.kind {
	case changeRemoved:
		delete(c.docs, ch.id)
		return nil, nil, false
	case changeAdded:
		c.docs[ch.id] = c.project(ch.data)
		return nil, nil, false
	}

	after = c.project(ch.data)
	before, known := c.docs[ch.id]
	c.docs[ch.id] = after
	if !known || reflect.DeepEqual(before, after) {
		return nil, nil, false
	}
	return before, after, true
}

func (c *stateCache) project(data map[string]any) map[string]any {
	out := make(map[string]any, len(c.fields))
	for _, f := range c.fields {
		if v, ok := data[f]; ok {
			out[f] = v
		}
	}
	return out
}
