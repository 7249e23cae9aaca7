package urlcodec

import (
	"net/url"
	"strings"
)

type pair struct {
	key   string
	value string
}

// Query is an insertion-ordered set of query parameters. Unlike url.Values,
// Encode keeps keys in the order they were first set.
type Query struct {
	pairs []pair
}

// Set assigns value to key, replacing an existing value in place.
func (q *Query) Set(key, value string) {
	for i := range q.pairs {
		if q.pairs[i].key == key {
			q.pairs[i].value = value
			return
		}
	}
	q.pairs = append(q.pairs, pair{key: key, value: value})
}

// Get returns the value for key, or "" when absent.
func (q *Query) Get(key string) string {
	v, _ := q.lookup(key)
	return v
}

// Has reports whether key was set.
func (q *Query) Has(key string) bool {
	_, ok := q.lookup(key)
	return ok
}

// Len is the number of keys.
func (q *Query) Len() int {
	return len(q.pairs)
}

// Keys lists keys in insertion order.
func (q *Query) Keys() []string {
	keys := make([]string, len(q.pairs))
	for i, p := range q.pairs {
		keys[i] = p.key
	}
	return keys
}

// Encode renders the query in insertion order using standard query escaping.
func (q *Query) Encode() string {
	var b strings.Builder
	for i, p := range q.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// Values converts the query to url.Values.
func (q *Query) Values() url.Values {
	v := make(url.Values, len(q.pairs))
	for _, p := range q.pairs {
		v.Set(p.key, p.value)
	}
	return v
}

func (q *Query) lookup(key string) (string, bool) {
	for _, p := range q.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}
