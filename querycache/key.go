package querycache

import (
	"net/url"
	"time"
)

// Key identifies one cached query. Params is the canonical encoding of the query
// parameters, so equal parameter sets always produce the same key.
type Key struct {
	Resource string
	Params   string
}

func NewKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Params: params.Encode()}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}

// Entry is a cached query result. Version increases with every write to the key.
type Entry[T any] struct {
	Key       Key
	Data      T
	Version   uint64
	UpdatedAt time.Time
	Stale     bool
}

// Snapshot holds the entries of one resource family at a point in time.
type Snapshot[T any] struct {
	Resource string
	entries  map[Key]Entry[T]
}

func (s Snapshot[T]) Keys() []Key {
	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

func (s Snapshot[T]) Data(key Key) (T, bool) {
	e, ok := s.entries[key]
	return e.Data, ok
}

func (s Snapshot[T]) Len() int {
	return len(s.entries)
}
