package cache

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

type entry[T any] struct {
	val *T
	seq uint64
}

// table is an immutable view of one entity kind.
type table[T any] struct {
	byKey   map[string]entry[T]
	byOwner map[string][]*T
	ordered []*T
}

// kindStore serializes writers for one kind and publishes tables.
type kindStore[T any] struct {
	mu      sync.Mutex
	current atomic.Pointer[table[T]]
	seq     uint64

	key     func(*T) string
	owner   func(*T) string
	sortKey func(*T) int
}

func newKindStore[T any](key func(*T) string, owner func(*T) string, sortKey func(*T) int) *kindStore[T] {
	s := &kindStore[T]{key: key, owner: owner, sortKey: sortKey}
	s.current.Store(&table[T]{byKey: map[string]entry[T]{}, byOwner: map[string][]*T{}})
	return s
}

func (s *kindStore[T]) load() *table[T] {
	return s.current.Load()
}

// upsert stores v under its key. It reports whether the table changed.
func (s *kindStore[T]) upsert(v T) bool {
	k := s.key(&v)
	if k == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.load()
	prev, exists := old.byKey[k]
	if exists && reflect.DeepEqual(*prev.val, v) {
		return false
	}

	seq := prev.seq
	if !exists {
		s.seq++
		seq = s.seq
	}

	byKey := make(map[string]entry[T], len(old.byKey)+1)
	for key, e := range old.byKey {
		byKey[key] = e
	}
	byKey[k] = entry[T]{val: &v, seq: seq}

	affected := []string{}
	if s.owner != nil {
		affected = append(affected, s.owner(&v))
		if exists {
			affected = append(affected, s.owner(prev.val))
		}
	}
	s.publish(old, byKey, affected)
	return true
}

// remove deletes the entry for k. Removing an absent key is a no-op.
func (s *kindStore[T]) remove(k string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.load()
	prev, exists := old.byKey[k]
	if !exists {
		return false
	}

	byKey := make(map[string]entry[T], len(old.byKey))
	for key, e := range old.byKey {
		if key != k {
			byKey[key] = e
		}
	}

	var affected []string
	if s.owner != nil {
		affected = []string{s.owner(prev.val)}
	}
	s.publish(old, byKey, affected)
	return true
}

// replace discards every entry and installs vals. Later duplicates of a key
// win; insertion order follows vals.
func (s *kindStore[T]) replace(vals []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey := make(map[string]entry[T], len(vals))
	for i := range vals {
		v := vals[i]
		k := s.key(&v)
		if k == "" {
			continue
		}
		seq := s.seq + 1
		if prev, ok := byKey[k]; ok {
			seq = prev.seq
		} else {
			s.seq++
		}
		byKey[k] = entry[T]{val: &v, seq: seq}
	}

	t := &table[T]{byKey: byKey, byOwner: map[string][]*T{}}
	t.ordered = s.sorted(byKey, nil)
	if s.owner != nil {
		for _, v := range t.ordered {
			o := s.owner(v)
			t.byOwner[o] = append(t.byOwner[o], v)
		}
	}
	s.current.Store(t)
}

// publish builds the next table from byKey, rebuilding only the owner lists
// named in affected.
func (s *kindStore[T]) publish(old *table[T], byKey map[string]entry[T], affected []string) {
	t := &table[T]{byKey: byKey, byOwner: make(map[string][]*T, len(old.byOwner))}
	t.ordered = s.sorted(byKey, nil)

	if s.owner != nil {
		for o, list := range old.byOwner {
			t.byOwner[o] = list
		}
		for _, o := range affected {
			list := s.sorted(byKey, func(v *T) bool { return s.owner(v) == o })
			if len(list) == 0 {
				delete(t.byOwner, o)
				continue
			}
			t.byOwner[o] = list
		}
	}
	s.current.Store(t)
}

func (s *kindStore[T]) sorted(byKey map[string]entry[T], keep func(*T) bool) []*T {
	entries := make([]entry[T], 0, len(byKey))
	for _, e := range byKey {
		if keep == nil || keep(e.val) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		si, sj := s.sortKey(entries[i].val), s.sortKey(entries[j].val)
		if si != sj {
			return si < sj
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]*T, len(entries))
	for i, e := range entries {
		out[i] = e.val
	}
	return out
}

func (t *table[T]) get(k string) *T {
	if e, ok := t.byKey[k]; ok {
		return e.val
	}
	return nil
}

func (t *table[T]) values() []T {
	out := make([]T, len(t.ordered))
	for i, v := range t.ordered {
		out[i] = *v
	}
	return out
}
