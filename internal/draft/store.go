// Package draft tracks pending curator edits against server-fetched
// baselines. All divergence lives in per-entity-type patch maps; baseline
// entities are never mutated, which is what makes discard exact.
package draft

import "github.com/graphql-hive/graphql-weekly/internal/domain"

// Origin tags how a patch came to exist.
type Origin string

const (
	// OriginExisting overrides fields of a server-fetched entity.
	OriginExisting Origin = "EXISTING"
	// OriginCreated has no server counterpart yet; its id is a temp id.
	OriginCreated Origin = "CREATED"
	// OriginDeleted is a tombstone suppressing the entity from all views.
	OriginDeleted Origin = "DELETED"
)

// Patch is the pending override record for one entity. A given id has at
// most one patch per store at any time; later edits merge into it.
type Patch[F any] struct {
	ID     string
	Origin Origin
	Fields F
}

// Store holds patches for one entity type. It is not safe for concurrent
// use; the editor serializes access.
type Store[E any, F any] struct {
	patches map[string]*Patch[F]
	merge   func(dst *F, src F)
	apply   func(base E, f F) E
	from    func(id string, f F) E
	notify  func()
}

func newStore[E any, F any](
	merge func(*F, F),
	apply func(E, F) E,
	from func(string, F) E,
) *Store[E, F] {
	return &Store[E, F]{
		patches: make(map[string]*Patch[F]),
		merge:   merge,
		apply:   apply,
		from:    from,
		notify:  func() {},
	}
}

// RecordFieldEdit merges fields into the patch for id, creating an
// EXISTING patch if none is present. Edits against a DELETED id are
// silently dropped.
func (s *Store[E, F]) RecordFieldEdit(id string, fields F) {
	p, ok := s.patches[id]
	if ok && p.Origin == OriginDeleted {
		return
	}
	if !ok {
		p = &Patch[F]{ID: id, Origin: OriginExisting}
		s.patches[id] = p
	}
	s.merge(&p.Fields, fields)
	s.notify()
}

// RecordCreate registers a CREATED patch under a client-temporary id.
func (s *Store[E, F]) RecordCreate(tempID string, fields F) {
	p := &Patch[F]{ID: tempID, Origin: OriginCreated}
	s.merge(&p.Fields, fields)
	s.patches[tempID] = p
	s.notify()
}

// RecordDelete tombstones id. A CREATED patch is removed outright since
// there is nothing to delete server-side.
func (s *Store[E, F]) RecordDelete(id string) {
	if p, ok := s.patches[id]; ok && p.Origin == OriginCreated {
		delete(s.patches, id)
		s.notify()
		return
	}
	s.patches[id] = &Patch[F]{ID: id, Origin: OriginDeleted}
	s.notify()
}

// Patch returns the pending patch for id, if any.
func (s *Store[E, F]) Patch(id string) (*Patch[F], bool) {
	p, ok := s.patches[id]
	return p, ok
}

// Effective merges baseline with the patch for id. It returns false when
// the entity is tombstoned. A CREATED patch materializes without a
// baseline; baseline may then be nil.
func (s *Store[E, F]) Effective(id string, baseline *E) (E, bool) {
	var zero E
	p, ok := s.patches[id]
	if !ok {
		if baseline == nil {
			return zero, false
		}
		return *baseline, true
	}
	switch p.Origin {
	case OriginDeleted:
		return zero, false
	case OriginCreated:
		return s.from(p.ID, p.Fields), true
	default:
		if baseline == nil {
			return zero, false
		}
		return s.apply(*baseline, p.Fields), true
	}
}

// ListDirty returns every pending patch, all origins included.
func (s *Store[E, F]) ListDirty() []*Patch[F] {
	out := make([]*Patch[F], 0, len(s.patches))
	for _, p := range s.patches {
		out = append(out, p)
	}
	return out
}

// Clear removes the patch for id, used after a successful save.
func (s *Store[E, F]) Clear(id string) {
	if _, ok := s.patches[id]; !ok {
		return
	}
	delete(s.patches, id)
	s.notify()
}

// ClearAll removes every patch.
func (s *Store[E, F]) ClearAll() {
	if len(s.patches) == 0 {
		return
	}
	s.patches = make(map[string]*Patch[F])
	s.notify()
}

// Len is the number of distinct dirty entities in this store.
func (s *Store[E, F]) Len() int { return len(s.patches) }

// IssueStore tracks issue patches.
type IssueStore = Store[domain.Issue, domain.IssueFields]

// TopicStore tracks topic patches.
type TopicStore = Store[domain.Topic, domain.TopicFields]

// LinkStore tracks link patches.
type LinkStore = Store[domain.Link, domain.LinkFields]

// NewIssueStore creates an empty issue store.
func NewIssueStore() *IssueStore {
	return newStore(domain.MergeIssueFields, domain.ApplyIssueFields, domain.IssueFromFields)
}

// NewTopicStore creates an empty topic store.
func NewTopicStore() *TopicStore {
	return newStore(domain.MergeTopicFields, domain.ApplyTopicFields, domain.TopicFromFields)
}

// NewLinkStore creates an empty link store.
func NewLinkStore() *LinkStore {
	return newStore(domain.MergeLinkFields, domain.ApplyLinkFields, domain.LinkFromFields)
}
