package draft

// Set bundles the per-type stores and aggregates them into the single
// "unsaved changes" signal the UI gates on.
type Set struct {
	Issues *IssueStore
	Topics *TopicStore
	Links  *LinkStore

	onChange func()
}

// NewSet creates empty stores for all tracked entity types. Subscriber and
// LinkSubmission are append-only and carry no drafts.
func NewSet() *Set {
	s := &Set{
		Issues: NewIssueStore(),
		Topics: NewTopicStore(),
		Links:  NewLinkStore(),
	}
	notify := func() {
		if s.onChange != nil {
			s.onChange()
		}
	}
	s.Issues.notify = notify
	s.Topics.notify = notify
	s.Links.notify = notify
	return s
}

// OnChange registers the callback invoked after any store mutation.
// The UI uses it to re-render the pending-changes indicator.
func (s *Set) OnChange(fn func()) { s.onChange = fn }

// PendingCount is the number of distinct dirty entities across all types.
// Each entity counts once no matter how many of its fields changed. It is
// always computed from live store state, so a clear can never leave a
// stale count behind.
func (s *Set) PendingCount() int {
	return s.Issues.Len() + s.Topics.Len() + s.Links.Len()
}

// HasPending reports whether any draft is waiting to be saved.
func (s *Set) HasPending() bool { return s.PendingCount() > 0 }

// ClearAll drops every patch in every store. Used by discard and after a
// fully successful save.
func (s *Set) ClearAll() {
	s.Issues.ClearAll()
	s.Topics.ClearAll()
	s.Links.ClearAll()
}
