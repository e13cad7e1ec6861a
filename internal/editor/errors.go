package editor

import "fmt"

// Kind names an entity type in commit results and errors.
type Kind string

const (
	KindIssue Kind = "issue"
	KindTopic Kind = "topic"
	KindLink  Kind = "link"
)

// PatchRef identifies one draft patch by store and draft key. For created
// entities the key is the client-temporary id.
type PatchRef struct {
	Kind Kind
	ID   string
}

// CommitError names the mutation and entity a commit attempt failed on, so
// the UI banner can point at it. It wraps the collaborator error, keeping
// the domain sentinel (unauthenticated, conflict, transient...) reachable
// through errors.Is.
type CommitError struct {
	Kind Kind
	ID   string
	Op   string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s on %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
