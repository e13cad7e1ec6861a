package domain

import "time"

// Issue is one weekly newsletter issue. Topics are ordered by Position.
type Issue struct {
	ID           string
	Number       int
	Title        string
	Date         time.Time
	Published    bool
	PublishedAt  *time.Time
	VersionCount int
	PreviewImage *string
	Topics       []*Topic
}

// Topic is a named group of links inside an issue.
// IssueID is nil when the topic has been detached from its issue,
// which is distinct from deletion.
type Topic struct {
	ID       string
	IssueID  *string
	Title    string
	Comment  *string
	Position int // dense 0..n-1 among siblings of one issue
	Links    []*Link
}

// Link is a curated URL. TopicID nil means the link sits in the
// unassigned pool.
type Link struct {
	ID       string
	TopicID  *string
	URL      string
	Title    string
	Text     string
	Position int // dense 0..n-1 within its topic or the unassigned pool
}

// LinkSubmission is a reader-submitted link waiting in the staging queue
// until a curator converts it into a Link.
type LinkSubmission struct {
	ID          string
	Name        string
	Email       string
	URL         string
	Title       string
	Description string
	CreatedAt   time.Time
}

// Subscriber is a newsletter signup. Append-only.
type Subscriber struct {
	ID    string
	Name  string
	Email string
}
