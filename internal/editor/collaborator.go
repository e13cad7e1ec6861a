package editor

import (
	"context"
	"time"

	"github.com/graphql-hive/graphql-weekly/internal/domain"
)

// LinkUpdate is one entry of the batched updateLinks argument of the
// updateIssue mutation.
type LinkUpdate struct {
	ID     string
	Fields domain.LinkFields
}

// Reader is the query side of the GraphQL collaborator.
type Reader interface {
	AllIssues(ctx context.Context) ([]*domain.Issue, error)
	IssueByID(ctx context.Context, id string) (*domain.Issue, error)
	AllLinks(ctx context.Context) ([]*domain.Link, error)
	UnassignedLinks(ctx context.Context) ([]*domain.Link, error)
}

// Mutator is the mutation side of the GraphQL collaborator. Mutations that
// require curator identity fail with domain.ErrUnauthenticated when the
// session is missing or stale.
type Mutator interface {
	CreateIssue(ctx context.Context, title string, number int, published bool, date time.Time) (*domain.Issue, error)
	UpdateIssue(ctx context.Context, id string, fields domain.IssueFields, updateLinks []LinkUpdate, deleteLinks []string) (*domain.Issue, error)

	CreateTopic(ctx context.Context, title string, comment *string, issueID string) (*domain.Topic, error)
	UpdateTopic(ctx context.Context, id string, fields domain.TopicFields) (*domain.Topic, error)
	// DetachTopic is the updateTopicWhenIssueDeleted mutation: the topic is
	// disconnected from its issue, which is how the contract spells topic
	// removal.
	DetachTopic(ctx context.Context, id string) error

	CreateLink(ctx context.Context, url string) (*domain.Link, error)
	UpdateLink(ctx context.Context, id string, fields domain.LinkFields) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
	AddLinkToTopic(ctx context.Context, topicID, linkID string) error

	CreateSubscriber(ctx context.Context, name, email string) (*domain.Subscriber, error)
	CreateSubmissionLink(ctx context.Context, name, email, description, title, url string) (*domain.LinkSubmission, error)
}

// Collaborator is the full remote contract the editor consumes.
type Collaborator interface {
	Reader
	Mutator
}
