package graphql

import (
	"fmt"
	"time"

	"github.com/graphql-hive/graphql-weekly/internal/domain"
)

// Wire shapes mirror the collaborator schema exactly; they are validated
// here at the boundary and converted into domain structs so nothing
// downstream trusts raw response data.

type idRef struct {
	ID string
}

type issueWire struct {
	ID           string
	Number       int
	Title        string
	Date         *string
	Published    bool
	PublishedAt  *string
	VersionCount int
	PreviewImage *string
	Topics       []topicWire
}

type topicWire struct {
	ID       string
	Title    string
	Comment  *string
	Position int
	Issue    *idRef
	Links    []linkWire
}

type linkWire struct {
	ID       string
	URL      string
	Title    string
	Text     string
	Position int
	Topic    *idRef
}

type subscriberWire struct {
	ID    string
	Name  string
	Email string
}

type submissionWire struct {
	ID          string
	Name        string
	Email       string
	URL         string
	Title       string
	Description string
	CreatedAt   *string
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (w issueWire) toDomain() (*domain.Issue, error) {
	if w.ID == "" {
		return nil, fmt.Errorf("issue response is missing id")
	}
	issue := &domain.Issue{
		ID:           w.ID,
		Number:       w.Number,
		Title:        w.Title,
		Published:    w.Published,
		VersionCount: w.VersionCount,
		PreviewImage: w.PreviewImage,
	}
	if w.Date != nil && *w.Date != "" {
		t, err := parseTime(*w.Date)
		if err != nil {
			return nil, fmt.Errorf("issue %s date: %w", w.ID, err)
		}
		issue.Date = t
	}
	if w.PublishedAt != nil && *w.PublishedAt != "" {
		t, err := parseTime(*w.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("issue %s publishedAt: %w", w.ID, err)
		}
		issue.PublishedAt = &t
	}
	for _, tw := range w.Topics {
		topic, err := tw.toDomain()
		if err != nil {
			return nil, err
		}
		issue.Topics = append(issue.Topics, topic)
	}
	return issue, nil
}

func (w topicWire) toDomain() (*domain.Topic, error) {
	if w.ID == "" {
		return nil, fmt.Errorf("topic response is missing id")
	}
	topic := &domain.Topic{
		ID:       w.ID,
		Title:    w.Title,
		Comment:  w.Comment,
		Position: w.Position,
	}
	if w.Issue != nil && w.Issue.ID != "" {
		id := w.Issue.ID
		topic.IssueID = &id
	}
	for _, lw := range w.Links {
		link, err := lw.toDomain()
		if err != nil {
			return nil, err
		}
		if link.TopicID == nil {
			id := w.ID
			link.TopicID = &id
		}
		topic.Links = append(topic.Links, link)
	}
	return topic, nil
}

func (w linkWire) toDomain() (*domain.Link, error) {
	if w.ID == "" {
		return nil, fmt.Errorf("link response is missing id")
	}
	link := &domain.Link{
		ID:       w.ID,
		URL:      w.URL,
		Title:    w.Title,
		Text:     w.Text,
		Position: w.Position,
	}
	if w.Topic != nil && w.Topic.ID != "" {
		id := w.Topic.ID
		link.TopicID = &id
	}
	return link, nil
}

func (w subscriberWire) toDomain() *domain.Subscriber {
	return &domain.Subscriber{ID: w.ID, Name: w.Name, Email: w.Email}
}

func (w submissionWire) toDomain() (*domain.LinkSubmission, error) {
	sub := &domain.LinkSubmission{
		ID:          w.ID,
		Name:        w.Name,
		Email:       w.Email,
		URL:         w.URL,
		Title:       w.Title,
		Description: w.Description,
	}
	if w.CreatedAt != nil && *w.CreatedAt != "" {
		t, err := parseTime(*w.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("submission %s createdAt: %w", w.ID, err)
		}
		sub.CreatedAt = t
	}
	return sub, nil
}
