// Package graphql is the typed client for the newsletter's GraphQL
// collaborator: the queries and mutations of the remote API, decoded at
// the boundary into domain structs, with GraphQL error codes mapped back
// onto the domain error taxonomy.
package graphql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gql "github.com/hasura/go-graphql-client"

	"github.com/graphql-hive/graphql-weekly/internal/auth"
	"github.com/graphql-hive/graphql-weekly/internal/domain"
	"github.com/graphql-hive/graphql-weekly/internal/editor"
)

// Client implements editor.Collaborator against a GraphQL endpoint.
type Client struct {
	log *slog.Logger
	gql *gql.Client
}

// New creates a client for the given endpoint. session may be nil for the
// public read/intake operations; curator mutations then fail with
// UNAUTHENTICATED at the collaborator. httpClient may be nil to use the
// default; timeouts belong to it, and a timeout surfaces like any other
// transient failure.
func New(log *slog.Logger, endpoint string, httpClient *http.Client, session *auth.Session) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("graphql: endpoint is empty")
	}
	if err := validateOperations(); err != nil {
		return nil, fmt.Errorf("graphql: %w", err)
	}

	// A typed nil *http.Client would slip past the library's own nil
	// check on its Doer interface and panic on first use.
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := gql.NewClient(endpoint, httpClient)
	if session != nil {
		c = c.WithRequestModifier(func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+session.Token())
		})
	}

	return &Client{
		log: log.With("component", "graphql"),
		gql: c,
	}, nil
}

// exec runs one operation and maps transport and GraphQL errors onto the
// domain taxonomy.
func (c *Client) exec(ctx context.Context, op string, doc string, vars map[string]any, out any) error {
	if err := c.gql.Exec(ctx, doc, out, vars); err != nil {
		mapped := mapError(err)
		c.log.Warn("operation failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, mapped)
	}
	return nil
}

// mapError translates collaborator failures: GraphQL error extension codes
// become domain sentinels, anything transport-level is transient.
func mapError(err error) error {
	var gqlErrs gql.Errors
	if errors.As(err, &gqlErrs) && len(gqlErrs) > 0 {
		first := gqlErrs[0]
		code, _ := first.Extensions["code"].(string)
		switch code {
		case "UNAUTHENTICATED":
			return fmt.Errorf("%s: %w", first.Message, domain.ErrUnauthenticated)
		case "NOT_FOUND":
			return fmt.Errorf("%s: %w", first.Message, domain.ErrNotFound)
		case "CONFLICT":
			return fmt.Errorf("%s: %w", first.Message, domain.ErrConflict)
		case "VALIDATION", "BAD_USER_INPUT":
			return fmt.Errorf("%s: %w", first.Message, domain.ErrValidation)
		default:
			return fmt.Errorf("%s: %w", first.Message, domain.ErrTransient)
		}
	}
	return fmt.Errorf("%v: %w", err, domain.ErrTransient)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// AllIssues returns every issue with nested topics and links.
func (c *Client) AllIssues(ctx context.Context) ([]*domain.Issue, error) {
	var resp struct{ AllIssues []issueWire }
	if err := c.exec(ctx, "allIssues", queryAllIssues, nil, &resp); err != nil {
		return nil, err
	}
	issues := make([]*domain.Issue, 0, len(resp.AllIssues))
	for _, w := range resp.AllIssues {
		issue, err := w.toDomain()
		if err != nil {
			return nil, fmt.Errorf("allIssues: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// IssueByID returns one issue with nested topics and links.
func (c *Client) IssueByID(ctx context.Context, id string) (*domain.Issue, error) {
	var resp struct{ Issue *issueWire }
	if err := c.exec(ctx, "issue", queryIssue, map[string]any{"id": id}, &resp); err != nil {
		return nil, err
	}
	if resp.Issue == nil {
		return nil, fmt.Errorf("issue %s: %w", id, domain.ErrNotFound)
	}
	issue, err := resp.Issue.toDomain()
	if err != nil {
		return nil, fmt.Errorf("issue %s: %w", id, err)
	}
	return issue, nil
}

// AllLinks returns every link.
func (c *Client) AllLinks(ctx context.Context) ([]*domain.Link, error) {
	var resp struct{ AllLinks []linkWire }
	if err := c.exec(ctx, "allLinks", queryAllLinks, nil, &resp); err != nil {
		return nil, err
	}
	return mapLinks(resp.AllLinks)
}

// UnassignedLinks returns the links with no owning topic.
func (c *Client) UnassignedLinks(ctx context.Context) ([]*domain.Link, error) {
	var resp struct{ UnassignedLinks []linkWire }
	if err := c.exec(ctx, "unassignedLinks", queryUnassignedLinks, nil, &resp); err != nil {
		return nil, err
	}
	return mapLinks(resp.UnassignedLinks)
}

func mapLinks(wires []linkWire) ([]*domain.Link, error) {
	links := make([]*domain.Link, 0, len(wires))
	for _, w := range wires {
		link, err := w.toDomain()
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// CreateIssue creates a new issue.
func (c *Client) CreateIssue(ctx context.Context, title string, number int, published bool, date time.Time) (*domain.Issue, error) {
	vars := map[string]any{
		"title":     title,
		"number":    number,
		"published": published,
		"date":      date.Format(time.RFC3339),
	}
	var resp struct{ CreateIssue issueWire }
	if err := c.exec(ctx, "createIssue", mutationCreateIssue, vars, &resp); err != nil {
		return nil, err
	}
	return resp.CreateIssue.toDomain()
}

// UpdateIssue sends only the changed issue fields plus the batched link
// updates and deletes scoped to this issue.
func (c *Client) UpdateIssue(ctx context.Context, id string, fields domain.IssueFields, updateLinks []editor.LinkUpdate, deleteLinks []string) (*domain.Issue, error) {
	vars := map[string]any{"id": id}
	if fields.Title != nil {
		vars["title"] = *fields.Title
	}
	if fields.Date != nil {
		vars["date"] = fields.Date.Format(time.RFC3339)
	}
	if fields.Published != nil {
		vars["published"] = *fields.Published
	}
	if fields.VersionCount != nil {
		vars["versionCount"] = *fields.VersionCount
	}
	if fields.PreviewImage != nil {
		vars["previewImage"] = *fields.PreviewImage
	}
	if len(updateLinks) > 0 {
		inputs := make([]map[string]any, 0, len(updateLinks))
		for _, u := range updateLinks {
			inputs = append(inputs, linkUpdateInput(u))
		}
		vars["updateLinks"] = inputs
	}
	if len(deleteLinks) > 0 {
		vars["deleteLinks"] = deleteLinks
	}

	var resp struct{ UpdateIssue issueWire }
	if err := c.exec(ctx, "updateIssue", mutationUpdateIssue, vars, &resp); err != nil {
		return nil, err
	}
	return resp.UpdateIssue.toDomain()
}

// linkUpdateInput encodes one LinkUpdateInput entry, including topicId
// only when the draft actually touches it so an absent field never
// detaches a link.
func linkUpdateInput(u editor.LinkUpdate) map[string]any {
	input := map[string]any{"id": u.ID}
	if u.Fields.Position != nil {
		input["position"] = *u.Fields.Position
	}
	if u.Fields.Title != nil {
		input["title"] = *u.Fields.Title
	}
	if u.Fields.Text != nil {
		input["text"] = *u.Fields.Text
	}
	if u.Fields.URL != nil {
		input["url"] = *u.Fields.URL
	}
	if u.Fields.TopicID != nil {
		input["topicId"] = u.Fields.TopicID.Ptr() // nil encodes as null
	}
	return input
}

// CreateTopic creates a topic attached to an issue.
func (c *Client) CreateTopic(ctx context.Context, title string, comment *string, issueID string) (*domain.Topic, error) {
	vars := map[string]any{
		"title":   title,
		"issueId": issueID,
	}
	if comment != nil {
		vars["comment"] = *comment
	}
	var resp struct{ CreateTopic topicWire }
	if err := c.exec(ctx, "createTopic", mutationCreateTopic, vars, &resp); err != nil {
		return nil, err
	}
	return resp.CreateTopic.toDomain()
}

// UpdateTopic sends only the changed topic fields.
func (c *Client) UpdateTopic(ctx context.Context, id string, fields domain.TopicFields) (*domain.Topic, error) {
	vars := map[string]any{"id": id}
	if fields.Title != nil {
		vars["title"] = *fields.Title
	}
	if fields.Comment != nil {
		vars["comment"] = *fields.Comment
	}
	if fields.Position != nil {
		vars["position"] = *fields.Position
	}
	var resp struct{ UpdateTopic topicWire }
	if err := c.exec(ctx, "updateTopic", mutationUpdateTopic, vars, &resp); err != nil {
		return nil, err
	}
	return resp.UpdateTopic.toDomain()
}

// DetachTopic disconnects a topic from its issue, the collaborator's
// spelling of topic removal.
func (c *Client) DetachTopic(ctx context.Context, id string) error {
	var resp struct {
		UpdateTopicWhenIssueDeleted idRef
	}
	return c.exec(ctx, "updateTopicWhenIssueDeleted", mutationDetachTopic, map[string]any{"id": id}, &resp)
}

// CreateLink creates a link from a url alone; metadata follows via
// UpdateLink.
func (c *Client) CreateLink(ctx context.Context, url string) (*domain.Link, error) {
	var resp struct{ CreateLink linkWire }
	if err := c.exec(ctx, "createLink", mutationCreateLink, map[string]any{"url": url}, &resp); err != nil {
		return nil, err
	}
	return resp.CreateLink.toDomain()
}

// UpdateLink sends only the changed link fields.
func (c *Client) UpdateLink(ctx context.Context, id string, fields domain.LinkFields) (*domain.Link, error) {
	vars := map[string]any{"id": id}
	if fields.Title != nil {
		vars["title"] = *fields.Title
	}
	if fields.Text != nil {
		vars["text"] = *fields.Text
	}
	if fields.URL != nil {
		vars["url"] = *fields.URL
	}
	if fields.Position != nil {
		vars["position"] = *fields.Position
	}
	if fields.TopicID != nil {
		vars["topicId"] = fields.TopicID.Ptr()
	}
	var resp struct{ UpdateLink linkWire }
	if err := c.exec(ctx, "updateLink", mutationUpdateLink, vars, &resp); err != nil {
		return nil, err
	}
	return resp.UpdateLink.toDomain()
}

// DeleteLink removes a link.
func (c *Client) DeleteLink(ctx context.Context, id string) error {
	var resp struct{ DeleteLink *idRef }
	return c.exec(ctx, "deleteLink", mutationDeleteLink, map[string]any{"id": id}, &resp)
}

// AddLinkToTopic attaches a link to a topic.
func (c *Client) AddLinkToTopic(ctx context.Context, topicID, linkID string) error {
	vars := map[string]any{"topicId": topicID, "linkId": linkID}
	var resp struct{ AddLinksToTopic idRef }
	return c.exec(ctx, "addLinksToTopic", mutationAddLinkToTopic, vars, &resp)
}

// CreateSubscriber registers a newsletter signup.
func (c *Client) CreateSubscriber(ctx context.Context, name, email string) (*domain.Subscriber, error) {
	vars := map[string]any{"name": name, "email": email}
	var resp struct{ CreateSubscriber subscriberWire }
	if err := c.exec(ctx, "createSubscriber", mutationCreateSubscriber, vars, &resp); err != nil {
		return nil, err
	}
	return resp.CreateSubscriber.toDomain(), nil
}

// CreateSubmissionLink stages a reader link submission.
func (c *Client) CreateSubmissionLink(ctx context.Context, name, email, description, title, url string) (*domain.LinkSubmission, error) {
	vars := map[string]any{
		"name":        name,
		"email":       email,
		"description": description,
		"title":       title,
		"url":         url,
	}
	var resp struct{ CreateSubmissionLink submissionWire }
	if err := c.exec(ctx, "createSubmissionLink", mutationCreateSubmissionLink, vars, &resp); err != nil {
		return nil, err
	}
	return resp.CreateSubmissionLink.toDomain()
}
