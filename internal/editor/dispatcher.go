package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/graphql-hive/graphql-weekly/internal/domain"
	"github.com/graphql-hive/graphql-weekly/internal/draft"
)

// plan is the commit snapshot taken under the editor lock. The dispatcher
// executes it against the collaborator without touching the draft stores,
// so field edits queued during the save cannot race the network phase.
type plan struct {
	createIssues []*draft.Patch[domain.IssueFields]
	createTopics []*draft.Patch[domain.TopicFields]
	createLinks  []*draft.Patch[domain.LinkFields]

	// one updateIssue call per entry, covering the issue's own field patch
	// plus the link updates/deletes scoped to it
	issueBatches []*issueBatch

	topicUpdates  []*draft.Patch[domain.TopicFields]
	linkUpdates   []*draft.Patch[domain.LinkFields] // standalone, issue not resolvable
	linkDeletes   []string                          // standalone
	topicDetaches []string
}

type issueBatch struct {
	issueID       string // may be a temp id until creates resolve
	fields        domain.IssueFields
	hasIssuePatch bool
	updateLinks   []LinkUpdate // link ids and topic refs may be temp ids
	deleteLinks   []string
	coveredLinks  []string // draft keys cleared if this batch succeeds
}

func (p *plan) refs() []PatchRef {
	var out []PatchRef
	for _, c := range p.createIssues {
		out = append(out, PatchRef{KindIssue, c.ID})
	}
	for _, c := range p.createTopics {
		out = append(out, PatchRef{KindTopic, c.ID})
	}
	for _, c := range p.createLinks {
		out = append(out, PatchRef{KindLink, c.ID})
	}
	for _, b := range p.issueBatches {
		if b.hasIssuePatch {
			out = append(out, PatchRef{KindIssue, b.issueID})
		}
		for _, id := range b.coveredLinks {
			out = append(out, PatchRef{KindLink, id})
		}
	}
	for _, u := range p.topicUpdates {
		out = append(out, PatchRef{KindTopic, u.ID})
	}
	for _, u := range p.linkUpdates {
		out = append(out, PatchRef{KindLink, u.ID})
	}
	for _, id := range p.linkDeletes {
		out = append(out, PatchRef{KindLink, id})
	}
	for _, id := range p.topicDetaches {
		out = append(out, PatchRef{KindTopic, id})
	}
	return out
}

// result is what the editor reconciles back into the draft stores and the
// read cache, under its lock, after the network phase finishes.
type result struct {
	applied []PatchRef
	realIDs map[string]string

	putIssues     []*domain.Issue
	putTopics     []*domain.Topic
	putLinks      []*domain.Link
	removedLinks  []string
	removedTopics []string
}

// dispatcher orders and issues the mutations for one commit attempt.
// First creates (issues, then topics, then links, so children can resolve
// freshly assigned parent ids), then field-minimal updates, then deletes
// deepest first. It aborts on the first failure; everything already applied
// stays applied, everything else is left for the retained drafts.
type dispatcher struct {
	log *slog.Logger
	gql Mutator
}

func newDispatcher(log *slog.Logger, gql Mutator) *dispatcher {
	return &dispatcher{log: log.With("component", "dispatcher"), gql: gql}
}

func (d *dispatcher) run(ctx context.Context, p *plan) (*result, error) {
	res := &result{realIDs: make(map[string]string)}

	resolve := func(id string) (string, error) {
		if !domain.IsTempID(id) {
			return id, nil
		}
		real, ok := res.realIDs[id]
		if !ok {
			return "", fmt.Errorf("unresolved temp id %s", id)
		}
		return real, nil
	}

	fail := func(kind Kind, id, op string, err error) (*result, error) {
		d.log.Warn("commit aborted",
			slog.String("op", op),
			slog.String("entity", string(kind)),
			slog.String("id", id),
			slog.String("error", err.Error()),
			slog.Int("applied", len(res.applied)),
		)
		return res, &CommitError{Kind: kind, ID: id, Op: op, Err: err}
	}

	// 1. Created issues.
	for _, c := range p.createIssues {
		f := c.Fields
		if f.Title == nil || f.Number == nil || f.Date == nil {
			return fail(KindIssue, c.ID, "createIssue", domain.NewValidationError("issue", "create draft is missing title, number or date"))
		}
		published := f.Published != nil && *f.Published
		issue, err := d.gql.CreateIssue(ctx, *f.Title, *f.Number, published, *f.Date)
		if err != nil {
			return fail(KindIssue, c.ID, "createIssue", err)
		}
		res.realIDs[c.ID] = issue.ID
		res.putIssues = append(res.putIssues, issue)
		res.applied = append(res.applied, PatchRef{KindIssue, c.ID})
	}

	// 2. Created topics, ordered by position so parents land in display
	// order. A position override rides a follow-up updateTopic.
	for _, c := range p.createTopics {
		f := c.Fields
		if f.Title == nil || f.IssueID == nil || !f.IssueID.Valid {
			return fail(KindTopic, c.ID, "createTopic", domain.NewValidationError("topic", "create draft is missing title or issue"))
		}
		issueID, err := resolve(f.IssueID.ID)
		if err != nil {
			return fail(KindTopic, c.ID, "createTopic", err)
		}
		topic, err := d.gql.CreateTopic(ctx, *f.Title, f.Comment, issueID)
		if err != nil {
			return fail(KindTopic, c.ID, "createTopic", err)
		}
		if f.Position != nil && *f.Position != topic.Position {
			if _, err := d.gql.UpdateTopic(ctx, topic.ID, domain.TopicFields{Position: f.Position}); err != nil {
				return fail(KindTopic, c.ID, "updateTopic", err)
			}
			topic.Position = *f.Position
		}
		res.realIDs[c.ID] = topic.ID
		res.putTopics = append(res.putTopics, topic)
		res.applied = append(res.applied, PatchRef{KindTopic, c.ID})
	}

	// 3. Created links: createLink carries only the url; title/text follow
	// via updateLink and the topic attachment via addLinksToTopic.
	for _, c := range p.createLinks {
		f := c.Fields
		if f.URL == nil {
			return fail(KindLink, c.ID, "createLink", domain.NewValidationError("url", "is required"))
		}
		link, err := d.gql.CreateLink(ctx, *f.URL)
		if err != nil {
			return fail(KindLink, c.ID, "createLink", err)
		}
		if f.Title != nil || f.Text != nil {
			updated, err := d.gql.UpdateLink(ctx, link.ID, domain.LinkFields{Title: f.Title, Text: f.Text})
			if err != nil {
				return fail(KindLink, c.ID, "updateLink", err)
			}
			link = updated
		}
		if f.TopicID != nil && f.TopicID.Valid {
			topicID, err := resolve(f.TopicID.ID)
			if err != nil {
				return fail(KindLink, c.ID, "addLinksToTopic", err)
			}
			if err := d.gql.AddLinkToTopic(ctx, topicID, link.ID); err != nil {
				return fail(KindLink, c.ID, "addLinksToTopic", err)
			}
			link.TopicID = &topicID
		}
		if f.Position != nil {
			link.Position = *f.Position
		}
		res.realIDs[c.ID] = link.ID
		res.putLinks = append(res.putLinks, link)
		res.applied = append(res.applied, PatchRef{KindLink, c.ID})
	}

	// 4. Per-issue update batches: issue fields plus the issue's link
	// updates and deletes in one mutation, the shape updateIssue offers.
	for _, b := range p.issueBatches {
		issueID, err := resolve(b.issueID)
		if err != nil {
			return fail(KindIssue, b.issueID, "updateIssue", err)
		}
		updates := make([]LinkUpdate, 0, len(b.updateLinks))
		for _, u := range b.updateLinks {
			id, err := resolve(u.ID)
			if err != nil {
				return fail(KindLink, u.ID, "updateIssue", err)
			}
			if u.Fields.TopicID != nil && u.Fields.TopicID.Valid {
				tid, err := resolve(u.Fields.TopicID.ID)
				if err != nil {
					return fail(KindLink, u.ID, "updateIssue", err)
				}
				u.Fields.TopicID = domain.SetID(tid)
			}
			updates = append(updates, LinkUpdate{ID: id, Fields: u.Fields})
		}
		deletes := make([]string, 0, len(b.deleteLinks))
		for _, id := range b.deleteLinks {
			real, err := resolve(id)
			if err != nil {
				return fail(KindLink, id, "updateIssue", err)
			}
			deletes = append(deletes, real)
		}

		issue, err := d.gql.UpdateIssue(ctx, issueID, b.fields, updates, deletes)
		if err != nil {
			return fail(KindIssue, issueID, "updateIssue", err)
		}
		res.putIssues = append(res.putIssues, issue)
		res.removedLinks = append(res.removedLinks, deletes...)
		if b.hasIssuePatch {
			res.applied = append(res.applied, PatchRef{KindIssue, b.issueID})
		}
		for _, id := range b.coveredLinks {
			res.applied = append(res.applied, PatchRef{KindLink, id})
		}
	}

	// 5. Remaining topic updates.
	for _, u := range p.topicUpdates {
		topic, err := d.gql.UpdateTopic(ctx, u.ID, u.Fields)
		if err != nil {
			return fail(KindTopic, u.ID, "updateTopic", err)
		}
		res.putTopics = append(res.putTopics, topic)
		res.applied = append(res.applied, PatchRef{KindTopic, u.ID})
	}

	// 6. Standalone link updates (links whose owning issue could not be
	// resolved, typically the unassigned pool).
	for _, u := range p.linkUpdates {
		f := u.Fields
		if f.TopicID != nil && f.TopicID.Valid {
			real, err := resolve(f.TopicID.ID)
			if err != nil {
				return fail(KindLink, u.ID, "updateLink", err)
			}
			f.TopicID = domain.SetID(real)
		}
		link, err := d.gql.UpdateLink(ctx, u.ID, f)
		if err != nil {
			return fail(KindLink, u.ID, "updateLink", err)
		}
		res.putLinks = append(res.putLinks, link)
		res.applied = append(res.applied, PatchRef{KindLink, u.ID})
	}

	// 7. Deletes, deepest first: links before their topics.
	for _, id := range p.linkDeletes {
		if err := d.gql.DeleteLink(ctx, id); err != nil {
			return fail(KindLink, id, "deleteLink", err)
		}
		res.removedLinks = append(res.removedLinks, id)
		res.applied = append(res.applied, PatchRef{KindLink, id})
	}
	for _, id := range p.topicDetaches {
		if err := d.gql.DetachTopic(ctx, id); err != nil {
			return fail(KindTopic, id, "updateTopicWhenIssueDeleted", err)
		}
		res.removedTopics = append(res.removedTopics, id)
		res.applied = append(res.applied, PatchRef{KindTopic, id})
	}

	d.log.Info("commit applied", slog.Int("mutated", len(res.applied)))
	return res, nil
}
