package editor

import (
	"sort"

	"github.com/graphql-hive/graphql-weekly/internal/domain"
	"github.com/graphql-hive/graphql-weekly/internal/draft"
)

// The effective view is what the CMS renders: baseline entities with
// pending patches overlaid, tombstoned entities suppressed, created
// entities materialized. Baselines themselves stay untouched, so discard
// reverts exactly.

// EffectiveIssue returns the merged view of one issue (fields only, no
// nesting; use EffectiveTopics for the ordered tree).
func (e *Editor) EffectiveIssue(id string) (domain.Issue, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	base, _ := e.cache.Issue(id)
	return e.drafts.Issues.Effective(id, base)
}

// EffectiveTopics returns the issue's visible topics in draft order.
func (e *Editor) EffectiveTopics(issueID string) []*domain.Topic {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectiveTopics(issueID)
}

// EffectiveLinks returns the visible links of a topic, or of the
// unassigned pool when topicID is nil, in draft order.
func (e *Editor) EffectiveLinks(topicID *string) []*domain.Link {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectiveLinks(topicID)
}

func (e *Editor) effectiveTopic(id string) (domain.Topic, bool) {
	base, _ := e.cache.Topic(id)
	return e.drafts.Topics.Effective(id, base)
}

func (e *Editor) effectiveLink(id string) (domain.Link, bool) {
	base, _ := e.cache.Link(id)
	return e.drafts.Links.Effective(id, base)
}

func (e *Editor) effectiveTopics(issueID string) []*domain.Topic {
	seen := make(map[string]bool)
	var out []*domain.Topic

	for _, base := range e.cache.TopicsByIssue(issueID) {
		seen[base.ID] = true
		eff, ok := e.drafts.Topics.Effective(base.ID, base)
		if ok && eff.IssueID != nil && *eff.IssueID == issueID {
			t := eff
			out = append(out, &t)
		}
	}

	// Created topics and topics moved into this issue by a pending patch.
	for _, p := range e.drafts.Topics.ListDirty() {
		if seen[p.ID] {
			continue
		}
		base, _ := e.cache.Topic(p.ID)
		eff, ok := e.drafts.Topics.Effective(p.ID, base)
		if ok && eff.IssueID != nil && *eff.IssueID == issueID {
			t := eff
			out = append(out, &t)
		}
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Position < out[b].Position })
	return out
}

func (e *Editor) effectiveLinks(topicID *string) []*domain.Link {
	var baseline []*domain.Link
	if topicID == nil {
		baseline = e.cache.UnassignedLinks()
	} else {
		baseline = e.cache.LinksByTopic(*topicID)
	}

	seen := make(map[string]bool)
	var out []*domain.Link

	for _, base := range baseline {
		seen[base.ID] = true
		eff, ok := e.drafts.Links.Effective(base.ID, base)
		if ok && sameContainer(eff.TopicID, topicID) {
			l := eff
			out = append(out, &l)
		}
	}

	// Created links and links dragged into this container.
	for _, p := range e.drafts.Links.ListDirty() {
		if seen[p.ID] || p.Origin == draft.OriginDeleted {
			continue
		}
		base, _ := e.cache.Link(p.ID)
		eff, ok := e.drafts.Links.Effective(p.ID, base)
		if ok && sameContainer(eff.TopicID, topicID) {
			l := eff
			out = append(out, &l)
		}
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Position < out[b].Position })
	return out
}

func topicIDs(topics []*domain.Topic) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.ID
	}
	return out
}

func linkIDs(links []*domain.Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.ID
	}
	return out
}
