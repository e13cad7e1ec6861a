// Package cache is the client-side baseline store: the last-fetched,
// unmodified server state of issues, topics and links. It is constructor
// injected into the editor and dispatcher so tests can run isolated
// instances; there is no shared singleton.
package cache

import (
	"sort"

	"github.com/graphql-hive/graphql-weekly/internal/domain"
)

// Cache indexes baseline entities by id. Nested topics/links of a stored
// issue are flattened into their own indexes so lookups never walk trees.
type Cache struct {
	issues map[string]*domain.Issue
	topics map[string]*domain.Topic
	links  map[string]*domain.Link
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		issues: make(map[string]*domain.Issue),
		topics: make(map[string]*domain.Topic),
		links:  make(map[string]*domain.Link),
	}
}

// PutIssue stores an issue and indexes its nested topics and links.
func (c *Cache) PutIssue(issue *domain.Issue) {
	c.issues[issue.ID] = issue
	for _, t := range issue.Topics {
		c.PutTopic(t)
	}
}

// PutTopic stores a topic and indexes its nested links.
func (c *Cache) PutTopic(topic *domain.Topic) {
	c.topics[topic.ID] = topic
	for _, l := range topic.Links {
		c.links[l.ID] = l
	}
}

// PutLink stores a link.
func (c *Cache) PutLink(link *domain.Link) {
	c.links[link.ID] = link
}

// Issue returns the baseline issue for id.
func (c *Cache) Issue(id string) (*domain.Issue, bool) {
	i, ok := c.issues[id]
	return i, ok
}

// Topic returns the baseline topic for id.
func (c *Cache) Topic(id string) (*domain.Topic, bool) {
	t, ok := c.topics[id]
	return t, ok
}

// Link returns the baseline link for id.
func (c *Cache) Link(id string) (*domain.Link, bool) {
	l, ok := c.links[id]
	return l, ok
}

// Issues returns all baseline issues ordered by number descending
// (newest first, as the CMS lists them).
func (c *Cache) Issues() []*domain.Issue {
	out := make([]*domain.Issue, 0, len(c.issues))
	for _, i := range c.issues {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Number > out[b].Number })
	return out
}

// TopicsByIssue returns baseline topics of an issue ordered by position.
func (c *Cache) TopicsByIssue(issueID string) []*domain.Topic {
	var out []*domain.Topic
	for _, t := range c.topics {
		if t.IssueID != nil && *t.IssueID == issueID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Position < out[b].Position })
	return out
}

// LinksByTopic returns baseline links of a topic ordered by position.
func (c *Cache) LinksByTopic(topicID string) []*domain.Link {
	var out []*domain.Link
	for _, l := range c.links {
		if l.TopicID != nil && *l.TopicID == topicID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Position < out[b].Position })
	return out
}

// UnassignedLinks returns baseline links with no owning topic, ordered by
// position.
func (c *Cache) UnassignedLinks() []*domain.Link {
	var out []*domain.Link
	for _, l := range c.links {
		if l.TopicID == nil {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Position < out[b].Position })
	return out
}

// RemoveTopic drops a topic from the index. Its links become unassigned.
func (c *Cache) RemoveTopic(id string) {
	delete(c.topics, id)
	for _, l := range c.links {
		if l.TopicID != nil && *l.TopicID == id {
			l.TopicID = nil
		}
	}
}

// RemoveLink drops a link from the index.
func (c *Cache) RemoveLink(id string) {
	delete(c.links, id)
}
