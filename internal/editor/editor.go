// Package editor implements the draft/commit edit engine behind the CMS:
// an in-memory draft state that diverges from the fetched baseline while a
// curator rearranges topics and links, batched into one logical save
// against the GraphQL collaborator, or discarded back to baseline.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/graphql-hive/graphql-weekly/internal/auth"
	"github.com/graphql-hive/graphql-weekly/internal/cache"
	"github.com/graphql-hive/graphql-weekly/internal/domain"
	"github.com/graphql-hive/graphql-weekly/internal/draft"
	"github.com/graphql-hive/graphql-weekly/internal/sequence"
)

// State is the save/discard controller state.
type State string

const (
	// StateClean means no pending drafts.
	StateClean State = "CLEAN"
	// StateDirty means at least one pending draft.
	StateDirty State = "DIRTY"
	// StateSaving means a commit is in flight. Structural edits are
	// rejected until it settles; there is no failure terminal state, a
	// failed commit returns to DIRTY with drafts intact.
	StateSaving State = "SAVING"
)

// Editor is the UI-facing surface. All draft mutations are synchronous;
// the only asynchronous boundary is the collaborator round-trip in Save.
type Editor struct {
	log        *slog.Logger
	remote     Collaborator
	cache      *cache.Cache
	drafts     *draft.Set
	dispatcher *dispatcher
	session    *auth.Session

	mu       sync.Mutex
	state    State
	inFlight map[PatchRef]bool
}

// New creates an editor over the given collaborator and baseline cache.
// session may be nil for read-only use; the collaborator then rejects
// mutations itself.
func New(log *slog.Logger, remote Collaborator, c *cache.Cache, session *auth.Session) *Editor {
	return &Editor{
		log:        log.With("component", "editor"),
		remote:     remote,
		cache:      c,
		drafts:     draft.NewSet(),
		dispatcher: newDispatcher(log, remote),
		session:    session,
		state:      StateClean,
	}
}

// OnChange registers the UI callback fired after any draft mutation.
func (e *Editor) OnChange(fn func()) { e.drafts.OnChange(fn) }

// State returns the controller state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PendingCount is the number of distinct dirty entities, the "N unsaved
// changes" indicator.
func (e *Editor) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drafts.PendingCount()
}

// HasPending reports whether navigation should be guarded.
func (e *Editor) HasPending() bool { return e.PendingCount() > 0 }

// ---------------------------------------------------------------------------
// Baseline loading
// ---------------------------------------------------------------------------

// LoadIssues fetches all issues with nested topics and links into the cache.
func (e *Editor) LoadIssues(ctx context.Context) ([]*domain.Issue, error) {
	issues, err := e.remote.AllIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("load issues: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, i := range issues {
		e.cache.PutIssue(i)
	}
	return issues, nil
}

// LoadIssue fetches one issue with nested topics and links into the cache.
func (e *Editor) LoadIssue(ctx context.Context, id string) (*domain.Issue, error) {
	issue, err := e.remote.IssueByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load issue %s: %w", id, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.PutIssue(issue)
	return issue, nil
}

// LoadUnassigned fetches the unassigned link pool into the cache.
func (e *Editor) LoadUnassigned(ctx context.Context) ([]*domain.Link, error) {
	links, err := e.remote.UnassignedLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unassigned links: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range links {
		e.cache.PutLink(l)
	}
	return links, nil
}

// ---------------------------------------------------------------------------
// Field edits
// ---------------------------------------------------------------------------

// EditIssue records a field edit on an issue. The issue number is fixed
// at creation; updateIssue cannot carry it, so changing it on a persisted
// issue is rejected rather than silently dropped at commit.
func (e *Editor) EditIssue(id string, fields domain.IssueFields) error {
	if fields.Number != nil && !domain.IsTempID(id) {
		return domain.NewValidationError("number", "cannot be changed after creation")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardFieldEdit(PatchRef{KindIssue, id}); err != nil {
		return err
	}
	e.drafts.Issues.RecordFieldEdit(id, fields)
	e.recompute()
	return nil
}

// EditTopic records a field edit on a topic. Position changes go through
// MoveTopic, not here. A persisted topic stays with its issue; updateTopic
// cannot carry an issue reference, so reattachment is rejected rather than
// silently dropped at commit.
func (e *Editor) EditTopic(id string, fields domain.TopicFields) error {
	if fields.IssueID != nil && !domain.IsTempID(id) {
		return domain.NewValidationError("issue", "topics cannot move between issues")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardFieldEdit(PatchRef{KindTopic, id}); err != nil {
		return err
	}
	e.drafts.Topics.RecordFieldEdit(id, fields)
	e.recompute()
	return nil
}

// EditLink records a field edit on a link. A url change is validated
// locally before any draft is recorded.
func (e *Editor) EditLink(id string, fields domain.LinkFields) error {
	if fields.URL != nil {
		if err := domain.ValidateLinkURL(*fields.URL); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardFieldEdit(PatchRef{KindLink, id}); err != nil {
		return err
	}
	e.drafts.Links.RecordFieldEdit(id, fields)
	e.recompute()
	return nil
}

// ---------------------------------------------------------------------------
// Structural edits: create, delete, move
// ---------------------------------------------------------------------------

// CreateIssue drafts a new issue and returns its temp id.
func (e *Editor) CreateIssue(title string, number int, date time.Time) (string, error) {
	if title == "" {
		return "", domain.NewValidationError("title", "is required")
	}
	if number <= 0 {
		return "", domain.NewValidationError("number", "must be positive")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardStructural(); err != nil {
		return "", err
	}
	published := false
	tempID := domain.NewTempID()
	e.drafts.Issues.RecordCreate(tempID, domain.IssueFields{
		Title:     &title,
		Number:    &number,
		Date:      &date,
		Published: &published,
	})
	e.recompute()
	return tempID, nil
}

// CreateTopic drafts a new topic at the end of the issue's topic list and
// returns its temp id. issueID may itself be a temp id.
func (e *Editor) CreateTopic(issueID, title string, comment *string) (string, error) {
	if title == "" {
		return "", domain.NewValidationError("title", "is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardStructural(); err != nil {
		return "", err
	}
	position := len(e.effectiveTopics(issueID))
	tempID := domain.NewTempID()
	e.drafts.Topics.RecordCreate(tempID, domain.TopicFields{
		Title:    &title,
		Comment:  comment,
		Position: &position,
		IssueID:  domain.SetID(issueID),
	})
	e.recompute()
	return tempID, nil
}

// CreateLink drafts a new link at the end of its container (a topic, or
// the unassigned pool when topicID is nil) and returns its temp id.
func (e *Editor) CreateLink(url, title, text string, topicID *string) (string, error) {
	if err := domain.ValidateLinkURL(url); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardStructural(); err != nil {
		return "", err
	}
	position := len(e.effectiveLinks(topicID))
	fields := domain.LinkFields{URL: &url, Position: &position}
	if title != "" {
		fields.Title = &title
	}
	if text != "" {
		fields.Text = &text
	}
	if topicID != nil {
		fields.TopicID = domain.SetID(*topicID)
	}
	tempID := domain.NewTempID()
	e.drafts.Links.RecordCreate(tempID, fields)
	e.recompute()
	return tempID, nil
}

// ImportSubmission converts a staged reader submission into a created-link
// draft in the unassigned pool.
func (e *Editor) ImportSubmission(sub domain.LinkSubmission) (string, error) {
	return e.CreateLink(sub.URL, sub.Title, sub.Description, nil)
}

// DeleteTopic tombstones a topic and renumbers its remaining siblings.
// Its links are left in place; the collaborator moves them to the
// unassigned pool when the detach lands.
func (e *Editor) DeleteTopic(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardStructural(); err != nil {
		return err
	}
	topic, ok := e.effectiveTopic(id)
	if !ok {
		return fmt.Errorf("delete topic %s: %w", id, domain.ErrNotFound)
	}

	if topic.IssueID != nil {
		siblings := topicIDs(e.effectiveTopics(*topic.IssueID))
		if idx := indexOf(siblings, id); idx >= 0 {
			_, moves, err := sequence.RemoveAt(siblings, idx)
			if err != nil {
				return err
			}
			e.drafts.Topics.RecordDelete(id)
			for _, m := range moves {
				m := m
				e.drafts.Topics.RecordFieldEdit(m.ID, domain.TopicFields{Position: &m.Position})
			}
			e.recompute()
			return nil
		}
	}

	e.drafts.Topics.RecordDelete(id)
	e.recompute()
	return nil
}

// DeleteLink tombstones a link and renumbers its remaining container
// siblings. Deleting a link that only exists as a created draft removes
// the draft outright.
func (e *Editor) DeleteLink(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardStructural(); err != nil {
		return err
	}
	link, ok := e.effectiveLink(id)
	if !ok {
		return fmt.Errorf("delete link %s: %w", id, domain.ErrNotFound)
	}

	siblings := linkIDs(e.effectiveLinks(link.TopicID))
	idx := indexOf(siblings, id)
	e.drafts.Links.RecordDelete(id)
	if idx >= 0 {
		_, moves, err := sequence.RemoveAt(siblings, idx)
		if err != nil {
			return err
		}
		for _, m := range moves {
			m := m
			e.drafts.Links.RecordFieldEdit(m.ID, domain.LinkFields{Position: &m.Position})
		}
	}
	e.recompute()
	return nil
}

// MoveTopic reorders a topic within its issue. Equal indices are a no-op
// and record nothing.
func (e *Editor) MoveTopic(issueID string, from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardStructural(); err != nil {
		return err
	}
	siblings := topicIDs(e.effectiveTopics(issueID))
	_, moves, err := sequence.MoveTo(siblings, from, to)
	if err != nil {
		return err
	}
	for _, m := range moves {
		m := m
		e.drafts.Topics.RecordFieldEdit(m.ID, domain.TopicFields{Position: &m.Position})
	}
	e.recompute()
	return nil
}

// MoveLink reorders a link within its container (topic or unassigned
// pool). Equal indices are a no-op and record nothing.
func (e *Editor) MoveLink(topicID *string, from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardStructural(); err != nil {
		return err
	}
	siblings := linkIDs(e.effectiveLinks(topicID))
	_, moves, err := sequence.MoveTo(siblings, from, to)
	if err != nil {
		return err
	}
	for _, m := range moves {
		m := m
		e.drafts.Links.RecordFieldEdit(m.ID, domain.LinkFields{Position: &m.Position})
	}
	e.recompute()
	return nil
}

// MoveLinkToTopic drags a link into another container at index. dest nil
// targets the unassigned pool. Both the source and destination sibling
// lists are renumbered in the same action.
func (e *Editor) MoveLinkToTopic(linkID string, dest *string, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardStructural(); err != nil {
		return err
	}
	link, ok := e.effectiveLink(linkID)
	if !ok {
		return fmt.Errorf("move link %s: %w", linkID, domain.ErrNotFound)
	}
	if sameContainer(link.TopicID, dest) {
		siblings := linkIDs(e.effectiveLinks(dest))
		_, moves, err := sequence.MoveTo(siblings, indexOf(siblings, linkID), index)
		if err != nil {
			return err
		}
		for _, m := range moves {
			m := m
			e.drafts.Links.RecordFieldEdit(m.ID, domain.LinkFields{Position: &m.Position})
		}
		e.recompute()
		return nil
	}

	src := linkIDs(e.effectiveLinks(link.TopicID))
	srcIdx := indexOf(src, linkID)
	if srcIdx < 0 {
		return fmt.Errorf("move link %s: %w", linkID, domain.ErrNotFound)
	}
	_, srcMoves, err := sequence.RemoveAt(src, srcIdx)
	if err != nil {
		return err
	}
	destIDs := linkIDs(e.effectiveLinks(dest))
	_, destMoves, err := sequence.InsertAt(destIDs, linkID, index)
	if err != nil {
		return err
	}

	ref := domain.NullID()
	if dest != nil {
		ref = domain.SetID(*dest)
	}
	e.drafts.Links.RecordFieldEdit(linkID, domain.LinkFields{TopicID: ref})
	for _, m := range srcMoves {
		m := m
		e.drafts.Links.RecordFieldEdit(m.ID, domain.LinkFields{Position: &m.Position})
	}
	for _, m := range destMoves {
		m := m
		e.drafts.Links.RecordFieldEdit(m.ID, domain.LinkFields{Position: &m.Position})
	}
	e.recompute()
	return nil
}

// ---------------------------------------------------------------------------
// Public intake pass-throughs (append-only, no drafts)
// ---------------------------------------------------------------------------

// Subscribe registers a newsletter subscriber directly with the
// collaborator.
func (e *Editor) Subscribe(ctx context.Context, name, email string) (*domain.Subscriber, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	return e.remote.CreateSubscriber(ctx, name, email)
}

// SubmitLink stages a reader link submission directly with the
// collaborator.
func (e *Editor) SubmitLink(ctx context.Context, name, email, description, title, url string) (*domain.LinkSubmission, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidateLinkURL(url); err != nil {
		return nil, err
	}
	return e.remote.CreateSubmissionLink(ctx, name, email, description, title, url)
}

// ---------------------------------------------------------------------------
// Save / discard
// ---------------------------------------------------------------------------

// Save commits every pending draft in dependency order. On success drafts
// are cleared and the cache holds the authoritative server state. On any
// mutation failure the remaining queue is aborted, already-applied drafts
// are cleared (they are reflected server-side), and everything else is
// retained for retry or discard.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateSaving {
		e.mu.Unlock()
		return domain.ErrSaveInFlight
	}
	if !e.drafts.HasPending() {
		e.mu.Unlock()
		return nil
	}
	if e.session != nil && e.session.Expired(time.Now()) {
		e.mu.Unlock()
		return fmt.Errorf("session expired: %w", domain.ErrUnauthenticated)
	}
	p, err := e.buildPlan()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = StateSaving
	e.inFlight = make(map[PatchRef]bool)
	for _, ref := range p.refs() {
		e.inFlight[ref] = true
	}
	e.mu.Unlock()

	res, err := e.dispatcher.run(ctx, p)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyResult(res)
	e.inFlight = nil
	if e.drafts.HasPending() {
		e.state = StateDirty
	} else {
		e.state = StateClean
	}
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Discard drops every pending draft, reverting all views to baseline.
// Not available while a save is in flight.
func (e *Editor) Discard() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSaving {
		return domain.ErrSaveInFlight
	}
	e.drafts.ClearAll()
	e.state = StateClean
	return nil
}

// ---------------------------------------------------------------------------
// Internal
// ---------------------------------------------------------------------------

func (e *Editor) guardStructural() error {
	if e.state == StateSaving {
		return domain.ErrSaveInFlight
	}
	return nil
}

// guardFieldEdit allows field edits during a save, but only on entities
// outside the in-flight snapshot: those queue safely for the next save.
func (e *Editor) guardFieldEdit(ref PatchRef) error {
	if e.state == StateSaving && e.inFlight[ref] {
		return domain.ErrSaveInFlight
	}
	return nil
}

func (e *Editor) recompute() {
	if e.state == StateSaving {
		return
	}
	if e.drafts.HasPending() {
		e.state = StateDirty
	} else {
		e.state = StateClean
	}
}

// buildPlan snapshots every pending patch into dependency-ordered commit
// steps. Link updates and deletes are batched onto their owning issue's
// updateIssue call when the issue is resolvable; unassigned-pool links go
// through the standalone link mutations.
func (e *Editor) buildPlan() (*plan, error) {
	p := &plan{}
	batches := make(map[string]*issueBatch)
	batchFor := func(issueID string) *issueBatch {
		b, ok := batches[issueID]
		if !ok {
			b = &issueBatch{issueID: issueID}
			batches[issueID] = b
		}
		return b
	}

	for _, ip := range e.drafts.Issues.ListDirty() {
		switch ip.Origin {
		case draft.OriginCreated:
			p.createIssues = append(p.createIssues, ip)
		case draft.OriginDeleted:
			return nil, domain.NewValidationError("issue", "the collaborator has no issue delete mutation")
		default:
			b := batchFor(ip.ID)
			b.fields = ip.Fields
			b.hasIssuePatch = true
		}
	}

	for _, tp := range e.drafts.Topics.ListDirty() {
		switch tp.Origin {
		case draft.OriginCreated:
			p.createTopics = append(p.createTopics, tp)
		case draft.OriginDeleted:
			p.topicDetaches = append(p.topicDetaches, tp.ID)
		default:
			p.topicUpdates = append(p.topicUpdates, tp)
		}
	}

	for _, lp := range e.drafts.Links.ListDirty() {
		switch lp.Origin {
		case draft.OriginCreated:
			p.createLinks = append(p.createLinks, lp)
			// Position rides the owning issue's batch; createLink has no
			// position argument.
			if lp.Fields.Position != nil {
				if issueID, ok := e.owningIssue(lp.ID, lp.Fields.TopicID); ok {
					b := batchFor(issueID)
					b.updateLinks = append(b.updateLinks, LinkUpdate{
						ID:     lp.ID,
						Fields: domain.LinkFields{Position: lp.Fields.Position},
					})
				}
			}
		case draft.OriginDeleted:
			if issueID, ok := e.owningIssue(lp.ID, nil); ok {
				b := batchFor(issueID)
				b.deleteLinks = append(b.deleteLinks, lp.ID)
				b.coveredLinks = append(b.coveredLinks, lp.ID)
			} else {
				p.linkDeletes = append(p.linkDeletes, lp.ID)
			}
		default:
			if issueID, ok := e.owningIssue(lp.ID, lp.Fields.TopicID); ok {
				b := batchFor(issueID)
				b.updateLinks = append(b.updateLinks, LinkUpdate{ID: lp.ID, Fields: lp.Fields})
				b.coveredLinks = append(b.coveredLinks, lp.ID)
			} else {
				p.linkUpdates = append(p.linkUpdates, lp)
			}
		}
	}

	for _, b := range batches {
		p.issueBatches = append(p.issueBatches, b)
	}

	// Deterministic dispatch order within each step.
	sort.Slice(p.createIssues, func(a, b int) bool { return p.createIssues[a].ID < p.createIssues[b].ID })
	sort.Slice(p.createTopics, func(a, b int) bool {
		pa, pb := p.createTopics[a], p.createTopics[b]
		if pa.Fields.Position != nil && pb.Fields.Position != nil && *pa.Fields.Position != *pb.Fields.Position {
			return *pa.Fields.Position < *pb.Fields.Position
		}
		return pa.ID < pb.ID
	})
	sort.Slice(p.createLinks, func(a, b int) bool {
		pa, pb := p.createLinks[a], p.createLinks[b]
		if pa.Fields.Position != nil && pb.Fields.Position != nil && *pa.Fields.Position != *pb.Fields.Position {
			return *pa.Fields.Position < *pb.Fields.Position
		}
		return pa.ID < pb.ID
	})
	sort.Slice(p.issueBatches, func(a, b int) bool { return p.issueBatches[a].issueID < p.issueBatches[b].issueID })
	sort.Slice(p.topicUpdates, func(a, b int) bool { return p.topicUpdates[a].ID < p.topicUpdates[b].ID })
	sort.Slice(p.linkUpdates, func(a, b int) bool { return p.linkUpdates[a].ID < p.linkUpdates[b].ID })
	sort.Strings(p.linkDeletes)
	sort.Strings(p.topicDetaches)

	return p, nil
}

// owningIssue resolves the issue a link belongs to through its effective
// topic. The second return is false for the unassigned pool or when the
// chain cannot be resolved from local state.
func (e *Editor) owningIssue(linkID string, topicOverride *domain.NullableID) (string, bool) {
	var topicID *string
	switch {
	case topicOverride != nil:
		topicID = topicOverride.Ptr()
	default:
		if base, ok := e.cache.Link(linkID); ok {
			topicID = base.TopicID
		} else if p, ok := e.drafts.Links.Patch(linkID); ok && p.Fields.TopicID != nil {
			topicID = p.Fields.TopicID.Ptr()
		}
	}
	if topicID == nil {
		return "", false
	}
	topic, ok := e.effectiveTopic(*topicID)
	if !ok || topic.IssueID == nil {
		return "", false
	}
	return *topic.IssueID, true
}

// applyResult reconciles a commit outcome under the editor lock: applied
// patches are cleared, authoritative entities replace the baseline, and
// any still-pending patch referencing a reconciled temp id is rewritten
// to the real server id.
func (e *Editor) applyResult(res *result) {
	for _, ref := range res.applied {
		switch ref.Kind {
		case KindIssue:
			e.drafts.Issues.Clear(ref.ID)
		case KindTopic:
			e.drafts.Topics.Clear(ref.ID)
		case KindLink:
			e.drafts.Links.Clear(ref.ID)
		}
	}

	for _, i := range res.putIssues {
		e.cache.PutIssue(i)
	}
	for _, t := range res.putTopics {
		e.cache.PutTopic(t)
	}
	for _, l := range res.putLinks {
		e.cache.PutLink(l)
	}
	for _, id := range res.removedLinks {
		e.cache.RemoveLink(id)
	}
	for _, id := range res.removedTopics {
		e.cache.RemoveTopic(id)
	}

	if len(res.realIDs) == 0 {
		return
	}
	for _, tp := range e.drafts.Topics.ListDirty() {
		if tp.Fields.IssueID != nil && tp.Fields.IssueID.Valid {
			if real, ok := res.realIDs[tp.Fields.IssueID.ID]; ok {
				tp.Fields.IssueID = domain.SetID(real)
			}
		}
	}
	for _, lp := range e.drafts.Links.ListDirty() {
		if lp.Fields.TopicID != nil && lp.Fields.TopicID.Valid {
			if real, ok := res.realIDs[lp.Fields.TopicID.ID]; ok {
				lp.Fields.TopicID = domain.SetID(real)
			}
		}
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func sameContainer(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
