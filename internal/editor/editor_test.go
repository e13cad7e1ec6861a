package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/graphql-hive/graphql-weekly/internal/auth"
	"github.com/graphql-hive/graphql-weekly/internal/cache"
	"github.com/graphql-hive/graphql-weekly/internal/domain"
)

// fakeRemote is a func-field collaborator double. Unset funcs echo the
// request back as a minimal entity; every mutation is appended to calls,
// which is how the tests assert dispatch order.
type fakeRemote struct {
	mu    sync.Mutex
	calls []string

	createIssueFn func(title string, number int, published bool, date time.Time) (*domain.Issue, error)
	updateIssueFn func(id string, fields domain.IssueFields, updateLinks []LinkUpdate, deleteLinks []string) (*domain.Issue, error)
	createTopicFn func(title string, comment *string, issueID string) (*domain.Topic, error)
	updateTopicFn func(id string, fields domain.TopicFields) (*domain.Topic, error)
	detachTopicFn func(id string) error
	createLinkFn  func(url string) (*domain.Link, error)
	updateLinkFn  func(id string, fields domain.LinkFields) (*domain.Link, error)
	deleteLinkFn  func(id string) error
	addLinkFn     func(topicID, linkID string) error
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRemote) AllIssues(context.Context) ([]*domain.Issue, error) { return nil, nil }

func (f *fakeRemote) IssueByID(_ context.Context, id string) (*domain.Issue, error) {
	return &domain.Issue{ID: id}, nil
}

func (f *fakeRemote) AllLinks(context.Context) ([]*domain.Link, error) { return nil, nil }

func (f *fakeRemote) UnassignedLinks(context.Context) ([]*domain.Link, error) { return nil, nil }

func (f *fakeRemote) CreateIssue(_ context.Context, title string, number int, published bool, date time.Time) (*domain.Issue, error) {
	f.record("createIssue " + title)
	if f.createIssueFn != nil {
		return f.createIssueFn(title, number, published, date)
	}
	return &domain.Issue{ID: "srv-" + title, Number: number, Title: title, Date: date, Published: published}, nil
}

func (f *fakeRemote) UpdateIssue(_ context.Context, id string, fields domain.IssueFields, updateLinks []LinkUpdate, deleteLinks []string) (*domain.Issue, error) {
	f.record("updateIssue " + id)
	if f.updateIssueFn != nil {
		return f.updateIssueFn(id, fields, updateLinks, deleteLinks)
	}
	return &domain.Issue{ID: id}, nil
}

func (f *fakeRemote) CreateTopic(_ context.Context, title string, comment *string, issueID string) (*domain.Topic, error) {
	f.record("createTopic " + title)
	if f.createTopicFn != nil {
		return f.createTopicFn(title, comment, issueID)
	}
	return &domain.Topic{ID: "srv-" + title, IssueID: &issueID, Title: title, Comment: comment}, nil
}

func (f *fakeRemote) UpdateTopic(_ context.Context, id string, fields domain.TopicFields) (*domain.Topic, error) {
	f.record("updateTopic " + id)
	if f.updateTopicFn != nil {
		return f.updateTopicFn(id, fields)
	}
	topic := domain.TopicFromFields(id, fields)
	return &topic, nil
}

func (f *fakeRemote) DetachTopic(_ context.Context, id string) error {
	f.record("detachTopic " + id)
	if f.detachTopicFn != nil {
		return f.detachTopicFn(id)
	}
	return nil
}

func (f *fakeRemote) CreateLink(_ context.Context, url string) (*domain.Link, error) {
	f.record("createLink " + url)
	if f.createLinkFn != nil {
		return f.createLinkFn(url)
	}
	return &domain.Link{ID: "srv-link", URL: url}, nil
}

func (f *fakeRemote) UpdateLink(_ context.Context, id string, fields domain.LinkFields) (*domain.Link, error) {
	f.record("updateLink " + id)
	if f.updateLinkFn != nil {
		return f.updateLinkFn(id, fields)
	}
	link := domain.LinkFromFields(id, fields)
	return &link, nil
}

func (f *fakeRemote) DeleteLink(_ context.Context, id string) error {
	f.record("deleteLink " + id)
	if f.deleteLinkFn != nil {
		return f.deleteLinkFn(id)
	}
	return nil
}

func (f *fakeRemote) AddLinkToTopic(_ context.Context, topicID, linkID string) error {
	f.record("addLinksToTopic " + topicID + " " + linkID)
	if f.addLinkFn != nil {
		return f.addLinkFn(topicID, linkID)
	}
	return nil
}

func (f *fakeRemote) CreateSubscriber(_ context.Context, name, email string) (*domain.Subscriber, error) {
	f.record("createSubscriber " + email)
	return &domain.Subscriber{ID: "srv-sub", Name: name, Email: email}, nil
}

func (f *fakeRemote) CreateSubmissionLink(_ context.Context, name, email, description, title, url string) (*domain.LinkSubmission, error) {
	f.record("createSubmissionLink " + url)
	return &domain.LinkSubmission{ID: "srv-sl", Name: name, Email: email, Description: description, Title: title, URL: url}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEditor(t *testing.T, remote Collaborator, session *auth.Session) (*Editor, *cache.Cache) {
	t.Helper()
	c := cache.New()
	return New(testLogger(), remote, c, session), c
}

func strPtr(s string) *string { return &s }

func TestEditLink_MergesIntoOneDraft(t *testing.T) {
	t.Parallel()

	fake := &fakeRemote{}
	ed, c := newTestEditor(t, fake, nil)
	c.PutLink(&domain.Link{ID: "l1", URL: "https://a", Title: "old"})

	require.NoError(t, ed.EditLink("l1", domain.LinkFields{Title: strPtr("first")}))
	require.NoError(t, ed.EditLink("l1", domain.LinkFields{Title: strPtr("second")}))

	require.Equal(t, 1, ed.PendingCount())
	require.Equal(t, StateDirty, ed.State())

	links := ed.EffectiveLinks(nil)
	require.Len(t, links, 1)
	require.Equal(t, "second", links[0].Title)
}

// Fields the update mutations cannot carry are rejected up front instead
// of being recorded and then silently dropped by a "successful" commit.
func TestEdit_UnsendableFieldsRejected(t *testing.T) {
	t.Parallel()

	issueID := "i1"
	ed, c := newTestEditor(t, &fakeRemote{}, nil)
	c.PutIssue(&domain.Issue{ID: issueID, Number: 12, Topics: []*domain.Topic{
		{ID: "t1", IssueID: &issueID, Position: 0},
	}})

	number := 13
	err := ed.EditIssue(issueID, domain.IssueFields{Number: &number})
	require.ErrorIs(t, err, domain.ErrValidation)

	err = ed.EditTopic("t1", domain.TopicFields{IssueID: domain.SetID("i2")})
	require.ErrorIs(t, err, domain.ErrValidation)

	require.Equal(t, 0, ed.PendingCount())
	require.Equal(t, StateClean, ed.State())

	// A drafted issue is not persisted yet; its number is still free to
	// change because createIssue carries it.
	tempID, err := ed.CreateIssue("Next up", 13, time.Now())
	require.NoError(t, err)
	require.NoError(t, ed.EditIssue(tempID, domain.IssueFields{Number: &number}))
}

func TestEditLink_InvalidURLRejectedBeforeDraft(t *testing.T) {
	t.Parallel()

	ed, c := newTestEditor(t, &fakeRemote{}, nil)
	c.PutLink(&domain.Link{ID: "l1", URL: "https://a"})

	err := ed.EditLink("l1", domain.LinkFields{URL: strPtr("ftp://nope")})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Equal(t, 0, ed.PendingCount())
	require.Equal(t, StateClean, ed.State())
}

func TestMoveTopic_SamePositionIsNoOp(t *testing.T) {
	t.Parallel()

	issueID := "i1"
	ed, c := newTestEditor(t, &fakeRemote{}, nil)
	c.PutIssue(&domain.Issue{ID: issueID, Topics: []*domain.Topic{
		{ID: "t1", IssueID: &issueID, Position: 0},
		{ID: "t2", IssueID: &issueID, Position: 1},
	}})

	require.NoError(t, ed.MoveTopic(issueID, 1, 1))
	require.Equal(t, 0, ed.PendingCount())
	require.Equal(t, StateClean, ed.State())
}

func TestMoveTopic_RenumbersBothDirections(t *testing.T) {
	t.Parallel()

	issueID := "i1"
	ed, c := newTestEditor(t, &fakeRemote{}, nil)
	c.PutIssue(&domain.Issue{ID: issueID, Topics: []*domain.Topic{
		{ID: "t1", IssueID: &issueID, Position: 0},
		{ID: "t2", IssueID: &issueID, Position: 1},
		{ID: "t3", IssueID: &issueID, Position: 2},
	}})

	require.NoError(t, ed.MoveTopic(issueID, 0, 2))

	got := ed.EffectiveTopics(issueID)
	require.Len(t, got, 3)
	require.Equal(t, []string{"t2", "t3", "t1"}, topicIDs(got))
	for i, topic := range got {
		require.Equal(t, i, topic.Position)
	}
}

func TestCreateThenDeleteLink_LeavesNothingPending(t *testing.T) {
	t.Parallel()

	ed, _ := newTestEditor(t, &fakeRemote{}, nil)

	id, err := ed.CreateLink("https://graphql.org/learn/", "", "", nil)
	require.NoError(t, err)
	require.True(t, domain.IsTempID(id))
	require.Equal(t, 1, ed.PendingCount())

	require.NoError(t, ed.DeleteLink(id))
	require.Equal(t, 0, ed.PendingCount())
	require.Equal(t, StateClean, ed.State())
}

func TestDeleteLink_RenumbersSiblings(t *testing.T) {
	t.Parallel()

	topicID := "t1"
	issueID := "i1"
	ed, c := newTestEditor(t, &fakeRemote{}, nil)
	c.PutIssue(&domain.Issue{ID: issueID, Topics: []*domain.Topic{
		{ID: topicID, IssueID: &issueID, Links: []*domain.Link{
			{ID: "l1", TopicID: &topicID, Position: 0},
			{ID: "l2", TopicID: &topicID, Position: 1},
			{ID: "l3", TopicID: &topicID, Position: 2},
		}},
	}})

	require.NoError(t, ed.DeleteLink("l1"))

	got := ed.EffectiveLinks(&topicID)
	require.Equal(t, []string{"l2", "l3"}, linkIDs(got))
	for i, l := range got {
		require.Equal(t, i, l.Position)
	}
}

func TestDiscard_RevertsToBaselineAndIsIdempotent(t *testing.T) {
	t.Parallel()

	ed, c := newTestEditor(t, &fakeRemote{}, nil)
	c.PutLink(&domain.Link{ID: "l1", URL: "https://a", Title: "baseline"})

	require.NoError(t, ed.EditLink("l1", domain.LinkFields{Title: strPtr("edited")}))
	_, err := ed.CreateLink("https://graphql.org/learn/", "", "", nil)
	require.NoError(t, err)
	require.Equal(t, 2, ed.PendingCount())

	require.NoError(t, ed.Discard())
	require.Equal(t, 0, ed.PendingCount())
	require.Equal(t, StateClean, ed.State())

	links := ed.EffectiveLinks(nil)
	require.Len(t, links, 1)
	require.Equal(t, "baseline", links[0].Title)

	// Discarding a clean editor changes nothing.
	require.NoError(t, ed.Discard())
	require.Equal(t, StateClean, ed.State())
}

func TestSave_NothingPendingIsNoOp(t *testing.T) {
	t.Parallel()

	fake := &fakeRemote{}
	ed, _ := newTestEditor(t, fake, nil)

	require.NoError(t, ed.Save(context.Background()))
	require.Empty(t, fake.recorded())
	require.Equal(t, StateClean, ed.State())
}

// The canonical commit: a new topic plus a new link inside it. The topic
// must be created first so the link attachment can use the freshly
// assigned server id instead of the client temp id.
func TestSave_CreatedTopicWithCreatedLink(t *testing.T) {
	t.Parallel()

	issueID := "i1"
	fake := &fakeRemote{
		createTopicFn: func(title string, comment *string, iid string) (*domain.Topic, error) {
			return &domain.Topic{ID: "t-real", IssueID: &iid, Title: title, Comment: comment}, nil
		},
		createLinkFn: func(url string) (*domain.Link, error) {
			return &domain.Link{ID: "l-real", URL: url}, nil
		},
	}
	ed, c := newTestEditor(t, fake, nil)
	c.PutIssue(&domain.Issue{ID: issueID, Number: 42})

	topicID, err := ed.CreateTopic(issueID, "Featured", nil)
	require.NoError(t, err)
	linkID, err := ed.CreateLink("https://graphql.org/learn/", "Learn GraphQL", "", &topicID)
	require.NoError(t, err)
	require.Equal(t, 2, ed.PendingCount())

	// The drafts already render as a tree before anything is committed.
	topics := ed.EffectiveTopics(issueID)
	require.Len(t, topics, 1)
	require.Equal(t, "Featured", topics[0].Title)
	links := ed.EffectiveLinks(&topicID)
	require.Len(t, links, 1)
	require.Equal(t, linkID, links[0].ID)

	require.NoError(t, ed.Save(context.Background()))

	require.Equal(t, []string{
		"createTopic Featured",
		"createLink https://graphql.org/learn/",
		"updateLink l-real",
		"addLinksToTopic t-real l-real",
		"updateIssue i1",
	}, fake.recorded())

	require.Equal(t, 0, ed.PendingCount())
	require.Equal(t, StateClean, ed.State())

	realTopic := "t-real"
	topics = ed.EffectiveTopics(issueID)
	require.Equal(t, []string{realTopic}, topicIDs(topics))
	links = ed.EffectiveLinks(&realTopic)
	require.Equal(t, []string{"l-real"}, linkIDs(links))
}

func TestSave_FailureKeepsUnappliedDrafts(t *testing.T) {
	t.Parallel()

	boom := errors.New("server said no")
	fake := &fakeRemote{
		updateLinkFn: func(id string, fields domain.LinkFields) (*domain.Link, error) {
			if id == "l2" {
				return nil, boom
			}
			link := domain.LinkFromFields(id, fields)
			return &link, nil
		},
	}
	ed, c := newTestEditor(t, fake, nil)
	c.PutLink(&domain.Link{ID: "l1", URL: "https://a", Position: 0})
	c.PutLink(&domain.Link{ID: "l2", URL: "https://b", Position: 1})
	c.PutLink(&domain.Link{ID: "l3", URL: "https://c", Position: 2})

	require.NoError(t, ed.EditLink("l1", domain.LinkFields{Title: strPtr("one")}))
	require.NoError(t, ed.EditLink("l2", domain.LinkFields{Title: strPtr("two")}))
	require.NoError(t, ed.EditLink("l3", domain.LinkFields{Title: strPtr("three")}))

	err := ed.Save(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, boom)

	var cerr *CommitError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindLink, cerr.Kind)
	require.Equal(t, "l2", cerr.ID)
	require.Equal(t, "updateLink", cerr.Op)

	// l1 landed and is cleared; l2 failed, l3 never went out. Both stay
	// pending for retry or discard.
	require.Equal(t, []string{"updateLink l1", "updateLink l2"}, fake.recorded())
	require.Equal(t, 2, ed.PendingCount())
	require.Equal(t, StateDirty, ed.State())

	_, stillPending := ed.drafts.Links.Patch("l2")
	require.True(t, stillPending)
	_, stillPending = ed.drafts.Links.Patch("l3")
	require.True(t, stillPending)
	_, cleared := ed.drafts.Links.Patch("l1")
	require.False(t, cleared)
}

func TestSave_FailureRewritesTempRefsInRetainedDrafts(t *testing.T) {
	t.Parallel()

	issueID := "i1"
	boom := errors.New("updateIssue rejected")
	fake := &fakeRemote{
		createTopicFn: func(title string, comment *string, iid string) (*domain.Topic, error) {
			return &domain.Topic{ID: "t-real", IssueID: &iid, Title: title, Position: 1}, nil
		},
		updateIssueFn: func(string, domain.IssueFields, []LinkUpdate, []string) (*domain.Issue, error) {
			return nil, boom
		},
	}
	ed, c := newTestEditor(t, fake, nil)
	c.PutIssue(&domain.Issue{ID: issueID, Topics: []*domain.Topic{
		{ID: "t0", IssueID: &issueID, Position: 0},
	}})
	c.PutLink(&domain.Link{ID: "lx", URL: "https://a", Position: 0})

	topicID, err := ed.CreateTopic(issueID, "New", nil)
	require.NoError(t, err)
	require.NoError(t, ed.MoveLinkToTopic("lx", &topicID, 0))

	err = ed.Save(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, StateDirty, ed.State())

	// The topic create landed before the batch failed. The retained link
	// draft now points at the server id, so the retry will not reference
	// a temp id the server never saw.
	_, cleared := ed.drafts.Topics.Patch(topicID)
	require.False(t, cleared)
	lp, ok := ed.drafts.Links.Patch("lx")
	require.True(t, ok)
	require.NotNil(t, lp.Fields.TopicID)
	require.True(t, lp.Fields.TopicID.Valid)
	require.Equal(t, "t-real", lp.Fields.TopicID.ID)

	require.Equal(t, []string{"t0", "t-real"}, topicIDs(ed.EffectiveTopics(issueID)))
}

func TestSave_WhileSaving(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	fake := &fakeRemote{
		updateLinkFn: func(id string, fields domain.LinkFields) (*domain.Link, error) {
			close(started)
			<-release
			link := domain.LinkFromFields(id, fields)
			return &link, nil
		},
	}
	ed, c := newTestEditor(t, fake, nil)
	c.PutIssue(&domain.Issue{ID: "i9"})
	c.PutLink(&domain.Link{ID: "l1", URL: "https://a"})

	require.NoError(t, ed.EditLink("l1", domain.LinkFields{Title: strPtr("one")}))

	done := make(chan error, 1)
	go func() { done <- ed.Save(context.Background()) }()
	<-started
	require.Equal(t, StateSaving, ed.State())

	// Structural edits, discard and a second save are all rejected while
	// the commit is in flight.
	require.ErrorIs(t, ed.MoveLink(nil, 0, 0), domain.ErrSaveInFlight)
	require.ErrorIs(t, ed.Discard(), domain.ErrSaveInFlight)
	require.ErrorIs(t, ed.Save(context.Background()), domain.ErrSaveInFlight)

	// A field edit on the in-flight entity is rejected, but an edit on an
	// entity outside the snapshot queues for the next save.
	require.ErrorIs(t, ed.EditLink("l1", domain.LinkFields{Title: strPtr("late")}), domain.ErrSaveInFlight)
	require.NoError(t, ed.EditIssue("i9", domain.IssueFields{Title: strPtr("renamed")}))

	close(release)
	require.NoError(t, <-done)

	require.Equal(t, StateDirty, ed.State())
	require.Equal(t, 1, ed.PendingCount())
	_, pending := ed.drafts.Issues.Patch("i9")
	require.True(t, pending)
}

func TestSave_ExpiredSessionFailsBeforeDispatch(t *testing.T) {
	t.Parallel()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	session, err := auth.NewSession(raw)
	require.NoError(t, err)

	fake := &fakeRemote{}
	ed, c := newTestEditor(t, fake, session)
	c.PutLink(&domain.Link{ID: "l1", URL: "https://a"})
	require.NoError(t, ed.EditLink("l1", domain.LinkFields{Title: strPtr("one")}))

	err = ed.Save(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.Empty(t, fake.recorded())
	require.Equal(t, 1, ed.PendingCount())
	require.Equal(t, StateDirty, ed.State())
}

func TestDeleteTopic_DetachesLast(t *testing.T) {
	t.Parallel()

	issueID := "i1"
	topicID := "t1"
	fake := &fakeRemote{}
	ed, c := newTestEditor(t, fake, nil)
	c.PutIssue(&domain.Issue{ID: issueID, Topics: []*domain.Topic{
		{ID: topicID, IssueID: &issueID, Position: 0},
		{ID: "t2", IssueID: &issueID, Position: 1},
	}})

	require.NoError(t, ed.DeleteTopic(topicID))
	require.Equal(t, []string{"t2"}, topicIDs(ed.EffectiveTopics(issueID)))

	require.NoError(t, ed.Save(context.Background()))

	calls := fake.recorded()
	require.NotEmpty(t, calls)
	require.Equal(t, "detachTopic "+topicID, calls[len(calls)-1])
	require.Equal(t, 0, ed.PendingCount())
}

func TestSubmitLink_ValidatesBeforeRemote(t *testing.T) {
	t.Parallel()

	fake := &fakeRemote{}
	ed, _ := newTestEditor(t, fake, nil)
	ctx := context.Background()

	_, err := ed.SubmitLink(ctx, "Ada", "not-an-email", "", "", "https://a.example")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = ed.SubmitLink(ctx, "Ada", "ada@example.com", "", "", "ftp://a.example")
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Empty(t, fake.recorded())

	sub, err := ed.SubmitLink(ctx, "Ada", "ada@example.com", "Great read", "Intro", "https://a.example")
	require.NoError(t, err)
	require.Equal(t, "https://a.example", sub.URL)
	require.Equal(t, 0, ed.PendingCount())
}
