package application

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/mother-community/internal/domain/directory"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

func init() {
	helpers.PasswordCost = bcrypt.MinCost
}

var errBoom = errors.New("boom")

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[string]*entity.User
	calls  []string
	delErr error
	seq    int
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*entity.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) record(c string) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.record("Create")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	u.ID = "u" + strconv.Itoa(f.seq)
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.record("GetByID")
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.record("GetByEmail")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.record("UpdatePassword")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.record("Delete")
	if f.delErr != nil {
		return f.delErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeProfiles records every mutating call in order.
type fakeProfiles struct {
	mu          sync.Mutex
	byID        map[string]*entity.Profile
	calls       []string
	errChildren error
	errDelete   error
	errUpdate   error
	listCalls   int
}

func newFakeProfiles(ps ...entity.Profile) *fakeProfiles {
	f := &fakeProfiles{byID: map[string]*entity.Profile{}}
	for i := range ps {
		p := ps[i]
		f.byID[p.ID] = &p
	}
	return f
}

func (f *fakeProfiles) record(c string) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeProfiles) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProfiles) Ensure(_ context.Context, id, email string) (*entity.Profile, error) {
	f.record("Ensure")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		f.byID[id] = &entity.Profile{ID: id, Email: email, CreatedAt: time.Now()}
	}
	cp := *f.byID[id]
	return &cp, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeProfiles) ListWithChildren(_ context.Context) ([]entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]entity.Profile, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProfiles) Update(_ context.Context, p *entity.Profile) error {
	f.record("Update")
	if f.errUpdate != nil {
		return f.errUpdate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, id string) error {
	f.record("Delete")
	if f.errDelete != nil {
		return f.errDelete
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeProfiles) ReplaceChildren(_ context.Context, profileID string, children []entity.Child) error {
	f.record("ReplaceChildren")
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[profileID]; ok {
		p.Children = append([]entity.Child(nil), children...)
	}
	return nil
}

func (f *fakeProfiles) DeleteChildren(_ context.Context, profileID string) error {
	f.record("DeleteChildren")
	if f.errChildren != nil {
		return f.errChildren
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[profileID]; ok {
		p.Children = nil
	}
	return nil
}

type fakeMessages struct {
	mu       sync.Mutex
	msgs     []entity.Message
	seq      int
	markReqs [][]string
	markErr  error
}

func (f *fakeMessages) Create(_ context.Context, m *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	m.ID = "m" + strconv.Itoa(f.seq)
	m.CreatedAt = time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeMessages) ListConversation(_ context.Context, a, b string) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Message
	for _, m := range f.msgs {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) ListInbox(_ context.Context, receiverID string) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Message
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].ReceiverID == receiverID {
			out = append(out, f.msgs[i])
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, receiverID string, ids []string, at time.Time) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReqs = append(f.markReqs, append([]string(nil), ids...))
	if f.markErr != nil {
		return nil, f.markErr
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var changed []entity.Message
	for i := range f.msgs {
		m := &f.msgs[i]
		if want[m.ID] && m.ReceiverID == receiverID && m.MarkRead(at) {
			changed = append(changed, *m)
		}
	}
	return changed, nil
}

func (f *fakeMessages) CountUnread(_ context.Context, receiverID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return CountUnread(f.msgs, receiverID), nil
}

func (f *fakeMessages) markRequests() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.markReqs...)
}

// fakeFeed is an in-process push feed.
type fakeFeed struct {
	mu        sync.Mutex
	subs      []*fakeSub
	published []publishedEvent
}

type publishedEvent struct {
	Topic string
	Event entity.MessageEvent
}

type fakeSub struct {
	feed   *fakeFeed
	topics map[string]bool
	ch     chan entity.MessageEvent
	once   sync.Once
	closed chan struct{}
}

func (s *fakeSub) Events() <-chan entity.MessageEvent { return s.ch }

func (s *fakeSub) Close() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
	return nil
}

func (s *fakeSub) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (f *fakeFeed) Subscribe(_ context.Context, topics ...string) (repo.Subscription, error) {
	s := &fakeSub{feed: f, topics: map[string]bool{}, ch: make(chan entity.MessageEvent, 64), closed: make(chan struct{})}
	for _, t := range topics {
		s.topics[t] = true
	}
	f.mu.Lock()
	f.subs = append(f.subs, s)
	f.mu.Unlock()
	return s, nil
}

func (f *fakeFeed) Publish(_ context.Context, topic string, evt entity.MessageEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedEvent{Topic: topic, Event: evt})
	for _, s := range f.subs {
		if s.topics[topic] && !s.isClosed() {
			s.ch <- evt
		}
	}
	return nil
}

func (f *fakeFeed) Published() []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedEvent(nil), f.published...)
}

func (f *fakeFeed) lastSub() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

type fakeGeocoder struct {
	points []directory.Point
	err    error
	calls  int
}

func (g *fakeGeocoder) Geocode(_ context.Context, _ string) ([]directory.Point, error) {
	g.calls++
	return g.points, g.err
}

type fakeStorage struct {
	uploadErr error
	uploaded  []string
	removed   []string
}

func (s *fakeStorage) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	_, _ = io.ReadAll(r)
	s.uploaded = append(s.uploaded, objectPath)
	return s.PublicURL(objectPath), nil
}

func (s *fakeStorage) PublicURL(objectPath string) string {
	return "https://storage.test/bucket/" + objectPath
}

func (s *fakeStorage) Remove(_ context.Context, objectPath string) error {
	s.removed = append(s.removed, objectPath)
	return nil
}

type fakeIndex struct {
	indexed []string
	removed []string
	hits    []repo.ProfileHit
}

func (x *fakeIndex) Index(_ context.Context, p *entity.Profile) error {
	x.indexed = append(x.indexed, p.ID)
	return nil
}

func (x *fakeIndex) Remove(_ context.Context, id string) error {
	x.removed = append(x.removed, id)
	return nil
}

func (x *fakeIndex) Search(_ context.Context, _ string, _ int) ([]repo.ProfileHit, error) {
	return x.hits, nil
}

type fakeCache struct {
	profiles    []entity.Profile
	ok          bool
	sets        int
	invalidated int
}

func (c *fakeCache) Get(_ context.Context) ([]entity.Profile, bool, error) {
	return c.profiles, c.ok, nil
}

func (c *fakeCache) Set(_ context.Context, ps []entity.Profile) error {
	c.sets++
	c.profiles, c.ok = ps, true
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context) error {
	c.invalidated++
	c.profiles, c.ok = nil, false
	return nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []any
}

func (j *fakeJobs) PublishJSON(_ context.Context, body any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs = append(j.jobs, body)
	return nil
}

type fakeEvents struct {
	created []entity.Event
	from    time.Time
}

func (e *fakeEvents) Create(_ context.Context, ev *entity.Event) error {
	ev.ID = "e" + strconv.Itoa(len(e.created)+1)
	e.created = append(e.created, *ev)
	return nil
}

func (e *fakeEvents) ListUpcoming(_ context.Context, from time.Time) ([]entity.Event, error) {
	e.from = from
	return e.created, nil
}

func strp(s string) *string { return &s }

func datep(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func floatp(f float64) *float64 { return &f }
