package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
)

var bg = context.Background()

var (
	alice = models.Identity{ID: "alice", Name: "Alice", Avatar: "https://cdn/alice.png"}
	bob   = models.Identity{ID: "bob", Name: "Bob", Avatar: "https://cdn/bob.png"}
	carol = models.Identity{ID: "carol", Name: "Carol", Avatar: "https://cdn/carol.png"}
)

var testWatch = realtime.WatchOptions{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

type fakeMessages struct {
	mu        sync.Mutex
	rows      []models.Message
	nextID    int64
	feed      realtime.Publisher
	inserts   int
	insertErr error
	readErr   error
	markCalls [][]int64
}

func newFakeMessages(feed realtime.Publisher) *fakeMessages {
	return &fakeMessages{feed: feed}
}

// seed stores a row without publishing it.
func (f *fakeMessages) seed(from, to, content string, at time.Time, read bool) models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := models.Message{ID: f.nextID, SenderID: from, ReceiverID: to, Content: content, CreatedAt: at, IsRead: read}
	f.rows = append(f.rows, m)
	return m
}

func (f *fakeMessages) get(id int64) models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.ID == id {
			return m
		}
	}
	return models.Message{}
}

func (f *fakeMessages) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

func (f *fakeMessages) filter(keep func(models.Message) bool) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.Message
	for _, m := range f.rows {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) Sent(_ context.Context, userID string) ([]models.Message, error) {
	return f.filter(func(m models.Message) bool { return m.SenderID == userID })
}

func (f *fakeMessages) Received(_ context.Context, userID string) ([]models.Message, error) {
	return f.filter(func(m models.Message) bool { return m.ReceiverID == userID })
}

func (f *fakeMessages) Between(_ context.Context, a, b string) ([]models.Message, error) {
	msgs, err := f.filter(func(m models.Message) bool {
		return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
	})
	models.SortChronologically(msgs)
	return msgs, err
}

func (f *fakeMessages) Insert(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	f.inserts++
	if f.insertErr != nil {
		f.mu.Unlock()
		return f.insertErr
	}
	f.nextID++
	msg.ID = f.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	f.rows = append(f.rows, *msg)
	f.mu.Unlock()
	return realtime.PublishRecord(ctx, f.feed, realtime.EventInsert, *msg)
}

func (f *fakeMessages) MarkRead(_ context.Context, receiverID string, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls = append(f.markCalls, append([]int64(nil), ids...))
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	var n int64
	for i := range f.rows {
		if set[f.rows[i].ID] && f.rows[i].ReceiverID == receiverID && !f.rows[i].IsRead {
			f.rows[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) MarkReadFrom(_ context.Context, receiverID, senderID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.rows {
		if f.rows[i].ReceiverID == receiverID && f.rows[i].SenderID == senderID && !f.rows[i].IsRead {
			f.rows[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) CountUnread(_ context.Context, receiverID string) (int64, error) {
	msgs, err := f.filter(func(m models.Message) bool { return m.ReceiverID == receiverID && !m.IsRead })
	return int64(len(msgs)), err
}

type fakeNotifications struct {
	mu        sync.Mutex
	rows      []models.Notification
	nextID    int64
	feed      realtime.Publisher
	inserts   int
	markCalls int
	insertErr error
	readErr   error
	// afterMark runs once the bulk update has been applied.
	afterMark func()
}

func newFakeNotifications(feed realtime.Publisher) *fakeNotifications {
	return &fakeNotifications{feed: feed}
}

func (f *fakeNotifications) seed(userID string, read bool, at time.Time) models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n := models.Notification{ID: f.nextID, UserID: userID, ActorID: "someone", Type: models.NotificationTypeFollow, IsRead: read, CreatedAt: at}
	f.rows = append(f.rows, n)
	return n
}

func (f *fakeNotifications) all() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.rows...)
}

func (f *fakeNotifications) Insert(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	f.inserts++
	if f.insertErr != nil {
		f.mu.Unlock()
		return f.insertErr
	}
	f.nextID++
	n.ID = f.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	f.rows = append(f.rows, *n)
	f.mu.Unlock()
	return realtime.PublishRecord(ctx, f.feed, realtime.EventInsert, *n)
}

func (f *fakeNotifications) Recent(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Newer(out[b]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	f.markCalls++
	var n int64
	for i := range f.rows {
		if f.rows[i].UserID == userID && !f.rows[i].IsRead {
			f.rows[i].IsRead = true
			n++
		}
	}
	after := f.afterMark
	f.mu.Unlock()
	if after != nil {
		after()
	}
	return n, nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, row := range f.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

type fakeDirectory struct {
	known map[string]models.Identity
	err   error
}

func newFakeDirectory(ids ...models.Identity) *fakeDirectory {
	d := &fakeDirectory{known: make(map[string]models.Identity)}
	for _, id := range ids {
		d.known[id.ID] = id
	}
	return d
}

func (d *fakeDirectory) Resolve(_ context.Context, ids []string) (map[string]models.Identity, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := make(map[string]models.Identity)
	for _, id := range ids {
		if ident, ok := d.known[id]; ok {
			out[id] = ident
		}
	}
	return out, nil
}

func (d *fakeDirectory) Identity(_ context.Context, id string) (models.Identity, error) {
	if d.err != nil {
		return models.Identity{}, d.err
	}
	if ident, ok := d.known[id]; ok {
		return ident, nil
	}
	return models.UnknownIdentity(id), nil
}

type fakeSocial struct {
	mu       sync.Mutex
	follows  map[[2]string]bool
	blocks   map[[2]string]bool
	products map[string]string
	comments []models.Comment
	blockErr error
}

func newFakeSocial() *fakeSocial {
	return &fakeSocial{
		follows:  make(map[[2]string]bool),
		blocks:   make(map[[2]string]bool),
		products: make(map[string]string),
	}
}

func (f *fakeSocial) Follow(_ context.Context, followerID, followingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{followerID, followingID}
	if f.follows[key] {
		return false, nil
	}
	f.follows[key] = true
	return true, nil
}

func (f *fakeSocial) Unfollow(_ context.Context, followerID, followingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{followerID, followingID}
	existed := f.follows[key]
	delete(f.follows, key)
	return existed, nil
}

func (f *fakeSocial) IsFollowing(_ context.Context, followerID, followingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.follows[[2]string{followerID, followingID}], nil
}

func (f *fakeSocial) Blocked(_ context.Context, a, b string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blockErr != nil {
		return false, f.blockErr
	}
	return f.blocks[[2]string{a, b}] || f.blocks[[2]string{b, a}], nil
}

func (f *fakeSocial) ProductAuthor(_ context.Context, productID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	author, ok := f.products[productID]
	if !ok {
		return "", apperrors.NotFound("Product not found")
	}
	return author, nil
}

func (f *fakeSocial) InsertComment(_ context.Context, c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = int64(len(f.comments) + 1)
	c.CreatedAt = time.Now().UTC()
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeSocial) Comments(_ context.Context, productID string, limit int) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for i := len(f.comments) - 1; i >= 0 && len(out) < limit; i-- {
		if f.comments[i].ProductID == productID {
			out = append(out, f.comments[i])
		}
	}
	return out, nil
}

type recordingConversation struct {
	mu       sync.Mutex
	received []models.Message
	replaced [][]models.Message
}

func (r *recordingConversation) HistoryReplaced(history []models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced = append(r.replaced, history)
}

func (r *recordingConversation) MessageReceived(msg models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, msg)
}

func (r *recordingConversation) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received), len(r.replaced)
}

type recordingPanel struct {
	mu       sync.Mutex
	added    []models.Notification
	replaced int
	unread   int
}

func (r *recordingPanel) NotificationsReplaced(_ []models.Notification, unread int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced++
	r.unread = unread
}

func (r *recordingPanel) NotificationAdded(item models.Notification, unread int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, item)
	r.unread = unread
}

func (r *recordingPanel) snapshot() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.added), r.replaced, r.unread
}
