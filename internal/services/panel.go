package services

import (
	"context"
	"sort"
	"sync"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/rs/zerolog"
)

// PanelListener receives changes of an open notification panel.
type PanelListener interface {
	NotificationsReplaced(items []models.Notification, unread int)
	NotificationAdded(item models.Notification, unread int)
}

// NotificationPanel is the live bell inbox of one user. The unread badge is
// always computed from the list.
type NotificationPanel struct {
	n        *Notifier
	selfID   string
	limit    int
	listener PanelListener
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	watch  *realtime.Watch

	mu     sync.Mutex
	items  []models.Notification
	ids    map[int64]struct{}
	closed bool
}

func newPanel(n *Notifier, selfID string, limit int, listener PanelListener) *NotificationPanel {
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationPanel{
		n:        n,
		selfID:   selfID,
		limit:    limit,
		listener: listener,
		log:      logger.Component("notification_panel").With().Str("user_id", selfID).Logger(),
		ctx:      ctx,
		cancel:   cancel,
		ids:      make(map[int64]struct{}),
	}
}

// Lost is closed when the live subscription stops, see Conversation.Lost.
func (p *NotificationPanel) Lost() <-chan struct{} { return p.watch.Done() }

func (p *NotificationPanel) LostErr() error { return p.watch.Err() }

// Items returns the notifications newest first.
func (p *NotificationPanel) Items() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Notification(nil), p.items...)
}

func (p *NotificationPanel) Unread() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread()
}

// MarkAllRead clears the badge. Nothing is written when nothing is unread.
// Only items the user could see before the update turn read locally; the list
// is then reconciled with the store so a row delivered while the update ran
// keeps the state the store gave it.
func (p *NotificationPanel) MarkAllRead(ctx context.Context) error {
	p.mu.Lock()
	seen := make(map[int64]struct{})
	for _, item := range p.items {
		if !item.IsRead {
			seen[item.ID] = struct{}{}
		}
	}
	p.mu.Unlock()
	if len(seen) == 0 {
		return nil
	}

	if _, err := p.n.MarkAllRead(ctx, p.selfID); err != nil {
		return err
	}
	p.mu.Lock()
	for i := range p.items {
		if _, ok := seen[p.items[i].ID]; ok {
			p.items[i].IsRead = true
		}
	}
	p.mu.Unlock()
	p.load(ctx)
	return nil
}

func (p *NotificationPanel) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.watch != nil {
		p.watch.Close()
	}
	p.cancel()
}

func (p *NotificationPanel) load(ctx context.Context) ([]models.Notification, int) {
	fetched := p.n.List(ctx, p.selfID, p.limit)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range fetched {
		p.merge(item)
	}
	return append([]models.Notification(nil), p.items...), p.unread()
}

func (p *NotificationPanel) reload(ctx context.Context) {
	items, unread := p.load(ctx)
	if p.listener != nil {
		p.listener.NotificationsReplaced(items, unread)
	}
}

func (p *NotificationPanel) handleEvent(e realtime.Event) {
	if e.Type != realtime.EventInsert {
		return
	}
	item, err := realtime.Decode[models.Notification](e, models.TableNotifications)
	if err != nil {
		p.log.Warn().Err(err).Str("event_id", e.ID).Msg("Dropping malformed notification event")
		return
	}
	if item.UserID != p.selfID {
		return
	}

	p.mu.Lock()
	if p.closed || !p.merge(item) {
		p.mu.Unlock()
		return
	}
	unread := p.unread()
	p.mu.Unlock()

	if p.listener != nil {
		p.listener.NotificationAdded(item, unread)
	}
}

// merge adds item by id, newest first. A known item can only turn read.
// Callers hold mu.
func (p *NotificationPanel) merge(item models.Notification) bool {
	if _, ok := p.ids[item.ID]; ok {
		if item.IsRead {
			for i := range p.items {
				if p.items[i].ID == item.ID {
					p.items[i].IsRead = true
				}
			}
		}
		return false
	}
	p.ids[item.ID] = struct{}{}
	p.items = append(p.items, item)
	sort.SliceStable(p.items, func(a, b int) bool {
		return p.items[a].Newer(p.items[b])
	})
	return true
}

func (p *NotificationPanel) unread() int {
	n := 0
	for _, item := range p.items {
		if !item.IsRead {
			n++
		}
	}
	return n
}
