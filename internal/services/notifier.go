package services

import (
	"context"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/Xeladesign/shok/pkg/logger"
)

const (
	DefaultNotificationLimit = 10
	MaxNotificationLimit     = 50
)

type NotifierConfig struct {
	Policy       CallPolicy
	Watch        realtime.WatchOptions
	DefaultLimit int
}

// Notifier records activity notifications and serves the bell inbox.
type Notifier struct {
	store NotificationStore
	feed  realtime.Feed
	cfg   NotifierConfig
}

func NewNotifier(store NotificationStore, feed realtime.Feed, cfg NotifierConfig) *Notifier {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultNotificationLimit
	}
	return &Notifier{store: store, feed: feed, cfg: cfg}
}

// Limit clamps a requested page size.
func (n *Notifier) Limit(requested int) int {
	switch {
	case requested <= 0:
		return n.cfg.DefaultLimit
	case requested > MaxNotificationLimit:
		return MaxNotificationLimit
	}
	return requested
}

// Notify records a notification for recipientID. It is best effort: failures
// are logged and never reach the action that triggered it. Notifying
// yourself is a no-op.
func (n *Notifier) Notify(ctx context.Context, recipientID string, actor models.Identity, typ models.NotificationType, entityID *string, content string) {
	log := logger.Component("notifier").With().
		Str("recipient_id", recipientID).
		Str("actor_id", actor.ID).
		Str("type", string(typ)).
		Logger()

	if recipientID == "" || recipientID == actor.ID {
		return
	}
	if !typ.Valid() {
		log.Warn().Msg("Unknown notification type")
		return
	}

	notif := models.Notification{
		UserID:      recipientID,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorAvatar: actor.Avatar,
		Type:        typ,
		EntityID:    entityID,
		Content:     content,
		IsRead:      false,
	}
	// The triggering request may already be finished.
	err := n.cfg.Policy.Write(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return n.store.Insert(ctx, &notif)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create notification")
	}
}

// List returns the newest notifications of selfID. Read failures degrade to
// an empty list.
func (n *Notifier) List(ctx context.Context, selfID string, limit int) []models.Notification {
	items, err := readValue(ctx, n.cfg.Policy, func(ctx context.Context) ([]models.Notification, error) {
		return n.store.Recent(ctx, selfID, n.Limit(limit))
	})
	if err != nil {
		logger.Error().Err(err).Str("user_id", selfID).Msg("Failed to fetch notifications")
		return []models.Notification{}
	}
	return items
}

// MarkAllRead flips every unread notification of selfID.
func (n *Notifier) MarkAllRead(ctx context.Context, selfID string) (int64, error) {
	if selfID == "" {
		return 0, apperrors.ErrInvalidRequest
	}
	return readValue(ctx, n.cfg.Policy, func(ctx context.Context) (int64, error) {
		return n.store.MarkAllRead(ctx, selfID)
	})
}

func (n *Notifier) UnreadCount(ctx context.Context, selfID string) (int64, error) {
	return readValue(ctx, n.cfg.Policy, func(ctx context.Context) (int64, error) {
		return n.store.CountUnread(ctx, selfID)
	})
}

// OpenPanel loads the notification panel of selfID and keeps it live until closed.
func (n *Notifier) OpenPanel(ctx context.Context, selfID string, limit int, listener PanelListener) (*NotificationPanel, error) {
	if selfID == "" {
		return nil, apperrors.ErrInvalidRequest
	}
	p := newPanel(n, selfID, n.Limit(limit), listener)
	opts := n.cfg.Watch
	opts.OnResync = p.reload
	watch, err := realtime.StartWatch(p.ctx, n.feed, models.TableNotifications, realtime.Eq("user_id", selfID), p.handleEvent, opts)
	if err != nil {
		p.cancel()
		return nil, apperrors.Unavailable("Live updates are unavailable", err)
	}
	p.watch = watch
	p.load(ctx)
	return p, nil
}
