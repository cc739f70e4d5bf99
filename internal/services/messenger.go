package services

import (
	"context"
	"time"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/Xeladesign/shok/pkg/utils"
)

// MessengerConfig tunes a Messenger. The zero value is usable.
type MessengerConfig struct {
	Policy CallPolicy
	Watch  realtime.WatchOptions
	// SuppressOpenNotifications skips the message notification when the
	// recipient has the conversation open on this instance.
	SuppressOpenNotifications bool
}

// Messenger sends and reads direct messages and opens live conversations.
type Messenger struct {
	messages  MessageStore
	social    SocialStore
	directory Directory
	notifier  *Notifier
	inbox     *Inbox
	feed      realtime.Feed
	presence  *Presence
	cfg       MessengerConfig
}

// NewMessenger wires the message channel. social, notifier and inbox may be nil.
func NewMessenger(messages MessageStore, social SocialStore, directory Directory, notifier *Notifier, inbox *Inbox, feed realtime.Feed, cfg MessengerConfig) *Messenger {
	return &Messenger{
		messages:  messages,
		social:    social,
		directory: directory,
		notifier:  notifier,
		inbox:     inbox,
		feed:      feed,
		presence:  NewPresence(),
		cfg:       cfg,
	}
}

func (m *Messenger) Presence() *Presence { return m.presence }

// History returns the conversation between selfID and partnerID oldest first.
func (m *Messenger) History(ctx context.Context, selfID, partnerID string) ([]models.Message, error) {
	msgs, err := readValue(ctx, m.cfg.Policy, func(ctx context.Context) ([]models.Message, error) {
		return m.messages.Between(ctx, selfID, partnerID)
	})
	if err != nil {
		return nil, err
	}
	models.SortChronologically(msgs)
	return msgs, nil
}

// MarkRead flags the given received messages read in one batch.
func (m *Messenger) MarkRead(ctx context.Context, selfID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return readValue(ctx, m.cfg.Policy, func(ctx context.Context) (int64, error) {
		return m.messages.MarkRead(ctx, selfID, ids)
	})
}

// MarkConversationRead flags everything partnerID sent to selfID read.
func (m *Messenger) MarkConversationRead(ctx context.Context, selfID, partnerID string) (int64, error) {
	return readValue(ctx, m.cfg.Policy, func(ctx context.Context) (int64, error) {
		return m.messages.MarkReadFrom(ctx, selfID, partnerID)
	})
}

// UnreadCount is the number of messages selfID has not read yet.
func (m *Messenger) UnreadCount(ctx context.Context, selfID string) (int64, error) {
	return readValue(ctx, m.cfg.Policy, func(ctx context.Context) (int64, error) {
		return m.messages.CountUnread(ctx, selfID)
	})
}

// OpenHistory fetches the conversation and marks what partnerID sent as read.
// Read failures degrade to an empty history.
func (m *Messenger) OpenHistory(ctx context.Context, selfID, partnerID string) []models.Message {
	log := logger.Component("messenger").With().Str("user_id", selfID).Str("partner_id", partnerID).Logger()

	msgs, err := m.History(ctx, selfID, partnerID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch history")
		return []models.Message{}
	}
	unread := unreadFrom(msgs, selfID, partnerID)
	if len(unread) == 0 {
		return msgs
	}
	if _, err := m.MarkRead(ctx, selfID, unread); err != nil {
		log.Warn().Err(err).Msg("Failed to mark history read")
		return msgs
	}
	markLocallyRead(msgs, unread)
	return msgs
}

// ValidateDraft checks a message locally, before any store call.
func ValidateDraft(senderID, receiverID, text string) (string, error) {
	content := utils.NormalizeText(text)
	switch {
	case content == "":
		return "", apperrors.BadRequest("Message cannot be empty")
	case utils.ExceedsLength(content, utils.MaxMessageLength):
		return "", apperrors.BadRequest("Message is too long")
	case receiverID == "":
		return "", apperrors.BadRequest("Recipient is required")
	case receiverID == senderID:
		return "", apperrors.BadRequest("You cannot message yourself")
	}
	return content, nil
}

// Send stores a message from sender to receiverID and notifies the receiver.
// Authorization failures are returned as is and never retried.
func (m *Messenger) Send(ctx context.Context, sender models.Identity, receiverID, text string) (models.Message, error) {
	content, err := ValidateDraft(sender.ID, receiverID, text)
	if err != nil {
		return models.Message{}, err
	}

	if m.social != nil {
		blocked, err := readValue(ctx, m.cfg.Policy, func(ctx context.Context) (bool, error) {
			return m.social.Blocked(ctx, sender.ID, receiverID)
		})
		if err != nil {
			return models.Message{}, err
		}
		if blocked {
			return models.Message{}, apperrors.Forbidden("You cannot message this user")
		}
	}

	msg := models.Message{
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
		IsRead:     false,
	}
	err = m.cfg.Policy.Write(ctx, func(ctx context.Context) error {
		return m.messages.Insert(ctx, &msg)
	})
	if err != nil {
		return models.Message{}, err
	}

	if m.notifier != nil && !(m.cfg.SuppressOpenNotifications && m.presence.IsOpen(receiverID, sender.ID)) {
		m.notifier.Notify(ctx, receiverID, sender, models.NotificationTypeMessage, nil, utils.TruncateRunes(content, utils.PreviewLength))
	}
	return msg, nil
}

// Open starts a live conversation between self and partnerID. The returned
// conversation must be closed by the caller.
func (m *Messenger) Open(ctx context.Context, self models.Identity, partnerID string, view *InboxView, listener ConversationListener) (*Conversation, error) {
	if partnerID == "" {
		return nil, apperrors.BadRequest("Partner is required")
	}
	if partnerID == self.ID {
		return nil, apperrors.BadRequest("You cannot message yourself")
	}

	partner, err := readValue(ctx, m.cfg.Policy, func(ctx context.Context) (models.Identity, error) {
		return m.directory.Identity(ctx, partnerID)
	})
	if err != nil {
		logger.Warn().Err(err).Str("partner_id", partnerID).Msg("Partner lookup failed, showing placeholder")
		partner = models.UnknownIdentity(partnerID)
	}

	c := newConversation(m, self, partner, view, listener)
	// Subscribe before the history fetch so nothing committed in between is lost.
	opts := m.cfg.Watch
	opts.OnResync = c.resync
	watch, err := realtime.StartWatch(c.ctx, m.feed, models.TableMessages, realtime.Eq("receiver_id", self.ID), c.handleEvent, opts)
	if err != nil {
		c.cancel()
		return nil, apperrors.Unavailable("Live updates are unavailable", err)
	}
	c.watch = watch
	m.presence.Enter(self.ID, partnerID)

	c.load(ctx)
	return c, nil
}

func unreadFrom(msgs []models.Message, selfID, partnerID string) []int64 {
	var ids []int64
	for _, msg := range msgs {
		if msg.ReceiverID == selfID && msg.SenderID == partnerID && !msg.IsRead {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

func markLocallyRead(msgs []models.Message, ids []int64) {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for i := range msgs {
		if _, ok := set[msgs[i].ID]; ok {
			msgs[i].IsRead = true
		}
	}
}
