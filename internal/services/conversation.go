package services

import (
	"context"
	"sync"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/rs/zerolog"
)

// ConversationListener receives changes pushed into an open conversation.
// Calls come from a single goroutine.
type ConversationListener interface {
	// HistoryReplaced is called after a re-fetch following a reconnect.
	HistoryReplaced(history []models.Message)
	// MessageReceived is called once per new message from the partner,
	// already marked read.
	MessageReceived(msg models.Message)
}

// Conversation is one open self-partner chat with a live subscription.
type Conversation struct {
	m        *Messenger
	self     models.Identity
	partner  models.Identity
	view     *InboxView
	listener ConversationListener
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	watch  *realtime.Watch

	mu      sync.Mutex
	history []models.Message
	ids     map[int64]int
	draft   string
	sending bool
	closed  bool
}

func newConversation(m *Messenger, self, partner models.Identity, view *InboxView, listener ConversationListener) *Conversation {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conversation{
		m:        m,
		self:     self,
		partner:  partner,
		view:     view,
		listener: listener,
		log:      logger.Component("conversation").With().Str("user_id", self.ID).Str("partner_id", partner.ID).Logger(),
		ctx:      ctx,
		cancel:   cancel,
		ids:      make(map[int64]int),
	}
}

func (c *Conversation) Partner() models.Identity { return c.partner }

// Lost is closed when the live subscription stops. LostErr is non-nil when it
// stopped because reconnecting failed rather than because of Close.
func (c *Conversation) Lost() <-chan struct{} { return c.watch.Done() }

func (c *Conversation) LostErr() error { return c.watch.Err() }

// Messages returns the history oldest first.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.history...)
}

// Draft is the text to put back in the compose field after a failed send.
func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Send posts text to the partner. The draft is cleared while sending and
// restored if the send fails, in which case history is left untouched.
func (c *Conversation) Send(ctx context.Context, text string) (models.Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.Message{}, apperrors.Conflict("Conversation is closed")
	}
	if c.sending {
		c.mu.Unlock()
		return models.Message{}, apperrors.Conflict("A message is already being sent")
	}
	c.sending = true
	c.draft = ""
	c.mu.Unlock()

	msg, err := c.m.Send(ctx, c.self, c.partner.ID, text)

	c.mu.Lock()
	c.sending = false
	if err != nil {
		c.draft = text
		c.mu.Unlock()
		return models.Message{}, err
	}
	c.merge(msg)
	c.mu.Unlock()

	if c.view != nil {
		c.view.RecordSent(c.partner, msg)
	}
	return msg, nil
}

// Close tears down the live subscription. It is safe to call more than once.
func (c *Conversation) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.watch != nil {
		c.watch.Close()
	}
	c.cancel()
	c.m.presence.Leave(c.self.ID, c.partner.ID)
}

// load pulls history, marks it read and merges it with whatever the live
// subscription delivered meanwhile.
func (c *Conversation) load(ctx context.Context) []models.Message {
	fetched := c.m.OpenHistory(ctx, c.self.ID, c.partner.ID)

	c.mu.Lock()
	for _, msg := range fetched {
		c.merge(msg)
	}
	snap := append([]models.Message(nil), c.history...)
	c.mu.Unlock()

	if c.view != nil {
		c.view.ZeroUnread(c.partner.ID)
	}
	return snap
}

func (c *Conversation) resync(ctx context.Context) {
	c.log.Info().Msg("Re-fetching conversation after reconnect")
	history := c.load(ctx)
	if c.listener != nil {
		c.listener.HistoryReplaced(history)
	}
	if c.view != nil && c.m.inbox != nil {
		c.view.Replace(c.m.inbox.ListConversations(ctx, c.self.ID))
	}
}

func (c *Conversation) handleEvent(e realtime.Event) {
	if e.Type != realtime.EventInsert {
		return
	}
	msg, err := realtime.Decode[models.Message](e, models.TableMessages)
	if err != nil {
		c.log.Warn().Err(err).Str("event_id", e.ID).Msg("Dropping malformed message event")
		return
	}
	if msg.ReceiverID != c.self.ID || msg.SenderID != c.partner.ID {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	added := c.merge(msg)
	c.mu.Unlock()
	if !added {
		return
	}

	if !msg.IsRead {
		if _, err := c.m.MarkRead(c.ctx, c.self.ID, []int64{msg.ID}); err != nil {
			c.log.Warn().Err(err).Int64("message_id", msg.ID).Msg("Failed to mark live message read")
		} else {
			msg.IsRead = true
			c.mu.Lock()
			c.merge(msg)
			c.mu.Unlock()
		}
	}

	if c.view != nil {
		c.view.RecordReceived(c.partner, msg)
	}
	if c.listener != nil {
		c.listener.MessageReceived(msg)
	}
}

// merge inserts msg by id, keeping history sorted by (created_at, id).
// It reports whether msg was new. Callers hold mu.
func (c *Conversation) merge(msg models.Message) bool {
	if idx, ok := c.ids[msg.ID]; ok {
		if msg.IsRead {
			c.history[idx].IsRead = true
		}
		return false
	}
	c.history = append(c.history, msg)
	models.SortChronologically(c.history)
	for idx, m := range c.history {
		c.ids[m.ID] = idx
	}
	return true
}
