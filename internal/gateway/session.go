package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/services"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/Xeladesign/shok/pkg/utils"
	"github.com/rs/zerolog"
)

// Client to server events.
const (
	EventOpenInbox         = "open_inbox"
	EventOpenConversation  = "open_conversation"
	EventCloseConversation = "close_conversation"
	EventSendMessage       = "send_message"
	EventOpenNotifications = "open_notifications"
	EventReadNotifications = "read_notifications"
)

// Server to client events.
const (
	EventInbox         = "inbox"
	EventHistory       = "history"
	EventMessage       = "message"
	EventSendFailed    = "send_failed"
	EventNotifications = "notifications"
	EventNotification  = "notification"
	EventError         = "error"
)

// Emitter delivers one named event to a connected client.
type Emitter interface {
	Emit(event string, payload interface{})
}

// RateLimiter throttles realtime sends per user.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Services is everything a session needs. Limiter may be nil.
type Services struct {
	Inbox             *services.Inbox
	Messenger         *services.Messenger
	Notifier          *services.Notifier
	Directory         services.Directory
	Limiter           RateLimiter
	NotificationLimit int
}

type HistoryPayload struct {
	Partner  models.Identity  `json:"partner"`
	Messages []models.Message `json:"messages"`
}

type SendFailedPayload struct {
	Error string `json:"error"`
	Draft string `json:"draft"`
}

type NotificationsPayload struct {
	Items  []models.Notification `json:"items"`
	Unread int                   `json:"unread"`
}

type NotificationPayload struct {
	Item   models.Notification `json:"item"`
	Unread int                 `json:"unread"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type openConversationArgs struct {
	PartnerID string `json:"partnerId"`
}

type sendMessageArgs struct {
	Content string `json:"content"`
}

type openNotificationsArgs struct {
	Limit int `json:"limit"`
}

// Session is one connected client, whichever transport carries it. It owns
// the inbox view, at most one open conversation and the notification panel.
type Session struct {
	ID   string
	self models.Identity
	svc  Services
	out  Emitter
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	view   *services.InboxView
	convo  *services.Conversation
	panel  *services.NotificationPanel
	closed bool
}

func NewSession(self models.Identity, svc Services, out Emitter) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:     utils.NewID(),
		self:   self,
		svc:    svc,
		out:    out,
		ctx:    ctx,
		cancel: cancel,
	}
	s.log = logger.Component("session").With().Str("session_id", s.ID).Str("user_id", self.ID).Logger()
	s.view = services.NewInboxView(func(items []models.ConversationSummary) {
		s.out.Emit(EventInbox, items)
	})
	return s
}

func (s *Session) Self() models.Identity { return s.self }

// Handle dispatches one client event with its raw JSON arguments.
func (s *Session) Handle(event string, raw json.RawMessage) {
	switch event {
	case EventOpenInbox:
		s.OpenInbox()
	case EventOpenConversation:
		var args openConversationArgs
		if !s.decode(raw, &args) {
			return
		}
		s.OpenConversation(args.PartnerID)
	case EventCloseConversation:
		s.CloseConversation()
	case EventSendMessage:
		var args sendMessageArgs
		if !s.decode(raw, &args) {
			return
		}
		s.SendMessage(args.Content)
	case EventOpenNotifications:
		var args openNotificationsArgs
		if len(raw) > 0 && !s.decode(raw, &args) {
			return
		}
		s.OpenNotifications(args.Limit)
	case EventReadNotifications:
		s.ReadNotifications()
	default:
		s.fail("unsupported_type")
	}
}

func (s *Session) decode(raw json.RawMessage, dest interface{}) bool {
	if len(raw) == 0 {
		s.fail("missing_fields")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.fail("invalid_json")
		return false
	}
	return true
}

// OpenInbox recomputes the conversation list and pushes it.
func (s *Session) OpenInbox() {
	if s.isClosed() {
		return
	}
	s.view.Replace(s.svc.Inbox.ListConversations(s.ctx, s.self.ID))
}

// OpenConversation replaces the open conversation with one with partnerID.
func (s *Session) OpenConversation(partnerID string) {
	s.CloseConversation()

	convo, err := s.svc.Messenger.Open(s.ctx, s.self, partnerID, s.view, s)
	if err != nil {
		s.failWith(err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		convo.Close()
		return
	}
	s.convo = convo
	s.mu.Unlock()
	go s.reportLost(convo.Lost(), convo.LostErr)

	s.out.Emit(EventHistory, HistoryPayload{Partner: convo.Partner(), Messages: convo.Messages()})
}

func (s *Session) CloseConversation() {
	s.mu.Lock()
	convo := s.convo
	s.convo = nil
	s.mu.Unlock()
	if convo != nil {
		convo.Close()
	}
}

// SendMessage posts content into the open conversation. Failures hand the
// text back as the draft.
func (s *Session) SendMessage(content string) {
	s.mu.Lock()
	convo := s.convo
	s.mu.Unlock()
	if convo == nil {
		s.out.Emit(EventSendFailed, SendFailedPayload{Error: "No conversation is open", Draft: content})
		return
	}

	if s.svc.Limiter != nil {
		ok, err := s.svc.Limiter.Allow(s.ctx, s.self.ID)
		if err != nil {
			s.log.Warn().Err(err).Msg("Send rate limiter unavailable")
		} else if !ok {
			s.out.Emit(EventSendFailed, SendFailedPayload{Error: apperrors.ErrRateLimit.Message, Draft: content})
			return
		}
	}

	msg, err := convo.Send(s.ctx, content)
	if err != nil {
		s.log.Warn().Err(err).Msg("Send failed")
		s.out.Emit(EventSendFailed, SendFailedPayload{Error: apperrors.As(err).Message, Draft: convo.Draft()})
		return
	}
	s.out.Emit(EventMessage, msg)
}

// OpenNotifications starts the live notification panel once per session.
func (s *Session) OpenNotifications(limit int) {
	if limit <= 0 {
		limit = s.svc.NotificationLimit
	}
	s.mu.Lock()
	panel := s.panel
	s.mu.Unlock()
	if panel != nil {
		s.out.Emit(EventNotifications, NotificationsPayload{Items: panel.Items(), Unread: panel.Unread()})
		return
	}

	panel, err := s.svc.Notifier.OpenPanel(s.ctx, s.self.ID, limit, s)
	if err != nil {
		s.failWith(err)
		return
	}
	s.mu.Lock()
	if s.closed || s.panel != nil {
		s.mu.Unlock()
		panel.Close()
		return
	}
	s.panel = panel
	s.mu.Unlock()
	go s.reportLost(panel.Lost(), panel.LostErr)

	s.out.Emit(EventNotifications, NotificationsPayload{Items: panel.Items(), Unread: panel.Unread()})
}

// ReadNotifications marks everything read when the panel is viewed.
func (s *Session) ReadNotifications() {
	s.mu.Lock()
	panel := s.panel
	s.mu.Unlock()
	if panel == nil {
		if _, err := s.svc.Notifier.MarkAllRead(s.ctx, s.self.ID); err != nil {
			s.failWith(err)
		}
		return
	}
	if err := panel.MarkAllRead(s.ctx); err != nil {
		s.failWith(err)
		return
	}
	s.out.Emit(EventNotifications, NotificationsPayload{Items: panel.Items(), Unread: panel.Unread()})
}

// Close releases every live subscription of the session.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	convo, panel := s.convo, s.panel
	s.convo, s.panel = nil, nil
	s.mu.Unlock()

	if convo != nil {
		convo.Close()
	}
	if panel != nil {
		panel.Close()
	}
	s.cancel()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// reportLost tells the client when a live subscription gave up reconnecting.
func (s *Session) reportLost(lost <-chan struct{}, why func() error) {
	select {
	case <-lost:
		if err := why(); err != nil && !s.isClosed() {
			s.log.Error().Err(err).Msg("Live updates lost")
			s.fail("live_updates_lost")
		}
	case <-s.ctx.Done():
	}
}

func (s *Session) fail(code string) {
	s.out.Emit(EventError, ErrorPayload{Error: code})
}

func (s *Session) failWith(err error) {
	appErr := apperrors.As(err)
	if appErr.Kind == apperrors.KindInternal {
		s.log.Error().Err(err).Msg("Session operation failed")
	}
	s.out.Emit(EventError, ErrorPayload{Error: appErr.Message})
}

func (s *Session) HistoryReplaced(history []models.Message) {
	s.mu.Lock()
	convo := s.convo
	s.mu.Unlock()
	if convo == nil {
		return
	}
	s.out.Emit(EventHistory, HistoryPayload{Partner: convo.Partner(), Messages: history})
}

func (s *Session) MessageReceived(msg models.Message) {
	s.out.Emit(EventMessage, msg)
}

func (s *Session) NotificationsReplaced(items []models.Notification, unread int) {
	s.out.Emit(EventNotifications, NotificationsPayload{Items: items, Unread: unread})
}

func (s *Session) NotificationAdded(item models.Notification, unread int) {
	s.out.Emit(EventNotification, NotificationPayload{Item: item, Unread: unread})
}
