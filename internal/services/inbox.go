package services

import (
	"context"
	"sort"
	"sync"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/pkg/logger"
)

// Inbox builds the per-user conversation list from the message log.
type Inbox struct {
	messages  MessageStore
	directory Directory
	policy    CallPolicy
}

func NewInbox(messages MessageStore, directory Directory, policy CallPolicy) *Inbox {
	return &Inbox{messages: messages, directory: directory, policy: policy}
}

// ListConversations returns one summary per partner, most recently active first.
// Read failures degrade to an empty list; unresolvable partners show as Unknown.
func (i *Inbox) ListConversations(ctx context.Context, selfID string) []models.ConversationSummary {
	log := logger.Component("inbox").With().Str("user_id", selfID).Logger()

	sent, err := readValue(ctx, i.policy, func(ctx context.Context) ([]models.Message, error) {
		return i.messages.Sent(ctx, selfID)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch sent messages")
		return []models.ConversationSummary{}
	}
	received, err := readValue(ctx, i.policy, func(ctx context.Context) ([]models.Message, error) {
		return i.messages.Received(ctx, selfID)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch received messages")
		return []models.ConversationSummary{}
	}

	summaries := Aggregate(selfID, sent, received)
	if len(summaries) == 0 {
		return summaries
	}

	ids := make([]string, len(summaries))
	for idx, s := range summaries {
		ids[idx] = s.Partner.ID
	}
	identities, err := readValue(ctx, i.policy, func(ctx context.Context) (map[string]models.Identity, error) {
		return i.directory.Resolve(ctx, ids)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Partner lookup failed, showing placeholders")
	}
	for idx := range summaries {
		id := summaries[idx].Partner.ID
		if ident, ok := identities[id]; ok {
			summaries[idx].Partner = ident
		} else {
			summaries[idx].Partner = models.UnknownIdentity(id)
		}
	}
	return summaries
}

type tally struct {
	last   models.Message
	unread int
}

// Aggregate folds the sent and received logs of selfID into one summary per
// partner. The later message wins as last message; equal timestamps fall back
// to the larger id. Only received unread rows count as unread. Partners carry
// their id only.
func Aggregate(selfID string, sent, received []models.Message) []models.ConversationSummary {
	tallies := make(map[string]*tally)
	fold := func(m models.Message) *tally {
		partner := m.PartnerOf(selfID)
		if partner == "" || partner == selfID {
			return nil
		}
		t, ok := tallies[partner]
		if !ok {
			t = &tally{last: m}
			tallies[partner] = t
		} else if t.last.Before(m) {
			t.last = m
		}
		return t
	}

	for _, m := range sent {
		if m.SenderID == selfID {
			fold(m)
		}
	}
	for _, m := range received {
		if m.ReceiverID != selfID {
			continue
		}
		if t := fold(m); t != nil && !m.IsRead {
			t.unread++
		}
	}

	out := make([]models.ConversationSummary, 0, len(tallies))
	for partner, t := range tallies {
		out = append(out, summaryOf(models.Identity{ID: partner}, t.last, t.unread))
	}
	sortSummaries(out)
	return out
}

func summaryOf(partner models.Identity, last models.Message, unread int) models.ConversationSummary {
	return models.ConversationSummary{
		Partner:         partner,
		LastMessage:     last.Content,
		LastMessageTime: last.CreatedAt,
		UnreadCount:     unread,
	}
}

func sortSummaries(items []models.ConversationSummary) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].LastMessageTime.Equal(items[b].LastMessageTime) {
			return items[a].Partner.ID < items[b].Partner.ID
		}
		return items[a].LastMessageTime.After(items[b].LastMessageTime)
	})
}

// InboxView is the cached inbox of one session. Changes are reported to the
// optional listener after the lock is released.
type InboxView struct {
	mu       sync.Mutex
	items    []models.ConversationSummary
	onChange func([]models.ConversationSummary)
}

func NewInboxView(onChange func([]models.ConversationSummary)) *InboxView {
	return &InboxView{onChange: onChange}
}

func (v *InboxView) List() []models.ConversationSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *InboxView) Replace(items []models.ConversationSummary) {
	v.update(func() bool {
		v.items = append([]models.ConversationSummary(nil), items...)
		sortSummaries(v.items)
		return true
	})
}

// ZeroUnread clears the unread count of partnerID.
func (v *InboxView) ZeroUnread(partnerID string) {
	v.update(func() bool {
		idx := v.find(partnerID)
		if idx < 0 || v.items[idx].UnreadCount == 0 {
			return false
		}
		v.items[idx].UnreadCount = 0
		return true
	})
}

// RecordSent moves the conversation with partner to the top with msg as its
// last message. Outgoing messages leave nothing unread.
func (v *InboxView) RecordSent(partner models.Identity, msg models.Message) {
	v.record(partner, msg, false)
}

// RecordReceived applies an incoming message, counting it unread unless it
// was already read.
func (v *InboxView) RecordReceived(partner models.Identity, msg models.Message) {
	v.record(partner, msg, !msg.IsRead)
}

func (v *InboxView) record(partner models.Identity, msg models.Message, unread bool) {
	v.update(func() bool {
		idx := v.find(partner.ID)
		if idx < 0 {
			v.items = append(v.items, summaryOf(partner, msg, 0))
			idx = len(v.items) - 1
		} else if msg.CreatedAt.Before(v.items[idx].LastMessageTime) {
			if unread {
				v.items[idx].UnreadCount++
			}
			return unread
		} else {
			v.items[idx].LastMessage = msg.Content
			v.items[idx].LastMessageTime = msg.CreatedAt
		}
		if unread {
			v.items[idx].UnreadCount++
		} else if msg.SenderID != partner.ID {
			v.items[idx].UnreadCount = 0
		}
		sortSummaries(v.items)
		return true
	})
}

func (v *InboxView) update(fn func() bool) {
	v.mu.Lock()
	changed := fn()
	var snap []models.ConversationSummary
	if changed && v.onChange != nil {
		snap = v.snapshot()
	}
	v.mu.Unlock()
	if snap != nil {
		v.onChange(snap)
	}
}

func (v *InboxView) find(partnerID string) int {
	for idx, s := range v.items {
		if s.Partner.ID == partnerID {
			return idx
		}
	}
	return -1
}

func (v *InboxView) snapshot() []models.ConversationSummary {
	out := make([]models.ConversationSummary, len(v.items))
	copy(out, v.items)
	return out
}
