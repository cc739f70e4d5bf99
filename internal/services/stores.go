package services

import (
	"context"

	"github.com/Xeladesign/shok/internal/models"
)

// MessageStore is the messages table as seen by the services. Sent and
// Received return newest first, Between oldest first.
type MessageStore interface {
	Sent(ctx context.Context, userID string) ([]models.Message, error)
	Received(ctx context.Context, userID string) ([]models.Message, error)
	Between(ctx context.Context, a, b string) ([]models.Message, error)
	Insert(ctx context.Context, msg *models.Message) error
	MarkRead(ctx context.Context, receiverID string, ids []int64) (int64, error)
	MarkReadFrom(ctx context.Context, receiverID, senderID string) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	Recent(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// Directory resolves user ids to display identities.
type Directory interface {
	Resolve(ctx context.Context, ids []string) (map[string]models.Identity, error)
	Identity(ctx context.Context, id string) (models.Identity, error)
}

type SocialStore interface {
	Follow(ctx context.Context, followerID, followingID string) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	Blocked(ctx context.Context, a, b string) (bool, error)
	ProductAuthor(ctx context.Context, productID string) (string, error)
	InsertComment(ctx context.Context, c *models.Comment) error
	Comments(ctx context.Context, productID string, limit int) ([]models.Comment, error)
}
