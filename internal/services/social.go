package services

import (
	"context"

	"github.com/Xeladesign/shok/internal/models"
	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/Xeladesign/shok/pkg/utils"
)

const defaultCommentLimit = 50

// Social holds the follow and comment actions that fan out notifications.
type Social struct {
	store    SocialStore
	notifier *Notifier
	policy   CallPolicy
}

func NewSocial(store SocialStore, notifier *Notifier, policy CallPolicy) *Social {
	return &Social{store: store, notifier: notifier, policy: policy}
}

// Follow makes actor follow targetID. The target is notified only when the
// edge is new.
func (s *Social) Follow(ctx context.Context, actor models.Identity, targetID string) (bool, error) {
	if targetID == "" {
		return false, apperrors.BadRequest("User is required")
	}
	if targetID == actor.ID {
		return false, apperrors.BadRequest("You cannot follow yourself")
	}

	var created bool
	err := s.policy.Write(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.store.Follow(ctx, actor.ID, targetID)
		return err
	})
	if err != nil {
		return false, err
	}
	if created && s.notifier != nil {
		s.notifier.Notify(ctx, targetID, actor, models.NotificationTypeFollow, nil, "")
	}
	return created, nil
}

func (s *Social) Unfollow(ctx context.Context, actorID, targetID string) (bool, error) {
	return readValue(ctx, s.policy, func(ctx context.Context) (bool, error) {
		return s.store.Unfollow(ctx, actorID, targetID)
	})
}

func (s *Social) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	return readValue(ctx, s.policy, func(ctx context.Context) (bool, error) {
		return s.store.IsFollowing(ctx, actorID, targetID)
	})
}

// Comment posts on a product and notifies its author.
func (s *Social) Comment(ctx context.Context, actor models.Identity, productID, text string) (models.Comment, error) {
	content := utils.NormalizeText(text)
	switch {
	case productID == "":
		return models.Comment{}, apperrors.BadRequest("Product is required")
	case content == "":
		return models.Comment{}, apperrors.BadRequest("Comment cannot be empty")
	case utils.ExceedsLength(content, utils.MaxCommentLength):
		return models.Comment{}, apperrors.BadRequest("Comment is too long")
	}

	authorID, err := readValue(ctx, s.policy, func(ctx context.Context) (string, error) {
		return s.store.ProductAuthor(ctx, productID)
	})
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		ProductID:  productID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		UserAvatar: actor.Avatar,
		Content:    content,
	}
	err = s.policy.Write(ctx, func(ctx context.Context) error {
		return s.store.InsertComment(ctx, &comment)
	})
	if err != nil {
		return models.Comment{}, err
	}

	if s.notifier != nil {
		entity := productID
		s.notifier.Notify(ctx, authorID, actor, models.NotificationTypeComment, &entity, utils.TruncateRunes(content, utils.PreviewLength))
	}
	return comment, nil
}

// Comments returns the newest comments on a product. Read failures degrade
// to an empty list.
func (s *Social) Comments(ctx context.Context, productID string) []models.Comment {
	comments, err := readValue(ctx, s.policy, func(ctx context.Context) ([]models.Comment, error) {
		return s.store.Comments(ctx, productID, defaultCommentLimit)
	})
	if err != nil {
		logger.Error().Err(err).Str("product_id", productID).Msg("Failed to fetch comments")
		return []models.Comment{}
	}
	return comments
}
