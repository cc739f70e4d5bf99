package database

import (
	"context"

	"github.com/Xeladesign/shok/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SocialRepo struct {
	db *gorm.DB
}

func NewSocialRepo(db *gorm.DB) *SocialRepo {
	return &SocialRepo{db: db}
}

// Follow records the edge. created is false when it already existed.
func (r *SocialRepo) Follow(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
	if res.Error != nil {
		return false, classify(res.Error, "Failed to follow user")
	}
	return res.RowsAffected == 1, nil
}

func (r *SocialRepo) Unfollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	return res.RowsAffected > 0, classify(res.Error, "Failed to unfollow user")
}

func (r *SocialRepo) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, classify(err, "Failed to check follow status")
}

// Blocked reports whether either user blocked the other.
func (r *SocialRepo) Blocked(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, classify(err, "Failed to check block status")
}

func (r *SocialRepo) ProductAuthor(ctx context.Context, productID string) (string, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Select("id", "author_id").Where("id = ?", productID).First(&product).Error
	if err != nil {
		return "", classify(err, "Product not found")
	}
	return product.AuthorID, nil
}

func (r *SocialRepo) InsertComment(ctx context.Context, c *models.Comment) error {
	return classify(r.db.WithContext(ctx).Create(c).Error, "Failed to post comment")
}

// Comments returns the newest comments on a product first.
func (r *SocialRepo) Comments(ctx context.Context, productID string, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, classify(err, "Failed to fetch comments")
}
