package models

import "time"

// Follow represents a follower/following relationship
type Follow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  string    `gorm:"uniqueIndex:idx_follow_pair;type:text;not null" json:"follower_id"`
	FollowingID string    `gorm:"uniqueIndex:idx_follow_pair;type:text;not null" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

// UserBlock represents one user blocking another. Blocks are enforced in both directions.
type UserBlock struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlockerID string    `gorm:"uniqueIndex:idx_blocker_blocked;type:text" json:"blocker_id"`
	BlockedID string    `gorm:"uniqueIndex:idx_blocker_blocked;type:text" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserBlock) TableName() string {
	return "user_blocks"
}

// Product is the slice of a catalog listing needed to route comment notifications.
type Product struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Title     string    `json:"title"`
	AuthorID  string    `gorm:"index;type:text" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}

// Comment represents a comment on a product
type Comment struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  string    `gorm:"index;type:text;not null" json:"product_id"`
	UserID     string    `gorm:"index;type:text;not null" json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// AllModels lists every table this service migrates.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Message{},
		&Notification{},
		&Follow{},
		&UserBlock{},
		&Product{},
		&Comment{},
	}
}
