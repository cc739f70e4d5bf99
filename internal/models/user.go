package models

import (
	"time"

	"github.com/Xeladesign/shok/pkg/utils"
)

// User is the identity row owned by the auth service. This backend only reads it.
type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name      string `json:"name"`
	Email     string `gorm:"index" json:"email"`
	AvatarURL string `gorm:"column:avatar_url" json:"avatarUrl"`
	Bio       string `json:"bio"`
	IsCreator bool   `gorm:"default:false" json:"isCreator"`
}

func (User) TableName() string {
	return "users"
}

// Identity is the display identity used across messaging and notifications.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Identity projects the user row, filling in placeholders for blank fields.
func (u User) Identity() Identity {
	name := u.Name
	if name == "" {
		name = utils.UnknownName
	}
	return Identity{
		ID:     u.ID,
		Name:   name,
		Avatar: utils.AvatarOrPlaceholder(u.AvatarURL, name),
	}
}

// UnknownIdentity stands in for a partner whose profile could not be resolved.
func UnknownIdentity(id string) Identity {
	return Identity{
		ID:     id,
		Name:   utils.UnknownName,
		Avatar: utils.PlaceholderAvatar(utils.UnknownName),
	}
}
