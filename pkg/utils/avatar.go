package utils

import (
	"net/url"
	"strings"
)

const avatarService = "https://ui-avatars.com/api/"

// UnknownName is shown for identities that could not be resolved.
const UnknownName = "Unknown"

// PlaceholderAvatar builds an initials-based avatar URL for users without one.
func PlaceholderAvatar(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "U"
	}
	q := url.Values{}
	q.Set("name", name)
	return avatarService + "?" + q.Encode()
}

// AvatarOrPlaceholder returns avatar unless it is blank.
func AvatarOrPlaceholder(avatar, name string) string {
	if strings.TrimSpace(avatar) != "" {
		return avatar
	}
	return PlaceholderAvatar(name)
}
