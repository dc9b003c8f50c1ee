package domain

import "time"

// Metadata keys read from or written to the identity provider's user_metadata bag.
const (
	MetaRole      = "role"
	MetaFullName  = "full_name"
	MetaPhone     = "phone"
	MetaAvatarURL = "avatar_url"
	MetaBalance   = "balance"
)

// UnknownUserName is shown when an activity owner cannot be resolved.
const UnknownUserName = "Unknown User"

// User models an account owned by the external identity provider.
// This service only reads it; the role in Metadata is never written here.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email,omitempty"`
	Metadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
}

// MetaString returns the metadata value for key when it is a non-empty string.
func (u *User) MetaString(key string) string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	s, _ := u.Metadata[key].(string)
	return s
}

// DisplayName prefers full_name, then email.
func (u *User) DisplayName() string {
	if u == nil {
		return UnknownUserName
	}
	if name := u.MetaString(MetaFullName); name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return UnknownUserName
}

// Session is the credential pair issued by the identity provider.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user,omitempty"`
}

// Profile is the editable view of the signed-in user.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
	Role      Role   `json:"role"`
}

// ProfileFromUser builds the profile view of u.
func ProfileFromUser(u *User) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.MetaString(MetaFullName),
		Phone:     u.MetaString(MetaPhone),
		AvatarURL: u.MetaString(MetaAvatarURL),
		Role:      ResolveRole(u),
	}
}
