package models

// Role values sent by the API
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// RawUser is a profile as the API sends it, from /auth/check-token and as the
// non-token part of the login response.
type RawUser struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// User is the signed-in profile
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// IsAdmin reports whether the user may use moderation features
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the name, or the email when no name is set
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
