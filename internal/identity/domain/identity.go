package domain

import "time"

// Permission is a grant carried inside the session payload. It is not evaluated here.
type Permission struct {
	ID         string `json:"id"`
	ParentID   string `json:"parentId,omitempty"`
	Name       string `json:"name"`
	Permission string `json:"permission"`
}

// LoginUser is the authenticated identity snapshot stored in a session payload.
// SessionID, LoginTime and ExpireTime are set by the session manager on login and refresh.
type LoginUser struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Nickname    string       `json:"nickname,omitempty"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Permissions []Permission `json:"permissions"`

	SessionID  string    `json:"token"`
	LoginTime  time.Time `json:"loginTime"`
	ExpireTime time.Time `json:"expireTime"`
}

// PermissionCodes returns the permission strings of u, skipping empty ones.
func (u *LoginUser) PermissionCodes() []string {
	out := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		if p.Permission != "" {
			out = append(out, p.Permission)
		}
	}
	return out
}
