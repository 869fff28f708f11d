package domain

import "time"

// Actions recorded for the session lifecycle.
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// SysLog represents one audit event persisted to sys_logs.
type SysLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail,omitempty"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}
