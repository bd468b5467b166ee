package auth

import "time"

// User is a row in neusentra.users joined with its role.
type User struct {
	ID           int64     `json:"id"`
	Fullname     string    `json:"fullname"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Permissions Permissions `json:"permissions"`
}

// Permissions is the fixed set of capability flags attached to a role.
// Field names mirror the role_permissions columns.
type Permissions struct {
	CanManageDevices        bool `json:"canManageDevices"`
	CanManagePolicies       bool `json:"canManagePolicies"`
	CanViewLogs             bool `json:"canViewLogs"`
	CanManageUsers          bool `json:"canManageUsers"`
	CanManageNetwork        bool `json:"canManageNetwork"`
	CanManageBlocklists     bool `json:"canManageBlocklists"`
	CanManageScheduledTasks bool `json:"canManageScheduledTasks"`
}

// LoginSession is an append-only record of one login-to-logout span.
// Its id is the session cache key and the "loginId" token claim.
type LoginSession struct {
	ID       int64      `json:"id"`
	UserID   int64      `json:"user_id"`
	LoginAt  time.Time  `json:"login_at"`
	LogoutAt *time.Time `json:"logout_at,omitempty"`
}

// TokenPair is the access/refresh token pair for one session. The current
// valid pair lives only in the session cache, never in the database.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuditEntry is a structured audit-log record.
type AuditEntry struct {
	UserID     string                 `json:"user_id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
}
