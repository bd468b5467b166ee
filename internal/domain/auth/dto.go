// internal/domain/auth/dto.go
package auth

// InitializeRequest bootstraps the system with the superadmin account
type InitializeRequest struct {
	Fullname string `json:"fullname" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is what the orchestrator hands back on bootstrap/login; the
// handler sets the refresh token as a cookie and never echoes it in the body.
type LoginResult struct {
	LoginID     string      `json:"-"`
	Pair        TokenPair   `json:"-"`
	Permissions Permissions `json:"permissions"`
}

// AuthResponse is the client-facing body for bootstrap/login
type AuthResponse struct {
	AccessToken string      `json:"accessToken"`
	Permissions Permissions `json:"permissions"`
}

// RefreshResponse is the client-facing body for a token refresh
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// InitializationStatus reports whether bootstrap has happened
type InitializationStatus struct {
	Initialized bool `json:"initialized"`
}
