// internal/service/auth/interfaces.go
package auth

import (
	"context"
	"time"

	"neusentra-service/internal/domain/auth"
)

// CredentialStore is the relational adapter the orchestrator reads and
// writes users, permissions and login sessions through.
type CredentialStore interface {
	UserCount(ctx context.Context) (int64, error)
	IsBootstrapped(ctx context.Context) (bool, error)
	CreateSuperAdmin(ctx context.Context, fullname, username, passwordHash string) (int64, error)
	FetchUserByUsername(ctx context.Context, username string) (*auth.User, error)
	GetSuperAdminPermissions(ctx context.Context) (auth.Permissions, error)
	OpenLoginSession(ctx context.Context, userID int64) (int64, error)
	CloseLoginSession(ctx context.Context, loginID string) error
}

// SessionCache holds the current valid token pair per login id. Key
// presence is session validity.
type SessionCache interface {
	Get(ctx context.Context, loginID string) (*auth.TokenPair, error)
	Set(ctx context.Context, loginID string, pair auth.TokenPair, ttl time.Duration) error
	Delete(ctx context.Context, loginID string) error
}

// Auditor records structured audit entries, never failing the caller.
type Auditor interface {
	Record(ctx context.Context, entry auth.AuditEntry)
}

// EventPublisher pushes live events to connected clients.
type EventPublisher interface {
	EmitToAll(event string, data interface{})
}
