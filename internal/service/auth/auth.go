// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"neusentra-service/internal/domain/auth"
	xerrors "neusentra-service/internal/pkg/errors"
	"neusentra-service/internal/pkg/password"
	"neusentra-service/internal/pkg/token"
	"neusentra-service/internal/sse"
)

// Service is the auth orchestrator: one-time bootstrap, login, refresh and
// logout, tying the credential store, token service, session cache and
// event emitter together.
type Service struct {
	repo       CredentialStore
	tokens     *token.Service
	sessions   SessionCache
	audit      Auditor
	emitter    EventPublisher
	logger     *zap.Logger
	bcryptCost int
}

func NewService(
	repo CredentialStore,
	tokens *token.Service,
	sessions SessionCache,
	audit Auditor,
	emitter EventPublisher,
	logger *zap.Logger,
	bcryptCost int,
) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		sessions:   sessions,
		audit:      audit,
		emitter:    emitter,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// CheckInitializationStatus reports whether the system has been
// bootstrapped. Side-effect free.
func (s *Service) CheckInitializationStatus(ctx context.Context) (bool, error) {
	bootstrapped, err := s.repo.IsBootstrapped(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", xerrors.ErrQueryFailed, err)
	}
	if bootstrapped {
		return true, nil
	}

	count, err := s.repo.UserCount(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", xerrors.ErrQueryFailed, err)
	}
	return count > 0, nil
}

// InitializeSuperAdmin performs the one-time system bootstrap: creates the
// superadmin account, opens its first login session and returns the access
// token plus the full permission set. The marker row and the user row are
// written in one transaction, so a concurrent second caller fails cleanly.
func (s *Service) InitializeSuperAdmin(ctx context.Context, fullname, username, plain string) (*auth.LoginResult, error) {
	if !password.IsStrong(plain) {
		return nil, xerrors.ErrWeakPassword
	}

	bootstrapped, err := s.repo.IsBootstrapped(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrQueryFailed, err)
	}
	if bootstrapped {
		return nil, xerrors.ErrAlreadyBootstrapped
	}

	count, err := s.repo.UserCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrQueryFailed, err)
	}
	if count > 0 {
		return nil, xerrors.ErrSuperAdminExists
	}

	hashed, err := password.Hash(plain, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The user insert and the permission fetch have no data dependency.
	var (
		userID int64
		perms  auth.Permissions
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userID, err = s.repo.CreateSuperAdmin(gctx, fullname, username, hashed)
		return err
	})
	g.Go(func() error {
		var err error
		perms, err = s.repo.GetSuperAdminPermissions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if xerrors.Is(err, xerrors.ErrAlreadyBootstrapped) {
			return nil, xerrors.ErrAlreadyBootstrapped
		}
		return nil, fmt.Errorf("%w: %v", xerrors.ErrQueryFailed, err)
	}

	// The session row needs the user row to exist first.
	loginID, err := s.openSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	uid := strconv.FormatInt(userID, 10)
	s.audit.Record(ctx, auth.AuditEntry{
		UserID:     uid,
		Action:     "CREATE_SUPERADMIN",
		EntityType: "User",
		EntityID:   uid,
		Details: map[string]interface{}{
			"username":    username,
			"fullname":    fullname,
			"description": fmt.Sprintf("Super Admin %q created.", username),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		},
	})

	s.emitter.EmitToAll(sse.EventSuperAdminCreated, map[string]interface{}{
		"initialized": true,
	})

	result, err := s.issueTokens(ctx, loginID, uid, fullname, "superadmin")
	if err != nil {
		return nil, err
	}
	result.Permissions = perms

	s.logger.Info("system bootstrapped", zap.String("username", username))
	return result, nil
}

// Login authenticates a user by username and password. Unknown user and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, plain string) (*auth.LoginResult, error) {
	username = strings.TrimSpace(username)
	plain = strings.TrimSpace(plain)

	user, err := s.repo.FetchUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrQueryFailed, err)
	}
	if user == nil || !password.Compare(user.PasswordHash, plain) {
		s.logger.Warn("login failed", zap.String("username", username))
		return nil, xerrors.ErrInvalidCredentials
	}

	loginID, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.issueTokens(ctx, loginID, strconv.FormatInt(user.ID, 10), user.Fullname, user.Role)
	if err != nil {
		return nil, err
	}
	result.Permissions = user.Permissions

	s.logger.Info("user logged in",
		zap.String("username", username),
		zap.String("login_id", loginID),
	)
	return result, nil
}

// RefreshAccessToken rotates the token pair for a live session. The cached
// pair is authoritative: a missing cache entry means the session was logged
// out or expired, and a cached refresh token that differs from the one
// presented means the pair was already rotated.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*auth.LoginResult, error) {
	if refreshToken == "" {
		return nil, xerrors.ErrMissingToken
	}

	claims, err := s.tokens.Verify(refreshToken, s.tokens.RefreshPolicy())
	if err != nil {
		s.logger.Warn("refresh token verification failed", zap.Error(err))
		return nil, xerrors.ErrRefreshFailed
	}

	cached, err := s.sessions.Get(ctx, claims.LoginID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidSession) {
			return nil, xerrors.ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if cached.RefreshToken != refreshToken {
		s.logger.Warn("stale refresh token rejected", zap.String("login_id", claims.LoginID))
		return nil, xerrors.ErrInvalidSession
	}

	return s.issueTokens(ctx, claims.LoginID, claims.UserID, claims.Name, claims.Role)
}

// Logout closes the login-session row and revokes the cached pair. Both
// writes are idempotent; the two have no ordering dependency and run
// concurrently.
func (s *Service) Logout(ctx context.Context, loginID string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.repo.CloseLoginSession(gctx, loginID)
	})
	g.Go(func() error {
		return s.sessions.Delete(gctx, loginID)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	s.logger.Info("user logged out", zap.String("login_id", loginID))
	return nil
}

// ValidateAccessToken verifies an access token and checks it against the
// cached pair for its session. A structurally valid token whose session
// was revoked, or which no longer matches the cached pair, is rejected.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (*token.Claims, error) {
	claims, err := s.tokens.Verify(accessToken, s.tokens.AccessPolicy())
	if err != nil {
		return nil, xerrors.ErrTokenInvalid
	}

	cached, err := s.sessions.Get(ctx, claims.LoginID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidSession) {
			return nil, xerrors.ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if cached.AccessToken != accessToken {
		return nil, xerrors.ErrInvalidSession
	}

	return claims, nil
}

func (s *Service) openSession(ctx context.Context, userID int64) (string, error) {
	id, err := s.repo.OpenLoginSession(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", xerrors.ErrQueryFailed, err)
	}
	return strconv.FormatInt(id, 10), nil
}

// issueTokens mints a pair and persists it in the session cache. The cache
// write happens only after both signatures complete.
func (s *Service) issueTokens(ctx context.Context, loginID, userID, name, role string) (*auth.LoginResult, error) {
	pair, err := s.tokens.GenerateTokens(loginID, userID, name, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	ttl := s.tokens.RefreshPolicy().TTL
	if err := s.sessions.Set(ctx, loginID, pair, ttl); err != nil {
		return nil, fmt.Errorf("failed to cache session: %w", err)
	}

	return &auth.LoginResult{LoginID: loginID, Pair: pair}, nil
}
