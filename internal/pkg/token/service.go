// internal/pkg/token/service.go
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"neusentra-service/internal/domain/auth"
	xerrors "neusentra-service/internal/pkg/errors"
)

// Claims carried by both tokens of a pair. The login id doubles as the
// session cache key, so verifying a token is never enough on its own --
// the cache decides whether the session is still alive.
type Claims struct {
	LoginID string `json:"loginId"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	issuer  string
	access  Policy
	refresh Policy
}

func NewService(issuer string, access, refresh Policy) *Service {
	return &Service{
		issuer:  issuer,
		access:  access,
		refresh: refresh,
	}
}

// AccessPolicy returns the access-token policy.
func (s *Service) AccessPolicy() Policy { return s.access }

// RefreshPolicy returns the refresh-token policy.
func (s *Service) RefreshPolicy() Policy { return s.refresh }

// GenerateTokens signs an access and a refresh token carrying identical
// claims. The two signatures run concurrently.
func (s *Service) GenerateTokens(loginID, userID, name, role string) (auth.TokenPair, error) {
	var pair auth.TokenPair

	var g errgroup.Group
	g.Go(func() error {
		var err error
		pair.AccessToken, err = s.sign(loginID, userID, name, role, s.access)
		return err
	})
	g.Go(func() error {
		var err error
		pair.RefreshToken, err = s.sign(loginID, userID, name, role, s.refresh)
		return err
	})

	if err := g.Wait(); err != nil {
		return auth.TokenPair{}, err
	}
	return pair, nil
}

// Verify decodes a token against the given policy's secret, validating
// signature and expiry. Any failure is reported as ErrTokenInvalid.
func (s *Service) Verify(tokenString string, policy Policy) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, xerrors.ErrTokenInvalid
		}
		return policy.Secret, nil
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrTokenInvalid, err.Error())
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, xerrors.ErrTokenInvalid
	}

	return claims, nil
}

func (s *Service) sign(loginID, userID, name, role string, policy Policy) (string, error) {
	now := time.Now()
	claims := &Claims{
		LoginID: loginID,
		UserID:  userID,
		Name:    name,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(policy.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(policy.Secret)
}
