package token

import "time"

// Policy describes how one kind of token is signed: which secret and for
// how long. The two kinds are a closed set selected by explicit parameter,
// never by subtype.
type Policy struct {
	Kind   string
	Secret []byte
	TTL    time.Duration
}

// AccessPolicy builds the signing policy for access tokens.
func AccessPolicy(secret string, ttl time.Duration) Policy {
	return Policy{Kind: "access", Secret: []byte(secret), TTL: ttl}
}

// RefreshPolicy builds the signing policy for refresh tokens. The secret
// must differ from the access secret.
func RefreshPolicy(secret string, ttl time.Duration) Policy {
	return Policy{Kind: "refresh", Secret: []byte(secret), TTL: ttl}
}
