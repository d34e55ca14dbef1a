package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"atelier/internal/platform/auth"
)

var errInvalidCredentials = errors.New("invalid credentials")

// IdentityResolver extracts the calling account from a request. It returns
// "" with a nil error when the request carries no identity.
type IdentityResolver interface {
	Resolve(r *http.Request) (string, error)
}

// HeaderIdentity trusts X-Account-Id as set by an upstream gateway.
type HeaderIdentity struct{}

func (HeaderIdentity) Resolve(r *http.Request) (string, error) {
	return strings.TrimSpace(r.Header.Get("X-Account-Id")), nil
}

// BearerIdentity validates an HS256 bearer token.
type BearerIdentity struct {
	Tokens *auth.JWTManager
}

func (b BearerIdentity) Resolve(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errInvalidCredentials
	}
	accountID, err := b.Tokens.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		return "", errors.Join(errInvalidCredentials, err)
	}
	return accountID, nil
}
