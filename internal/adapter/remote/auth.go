package remote

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Audience is the audience claim of tokens for the plan authority.
const Audience = "/v1/plans/"

// TokenSource yields bearer tokens for remote requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Verifier checks bearer tokens on the authority side.
type Verifier interface {
	Verify(ctx context.Context, raw string) error
}

// Key is a shared signing key in "id:hexsecret" form.
type Key struct {
	ID     string
	Secret []byte
}

// ParseKey parses an "id:hexsecret" key.
func ParseKey(s string) (Key, error) {
	id, secretHex, ok := strings.Cut(s, ":")
	if !ok || id == "" || secretHex == "" {
		return Key{}, fmt.Errorf("invalid remote key format: expected id:secret")
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return Key{}, fmt.Errorf("failed to decode secret hex: %w", err)
	}
	return Key{ID: id, Secret: secret}, nil
}

// HMACTokens signs a short-lived HS256 token per request.
type HMACTokens struct {
	Key Key
	TTL time.Duration
	Now func() time.Time
}

// Token implements TokenSource.
func (h HMACTokens) Token(ctx context.Context) (string, error) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	ttl := h.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	t := now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": t.Unix(),
		"exp": t.Add(ttl).Unix(),
		"aud": Audience,
	})
	token.Header["kid"] = h.Key.ID
	return token.SignedString(h.Key.Secret)
}

// HMACVerifier accepts tokens signed by HMACTokens with the same key.
type HMACVerifier struct {
	Key Key
}

// Verify implements Verifier.
func (v HMACVerifier) Verify(_ context.Context, raw string) error {
	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != v.Key.ID {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return v.Key.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(Audience), jwt.WithExpirationRequired())
	return err
}

// NewOAuth2Tokens discovers issuer and returns a caching TokenSource that
// fetches client-credentials tokens from the advertised token endpoint.
func NewOAuth2Tokens(ctx context.Context, issuer, clientID, clientSecret string, scopes ...string) (TokenSource, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", issuer, err)
	}
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     provider.Endpoint().TokenURL,
		Scopes:       scopes,
	}
	return oauth2Tokens{ts: cfg.TokenSource(context.WithoutCancel(ctx))}, nil
}

type oauth2Tokens struct {
	ts oauth2.TokenSource
}

func (o oauth2Tokens) Token(context.Context) (string, error) {
	t, err := o.ts.Token()
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// NewOIDCVerifier accepts ID tokens issued by issuer for clientID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", issuer, err)
	}
	return oidcVerifier{v: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

type oidcVerifier struct {
	v *oidc.IDTokenVerifier
}

func (o oidcVerifier) Verify(ctx context.Context, raw string) error {
	_, err := o.v.Verify(ctx, raw)
	return err
}
