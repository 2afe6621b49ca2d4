package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/kailas-cloud/patentsearch/internal/domain"
)

// Introspection defaults.
const (
	DefaultRoleClaim = "role"
	DefaultCacheTTL  = time.Minute
	maxCachedTokens  = 4096
)

// IntrospectionConfig configures an RFC 7662 token introspection client.
// The client authenticates to the provider with the client credentials grant.
type IntrospectionConfig struct {
	URL          string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	// RoleClaim names the response field holding the role. Default "role".
	RoleClaim string
	// CacheTTL bounds how long an active token is trusted without asking again.
	CacheTTL time.Duration
	Timeout  time.Duration
}

type introspectionResponse map[string]any

type cached struct {
	id        Identity
	expiresAt time.Time
}

// Introspector verifies opaque tokens at an introspection endpoint.
type Introspector struct {
	url       string
	client    *http.Client
	roleClaim string
	ttl       time.Duration
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

// NewIntrospector creates an introspection verifier. ctx is used by the
// oauth2 client to fetch and refresh its own access token.
func NewIntrospector(ctx context.Context, cfg IntrospectionConfig) *Introspector {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	client := cc.Client(ctx)
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	if cfg.RoleClaim == "" {
		cfg.RoleClaim = DefaultRoleClaim
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Introspector{
		url:       cfg.URL,
		client:    client,
		roleClaim: cfg.RoleClaim,
		ttl:       cfg.CacheTTL,
		now:       time.Now,
		cache:     make(map[string]cached),
	}
}

// Verify implements Verifier.
func (in *Introspector) Verify(ctx context.Context, token string) (Identity, error) {
	if id, ok := in.lookup(token); ok {
		return id, nil
	}

	form := url.Values{"token": {token}, "token_type_hint": {"access_token"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, in.url, strings.NewReader(form.Encode()))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: build request: %w", ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := in.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: introspect: %w", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Identity{}, fmt.Errorf("%w: introspect: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var body introspectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("%w: decode introspection: %w", ErrProviderUnavailable, err)
	}
	if active, _ := body["active"].(bool); !active {
		return Identity{}, fmt.Errorf("%w: token inactive", domain.ErrUnauthorized)
	}

	id := Identity{Subject: claim(body, "sub"), Role: claim(body, in.roleClaim)}
	if id.Subject == "" {
		id.Subject = claim(body, "client_id")
	}
	if id.Role == "" {
		id.Role = RoleUser
	}
	in.store(token, id, expiry(body))
	return id, nil
}

func (in *Introspector) lookup(token string) (Identity, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	c, ok := in.cache[token]
	if !ok {
		return Identity{}, false
	}
	if !in.now().Before(c.expiresAt) {
		delete(in.cache, token)
		return Identity{}, false
	}
	return c.id, true
}

func (in *Introspector) store(token string, id Identity, exp time.Time) {
	until := in.now().Add(in.ttl)
	if !exp.IsZero() && exp.Before(until) {
		until = exp
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.cache) >= maxCachedTokens {
		clear(in.cache)
	}
	in.cache[token] = cached{id: id, expiresAt: until}
}

func claim(body introspectionResponse, name string) string {
	s, _ := body[name].(string)
	return s
}

func expiry(body introspectionResponse) time.Time {
	exp, ok := body["exp"].(float64)
	if !ok || exp <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(exp), 0)
}
