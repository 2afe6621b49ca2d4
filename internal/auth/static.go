package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/patentsearch/internal/domain"
)

// StaticKey is a configured API key and the identity it grants.
type StaticKey struct {
	Key     string
	Subject string
	Role    string
}

type staticEntry struct {
	key []byte
	id  Identity
}

// StaticKeys verifies tokens against a fixed key list.
type StaticKeys struct {
	entries []staticEntry
}

// NewStaticKeys builds a verifier from keys. Empty keys are ignored; a
// missing subject becomes "api-key-<n>" and a missing role becomes RoleUser.
func NewStaticKeys(keys []StaticKey) *StaticKeys {
	s := &StaticKeys{}
	for i, k := range keys {
		if k.Key == "" {
			continue
		}
		id := Identity{Subject: k.Subject, Role: k.Role}
		if id.Subject == "" {
			id.Subject = "api-key-" + strconv.Itoa(i+1)
		}
		if id.Role == "" {
			id.Role = RoleUser
		}
		s.entries = append(s.entries, staticEntry{key: []byte(k.Key), id: id})
	}
	return s
}

// Len returns the number of usable keys.
func (s *StaticKeys) Len() int { return len(s.entries) }

// Verify implements Verifier. Every key is compared so timing does not leak a match position.
func (s *StaticKeys) Verify(_ context.Context, token string) (Identity, error) {
	tok := []byte(token)
	var (
		found bool
		id    Identity
	)
	for _, e := range s.entries {
		if subtle.ConstantTimeCompare(e.key, tok) == 1 && !found {
			found = true
			id = e.id
		}
	}
	if !found {
		return Identity{}, fmt.Errorf("%w: invalid api key", domain.ErrUnauthorized)
	}
	return id, nil
}
