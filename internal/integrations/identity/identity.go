// Package identity maps bearer tokens to user ids.
package identity

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Static checks tokens against a fixed token -> user map. Used for local runs.
type Static struct {
	tokens map[string]string
}

func NewStatic(tokens map[string]string) *Static {
	m := make(map[string]string, len(tokens))
	for k, v := range tokens {
		if k = strings.TrimSpace(k); k != "" && v != "" {
			m[k] = v
		}
	}
	return &Static{tokens: m}
}

func (s *Static) Verify(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.Wrap(models.ErrUnauthorized, "empty token")
	}
	for k, user := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(k), []byte(token)) == 1 {
			return user, nil
		}
	}
	return "", errors.Wrap(models.ErrUnauthorized, "unknown token")
}
