package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/FlightBox/internal/cache"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
)

// UserInfo asks the identity provider's userinfo endpoint who owns a token.
// Positive answers are cached under a hash of the token, never the token itself.
type UserInfo struct {
	endpoint string
	httpc    *http.Client
	cache    cache.BytesCache
	ttl      time.Duration
}

func NewUserInfo(endpoint string, c cache.BytesCache, ttl time.Duration) *UserInfo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserInfo{
		endpoint: endpoint,
		httpc: &http.Client{
			Timeout: 5 * time.Second,
		},
		cache: c,
		ttl:   ttl,
	}
}

type userInfoResp struct {
	Sub    string `json:"sub"`
	UserID string `json:"user_id"`
}

func (u *UserInfo) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.Wrap(models.ErrUnauthorized, "empty token")
	}

	key := cacheKey(token)
	if u.cache != nil {
		if b, ok, err := u.cache.Get(ctx, key); err != nil {
			slog.Warn("identity cache get", "error", err.Error())
		} else if ok && len(b) > 0 {
			return string(b), nil
		}
	}

	userID, err := u.fetch(ctx, token)
	if err != nil {
		return "", err
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, key, []byte(userID), u.ttl); err != nil {
			slog.Warn("identity cache set", "error", err.Error())
		}
	}
	return userID, nil
}

func (u *UserInfo) fetch(ctx context.Context, token string) (string, error) {
	if _, err := url.Parse(u.endpoint); err != nil || u.endpoint == "" {
		return "", errors.Errorf("identity endpoint %q is invalid", u.endpoint)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := u.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", errors.Wrapf(models.ErrUnauthorized, "identity http %d", resp.StatusCode)
	case resp.StatusCode/100 != 2:
		return "", fmt.Errorf("identity http %d", resp.StatusCode)
	}

	var r userInfoResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", errors.Wrap(err, "decode userinfo")
	}
	id := r.Sub
	if id == "" {
		id = r.UserID
	}
	if id == "" {
		return "", errors.Wrap(models.ErrUnauthorized, "userinfo without subject")
	}
	return id, nil
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "identity:" + hex.EncodeToString(sum[:])
}
