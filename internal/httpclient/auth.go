package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/session"
)

// preemptiveWindow is how close to expiry a token is refreshed before use.
const preemptiveWindow = 30 * time.Second

var (
	errNoRefreshToken  = errors.New("no refresh token")
	errRefreshCooldown = errors.New("token refresh attempted too recently")
)

// bearer returns the token to send, refreshing it first when it is about to
// expire. Refresh failures here are not fatal; the backend gets the old
// token and the 401 path decides.
func (c *Client) bearer(ctx context.Context) string {
	token, err := c.session.Token(ctx)
	if err != nil {
		c.log.Warn("read access token", zap.Error(err))
		return ""
	}
	if token == "" || !session.ExpiresWithin(token, c.now(), preemptiveWindow) {
		return token
	}
	fresh, err := c.refresh(ctx, token)
	if err != nil {
		c.log.Debug("pre-emptive refresh skipped", zap.Error(err))
		return token
	}
	return fresh
}

// refresh exchanges the refresh token for a new access token. Concurrent
// callers share one refresh; failed is the token the caller was rejected
// with, so a caller that lost the race picks up the already-refreshed token.
func (c *Client) refresh(ctx context.Context, failed string) (string, error) {
	v, err, shared := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		return c.doRefresh(ctx, failed)
	})
	if shared {
		c.metrics.Refresh("shared")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) doRefresh(ctx context.Context, failed string) (string, error) {
	current, err := c.session.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	if current != "" && current != failed {
		return current, nil
	}
	refreshToken, err := c.session.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", errNoRefreshToken
	}
	if c.cooldown > 0 {
		last, err := c.session.LastRefreshAttempt(ctx)
		if err == nil && !last.IsZero() && c.now().Sub(last) < c.cooldown {
			return "", errRefreshCooldown
		}
	}
	if err := c.session.RecordRefreshAttempt(ctx); err != nil {
		c.log.Warn("record refresh attempt", zap.Error(err))
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	var token, next string
	if session.IsDemoToken(refreshToken) {
		token, err = session.RefreshDemoSession(refreshToken, c.now())
	} else {
		token, next, err = c.refreshRemote(rctx, refreshToken)
	}
	if err != nil {
		c.metrics.Refresh("failed")
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if err := c.session.UpdateTokens(rctx, token, next); err != nil {
		c.metrics.Refresh("failed")
		return "", fmt.Errorf("store refreshed token: %w", err)
	}
	c.metrics.Refresh("ok")
	c.log.Info("access token refreshed")
	return token, nil
}

func (c *Client) refreshRemote(ctx context.Context, refreshToken string) (token, next string, err error) {
	ro := requestOptions{
		skipAuth: true,
		noCache:  true,
		header:   http.Header{"Authorization": {"Bearer " + refreshToken}},
	}
	data, err := c.do(ctx, http.MethodPost, endpoints.AuthRefresh, map[string]string{"refresh_token": refreshToken}, ro)
	if err != nil {
		return "", "", err
	}
	token = firstString(data, "token", "access_token", "data.token", "data.access_token")
	if token == "" {
		return "", "", errors.New("refresh response carried no token")
	}
	next = firstString(data, "refresh_token", "data.refresh_token")
	return token, next, nil
}

// signOut tears down the session after the backend rejected the token.
func (c *Client) signOut(ctx context.Context, target, reason string) {
	if err := c.session.Invalidate(context.WithoutCancel(ctx)); err != nil {
		c.log.Error("clear session", zap.Error(err))
	}
	c.cache.Clear()
	c.metrics.SignOut()
	c.bus.Publish(events.Event{Topic: events.TopicSignOut, Status: http.StatusUnauthorized, URL: target, Message: reason})
	c.log.Warn("session invalidated", zap.String("url", target), zap.String("reason", reason))
}

func firstString(body []byte, paths ...string) string {
	for _, p := range paths {
		if v := gjson.GetBytes(body, p); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
