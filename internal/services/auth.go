package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/response"
	"github.com/five82/harmonic/internal/session"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=40"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthService signs users in and out and keeps the session store current.
type AuthService struct {
	base
	session *session.Manager
	now     func() time.Time
}

// Login authenticates with email and password and stores the session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (model.AuthResult, error) {
	if err := validateInput(req); err != nil {
		return model.AuthResult{}, err
	}
	return s.authenticate(ctx, endpoints.AuthLogin, req)
}

// Register creates an account and stores the resulting session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (model.AuthResult, error) {
	if err := validateInput(req); err != nil {
		return model.AuthResult{}, err
	}
	return s.authenticate(ctx, endpoints.AuthRegister, req)
}

// DemoLogin starts a demo session. Tokens come from the backend's demo
// endpoint; when that endpoint is missing or unreachable a local session is
// minted instead, and the remote auth endpoints are skipped for its lifetime.
func (s *AuthService) DemoLogin(ctx context.Context) (model.AuthResult, error) {
	data, err := s.client.Do(ctx, http.MethodPost, endpoints.AuthDemo, nil, httpclient.SkipAuth())
	switch {
	case err == nil:
		res, derr := decodeAuthResult(data)
		if derr == nil {
			res.User.IsDemo = true
			if res.User.Username == "" {
				res.User.Username = "demo"
			}
			if err := s.store(ctx, res); err != nil {
				return model.AuthResult{}, err
			}
			s.log.Info("demo session started", zap.String("user", res.User.Username))
			return res, nil
		}
		s.log.Debug("demo endpoint returned no session", zap.Error(derr))
	case ctx.Err() != nil:
		return model.AuthResult{}, err
	case !demoEndpointUnavailable(err):
		return model.AuthResult{}, err
	default:
		s.log.Debug("demo endpoint unavailable", zap.Error(err))
	}

	res, err := session.NewDemoSession(s.clock())
	if err != nil {
		return model.AuthResult{}, invalidInput(err)
	}
	if err := s.store(ctx, res); err != nil {
		return model.AuthResult{}, err
	}
	s.log.Info("local demo session started", zap.String("user", res.User.Username))
	return res, nil
}

// demoEndpointUnavailable reports whether a demo-login failure means the
// backend has no usable demo endpoint, as opposed to rejecting the request.
func demoEndpointUnavailable(err error) bool {
	if response.KindOf(err) == response.KindNetwork {
		return true
	}
	switch response.StatusOf(err) {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// Logout notifies the backend (best effort) and clears the local session and
// response cache.
func (s *AuthService) Logout(ctx context.Context) error {
	demo, _ := s.session.IsDemo(ctx)
	if !demo {
		if _, err := s.client.Do(ctx, http.MethodPost, endpoints.AuthLogout, nil); err != nil {
			s.log.Debug("logout request failed", zap.Error(err))
		}
	}
	s.client.ClearCache()
	if err := s.session.Clear(ctx); err != nil {
		return invalidInput(fmt.Errorf("clear session: %w", err))
	}
	return nil
}

// Validate asks the backend whether the stored token is still accepted.
func (s *AuthService) Validate(ctx context.Context) (model.User, error) {
	if demo, _ := s.session.IsDemo(ctx); demo {
		user, err := s.session.User(ctx)
		if err != nil || user == nil {
			return model.User{}, &response.Error{Kind: response.KindAuth, Message: "no stored user"}
		}
		return *user, nil
	}
	var user model.User
	if err := s.get(ctx, endpoints.AuthValidate, "user", &user, httpclient.NoCache()); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// CurrentUser returns the signed-in user, from the session for demo users
// and from /users/me otherwise.
func (s *AuthService) CurrentUser(ctx context.Context) (model.User, error) {
	if demo, _ := s.session.IsDemo(ctx); demo {
		return s.Validate(ctx)
	}
	var user model.User
	if err := s.get(ctx, endpoints.CurrentUser, "user", &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) authenticate(ctx context.Context, path string, body any) (model.AuthResult, error) {
	data, err := s.client.Do(ctx, http.MethodPost, path, body, httpclient.SkipAuth())
	if err != nil {
		return model.AuthResult{}, err
	}
	res, err := decodeAuthResult(data)
	if err != nil {
		return model.AuthResult{}, &response.Error{Kind: response.KindClient, Method: http.MethodPost, URL: path, Message: err.Error()}
	}
	if err := s.store(ctx, res); err != nil {
		return model.AuthResult{}, err
	}
	s.log.Info("signed in", zap.Int64("user_id", res.User.ID))
	return res, nil
}

func (s *AuthService) store(ctx context.Context, res model.AuthResult) error {
	s.client.ClearCache()
	if err := s.session.Save(ctx, res); err != nil {
		return invalidInput(fmt.Errorf("store session: %w", err))
	}
	return nil
}

func (s *AuthService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// decodeAuthResult accepts the token as token or access_token, at the root or
// under data.
func decodeAuthResult(data []byte) (model.AuthResult, error) {
	var res model.AuthResult
	root := gjson.ParseBytes(data)
	if d := root.Get("data"); d.IsObject() && (d.Get("token").Exists() || d.Get("access_token").Exists()) {
		root = d
	}
	res.Token = firstNonEmpty(root.Get("token").String(), root.Get("access_token").String())
	res.RefreshToken = root.Get("refresh_token").String()
	if res.Token == "" {
		return res, fmt.Errorf("login response carried no token")
	}
	if err := response.Decode([]byte(root.Raw), "user", &res.User); err != nil {
		return res, err
	}
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
