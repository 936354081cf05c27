package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/lifecycle"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
	"github.com/yungbote/coursemarket-client/internal/realtime"
	"github.com/yungbote/coursemarket-client/internal/session"
)

const (
	OpLogin       = "login"
	OpRegister    = "register"
	OpSocialLogin = "socialLogin"
	OpCurrentUser = "fetchCurrentUser"
)

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (backend.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (backend.AuthResult, error)
	SocialLogin(ctx context.Context, provider domain.SocialProvider, token string) (backend.AuthResult, error)
	Me(ctx context.Context) (domain.Principal, error)
}

// SocialConfig holds the third-party client ids. A provider without an id is
// disabled.
type SocialConfig struct {
	GoogleClientID string
	FacebookAppID  string
}

func (c SocialConfig) Enabled(p domain.SocialProvider) bool {
	switch p {
	case domain.SocialGoogle:
		return strings.TrimSpace(c.GoogleClientID) != ""
	case domain.SocialFacebook:
		return strings.TrimSpace(c.FacebookAppID) != ""
	}
	return false
}

type AuthState struct {
	User            *domain.Principal           `json:"user"`
	IsAuthenticated bool                        `json:"is_authenticated"`
	Ops             map[string]lifecycle.Record `json:"ops"`
}

type AuthStore struct {
	base
	api     AuthAPI
	session *session.Manager
	social  SocialConfig
}

func NewAuthStore(api AuthAPI, social SocialConfig, d Deps) *AuthStore {
	d = d.withDefaults()
	s := &AuthStore{api: api, session: d.Session, social: social}
	s.init(ContainerAuth, d)
	return s
}

func (s *AuthStore) Snapshot() AuthState {
	cur := s.session.Current()
	return AuthState{
		User:            cur.Principal,
		IsAuthenticated: s.session.IsAuthenticated(),
		Ops:             s.Ops(),
	}
}

func (s *AuthStore) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, s.reject(OpLogin, apierr.Validation("email and password are required"))
	}
	return s.exchange(ctx, OpLogin, func(ctx context.Context) (backend.AuthResult, error) {
		return s.api.Login(ctx, email, password)
	})
}

func (s *AuthStore) Register(ctx context.Context, username, email, password string) (domain.Session, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return domain.Session{}, s.reject(OpRegister, apierr.Validation("username, email and password are required"))
	}
	return s.exchange(ctx, OpRegister, func(ctx context.Context) (backend.AuthResult, error) {
		return s.api.Register(ctx, username, email, password)
	})
}

// SocialLogin exchanges a provider token obtained by the UI for a session.
func (s *AuthStore) SocialLogin(ctx context.Context, provider domain.SocialProvider, token string) (domain.Session, error) {
	if !s.social.Enabled(provider) {
		return domain.Session{}, s.reject(OpSocialLogin, apierr.Validation(fmt.Sprintf("%s sign-in is not configured", provider)))
	}
	if strings.TrimSpace(token) == "" {
		return domain.Session{}, s.reject(OpSocialLogin, apierr.Validation("provider token is required"))
	}
	return s.exchange(ctx, OpSocialLogin, func(ctx context.Context) (backend.AuthResult, error) {
		return s.api.SocialLogin(ctx, provider, token)
	})
}

func (s *AuthStore) exchange(ctx context.Context, op string, call func(context.Context) (backend.AuthResult, error)) (domain.Session, error) {
	var out domain.Session
	_, err := dispatch(ctx, &s.base, op, call, func(res backend.AuthResult) {
		user := res.User
		out = domain.Session{Principal: &user, Token: res.Token}
		if err := s.session.Set(ctx, out); err != nil {
			s.log.Warn("session not persisted", "op", op, "error", err)
		}
	})
	if err != nil {
		return domain.Session{}, err
	}
	if out.Principal == nil {
		// A newer exchange superseded this one; report what is installed now.
		return s.session.Current(), nil
	}
	s.publish(realtime.EventSessionChanged, out.Principal)
	return out.Clone(), nil
}

// FetchCurrentUser refreshes the principal behind the current token.
func (s *AuthStore) FetchCurrentUser(ctx context.Context) (domain.Principal, error) {
	if strings.TrimSpace(s.session.Token()) == "" {
		return domain.Principal{}, s.reject(OpCurrentUser, apierr.New(apierr.KindUnauthorized, 401, "", fmt.Errorf("not signed in")))
	}
	return dispatch(ctx, &s.base, OpCurrentUser, s.api.Me, func(p domain.Principal) {
		if err := s.session.SetPrincipal(ctx, p); err != nil {
			s.log.Warn("session not persisted", "op", OpCurrentUser, "error", err)
		}
	})
}

// Logout is local only; the backend keeps no server-side session to end.
func (s *AuthStore) Logout(ctx context.Context) error {
	err := s.session.Clear(ctx)
	s.tracker.Reset()
	s.publish(realtime.EventSessionChanged, nil)
	return err
}

// Reset drops every operation record. Used when the session is revoked.
func (s *AuthStore) Reset() { s.tracker.Reset() }
