package domain

import "strings"

type Principal struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Avatar    string   `json:"avatar,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

func (p Principal) DisplayName() string {
	full := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if full != "" {
		return full
	}
	return strings.TrimSpace(p.Username)
}

// Session is the authenticated principal plus the opaque credential the
// backend issued for it.
type Session struct {
	Principal *Principal `json:"user,omitempty"`
	Token     string     `json:"-"`
}

func (s Session) IsAuthenticated() bool {
	return s.Principal != nil && strings.TrimSpace(s.Token) != ""
}

// Clone deep copies the principal so callers cannot mutate shared state.
func (s Session) Clone() Session {
	if s.Principal == nil {
		return Session{Token: s.Token}
	}
	p := *s.Principal
	p.Interests = append([]string(nil), s.Principal.Interests...)
	return Session{Principal: &p, Token: s.Token}
}

type SocialProvider string

const (
	SocialGoogle   SocialProvider = "google"
	SocialFacebook SocialProvider = "facebook"
)

func ParseSocialProvider(raw string) (SocialProvider, bool) {
	switch SocialProvider(strings.ToLower(strings.TrimSpace(raw))) {
	case SocialGoogle:
		return SocialGoogle, true
	case SocialFacebook:
		return SocialFacebook, true
	default:
		return "", false
	}
}
