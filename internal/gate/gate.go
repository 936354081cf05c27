// Package gate decides whether a route may be shown to the current session.
package gate

import (
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/session"
)

const (
	LoginPath   = "/login"
	DefaultNext = "/"
)

// protected lists route patterns that need a session. A ":" segment matches
// any single segment.
var protected = [][]string{
	{"dashboard"},
	{"courses", ":courseId", "tests", ":testId"},
	{"payment", "success"},
	{"rewards"},
}

type Decision struct {
	Allow      bool   `json:"allow"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Protected reports whether routePath needs an authenticated session. Query
// and fragment are ignored.
func Protected(routePath string) bool {
	if i := strings.IndexAny(routePath, "?#"); i >= 0 {
		routePath = routePath[:i]
	}
	segs := segments(routePath)
	for _, pattern := range protected {
		if len(pattern) != len(segs) {
			continue
		}
		ok := true
		for i, want := range pattern {
			if strings.HasPrefix(want, ":") {
				if segs[i] == "" {
					ok = false
					break
				}
				continue
			}
			if segs[i] != want {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Check allows public routes always and protected routes only for a live
// session. A refusal redirects to the login route carrying the requested
// path as next.
func Check(s domain.Session, now time.Time, routePath string) Decision {
	if !Protected(routePath) {
		return Decision{Allow: true}
	}
	if s.IsAuthenticated() && !session.TokenExpired(s.Token, now) {
		return Decision{Allow: true}
	}
	return Decision{RedirectTo: LoginRedirect(routePath)}
}

// LoginRedirect is the login route carrying routePath as next.
func LoginRedirect(routePath string) string {
	return LoginPath + "?next=" + url.QueryEscape(routePath)
}

// ReturnPath sanitises a next parameter for the post-login redirect. Only
// local absolute paths survive; anything else, including the login route
// itself, falls back to DefaultNext.
func ReturnPath(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return DefaultNext
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultNext
	}
	if u.Path == LoginPath || strings.HasPrefix(u.Path, LoginPath+"/") {
		return DefaultNext
	}
	return next
}
