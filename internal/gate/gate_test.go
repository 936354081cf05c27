package gate

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/yungbote/coursemarket-client/internal/domain"
)

func jwtWithExp(exp time.Time) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims := enc.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d}`, exp.Unix())))
	return header + "." + claims + "." + enc.EncodeToString([]byte("sig"))
}

func TestProtected(t *testing.T) {
	cases := map[string]bool{
		"/dashboard":              true,
		"/dashboard/":             true,
		"/courses/3/tests/9":      true,
		"/courses/3/tests/9?x=1":  true,
		"/payment/success":        true,
		"/rewards":                true,
		"/":                       false,
		"/courses":                false,
		"/courses/3":              false,
		"/courses/3/tests":        false,
		"/payment/callback":       false,
		"/login":                  false,
		"/dashboard/settings/new": false,
	}
	for path, want := range cases {
		if got := Protected(path); got != want {
			t.Fatalf("Protected(%q)=%v want %v", path, got, want)
		}
	}
}

func TestCheck(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &domain.Principal{ID: 1, Username: "ann"}

	if d := Check(domain.Session{}, now, "/courses"); !d.Allow {
		t.Fatalf("public route refused")
	}
	d := Check(domain.Session{}, now, "/courses/3/tests/9")
	if d.Allow || d.RedirectTo != "/login?next=%2Fcourses%2F3%2Ftests%2F9" {
		t.Fatalf("decision=%+v", d)
	}
	if d := Check(domain.Session{Principal: user, Token: "opaque"}, now, "/rewards"); !d.Allow {
		t.Fatalf("opaque token refused")
	}
	expired := domain.Session{Principal: user, Token: jwtWithExp(now.Add(-time.Minute))}
	if d := Check(expired, now, "/rewards"); d.Allow {
		t.Fatalf("expired token allowed")
	}
	live := domain.Session{Principal: user, Token: jwtWithExp(now.Add(time.Hour))}
	if d := Check(live, now, "/rewards"); !d.Allow {
		t.Fatalf("live token refused")
	}
	if d := Check(domain.Session{Token: "tok"}, now, "/dashboard"); d.Allow {
		t.Fatalf("token without principal allowed")
	}
}

func TestReturnPath(t *testing.T) {
	cases := map[string]string{
		"":                       DefaultNext,
		"/courses/3/tests/9":     "/courses/3/tests/9",
		"/payment/success?id=1":  "/payment/success?id=1",
		"https://evil.example/x": DefaultNext,
		"//evil.example":         DefaultNext,
		`/\evil.example`:         DefaultNext,
		"courses":                DefaultNext,
		"/login":                 DefaultNext,
		"/login?next=/rewards":   DefaultNext,
		"  /rewards  ":           "/rewards",
		"javascript:alert(1)":    DefaultNext,
	}
	for in, want := range cases {
		if got := ReturnPath(in); got != want {
			t.Fatalf("ReturnPath(%q)=%q want %q", in, got, want)
		}
	}
}
