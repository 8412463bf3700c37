package session

import (
	"net/http"
	"strings"
	"time"
)

// CookieName is the session cookie carrying the bearer token.
const CookieName = "liftlog_session"

// Cookies writes and reads the session cookie.
type Cookies struct {
	Secure bool
}

// Set stores token in the session cookie.
func (c Cookies) Set(w http.ResponseWriter, token string) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(DefaultTTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the presented token, if any.
func (Cookies) Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(ck.Value)
	if v == "" {
		return "", false
	}
	return v, true
}
