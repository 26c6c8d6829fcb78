package adapter

import (
	"net/http"
	"strings"
)

// UserAgent is sent on every request to the home broker.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Session is the authenticated context produced by the login flow.
// The engine only reads it.
type Session struct {
	LoggedIn bool
	Cookies  map[string]string
	BaseURL  string
}

// IsLoggedIn reports whether the session can be used for requests.
func (s *Session) IsLoggedIn() bool {
	return s != nil && s.LoggedIn
}

// URL joins path onto the session base url.
func (s *Session) URL(path string) string {
	if s == nil {
		return path
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// HTTPCookies returns the session cookies scoped to the base url host.
func (s *Session) HTTPCookies() []*http.Cookie {
	if s == nil || len(s.Cookies) == 0 {
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for name, value := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}
