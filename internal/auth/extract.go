package auth

import (
	"net/http"
	"strings"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Extractor pulls a raw token from a request. ok is false when the source
// does not carry one.
type Extractor func(r *http.Request) (token string, ok bool)

// BearerHeader reads "Authorization: Bearer <token>".
func BearerHeader() Extractor {
	return func(r *http.Request) (string, bool) {
		raw := strings.TrimSpace(r.Header.Get(authorizationHeader))
		if len(raw) < len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
			return "", false
		}
		tok := strings.TrimSpace(raw[len(bearerPrefix):])
		return tok, tok != ""
	}
}

// Cookie reads a named cookie.
func Cookie(name string) Extractor {
	return func(r *http.Request) (string, bool) {
		c, err := r.Cookie(name)
		if err != nil || strings.TrimSpace(c.Value) == "" {
			return "", false
		}
		return c.Value, true
	}
}

// DefaultAccessExtractors is the lookup order for access tokens.
var DefaultAccessExtractors = []Extractor{BearerHeader(), Cookie(AccessCookieName)}

// ExtractToken tries extractors in order; the first match wins.
func ExtractToken(r *http.Request, extractors ...Extractor) (string, bool) {
	for _, ex := range extractors {
		if tok, ok := ex(r); ok {
			return tok, true
		}
	}
	return "", false
}
