package auth

import (
	"net/http"
	"time"
)

// SetTokenCookies writes both auth cookies with lifetimes matching the tokens.
func SetTokenCookies(w http.ResponseWriter, pair TokenPair, now time.Time, secure bool) {
	http.SetCookie(w, tokenCookie(AccessCookieName, pair.AccessToken, pair.AccessExpiresAt, now, secure))
	http.SetCookie(w, tokenCookie(RefreshCookieName, pair.RefreshToken, pair.RefreshExpiresAt, now, secure))
}

// ClearTokenCookies expires both auth cookies together.
func ClearTokenCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func tokenCookie(name, value string, expiresAt, now time.Time, secure bool) *http.Cookie {
	maxAge := int(expiresAt.Sub(now).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
