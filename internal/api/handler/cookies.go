package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emphasys/identity/internal/core/domain"
)

// CookieConfig controls the browser session cookies.
type CookieConfig struct {
	Name       string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cc CookieConfig) refreshName() string { return cc.Name + "_refresh" }

// AccessToken extracts the token from a Bearer header, falling back to the
// session cookie. The header wins when both are present.
func AccessToken(c echo.Context, cookieName string) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	if ck, err := c.Cookie(cookieName); err == nil {
		return ck.Value
	}
	return ""
}

// acceptsJSON is true for API clients and for browsers that accept anything.
func acceptsJSON(r *http.Request) bool {
	accept := r.Header.Get(echo.HeaderAccept)
	return accept == "" ||
		strings.Contains(accept, echo.MIMEApplicationJSON) ||
		strings.Contains(accept, "*/*")
}

// wantsCookie is true for HTML navigations and htmx requests.
func wantsCookie(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" ||
		strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

func (cc CookieConfig) set(c echo.Context, pair domain.TokenPair) {
	c.SetCookie(cc.cookie(cc.Name, pair.AccessToken, cc.AccessTTL))
	c.SetCookie(cc.cookie(cc.refreshName(), pair.RefreshToken, cc.RefreshTTL))
}

func (cc CookieConfig) clear(c echo.Context) {
	for _, name := range []string{cc.Name, cc.refreshName()} {
		ck := cc.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func (cc CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
