package session

import (
	"net/http"
	"time"
)

// Cookies keeps values client side. Writes are visible to later reads in
// the same request.
type Cookies struct {
	w       http.ResponseWriter
	r       *http.Request
	pending map[string]*string
}

func NewCookies(w http.ResponseWriter, r *http.Request) *Cookies {
	return &Cookies{w: w, r: r, pending: map[string]*string{}}
}

func (c *Cookies) Get(key string) (string, bool) {
	if v, ok := c.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	ck, err := c.r.Cookie(key)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c *Cookies) Set(key, value string, expires time.Time) {
	c.pending[key] = &value
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Cookies) Delete(key string) {
	c.pending[key] = nil
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
