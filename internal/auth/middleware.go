package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leaveportal/internal/leave"
)

const sessionKey = "session"

// CookieConfig controls how the session cookie is signed and sent.
type CookieConfig struct {
	Name   string
	Key    string
	Issuer string
	TTL    time.Duration
	Secure bool
}

// LoadSession reads the session cookie into the request context. A
// missing, tampered or expired cookie leaves the request anonymous.
func LoadSession(cfg CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess Session
		if raw, err := c.Cookie(cfg.Name); err == nil && raw != "" {
			if parsed, err := Parse(raw, cfg.Key, cfg.Issuer); err == nil {
				sess = parsed
			}
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// FromContext returns the session LoadSession stored, or an anonymous one.
func FromContext(c *gin.Context) Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}
	}
	sess, _ := v.(Session)
	return sess
}

// RequireRole redirects to /login unless the session holds role.
// Anonymous and wrong-role requests get the same response.
func RequireRole(role leave.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Authorized(FromContext(c), role) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetCookie issues a signed token for s and attaches it to the response.
func SetCookie(c *gin.Context, cfg CookieConfig, s Session) error {
	token, _, err := Issue(s, cfg.Issuer, cfg.Key, cfg.TTL)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
	return nil
}

// ClearCookie expires the session cookie.
func ClearCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, "", -1, "/", "", cfg.Secure, true)
}
