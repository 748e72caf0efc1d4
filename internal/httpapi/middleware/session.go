package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dhlee-dev/portfolio-api/internal/common"
)

const (
	SessionIDKey  = "visitor_session_id"
	sessionCookie = "portfolio_session"
	cookieMaxAge  = 365 * 24 * 3600 // seconds
)

// VisitorSession resolves the stable visitor identity the chat quota hangs
// off. The ID is a server-minted ULID carried in a signed JWT cookie, so a
// client cannot forge a fresh session to reset its quota. A missing or
// invalid cookie simply gets a new identity.
func VisitorSession(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		if sid := sessionIDFromCookie(c, key); sid != "" {
			c.Set(SessionIDKey, sid)
			c.Next()
			return
		}

		sid, err := common.NewULID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
			})
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sid": sid,
			"iat": time.Now().Unix(),
		})
		signed, err := token.SignedString(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
			})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, signed, cookieMaxAge, "/", "", false, true)
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

func sessionIDFromCookie(c *gin.Context, key []byte) string {
	raw, err := c.Cookie(sessionCookie)
	if err != nil || raw == "" {
		return ""
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		log.Printf("[session] rejecting cookie: %v", err)
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sid, _ := claims["sid"].(string)
	return sid
}

// SessionID returns the visitor session ID set by VisitorSession.
func SessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(SessionIDKey)
	if !ok {
		return "", false
	}
	sid, ok := v.(string)
	return sid, ok && sid != ""
}
