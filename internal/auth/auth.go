// Package auth issues and verifies the bearer tokens used by the HTTP and
// websocket layers. Tokens are HS256 JWTs carried either in the
// Authorization header or in an HttpOnly cookie.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the auth cookie set for browser clients.
const CookieName = "candy_token"

var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by a signed token. Guest identities are
// minted on demand and never touch the database.
type Claims struct {
	UserID   uuid.UUID
	Username string
	Guest    bool
}

// NewGuest mints a throwaway identity. The username embeds a fragment of the
// id so concurrent guests are tellable apart in logs.
func NewGuest() Claims {
	id := uuid.New()
	return Claims{
		UserID:   id,
		Username: "guest-" + id.String()[:8],
		Guest:    true,
	}
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateCredentials enforces the signup rules for a username/password pair.
func ValidateCredentials(username, password string) error {
	if len(username) < 3 || len(username) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range username {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(password) < 8 || len(password) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// HashPassword hashes pw with bcrypt at the default cost.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether pw matches the stored bcrypt hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// SignToken signs c as an HS256 JWT valid for ttl.
func SignToken(secret string, c Claims, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       c.UserID.String(),
		"username": c.Username,
		"guest":    c.Guest,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := token.SignedString([]byte(secret))
	return ss, exp, err
}

// ParseToken verifies an HS256 JWT and returns its claims.
func ParseToken(secret, tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	idStr, _ := mc["id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	username, _ := mc["username"].(string)
	guest, _ := mc["guest"].(bool)
	return Claims{UserID: id, Username: username, Guest: guest}, nil
}

// BearerOrCookie extracts the raw token from the Authorization header,
// falling back to the auth cookie.
func BearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie attaches the token as an HttpOnly cookie.
func SetCookie(w http.ResponseWriter, token string, exp time.Time, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// ClearCookie expires the auth cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}
