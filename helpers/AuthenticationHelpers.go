package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultHashCost = 12
	TokenTTL        = 7 * 24 * time.Hour
	AuthCookie      = "AuthToken"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type SignedDetails struct {
	UserId string `json:"id"`
	jwt.RegisteredClaims
}

// Credentials hashes passwords and signs bearer tokens with a server-held secret.
type Credentials struct {
	secret []byte
	cost   int
	ttl    time.Duration
	now    func() time.Time
}

// NewCredentials returns a Credentials using bcrypt at cost. A cost outside
// bcrypt's range falls back to DefaultHashCost.
func NewCredentials(secret string, cost int) *Credentials {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return &Credentials{
		secret: []byte(secret),
		cost:   cost,
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

func (c *Credentials) HashPassword(rawPassword string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(rawPassword), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// VerifyPassword reports whether password matches hashed. A mismatch or a
// malformed hash is simply false.
func (c *Credentials) VerifyPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// GenerateToken signs an HS256 token for userID that expires after TokenTTL.
func (c *Credentials) GenerateToken(userID string) (string, error) {
	issued := c.now()
	claims := &SignedDetails{
		UserId: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken returns the user id carried by token.
func (c *Credentials) ValidateToken(token string) (string, error) {
	claims := &SignedDetails{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !parsed.Valid || claims.UserId == "" {
		return "", ErrInvalidToken
	}
	return claims.UserId, nil
}

// CookieOptions controls the auth cookie written next to the bearer token.
type CookieOptions struct {
	Domain string
	Secure bool
}

func SetAuthCookie(c *gin.Context, token string, opts CookieOptions) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AuthCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL / time.Second),
		Domain:   opts.Domain,
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   opts.Secure,
	})
}

func NullifyAuthCookie(c *gin.Context, opts CookieOptions) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AuthCookie,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
	})
}
