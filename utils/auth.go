package utils

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-storefront/models"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenCookieName is the cookie carrying the session token.
const TokenCookieName = "token"

// JWT settings. main overrides them from configuration.
var (
	JwtKey        = []byte("your_secret_key")
	JwtExpiry     = 30 * 24 * time.Hour
	CookieExpiry  = 7 * 24 * time.Hour
	SecureCookies = false
)

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// ObjectID returns the user id carried by the claims.
func (c *Claims) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.UserID)
}

func (c *Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// GenerateJWT generates a session token for a user
func GenerateJWT(userID primitive.ObjectID, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID.Hex(),
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(JwtExpiry).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(JwtKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseJWT validates tokenStr and returns its claims.
func ParseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := claims.ObjectID(); err != nil {
		return nil, errors.New("invalid token subject")
	}
	return claims, nil
}

// SetTokenCookie stores the session token in an HTTP-only cookie.
func SetTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(CookieExpiry),
		HttpOnly: true,
		Secure:   SecureCookies,
	})
}

// ClearTokenCookie replaces the session cookie with a short-lived placeholder.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   SecureCookies,
	})
}
