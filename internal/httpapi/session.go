package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	authUserKey      = "auth_user_id"
	authHeaderPrefix = "Bearer "
)

// hashCredential hashes a plaintext credential for storage.
func hashCredential(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(hashed), nil
}

// checkCredential compares a stored hash against a plaintext credential.
func checkCredential(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// issueSessionToken signs a short-lived HMAC token for a user.
func issueSessionToken(cfg Config, userID int64, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.SessionIssuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.SessionTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SessionSigningKey))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// sessionMiddleware validates a bearer token and stores the caller's user
// id on the request context.
func sessionMiddleware(cfg Config) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, authHeaderPrefix) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope("unauthorized", "missing bearer token"))
			return
		}
		raw := strings.TrimPrefix(header, authHeaderPrefix)
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(cfg.SessionSigningKey), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(cfg.SessionIssuer))
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope("unauthorized", "invalid session token"))
			return
		}
		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope("unauthorized", "invalid session subject"))
			return
		}
		ctx.Set(authUserKey, userID)
		ctx.Next()
	}
}
