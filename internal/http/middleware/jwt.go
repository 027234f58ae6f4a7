package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

const (
	tokenTTL    = 72 * time.Hour
	tokenIssuer = "masjidboard"

	statusClientClosed = 499
)

var ErrInvalidToken = errors.New("invalid token")

// UserLookup loads the account a token's subject refers to.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int) (*model.User, error)
}

type sessionClaims struct {
	jwt.StandardClaims
}

// GenerateJWT issues an admin session token for userID.
func GenerateJWT(userID int, secret string) (string, error) {
	now := time.Now()
	claims := sessionClaims{jwt.StandardClaims{
		Subject:   strconv.Itoa(userID),
		Issuer:    tokenIssuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenTTL).Unix(),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies signature, expiry and issuer, returning the user ID.
func ParseToken(raw, secret string) (int, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return 0, fmt.Errorf("%w: issuer %q", ErrInvalidToken, claims.Issuer)
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject %q", ErrInvalidToken, claims.Subject)
	}
	return id, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// JWTMiddleware admits requests carrying a valid "Authorization: Bearer"
// token for an existing account and stores that account on the context.
func JWTMiddleware(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth header"})
			return
		}
		raw, ok := bearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid auth header"})
			return
		}

		userID, err := ParseToken(raw, secret)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("[auth] rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		switch {
		case errs.IsCancelled(err):
			c.AbortWithStatus(statusClientClosed)
			return
		case err != nil || user == nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		SetCurrentUser(c, user)
		c.Next()
	}
}
