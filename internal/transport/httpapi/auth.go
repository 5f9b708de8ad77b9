package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

const contextActorKey = "actor"

// Actor is the authenticated caller. ID is the token subject.
type Actor struct {
	ID      string
	Role    Role
	Contact string
}

type Claims struct {
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) (*TokenVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}, nil
}

func (v *TokenVerifier) Verify(tokenString string) (Actor, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Actor{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Actor{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return Actor{}, errors.New("token has no subject")
	}
	if claims.Role != RoleClient && claims.Role != RoleProvider {
		return Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return Actor{ID: claims.Subject, Role: claims.Role, Contact: claims.Email}, nil
}

// Sign issues a token for actor. Used by tests and local tooling.
func (v *TokenVerifier) Sign(actor Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  actor.Role,
		Email: actor.Contact,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// authenticate requires a valid bearer token and stores the Actor in the gin context.
func authenticate(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			abortWithError(c, errUnauthorized)
			return
		}
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, errUnauthorized)
			return
		}
		actor, err := v.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, errUnauthorized)
			return
		}
		c.Set(contextActorKey, actor)
		c.Next()
	}
}

func requireRole(role Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c).Role != role {
			abortWithError(c, errForbidden)
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) Actor {
	if v, ok := c.Get(contextActorKey); ok {
		if a, ok := v.(Actor); ok {
			return a
		}
	}
	return Actor{}
}
