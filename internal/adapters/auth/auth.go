// Package auth issues and verifies the bearer tokens the HTTP surface
// runs on. The coordinator never sees tokens, only the resulting identity.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/itweera/lyricstage/internal/config"
	"github.com/itweera/lyricstage/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims is the token payload, mirroring the identity fields the clients
// display.
type Claims struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

// Service authenticates the config-seeded users and signs their tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	users  []config.User
}

func NewService(secret string, ttl time.Duration, users []config.User) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, users: users}
}

// Login checks the password against the stored bcrypt hash and returns the
// identity with a signed token.
func (s *Service) Login(username, password string) (domain.Identity, string, error) {
	for i, u := range s.users {
		if u.Username != username {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return domain.Identity{}, "", ErrInvalidCredentials
		}
		ident := domain.Identity{
			ID:          i + 1,
			Username:    u.Username,
			Role:        u.Role,
			DisplayName: u.DisplayName,
		}
		token, err := s.sign(ident)
		if err != nil {
			return domain.Identity{}, "", err
		}
		return ident, token, nil
	}
	return domain.Identity{}, "", ErrInvalidCredentials
}

// Verify parses a token and returns the identity it carries.
func (s *Service) Verify(token string) (domain.Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{
		ID:          claims.ID,
		Username:    claims.Username,
		Role:        claims.Role,
		DisplayName: claims.DisplayName,
	}, nil
}

func (s *Service) sign(ident domain.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:          ident.ID,
		Username:    ident.Username,
		Role:        ident.Role,
		DisplayName: ident.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Required is the gin middleware gating the authenticated endpoints. The
// identity lands in the context under "user".
func (s *Service) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access token required"})
			return
		}
		ident, err := s.Verify(token)
		if err != nil {
			log.Warn().Str("module", "auth").Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid or expired token"})
			return
		}
		c.Set("user", ident)
		c.Next()
	}
}
