package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/xxxsen/docqa/internal/config"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/jwt"
	"github.com/xxxsen/docqa/internal/pkg/password"
)

type AuthService struct {
	admin     config.AdminConfig
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(admin config.AdminConfig, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{admin: admin, jwtSecret: secret, jwtTTL: ttl}
}

func (s *AuthService) Login(ctx context.Context, username, plainPassword string) (string, error) {
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) == 1
	// bcrypt runs on every attempt, whatever the username.
	pwErr := password.Compare(s.admin.PasswordHash, plainPassword)
	if !nameOK || pwErr != nil {
		return "", appErr.ErrUnauthorized
	}
	return jwt.GenerateToken(s.admin.Username, s.jwtSecret, s.jwtTTL)
}
