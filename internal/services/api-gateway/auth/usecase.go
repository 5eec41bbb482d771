// Package auth is the identity collaborator: email-only registration and
// login issuing HS256 bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/NordCoder/Versionwatch/internal/domain/auth"
	"github.com/NordCoder/Versionwatch/internal/domain/user"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrInvalidEmail       = errors.New("a valid email is required")
)

const DefaultAccessTTL = 7 * 24 * time.Hour

type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
	Now       func() time.Time
}

type Usecase struct {
	users user.Repo
	cfg   Config
}

func NewUseCase(users user.Repo, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	return &Usecase{users: users, cfg: cfg}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *Usecase) Register(ctx context.Context, email string, name *string) (*user.User, string, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, "", ErrInvalidEmail
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	newUser := &user.User{ID: uuid.NewString(), Email: email, Name: name}
	if err := u.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, postgres.ErrConflict) {
			return nil, "", ErrEmailExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	token, err := u.issue(newUser)
	if err != nil {
		return nil, "", err
	}
	return newUser, token, nil
}

func (u *Usecase) Login(ctx context.Context, email string) (*user.User, string, error) {
	rec, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	token, err := u.issue(rec)
	if err != nil {
		return nil, "", err
	}
	return rec, token, nil
}

func (u *Usecase) issue(usr *user.User) (string, error) {
	now := u.cfg.Now()
	claims := domainauth.AccessClaims{
		Email: usr.Email,
		Name:  usr.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usr.ID,
			Issuer:    u.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.cfg.AccessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign access: %w", err)
	}
	return signed, nil
}

// ParseAccess returns the user id carried by a valid token.
func (u *Usecase) ParseAccess(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(u.cfg.Now),
		jwt.WithExpirationRequired(),
	}
	if u.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(u.cfg.Issuer))
	}
	claims := new(domainauth.AccessClaims)
	tok, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return u.cfg.Secret, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}
