// Package auth implements registration and login.
package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/errors"
	"github.com/pawmart/petstore/pkg/logger"
)

// Service registers users and exchanges credentials for tokens.
type Service struct {
	users  storage.UserStore
	tokens *TokenProvider
	log    *logger.Logger
}

// NewService wires the auth service.
func NewService(users storage.UserStore, tokens *TokenProvider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{users: users, tokens: tokens, log: log}
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Admin     bool   `json:"admin,omitempty"`
}

// Register creates a user with a bcrypt-hashed password. New accounts get
// the USER role; ADMIN is added only when requested explicitly.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return user.User{}, errors.Invalid("a valid email is required")
	}
	if len(in.Password) < 8 {
		return user.User{}, errors.Invalid("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, errors.Internal(err)
	}

	roles := []user.Role{user.RoleUser}
	if in.Admin {
		roles = append(roles, user.RoleAdmin)
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Roles:        roles,
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return user.User{}, errors.Conflict("email %q is already registered", in.Email)
		}
		return user.User{}, errors.Internal(err)
	}

	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// LoginResult carries the issued token and its owner.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      user.User `json:"user"`
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return LoginResult{}, errors.Unauthorized("invalid email or password")
		}
		return LoginResult{}, errors.Internal(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, errors.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return LoginResult{}, errors.Internal(err)
	}

	s.log.WithField("user_id", u.ID).Info("user logged in")
	return LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.Expiry()),
		User:      u,
	}, nil
}
