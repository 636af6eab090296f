package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/minimart/minimart/internal/errors"
	"github.com/minimart/minimart/internal/models"
	repository "github.com/minimart/minimart/internal/repositories"
	redisrepo "github.com/minimart/minimart/internal/repositories/redis"
	"github.com/minimart/minimart/internal/storage"
)

// UserService handles signup, login, and bearer-token resolution. The
// rate limiter is optional; a nil limiter disables login throttling.
type UserService struct {
	store   *storage.Store
	limiter *redisrepo.RateLimiter
}

func NewUserService(store *storage.Store, limiter *redisrepo.RateLimiter) *UserService {
	return &UserService{store: store, limiter: limiter}
}

// Signup creates a user. Usernames are the primary key; a taken username
// is a Conflict. Role validity (buyer/seller) is the request layer's job.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) error {

	var taken bool

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		users, err := repository.Users(tx)
		if err != nil {
			return err
		}

		if _, ok := users[req.Username]; ok {
			taken = true

			return nil
		}

		// TODO: hash passwords with bcrypt; stored files written by the
		// previous backend hold them in the clear, so hashing needs a
		// migration for existing users first.
		users[req.Username] = models.User{
			Username: req.Username,
			Password: req.Password,
			Role:     req.Role,
		}

		return repository.SaveUsers(tx, users)
	})
	if err != nil {
		return errors.StorageError("Failed to create user").WithError(err)
	}

	if taken {
		return errors.ConflictError("Username already exists")
	}

	return nil
}

// Login issues a fresh session on an exact credential match. Each login
// gets its own token; earlier sessions for the user stay valid.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.Session, error) {

	if s.limiter != nil {
		allowed, _, retryAfter, err := s.limiter.CheckLoginRateLimit(ctx, req.Username)
		if err != nil {
			return nil, errors.InternalError("Rate limit check failed").WithError(err)
		}

		if !allowed {
			return nil, errors.TooManyRequestsError("Too many login attempts").
				WithDetail(fmt.Sprintf("retry after %d seconds", retryAfter))
		}
	}

	var (
		session models.Session
		invalid bool
	)

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		users, err := repository.Users(tx)
		if err != nil {
			return err
		}

		user, ok := users[req.Username]
		if !ok || user.Password != req.Password {
			invalid = true

			return nil
		}

		token, err := newSessionToken()
		if err != nil {
			return err
		}

		sessions, err := repository.Sessions(tx)
		if err != nil {
			return err
		}

		session = models.Session{
			Token:    token,
			Username: user.Username,
			Role:     user.Role,
		}

		sessions[token] = session

		return repository.SaveSessions(tx, sessions)
	})
	if err != nil {
		return nil, errors.StorageError("Failed to log in").WithError(err)
	}

	if invalid {
		return nil, errors.InvalidCredentialsError("Invalid username or password")
	}

	return &session, nil
}

// ResolveToken maps a bearer token to its user. Both hops are checked:
// a session whose user record has vanished resolves to nothing rather
// than a half-built identity.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {

	var (
		user  models.User
		found bool
	)

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		sessions, err := repository.Sessions(tx)
		if err != nil {
			return err
		}

		session, ok := sessions[token]
		if !ok {
			return nil
		}

		users, err := repository.Users(tx)
		if err != nil {
			return err
		}

		user, found = users[session.Username]

		return nil
	})
	if err != nil {
		return nil, errors.StorageError("Failed to resolve session").WithError(err)
	}

	if !found {
		return nil, errors.NotFoundError("Session not found")
	}

	return &user, nil
}

// newSessionToken returns 16 bytes of randomness hex-encoded. Tokens are
// opaque; clients must not parse them.
func newSessionToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
