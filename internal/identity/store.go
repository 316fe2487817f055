package identity

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/npezzotti/go-liveroom/internal/database"
	"github.com/npezzotti/go-liveroom/internal/stats"
	"github.com/npezzotti/go-liveroom/internal/types"
)

// maxTokenAttempts bounds regeneration when a freshly issued token collides
// with an existing row.
const maxTokenAttempts = 3

var (
	// ErrInvalidToken means the token resolves to no user.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExhausted means every generation attempt collided.
	ErrTokenExhausted = errors.New("exhausted token generation attempts")
)

// Store maps opaque bearer tokens to user identities.
type Store struct {
	log   *log.Logger
	db    database.LiveRoomRepository
	stats stats.StatsProvider
}

func NewStore(logger *log.Logger, db database.LiveRoomRepository, sp stats.StatsProvider) *Store {
	sp.RegisterMetric(stats.UsersRegistered)

	return &Store{
		log:   logger,
		db:    db,
		stats: sp,
	}
}

// Register creates a user and returns their token. A collision with an
// existing token is retried with a fresh value and never surfaced.
func (s *Store) Register(name string, leaderCardId int) (string, error) {
	params := database.CreateUserParams{
		Name:         name,
		LeaderCardId: leaderCardId,
	}

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		params.Token = uuid.NewString()

		_, err := s.db.CreateUser(params)
		if database.IsUniqueViolation(err) {
			s.log.Printf("token collision on attempt %d, regenerating", attempt)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}

		s.stats.Incr(stats.UsersRegistered)
		return params.Token, nil
	}

	return "", ErrTokenExhausted
}

// Resolve returns the identity behind token, or ErrInvalidToken.
func (s *Store) Resolve(token string) (types.SafeUser, error) {
	user, err := s.db.GetUserByToken(token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.SafeUser{}, ErrInvalidToken
		}
		return types.SafeUser{}, fmt.Errorf("get user by token: %w", err)
	}

	return types.SafeUser{
		Id:           user.Id,
		Name:         user.Name,
		LeaderCardId: user.LeaderCardId,
	}, nil
}

// Update rewrites the mutable identity fields for the user behind token.
func (s *Store) Update(token, name string, leaderCardId int) error {
	_, err := s.db.UpdateUserByToken(database.UpdateUserParams{
		Token:        token,
		Name:         name,
		LeaderCardId: leaderCardId,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}
