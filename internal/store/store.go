package store

import (
	"context"
	"errors"

	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"gorm.io/gorm"
)

// Store is the gorm-backed persistence layer. It owns no connection state of
// its own; the *gorm.DB is opened once at start-up and handed in.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Ping checks that the underlying database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()

	if err != nil {
		return policy.Unavailable(err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return policy.Unavailable(err)
	}

	return nil
}

// translate maps gorm errors onto the policy taxonomy.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return policy.NotFound(what)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return policy.Duplicate(what)
	}

	var perr *policy.Error

	if errors.As(err, &perr) {
		return err
	}

	return policy.Unavailable(err)
}
