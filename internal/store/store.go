package store

import (
	"context"

	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/storifal/storifal/internal/domain"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// AutoMigrate creates the schema from the gorm models. Production databases
// are migrated with the embedded SQL files instead; this is for sqlite tests
// and throwaway dev databases.
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(&domain.User{}, &domain.Contact{}); err != nil {
		return oops.In("store").Code("AUTO_MIGRATE_FAILED").Wrap(err)
	}
	return nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
