package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storifal/storifal/internal/domain"
)

type ContactStore struct{ db *gorm.DB }

func (s *Store) Contacts() *ContactStore { return &ContactStore{db: s.DB} }

// Create appends a submission. Submissions are never updated.
func (c *ContactStore) Create(ctx context.Context, m *domain.Contact) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return translateErr(c.db.WithContext(ctx).Create(m).Error)
}
