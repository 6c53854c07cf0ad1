package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storifal/storifal/internal/domain"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

// Create inserts usr. A second account for the same email (or username, or
// google id) fails with ErrDuplicate.
func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	return translateErr(u.db.WithContext(ctx).Create(usr).Error)
}

func (u *UserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (u *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := u.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, translateErr(err)
	}
	return n > 0, nil
}

// Save writes every column of usr.
func (u *UserStore) Save(ctx context.Context, usr *domain.User) error {
	return translateErr(u.db.WithContext(ctx).Save(usr).Error)
}

// MarkVerified flips is_verified and clears the stored verification token.
// Only an unverified row is updated, so of two concurrent callers exactly one
// succeeds; the other gets domain.ErrAlreadyVerified.
func (u *UserStore) MarkVerified(ctx context.Context, id domain.UserID) error {
	res := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]any{
			"is_verified":              true,
			"email_verification_token": nil,
			"updated_at":               time.Now().UTC(),
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyVerified
	}
	return nil
}
