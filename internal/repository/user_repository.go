package repository

import (
	"context"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"gorm.io/gorm"
)

// UserRepository persists accounts and their one-time tokens
type UserRepository interface {
	// Register creates the user and, for a restaurant rep, an empty
	// restaurant profile keyed by the new user's ID.
	Register(ctx context.Context, user *model.User, createRestaurant bool) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmailOrUsername(ctx context.Context, value string) (*model.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Register(ctx context.Context, user *model.User, createRestaurant bool) error {
	defer track("insert")()

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Create(user).Error; err != nil {
		tx.Rollback()
		return translate(err)
	}

	if createRestaurant {
		restaurant := model.Restaurant{ID: user.ID}
		if err := tx.Create(&restaurant).Error; err != nil {
			tx.Rollback()
			return translate(err)
		}
	}

	return translate(tx.Commit().Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	defer track("query")()
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	defer track("query")()
	var user model.User
	if err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmailOrUsername(ctx context.Context, value string) (*model.User, error) {
	defer track("query")()
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) OR LOWER(username) = LOWER(?)", value, value).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	defer track("query")()
	var user model.User
	if err := r.db.WithContext(ctx).Where("verification_token = ?", token).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	defer track("query")()
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	defer track("update")()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearExpiredTokens blanks every token whose expiry has passed and
// returns the number of rows touched.
func (r *userRepository) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	defer track("update")()

	var total int64
	clears := []struct {
		where  string
		fields map[string]interface{}
	}{
		{"verification_token_expiry < ?", map[string]interface{}{"verification_token": "", "verification_token_expiry": nil}},
		{"two_factor_expiry < ?", map[string]interface{}{"two_factor_code": "", "two_factor_expiry": nil}},
		{"reset_token_expiry < ?", map[string]interface{}{"reset_token": "", "reset_token_expiry": nil}},
	}
	for _, c := range clears {
		result := r.db.WithContext(ctx).Model(&model.User{}).Where(c.where, now).Updates(c.fields)
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
	}
	return total, nil
}
