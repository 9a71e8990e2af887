package repository

import (
	"context"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"gorm.io/gorm"
)

// ReviewRepository persists reviews. Reads join the author's username.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	// ListByRestaurant returns newest first; limit <= 0 means no limit
	ListByRestaurant(ctx context.Context, restaurantID uint, limit int) ([]model.Review, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uint) error
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a gorm ReviewRepository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) withUsername(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Review{}).
		Select("reviews.*, users.username").
		Joins("LEFT JOIN users ON users.id = reviews.user_id")
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	defer track("insert")()
	return translate(r.db.WithContext(ctx).Create(review).Error)
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	defer track("query")()
	var review model.Review
	if err := r.withUsername(ctx).Where("reviews.id = ?", id).First(&review).Error; err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (r *reviewRepository) ListByRestaurant(ctx context.Context, restaurantID uint, limit int) ([]model.Review, error) {
	defer track("query")()
	query := r.withUsername(ctx).
		Where("reviews.restaurant_id = ?", restaurantID).
		Order("reviews.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var reviews []model.Review
	if err := query.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID uint) ([]model.Review, error) {
	defer track("query")()
	var reviews []model.Review
	err := r.withUsername(ctx).
		Where("reviews.user_id = ?", userID).
		Order("reviews.created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	defer track("update")()
	result := r.db.WithContext(ctx).Model(&model.Review{ID: review.ID}).
		Select("visit_date", "comments", "food_quality", "service_rating", "atmosphere_rating", "price_rating", "modified_at").
		Updates(review)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	defer track("delete")()
	result := r.db.WithContext(ctx).Delete(&model.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
