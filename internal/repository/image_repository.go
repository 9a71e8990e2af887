package repository

import (
	"context"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"gorm.io/gorm"
)

// ImageRepository persists gallery image metadata
type ImageRepository interface {
	ListByRestaurant(ctx context.Context, restaurantID uint) ([]model.RestaurantImage, error)
	FindByID(ctx context.Context, id uint) (*model.RestaurantImage, error)
	// Create appends the image after the restaurant's current last image
	Create(ctx context.Context, image *model.RestaurantImage) error
	UpdateCaption(ctx context.Context, id uint, caption string) error
	// Delete removes the row and runs afterDelete inside the same transaction;
	// an error from afterDelete rolls the delete back.
	Delete(ctx context.Context, id uint, afterDelete func(*model.RestaurantImage) error) error
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a gorm ImageRepository
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) ListByRestaurant(ctx context.Context, restaurantID uint) ([]model.RestaurantImage, error) {
	defer track("query")()
	var images []model.RestaurantImage
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("display_order, upload_date").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *imageRepository) FindByID(ctx context.Context, id uint) (*model.RestaurantImage, error) {
	defer track("query")()
	var image model.RestaurantImage
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		return nil, translate(err)
	}
	return &image, nil
}

func (r *imageRepository) Create(ctx context.Context, image *model.RestaurantImage) error {
	defer track("insert")()

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var maxOrder int
	if err := tx.Model(&model.RestaurantImage{}).
		Where("restaurant_id = ?", image.RestaurantID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		tx.Rollback()
		return err
	}
	image.DisplayOrder = maxOrder + 1

	if err := tx.Create(image).Error; err != nil {
		tx.Rollback()
		return translate(err)
	}

	return tx.Commit().Error
}

func (r *imageRepository) UpdateCaption(ctx context.Context, id uint, caption string) error {
	defer track("update")()
	result := r.db.WithContext(ctx).Model(&model.RestaurantImage{}).Where("id = ?", id).Update("caption", caption)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *imageRepository) Delete(ctx context.Context, id uint, afterDelete func(*model.RestaurantImage) error) error {
	defer track("delete")()

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var image model.RestaurantImage
	if err := tx.First(&image, id).Error; err != nil {
		tx.Rollback()
		return translate(err)
	}

	if err := tx.Delete(&image).Error; err != nil {
		tx.Rollback()
		return err
	}

	if afterDelete != nil {
		if err := afterDelete(&image); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}
