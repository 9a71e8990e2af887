package repository

import (
	"context"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"gorm.io/gorm"
)

// ReservationRepository persists table bookings
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id uint) (*model.Reservation, error)
	// ListByRestaurant orders by reservation time; an empty status matches all
	ListByRestaurant(ctx context.Context, restaurantID uint, status string) ([]model.Reservation, error)
	ListByRestaurantSince(ctx context.Context, restaurantID uint, since time.Time) ([]model.Reservation, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Reservation, error)
	Upcoming(ctx context.Context, restaurantID uint, from time.Time, limit int) ([]model.Reservation, error)
	CountByStatus(ctx context.Context, restaurantID uint, status string) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository returns a gorm ReservationRepository
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	defer track("insert")()
	return translate(r.db.WithContext(ctx).Create(reservation).Error)
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*model.Reservation, error) {
	defer track("query")()
	var reservation model.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, id).Error; err != nil {
		return nil, translate(err)
	}
	return &reservation, nil
}

func (r *reservationRepository) ListByRestaurant(ctx context.Context, restaurantID uint, status string) ([]model.Reservation, error) {
	defer track("query")()
	query := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var reservations []model.Reservation
	if err := query.Order("reservation_date_time").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) ListByRestaurantSince(ctx context.Context, restaurantID uint, since time.Time) ([]model.Reservation, error) {
	defer track("query")()
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND reservation_date_time >= ?", restaurantID, since).
		Order("reservation_date_time").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) ListByUser(ctx context.Context, userID uint) ([]model.Reservation, error) {
	defer track("query")()
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("reservation_date_time DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) Upcoming(ctx context.Context, restaurantID uint, from time.Time, limit int) ([]model.Reservation, error) {
	defer track("query")()
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND reservation_date_time >= ? AND status IN ?",
			restaurantID, from, []string{model.StatusPending, model.StatusConfirmed}).
		Order("reservation_date_time").
		Limit(limit).
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) CountByStatus(ctx context.Context, restaurantID uint, status string) (int64, error) {
	defer track("query")()
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("restaurant_id = ? AND status = ?", restaurantID, status).
		Count(&count).Error
	return count, err
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	defer track("update")()
	result := r.db.WithContext(ctx).Model(&model.Reservation{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reservationRepository) Delete(ctx context.Context, id uint) error {
	defer track("delete")()
	result := r.db.WithContext(ctx).Delete(&model.Reservation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
