package repository

import (
	"context"
	"strings"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"gorm.io/gorm"
)

// SearchCriteria filters a restaurant search. Empty fields match everything.
type SearchCriteria struct {
	Cuisines []string
	City     string
	State    string
}

// Photo columns that can be replaced by an upload
const (
	PhotoColumnProfile = "profile_photo"
	PhotoColumnLogo    = "logo_photo"
)

// profileColumns are the fields a representative may edit through PUT
var profileColumns = []string{
	"name", "address", "city", "state", "zip_code", "cuisine", "hours",
	"contact", "marketing_description", "website_url", "social_media", "owner",
}

// RestaurantRepository persists restaurant profiles
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *model.Restaurant) error
	FindByID(ctx context.Context, id uint) (*model.Restaurant, error)
	UpdateProfile(ctx context.Context, restaurant *model.Restaurant) error
	UpdatePhoto(ctx context.Context, id uint, column, path string) error
	Search(ctx context.Context, criteria SearchCriteria) ([]model.RestaurantSearchResult, error)
	DistinctCuisines(ctx context.Context) ([]string, error)
}

type restaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository returns a gorm RestaurantRepository
func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	defer track("insert")()
	return translate(r.db.WithContext(ctx).Create(restaurant).Error)
}

func (r *restaurantRepository) FindByID(ctx context.Context, id uint) (*model.Restaurant, error) {
	defer track("query")()
	var restaurant model.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, id).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (r *restaurantRepository) UpdateProfile(ctx context.Context, restaurant *model.Restaurant) error {
	defer track("update")()
	result := r.db.WithContext(ctx).Model(&model.Restaurant{ID: restaurant.ID}).
		Select(profileColumns).
		Updates(restaurant)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *restaurantRepository) UpdatePhoto(ctx context.Context, id uint, column, path string) error {
	defer track("update")()
	result := r.db.WithContext(ctx).Model(&model.Restaurant{}).Where("id = ?", id).Update(column, path)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Search aggregates review ratings per restaurant. Profiles that were never
// filled in (empty name) are left out.
func (r *restaurantRepository) Search(ctx context.Context, criteria SearchCriteria) ([]model.RestaurantSearchResult, error) {
	defer track("query")()

	query := r.db.WithContext(ctx).Table("restaurants").
		Select(`restaurants.id AS restaurant_id, restaurants.name, restaurants.logo_photo,
			restaurants.cuisine, restaurants.city, restaurants.state,
			COALESCE(ROUND(AVG((reviews.food_quality + reviews.service_rating + reviews.atmosphere_rating) / 3.0), 1), 0) AS overall_rating,
			COUNT(reviews.id) AS review_count,
			COALESCE(ROUND(AVG(reviews.price_rating), 1), 0) AS average_price_rating`).
		Joins("LEFT JOIN reviews ON reviews.restaurant_id = restaurants.id").
		Where("restaurants.name <> ''").
		Group("restaurants.id")

	if cuisines := lowerAll(criteria.Cuisines); len(cuisines) > 0 {
		query = query.Where("LOWER(restaurants.cuisine) IN ?", cuisines)
	}
	if city := strings.TrimSpace(criteria.City); city != "" {
		query = query.Where("LOWER(restaurants.city) = ?", strings.ToLower(city))
	}
	if state := strings.TrimSpace(criteria.State); state != "" {
		query = query.Where("restaurants.state = ?", strings.ToUpper(state))
	}

	var results []model.RestaurantSearchResult
	if err := query.Order("overall_rating DESC, restaurants.name ASC").Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *restaurantRepository) DistinctCuisines(ctx context.Context) ([]string, error) {
	defer track("query")()
	var cuisines []string
	err := r.db.WithContext(ctx).Model(&model.Restaurant{}).
		Where("cuisine <> ''").
		Distinct().
		Order("cuisine").
		Pluck("cuisine", &cuisines).Error
	return cuisines, err
}

func lowerAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}
