package model

import (
	"math"
	"time"
)

// Review is a reviewer's rating of a restaurant visit
type Review struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	RestaurantID     uint      `json:"restaurant_id" gorm:"index;not null"`
	UserID           uint      `json:"user_id" gorm:"index;not null"`
	Username         string    `json:"username,omitempty" gorm:"->;-:migration"`
	VisitDate        time.Time `json:"visit_date"`
	Comments         string    `json:"comments" gorm:"type:text"`
	FoodQuality      int       `json:"food_quality_rating" gorm:"not null"`
	ServiceRating    int       `json:"service_rating" gorm:"not null"`
	AtmosphereRating int       `json:"atmosphere_rating" gorm:"not null"`
	PriceRating      int       `json:"price_rating" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	ModifiedAt       time.Time `json:"modified_at" gorm:"autoUpdateTime"`
}

// OverallRating averages food, service and atmosphere. Price is reported separately.
func (r *Review) OverallRating() float64 {
	return float64(r.FoodQuality+r.ServiceRating+r.AtmosphereRating) / 3
}

// RoundRating rounds to one decimal place
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
