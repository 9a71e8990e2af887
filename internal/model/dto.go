package model

// LoginResponse is returned by login and by a successful 2FA verification
type LoginResponse struct {
	IsAuthenticated   bool   `json:"is_authenticated"`
	IsVerified        bool   `json:"is_verified"`
	RequiresTwoFactor bool   `json:"requires_two_factor,omitempty"`
	UserID            uint   `json:"user_id"`
	Username          string `json:"username"`
	Email             string `json:"email,omitempty"`
	Role              string `json:"role"`
	Token             string `json:"token,omitempty"`
}

// RestaurantSearchResult is one row of a restaurant search
type RestaurantSearchResult struct {
	RestaurantID       uint    `json:"restaurant_id"`
	Name               string  `json:"name"`
	LogoPhoto          string  `json:"logo_photo"`
	Cuisine            string  `json:"cuisine"`
	City               string  `json:"city"`
	State              string  `json:"state"`
	OverallRating      float64 `json:"overall_rating"`
	ReviewCount        int     `json:"review_count"`
	AveragePriceRating float64 `json:"average_price_rating"`
}

// AverageRatings holds per-category averages rounded to one decimal
type AverageRatings struct {
	Food       float64 `json:"food"`
	Service    float64 `json:"service"`
	Atmosphere float64 `json:"atmosphere"`
	Price      float64 `json:"price"`
	Overall    float64 `json:"overall"`
}

// RestaurantDetail is the full public view of a restaurant
type RestaurantDetail struct {
	Profile        Restaurant        `json:"profile"`
	Reviews        []Review          `json:"reviews"`
	GalleryImages  []RestaurantImage `json:"gallery_images"`
	AverageRatings AverageRatings    `json:"average_ratings"`
	ReviewCount    int               `json:"review_count"`
}

// RepDashboard summarizes a restaurant for its representative
type RepDashboard struct {
	WelcomeMessage       string         `json:"welcome_message"`
	HasProfile           bool           `json:"has_profile"`
	RestaurantID         uint           `json:"restaurant_id"`
	RestaurantName       string         `json:"restaurant_name"`
	PendingReservations  int64          `json:"pending_reservations"`
	UpcomingReservations []Reservation  `json:"upcoming_reservations"`
	RecentReviews        []Review       `json:"recent_reviews"`
	AverageRatings       AverageRatings `json:"average_ratings"`
}

// ReviewerDashboard summarizes a reviewer's activity
type ReviewerDashboard struct {
	WelcomeMessage string   `json:"welcome_message"`
	MyReviews      []Review `json:"my_reviews"`
	ReviewCount    int      `json:"review_count"`
}

// Averages computes per-category averages over reviews
func Averages(reviews []Review) AverageRatings {
	if len(reviews) == 0 {
		return AverageRatings{}
	}
	var food, service, atmosphere, price, overall float64
	for i := range reviews {
		food += float64(reviews[i].FoodQuality)
		service += float64(reviews[i].ServiceRating)
		atmosphere += float64(reviews[i].AtmosphereRating)
		price += float64(reviews[i].PriceRating)
		overall += reviews[i].OverallRating()
	}
	n := float64(len(reviews))
	return AverageRatings{
		Food:       RoundRating(food / n),
		Service:    RoundRating(service / n),
		Atmosphere: RoundRating(atmosphere / n),
		Price:      RoundRating(price / n),
		Overall:    RoundRating(overall / n),
	}
}
