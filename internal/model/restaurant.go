package model

import "time"

// Restaurant is the public profile of a restaurant.
// ID equals the UserID of the RestaurantRep who owns it.
type Restaurant struct {
	ID                   uint      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name                 string    `json:"name" gorm:"type:varchar(100)" validate:"max=100"`
	Address              string    `json:"address" gorm:"type:varchar(255)" validate:"max=255"`
	City                 string    `json:"city" gorm:"type:varchar(100);index" validate:"max=100"`
	State                string    `json:"state" gorm:"type:varchar(50);index" validate:"max=50"`
	ZipCode              string    `json:"zip_code" gorm:"type:varchar(10)" validate:"max=10"`
	Cuisine              string    `json:"cuisine" gorm:"type:varchar(50);index" validate:"max=50"`
	Hours                string    `json:"hours" gorm:"type:varchar(255)" validate:"max=255"`
	Contact              string    `json:"contact" gorm:"type:varchar(100)" validate:"max=100"`
	MarketingDescription string    `json:"marketing_description" gorm:"type:text" validate:"max=4000"`
	WebsiteURL           string    `json:"website_url" gorm:"type:varchar(255)" validate:"omitempty,url,max=255"`
	SocialMedia          string    `json:"social_media" gorm:"type:varchar(255)" validate:"max=255"`
	Owner                string    `json:"owner" gorm:"type:varchar(100)" validate:"max=100"`
	ProfilePhoto         string    `json:"profile_photo" gorm:"type:varchar(500)"`
	LogoPhoto            string    `json:"logo_photo" gorm:"type:varchar(500)"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// RestaurantImage is a gallery photo of a restaurant
type RestaurantImage struct {
	ID           uint      `json:"image_id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"index;not null"`
	ImagePath    string    `json:"image_path" gorm:"type:varchar(500);not null"`
	Caption      string    `json:"caption" gorm:"type:varchar(500)"`
	UploadDate   time.Time `json:"upload_date" gorm:"autoCreateTime"`
	DisplayOrder int       `json:"display_order" gorm:"default:0"`
}
