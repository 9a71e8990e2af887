package model

import "time"

// Reservation statuses
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
	StatusNoShow    = "NoShow"
)

// ReservationStatuses lists every valid status
var ReservationStatuses = []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow}

// IsValidReservationStatus reports whether s is one of ReservationStatuses
func IsValidReservationStatus(s string) bool {
	for _, status := range ReservationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Reservation is a table booking. UserID is nil for guest reservations.
type Reservation struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	RestaurantID        uint      `json:"restaurant_id" gorm:"index;not null"`
	UserID              *uint     `json:"user_id,omitempty" gorm:"index"`
	ReservationDateTime time.Time `json:"reservation_date_time" gorm:"not null;index"`
	PartySize           int       `json:"party_size" gorm:"not null"`
	ContactName         string    `json:"contact_name" gorm:"type:varchar(100);not null"`
	Phone               string    `json:"phone" gorm:"type:varchar(20);not null"`
	Email               string    `json:"email" gorm:"type:varchar(100);not null"`
	SpecialRequests     string    `json:"special_requests" gorm:"type:varchar(500)"`
	Status              string    `json:"status" gorm:"type:varchar(20);not null;default:Pending;index"`
	CreatedAt           time.Time `json:"created_date"`
}
