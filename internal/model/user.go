package model

import (
	"strings"
	"time"
)

// User roles
const (
	RoleReviewer      = "Reviewer"
	RoleRestaurantRep = "RestaurantRep"
	RoleAdmin         = "Admin"
)

// User represents an account of either a reviewer or a restaurant representative
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"type:varchar(255);not null"`
	UserType     string `json:"user_type" gorm:"type:varchar(20);not null"`
	IsVerified   bool   `json:"is_verified" gorm:"default:false"`

	SecurityQuestion1   string `json:"-" gorm:"type:varchar(255)"`
	SecurityAnswerHash1 string `json:"-" gorm:"type:varchar(255)"`
	SecurityQuestion2   string `json:"-" gorm:"type:varchar(255)"`
	SecurityAnswerHash2 string `json:"-" gorm:"type:varchar(255)"`
	SecurityQuestion3   string `json:"-" gorm:"type:varchar(255)"`
	SecurityAnswerHash3 string `json:"-" gorm:"type:varchar(255)"`

	VerificationToken       string     `json:"-" gorm:"type:varchar(100);index"`
	VerificationTokenExpiry *time.Time `json:"-"`
	TwoFactorCode           string     `json:"-" gorm:"type:varchar(10)"`
	TwoFactorExpiry         *time.Time `json:"-"`
	ResetToken              string     `json:"-" gorm:"type:varchar(100)"`
	ResetTokenExpiry        *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SecurityQuestion returns question n (1-3) and its answer hash
func (u *User) SecurityQuestion(n int) (question, answerHash string) {
	switch n {
	case 1:
		return u.SecurityQuestion1, u.SecurityAnswerHash1
	case 2:
		return u.SecurityQuestion2, u.SecurityAnswerHash2
	case 3:
		return u.SecurityQuestion3, u.SecurityAnswerHash3
	}
	return "", ""
}

// AvailableSecurityQuestions lists the numbers of the questions the user filled in
func (u *User) AvailableSecurityQuestions() []int {
	var out []int
	for n := 1; n <= 3; n++ {
		if q, h := u.SecurityQuestion(n); q != "" && h != "" {
			out = append(out, n)
		}
	}
	return out
}

// NormalizeRole maps user input onto one of the self-service roles.
// Admin cannot be chosen at registration.
func NormalizeRole(role string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "reviewer":
		return RoleReviewer, true
	case "restaurantrep", "restaurant_rep", "restaurant-rep":
		return RoleRestaurantRep, true
	}
	return "", false
}
