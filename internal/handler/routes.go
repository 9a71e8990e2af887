package handler

import (
	"github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/labstack/echo/v4"
)

// Handlers groups everything mounted under /api
type Handlers struct {
	Account      *AccountHandler
	Restaurants  *RestaurantHandler
	Reviews      *ReviewHandler
	Reservations *ReservationHandler
	Charts       *ChartHandler
	Dashboard    *DashboardHandler
}

// RegisterRoutes mounts the API. limiter guards the credential endpoints.
func RegisterRoutes(e *echo.Echo, h Handlers, auth *middleware.Auth, limiter *middleware.RateLimiter) {
	api := e.Group("/api")
	rep := middleware.RequireRole(model.RoleRestaurantRep)
	reviewer := middleware.RequireRole(model.RoleReviewer)

	account := api.Group("/account")
	account.POST("/register", h.Account.Register)
	account.POST("/login", h.Account.Login, limiter.Middleware)
	account.POST("/verify-2fa", h.Account.VerifyTwoFactor, limiter.Middleware)
	account.POST("/resend-2fa", h.Account.ResendTwoFactor, limiter.Middleware)
	account.GET("/confirm-email", h.Account.ConfirmEmail)
	account.POST("/forgot-password", h.Account.ForgotPassword, limiter.Middleware)
	account.POST("/forgot-username", h.Account.ForgotUsername, limiter.Middleware)
	account.GET("/security-question", h.Account.SecurityQuestion)
	account.POST("/security-question/verify", h.Account.VerifySecurityAnswer, limiter.Middleware)
	account.POST("/reset-password", h.Account.ResetPassword)
	account.GET("/me", h.Account.Me, auth.Required)

	restaurants := api.Group("/restaurants")
	restaurants.GET("/search", h.Restaurants.Search)
	restaurants.GET("/cuisines", h.Restaurants.Cuisines)
	restaurants.GET("/:id", h.Restaurants.Get)
	restaurants.GET("/:id/images", h.Restaurants.ListImages)
	restaurants.POST("", h.Restaurants.Create, auth.Required, rep)
	restaurants.PUT("/:id", h.Restaurants.Update, auth.Required)
	restaurants.POST("/:id/profile-photo", h.Restaurants.UploadProfilePhoto, auth.Required)
	restaurants.POST("/:id/logo", h.Restaurants.UploadLogo, auth.Required)
	restaurants.POST("/:id/images", h.Restaurants.AddImage, auth.Required)
	restaurants.PUT("/:id/images/:imageId/caption", h.Restaurants.UpdateCaption, auth.Required)
	restaurants.DELETE("/:id/images/:imageId", h.Restaurants.DeleteImage, auth.Required)

	reviews := api.Group("/reviews")
	reviews.GET("/restaurant/:restaurantId", h.Reviews.ListByRestaurant)
	reviews.GET("/user/:userId", h.Reviews.ListByUser, auth.Required)
	reviews.GET("/:id", h.Reviews.Get)
	reviews.POST("", h.Reviews.Create, auth.Required, reviewer)
	reviews.PUT("/:id", h.Reviews.Update, auth.Required)
	reviews.DELETE("/:id", h.Reviews.Delete, auth.Required)

	reservations := api.Group("/reservations")
	reservations.POST("", h.Reservations.Create, auth.Optional)
	reservations.GET("/user", h.Reservations.ListMine, auth.Required)
	reservations.GET("/restaurant/:restaurantId", h.Reservations.ListByRestaurant, auth.Required)
	reservations.GET("/:id", h.Reservations.Get, auth.Required)
	reservations.PUT("/:id/status", h.Reservations.UpdateStatus, auth.Required)
	reservations.DELETE("/:id", h.Reservations.Delete, auth.Required)

	charts := api.Group("/charts", auth.Required, rep)
	charts.GET("/reservations-by-day", h.Charts.ReservationsByDay)
	charts.GET("/reservation-trend", h.Charts.ReservationTrend)
	charts.GET("/rating-distribution", h.Charts.RatingDistribution)

	dashboard := api.Group("/dashboard", auth.Required)
	dashboard.GET("/rep", h.Dashboard.Rep, rep)
	dashboard.GET("/reviewer", h.Dashboard.Reviewer, reviewer)
}
