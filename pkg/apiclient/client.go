// Package apiclient is a typed client for the restaurant REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrServiceUnavailable is returned while the circuit breaker is open
var ErrServiceUnavailable = errors.New("restaurant api is unavailable")

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type RegisterRequest struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ConfirmPassword   string `json:"confirm_password"`
	UserType          string `json:"user_type"`
	SecurityQuestion1 string `json:"security_question_1"`
	SecurityAnswer1   string `json:"security_answer_1"`
	SecurityQuestion2 string `json:"security_question_2"`
	SecurityAnswer2   string `json:"security_answer_2"`
	SecurityQuestion3 string `json:"security_question_3"`
	SecurityAnswer3   string `json:"security_answer_3"`
}

type ReviewRequest struct {
	RestaurantID      uint      `json:"restaurant_id"`
	VisitDate         time.Time `json:"visit_date"`
	Comments          string    `json:"comments"`
	FoodQualityRating int       `json:"food_quality_rating"`
	ServiceRating     int       `json:"service_rating"`
	AtmosphereRating  int       `json:"atmosphere_rating"`
	PriceRating       int       `json:"price_rating"`
}

type ReservationRequest struct {
	RestaurantID        uint      `json:"restaurant_id"`
	ReservationDateTime time.Time `json:"reservation_date_time"`
	PartySize           int       `json:"party_size"`
	ContactName         string    `json:"contact_name"`
	Phone               string    `json:"phone"`
	Email               string    `json:"email"`
	SpecialRequests     string    `json:"special_requests,omitempty"`
}

// Client calls the API through a circuit breaker. Transport errors and
// 5xx answers count as failures; 4xx answers do not.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger

	breaker *gobreaker.CircuitBreaker
	mu      sync.RWMutex
	token   string
}

// NewClient creates a client with a 10 second HTTP timeout
func NewClient(baseURL string, logger *zap.Logger) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "restaurant-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// SetToken sets the bearer token sent with every later request
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/account/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Verify2FA(ctx context.Context, userID uint, code string) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/account/verify-2fa", map[string]interface{}{
		"user_id": userID,
		"code":    code,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register returns the new user's ID
func (c *Client) Register(ctx context.Context, req RegisterRequest) (uint, error) {
	var resp struct {
		UserID uint `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/account/register", req, &resp); err != nil {
		return 0, err
	}
	return resp.UserID, nil
}

func (c *Client) SearchRestaurants(ctx context.Context, cuisines []string, city, state string) ([]model.RestaurantSearchResult, error) {
	q := url.Values{}
	if len(cuisines) > 0 {
		q.Set("cuisines", strings.Join(cuisines, ","))
	}
	if city != "" {
		q.Set("city", city)
	}
	if state != "" {
		q.Set("state", state)
	}
	path := "/api/restaurants/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var results []model.RestaurantSearchResult
	if err := c.do(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) GetRestaurant(ctx context.Context, id uint) (*model.RestaurantDetail, error) {
	var detail model.RestaurantDetail
	if err := c.do(ctx, http.MethodGet, "/api/restaurants/"+strconv.FormatUint(uint64(id), 10), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) ListReviews(ctx context.Context, restaurantID uint) ([]model.Review, error) {
	var reviews []model.Review
	if err := c.do(ctx, http.MethodGet, "/api/reviews/restaurant/"+strconv.FormatUint(uint64(restaurantID), 10), nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *Client) CreateReview(ctx context.Context, req ReviewRequest) (*model.Review, error) {
	var review model.Review
	if err := c.do(ctx, http.MethodPost, "/api/reviews", req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) CreateReservation(ctx context.Context, req ReservationRequest) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := c.do(ctx, http.MethodPost, "/api/reservations", req, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (c *Client) UpdateReservationStatus(ctx context.Context, id uint, status string) error {
	path := fmt.Sprintf("/api/reservations/%d/status", id)
	return c.do(ctx, http.MethodPut, path, map[string]string{"status": status}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, path, in)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.Logger.Warn("Request rejected by circuit breaker",
				zap.String("method", method),
				zap.String("path", path))
			return ErrServiceUnavailable
		}
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body.([]byte), out); err != nil {
		c.Logger.Error("Failed to parse response", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in interface{}) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		c.Logger.Warn("API returned an error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", msg))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return body, nil
}
