// Package repotest provides in-memory repositories for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
)

// Store bundles one of each repository over shared state
type Store struct {
	Users        *Users
	Restaurants  *Restaurants
	Reviews      *Reviews
	Reservations *Reservations
	Images       *Images
}

func New() *Store {
	s := &Store{
		Restaurants:  &Restaurants{rows: map[uint]*model.Restaurant{}},
		Reviews:      &Reviews{rows: map[uint]*model.Review{}},
		Reservations: &Reservations{rows: map[uint]*model.Reservation{}},
		Images:       &Images{rows: map[uint]*model.RestaurantImage{}},
	}
	s.Users = &Users{rows: map[uint]*model.User{}, restaurants: s.Restaurants}
	s.Reviews.users = s.Users
	s.Restaurants.reviews = s.Reviews
	return s
}

// Users is an in-memory repository.UserRepository
type Users struct {
	mu          sync.Mutex
	rows        map[uint]*model.User
	nextID      uint
	restaurants *Restaurants
	Err         error
}

var _ repository.UserRepository = (*Users)(nil)

func (u *Users) Register(ctx context.Context, user *model.User, createRestaurant bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	for _, existing := range u.rows {
		if strings.EqualFold(existing.Username, user.Username) || strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	u.nextID++
	user.ID = u.nextID
	user.CreatedAt = time.Now()
	cp := *user
	u.rows[user.ID] = &cp
	if createRestaurant {
		return u.restaurants.Create(ctx, &model.Restaurant{ID: user.ID})
	}
	return nil
}

// Put stores user as-is, assigning an ID when it has none
func (u *Users) Put(user *model.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user.ID == 0 {
		u.nextID++
		user.ID = u.nextID
	} else if user.ID > u.nextID {
		u.nextID = user.ID
	}
	cp := *user
	u.rows[user.ID] = &cp
}

// Get returns a copy of the stored user, or nil
func (u *Users) Get(id uint) *model.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	if row, ok := u.rows[id]; ok {
		cp := *row
		return &cp
	}
	return nil
}

func (u *Users) find(match func(*model.User) bool) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	for _, row := range u.rows {
		if match(row) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *Users) FindByID(_ context.Context, id uint) (*model.User, error) {
	return u.find(func(row *model.User) bool { return row.ID == id })
}

func (u *Users) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return u.find(func(row *model.User) bool { return strings.EqualFold(row.Username, username) })
}

func (u *Users) FindByEmailOrUsername(_ context.Context, value string) (*model.User, error) {
	return u.find(func(row *model.User) bool {
		return strings.EqualFold(row.Username, value) || strings.EqualFold(row.Email, value)
	})
}

func (u *Users) FindByVerificationToken(_ context.Context, token string) (*model.User, error) {
	return u.find(func(row *model.User) bool { return token != "" && row.VerificationToken == token })
}

func (u *Users) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, err := u.find(func(row *model.User) bool {
		return strings.EqualFold(row.Username, username) || strings.EqualFold(row.Email, email)
	})
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (u *Users) Update(_ context.Context, id uint, fields map[string]interface{}) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	row, ok := u.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "password_hash":
			row.PasswordHash = v.(string)
		case "is_verified":
			row.IsVerified = v.(bool)
		case "verification_token":
			row.VerificationToken = v.(string)
		case "verification_token_expiry":
			row.VerificationTokenExpiry = timePtr(v)
		case "two_factor_code":
			row.TwoFactorCode = v.(string)
		case "two_factor_expiry":
			row.TwoFactorExpiry = timePtr(v)
		case "reset_token":
			row.ResetToken = v.(string)
		case "reset_token_expiry":
			row.ResetTokenExpiry = timePtr(v)
		default:
			panic("repotest: unsupported user field " + k)
		}
	}
	return nil
}

func (u *Users) ClearExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var n int64
	for _, row := range u.rows {
		if row.VerificationTokenExpiry != nil && row.VerificationTokenExpiry.Before(now) {
			row.VerificationToken, row.VerificationTokenExpiry = "", nil
			n++
		}
		if row.TwoFactorExpiry != nil && row.TwoFactorExpiry.Before(now) {
			row.TwoFactorCode, row.TwoFactorExpiry = "", nil
			n++
		}
		if row.ResetTokenExpiry != nil && row.ResetTokenExpiry.Before(now) {
			row.ResetToken, row.ResetTokenExpiry = "", nil
			n++
		}
	}
	return n, nil
}

func timePtr(v interface{}) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	}
	return nil
}

// Restaurants is an in-memory repository.RestaurantRepository
type Restaurants struct {
	mu      sync.Mutex
	rows    map[uint]*model.Restaurant
	reviews *Reviews
	Err     error
}

var _ repository.RestaurantRepository = (*Restaurants)(nil)

func (r *Restaurants) Create(_ context.Context, restaurant *model.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.rows[restaurant.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *restaurant
	r.rows[restaurant.ID] = &cp
	return nil
}

func (r *Restaurants) FindByID(_ context.Context, id uint) (*model.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *Restaurants) UpdateProfile(_ context.Context, restaurant *model.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	row, ok := r.rows[restaurant.ID]
	if !ok {
		return repository.ErrNotFound
	}
	profile, logo := row.ProfilePhoto, row.LogoPhoto
	*row = *restaurant
	row.ProfilePhoto, row.LogoPhoto = profile, logo
	return nil
}

func (r *Restaurants) UpdatePhoto(_ context.Context, id uint, column, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch column {
	case repository.PhotoColumnProfile:
		row.ProfilePhoto = path
	case repository.PhotoColumnLogo:
		row.LogoPhoto = path
	}
	return nil
}

func (r *Restaurants) Search(ctx context.Context, criteria repository.SearchCriteria) ([]model.RestaurantSearchResult, error) {
	r.mu.Lock()
	rows := make([]model.Restaurant, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, *row)
	}
	r.mu.Unlock()

	var out []model.RestaurantSearchResult
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		if len(criteria.Cuisines) > 0 && !containsFold(criteria.Cuisines, row.Cuisine) {
			continue
		}
		if criteria.City != "" && !strings.EqualFold(criteria.City, row.City) {
			continue
		}
		if criteria.State != "" && strings.ToUpper(criteria.State) != row.State {
			continue
		}
		reviews, _ := r.reviews.ListByRestaurant(ctx, row.ID, 0)
		avg := model.Averages(reviews)
		out = append(out, model.RestaurantSearchResult{
			RestaurantID: row.ID, Name: row.Name, LogoPhoto: row.LogoPhoto,
			Cuisine: row.Cuisine, City: row.City, State: row.State,
			OverallRating: avg.Overall, ReviewCount: len(reviews), AveragePriceRating: avg.Price,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OverallRating != out[j].OverallRating {
			return out[i].OverallRating > out[j].OverallRating
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *Restaurants) DistinctCuisines(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	seen := map[string]bool{}
	var out []string
	for _, row := range r.rows {
		if row.Cuisine != "" && !seen[row.Cuisine] {
			seen[row.Cuisine] = true
			out = append(out, row.Cuisine)
		}
	}
	sort.Strings(out)
	return out, nil
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

// Reviews is an in-memory repository.ReviewRepository
type Reviews struct {
	mu     sync.Mutex
	rows   map[uint]*model.Review
	nextID uint
	users  *Users
	Err    error
}

var _ repository.ReviewRepository = (*Reviews)(nil)

func (r *Reviews) Create(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.nextID++
	review.ID = r.nextID
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	review.ModifiedAt = review.CreatedAt
	cp := *review
	r.rows[review.ID] = &cp
	return nil
}

func (r *Reviews) withUsername(row *model.Review) model.Review {
	cp := *row
	if u := r.users.Get(row.UserID); u != nil {
		cp.Username = u.Username
	}
	return cp
}

func (r *Reviews) FindByID(_ context.Context, id uint) (*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := r.withUsername(row)
	return &cp, nil
}

func (r *Reviews) list(match func(*model.Review) bool) []model.Review {
	var out []model.Review
	for _, row := range r.rows {
		if match(row) {
			out = append(out, r.withUsername(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *Reviews) ListByRestaurant(_ context.Context, restaurantID uint, limit int) ([]model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := r.list(func(row *model.Review) bool { return row.RestaurantID == restaurantID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Reviews) ListByUser(_ context.Context, userID uint) ([]model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.list(func(row *model.Review) bool { return row.UserID == userID }), nil
}

func (r *Reviews) Update(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[review.ID]
	if !ok {
		return repository.ErrNotFound
	}
	row.VisitDate = review.VisitDate
	row.Comments = review.Comments
	row.FoodQuality = review.FoodQuality
	row.ServiceRating = review.ServiceRating
	row.AtmosphereRating = review.AtmosphereRating
	row.PriceRating = review.PriceRating
	row.ModifiedAt = time.Now()
	return nil
}

func (r *Reviews) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// Reservations is an in-memory repository.ReservationRepository
type Reservations struct {
	mu     sync.Mutex
	rows   map[uint]*model.Reservation
	nextID uint
	Err    error
}

var _ repository.ReservationRepository = (*Reservations)(nil)

func (r *Reservations) Create(_ context.Context, reservation *model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.nextID++
	reservation.ID = r.nextID
	reservation.CreatedAt = time.Now()
	cp := *reservation
	r.rows[reservation.ID] = &cp
	return nil
}

func (r *Reservations) FindByID(_ context.Context, id uint) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *Reservations) list(match func(*model.Reservation) bool) ([]model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []model.Reservation
	for _, row := range r.rows {
		if match(row) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ReservationDateTime.Before(out[j].ReservationDateTime)
	})
	return out, nil
}

func (r *Reservations) ListByRestaurant(_ context.Context, restaurantID uint, status string) ([]model.Reservation, error) {
	return r.list(func(row *model.Reservation) bool {
		return row.RestaurantID == restaurantID && (status == "" || row.Status == status)
	})
}

func (r *Reservations) ListByRestaurantSince(_ context.Context, restaurantID uint, since time.Time) ([]model.Reservation, error) {
	return r.list(func(row *model.Reservation) bool {
		return row.RestaurantID == restaurantID && !row.ReservationDateTime.Before(since)
	})
}

func (r *Reservations) ListByUser(_ context.Context, userID uint) ([]model.Reservation, error) {
	return r.list(func(row *model.Reservation) bool { return row.UserID != nil && *row.UserID == userID })
}

func (r *Reservations) Upcoming(_ context.Context, restaurantID uint, from time.Time, limit int) ([]model.Reservation, error) {
	out, err := r.list(func(row *model.Reservation) bool {
		return row.RestaurantID == restaurantID && !row.ReservationDateTime.Before(from) &&
			(row.Status == model.StatusPending || row.Status == model.StatusConfirmed)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *Reservations) CountByStatus(ctx context.Context, restaurantID uint, status string) (int64, error) {
	out, err := r.ListByRestaurant(ctx, restaurantID, status)
	return int64(len(out)), err
}

func (r *Reservations) UpdateStatus(_ context.Context, id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Status = status
	return nil
}

func (r *Reservations) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// Images is an in-memory repository.ImageRepository
type Images struct {
	mu     sync.Mutex
	rows   map[uint]*model.RestaurantImage
	nextID uint
	Err    error
}

var _ repository.ImageRepository = (*Images)(nil)

func (r *Images) ListByRestaurant(_ context.Context, restaurantID uint) ([]model.RestaurantImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []model.RestaurantImage
	for _, row := range r.rows {
		if row.RestaurantID == restaurantID {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].UploadDate.Before(out[j].UploadDate)
	})
	return out, nil
}

func (r *Images) FindByID(_ context.Context, id uint) (*model.RestaurantImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *Images) Create(_ context.Context, image *model.RestaurantImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	maxOrder := 0
	for _, row := range r.rows {
		if row.RestaurantID == image.RestaurantID && row.DisplayOrder > maxOrder {
			maxOrder = row.DisplayOrder
		}
	}
	r.nextID++
	image.ID = r.nextID
	image.DisplayOrder = maxOrder + 1
	image.UploadDate = time.Now()
	cp := *image
	r.rows[image.ID] = &cp
	return nil
}

func (r *Images) UpdateCaption(_ context.Context, id uint, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Caption = caption
	return nil
}

func (r *Images) Delete(_ context.Context, id uint, afterDelete func(*model.RestaurantImage) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if afterDelete != nil {
		if err := afterDelete(row); err != nil {
			return err
		}
	}
	delete(r.rows, id)
	return nil
}
