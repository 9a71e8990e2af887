package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/cache"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/storage"
	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"go.uber.org/zap"
)

const (
	cuisinesCacheKey = "cuisines:all"
	cuisinesCacheTTL = time.Hour
)

// fallbackCuisines is served when the database has none or cannot be reached
var fallbackCuisines = []string{
	"American", "Chinese", "French", "Greek", "Indian", "Italian", "Japanese",
	"Korean", "Mediterranean", "Mexican", "Seafood", "Steakhouse", "Thai", "Vietnamese",
}

// Upload is a file received from a multipart form
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type RestaurantService struct {
	restaurants    repository.RestaurantRepository
	reviews        repository.ReviewRepository
	images         repository.ImageRepository
	store          storage.Store
	cache          cache.Cache
	maxUploadBytes int64
	log            *zap.Logger
}

func NewRestaurantService(
	restaurants repository.RestaurantRepository,
	reviews repository.ReviewRepository,
	images repository.ImageRepository,
	store storage.Store,
	c cache.Cache,
	maxUploadBytes int64,
	log *zap.Logger,
) *RestaurantService {
	return &RestaurantService{
		restaurants:    restaurants,
		reviews:        reviews,
		images:         images,
		store:          store,
		cache:          c,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

func (s *RestaurantService) Search(ctx context.Context, criteria repository.SearchCriteria) ([]model.RestaurantSearchResult, error) {
	results, err := s.restaurants.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("search restaurants: %w", err)
	}
	if results == nil {
		results = []model.RestaurantSearchResult{}
	}
	prometheus.RecordRestaurantOperation("search")
	return results, nil
}

// Cuisines returns the distinct cuisines, cached for an hour
func (s *RestaurantService) Cuisines(ctx context.Context) []string {
	var cuisines []string
	if cache.GetJSON(ctx, s.cache, cuisinesCacheKey, &cuisines) && len(cuisines) > 0 {
		return cuisines
	}

	cuisines, err := s.restaurants.DistinctCuisines(ctx)
	if err != nil {
		s.log.Warn("Failed to load cuisines, using fallback list", zap.Error(err))
		return fallbackCuisines
	}
	if len(cuisines) == 0 {
		return fallbackCuisines
	}

	if err := cache.SetJSON(ctx, s.cache, cuisinesCacheKey, cuisines, cuisinesCacheTTL); err != nil {
		s.log.Warn("Failed to cache cuisines", zap.Error(err))
	}
	return cuisines
}

func (s *RestaurantService) Detail(ctx context.Context, id uint) (*model.RestaurantDetail, error) {
	restaurant, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Restaurant with ID %d not found.", id)
	}

	reviews, err := s.reviews.ListByRestaurant(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	images, err := s.images.ListByRestaurant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	if images == nil {
		images = []model.RestaurantImage{}
	}

	return &model.RestaurantDetail{
		Profile:        *restaurant,
		Reviews:        reviews,
		GalleryImages:  images,
		AverageRatings: model.Averages(reviews),
		ReviewCount:    len(reviews),
	}, nil
}

// Create fills in the caller's restaurant profile. Reps get an empty
// placeholder row at registration; only a profile with a name counts as
// existing.
func (s *RestaurantService) Create(ctx context.Context, caller *Caller, restaurant *model.Restaurant) error {
	if caller == nil || caller.Role != model.RoleRestaurantRep {
		return newError(ErrForbidden, "Only restaurant representatives can create a profile.")
	}
	if strings.TrimSpace(restaurant.Name) == "" {
		return newError(ErrInvalidInput, "Restaurant name is required.")
	}
	restaurant.ID = caller.UserID
	restaurant.State = strings.ToUpper(strings.TrimSpace(restaurant.State))

	existing, err := s.restaurants.FindByID(ctx, caller.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := s.restaurants.Create(ctx, restaurant); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return newError(ErrConflict, "A restaurant profile already exists for this account.")
			}
			return fmt.Errorf("create restaurant: %w", err)
		}
	case err != nil:
		return fmt.Errorf("find restaurant: %w", err)
	case existing.Name != "":
		return newError(ErrConflict, "A restaurant profile already exists for this account.")
	default:
		if err := s.restaurants.UpdateProfile(ctx, restaurant); err != nil {
			return fmt.Errorf("fill restaurant profile: %w", err)
		}
	}

	s.invalidateCuisines(ctx)
	prometheus.RecordRestaurantOperation("create")
	s.log.Info("Restaurant profile created", zap.Uint("restaurant_id", restaurant.ID))
	return nil
}

func (s *RestaurantService) Update(ctx context.Context, caller *Caller, routeID uint, restaurant *model.Restaurant) error {
	if restaurant.ID != routeID {
		return newError(ErrInvalidInput, "Restaurant ID mismatch.")
	}
	if !caller.OwnsRestaurant(routeID) {
		return newError(ErrForbidden, "You can only edit your own restaurant.")
	}
	restaurant.State = strings.ToUpper(strings.TrimSpace(restaurant.State))

	if err := s.restaurants.UpdateProfile(ctx, restaurant); err != nil {
		return notFound(err, "Restaurant with ID %d not found.", routeID)
	}

	s.invalidateCuisines(ctx)
	prometheus.RecordRestaurantOperation("update")
	return nil
}

// ReplacePhoto stores a new profile photo or logo and removes the old file
func (s *RestaurantService) ReplacePhoto(ctx context.Context, caller *Caller, restaurantID uint, kind storage.Kind, upload Upload) (string, error) {
	if !caller.OwnsRestaurant(restaurantID) {
		return "", newError(ErrForbidden, "You can only edit your own restaurant.")
	}

	var column string
	switch kind {
	case storage.KindProfile:
		column = repository.PhotoColumnProfile
	case storage.KindLogo:
		column = repository.PhotoColumnLogo
	default:
		return "", newError(ErrInvalidInput, "Unsupported photo kind.")
	}

	ext, err := storage.ValidateUpload(upload.Filename, upload.Size, s.maxUploadBytes)
	if err != nil {
		prometheus.RecordUpload(string(kind), err)
		return "", uploadError(err, s.maxUploadBytes)
	}

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return "", notFound(err, "Restaurant with ID %d not found.", restaurantID)
	}
	previous := restaurant.ProfilePhoto
	if kind == storage.KindLogo {
		previous = restaurant.LogoPhoto
	}

	url, err := s.store.Save(ctx, restaurantID, kind, ext, upload.Content)
	prometheus.RecordUpload(string(kind), err)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", kind, err)
	}

	if err := s.restaurants.UpdatePhoto(ctx, restaurantID, column, url); err != nil {
		s.removeFile(ctx, url)
		return "", notFound(err, "Restaurant with ID %d not found.", restaurantID)
	}

	if previous != "" {
		s.removeFile(ctx, previous)
	}

	prometheus.RecordRestaurantOperation("update_" + string(kind))
	return url, nil
}

func (s *RestaurantService) ListImages(ctx context.Context, restaurantID uint) ([]model.RestaurantImage, error) {
	images, err := s.images.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	if images == nil {
		images = []model.RestaurantImage{}
	}
	return images, nil
}

func (s *RestaurantService) AddImage(ctx context.Context, caller *Caller, restaurantID uint, caption string, upload Upload) (*model.RestaurantImage, error) {
	if !caller.OwnsRestaurant(restaurantID) {
		return nil, newError(ErrForbidden, "You can only manage your own gallery.")
	}

	ext, err := storage.ValidateUpload(upload.Filename, upload.Size, s.maxUploadBytes)
	if err != nil {
		prometheus.RecordUpload(string(storage.KindGallery), err)
		return nil, uploadError(err, s.maxUploadBytes)
	}

	if _, err := s.restaurants.FindByID(ctx, restaurantID); err != nil {
		return nil, notFound(err, "Restaurant with ID %d not found.", restaurantID)
	}

	url, err := s.store.Save(ctx, restaurantID, storage.KindGallery, ext, upload.Content)
	prometheus.RecordUpload(string(storage.KindGallery), err)
	if err != nil {
		return nil, fmt.Errorf("store gallery image: %w", err)
	}

	image := &model.RestaurantImage{
		RestaurantID: restaurantID,
		ImagePath:    url,
		Caption:      strings.TrimSpace(caption),
	}
	if err := s.images.Create(ctx, image); err != nil {
		s.removeFile(ctx, url)
		return nil, fmt.Errorf("create gallery image: %w", err)
	}

	prometheus.RecordRestaurantOperation("add_image")
	return image, nil
}

func (s *RestaurantService) UpdateCaption(ctx context.Context, caller *Caller, restaurantID, imageID uint, caption string) error {
	if !caller.OwnsRestaurant(restaurantID) {
		return newError(ErrForbidden, "You can only manage your own gallery.")
	}
	if _, err := s.galleryImage(ctx, restaurantID, imageID); err != nil {
		return err
	}
	if err := s.images.UpdateCaption(ctx, imageID, strings.TrimSpace(caption)); err != nil {
		return notFound(err, "Image with ID %d not found.", imageID)
	}
	prometheus.RecordRestaurantOperation("update_caption")
	return nil
}

// DeleteImage removes the row and the stored file together; if the file
// cannot be removed the row is kept.
func (s *RestaurantService) DeleteImage(ctx context.Context, caller *Caller, restaurantID, imageID uint) error {
	if !caller.OwnsRestaurant(restaurantID) {
		return newError(ErrForbidden, "You can only manage your own gallery.")
	}
	if _, err := s.galleryImage(ctx, restaurantID, imageID); err != nil {
		return err
	}

	err := s.images.Delete(ctx, imageID, func(image *model.RestaurantImage) error {
		return s.store.Delete(ctx, image.ImagePath)
	})
	if err != nil {
		return notFound(err, "Image with ID %d not found.", imageID)
	}
	prometheus.RecordRestaurantOperation("delete_image")
	return nil
}

func (s *RestaurantService) galleryImage(ctx context.Context, restaurantID, imageID uint) (*model.RestaurantImage, error) {
	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return nil, notFound(err, "Image with ID %d not found.", imageID)
	}
	if image.RestaurantID != restaurantID {
		return nil, newError(ErrNotFound, "Image with ID %d not found.", imageID)
	}
	return image, nil
}

func (s *RestaurantService) invalidateCuisines(ctx context.Context) {
	if err := s.cache.Delete(ctx, cuisinesCacheKey); err != nil {
		s.log.Warn("Failed to invalidate cuisine cache", zap.Error(err))
	}
}

func (s *RestaurantService) removeFile(ctx context.Context, url string) {
	if err := s.store.Delete(ctx, url); err != nil {
		s.log.Warn("Failed to delete stored file", zap.String("url", url), zap.Error(err))
	}
}

func uploadError(err error, maxBytes int64) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return newError(ErrInvalidInput, "File size exceeds the %d MB limit.", maxBytes/(1024*1024))
	case errors.Is(err, storage.ErrUnsupportedType):
		return newError(ErrInvalidInput, "Only .jpg, .jpeg, .png and .gif files are allowed.")
	case errors.Is(err, storage.ErrEmptyFile):
		return newError(ErrInvalidInput, "Please select a file to upload.")
	}
	return newError(ErrInvalidInput, "%s", err.Error())
}
