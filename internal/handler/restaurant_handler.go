package handler

import (
	"net/http"
	"strings"

	"github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type CaptionRequest struct {
	Caption string `json:"caption" validate:"max=500"`
}

// RestaurantHandler serves /api/restaurants
type RestaurantHandler struct {
	restaurants *service.RestaurantService
}

func NewRestaurantHandler(restaurants *service.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurants: restaurants}
}

// Search filters restaurants by cuisine list, city and state
func (h *RestaurantHandler) Search(c echo.Context) error {
	log := logger.FromContext(c)

	criteria := repository.SearchCriteria{
		City:  strings.TrimSpace(c.QueryParam("city")),
		State: strings.ToUpper(strings.TrimSpace(c.QueryParam("state"))),
	}
	for _, cuisine := range strings.Split(c.QueryParam("cuisines"), ",") {
		if cuisine = strings.TrimSpace(cuisine); cuisine != "" {
			criteria.Cuisines = append(criteria.Cuisines, cuisine)
		}
	}

	results, err := h.restaurants.Search(c.Request().Context(), criteria)
	if err != nil {
		return respondError(c, err, "search restaurants")
	}

	log.Info("Restaurant search completed",
		zap.Strings("cuisines", criteria.Cuisines),
		zap.String("city", criteria.City),
		zap.String("state", criteria.State),
		zap.Int("count", len(results)))
	return c.JSON(http.StatusOK, results)
}

func (h *RestaurantHandler) Cuisines(c echo.Context) error {
	return c.JSON(http.StatusOK, h.restaurants.Cuisines(c.Request().Context()))
}

func (h *RestaurantHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	detail, err := h.restaurants.Detail(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "load restaurant")
	}
	return c.JSON(http.StatusOK, detail)
}

// Create fills in the calling rep's restaurant profile
func (h *RestaurantHandler) Create(c echo.Context) error {
	var restaurant model.Restaurant
	if err := decode(c, &restaurant); err != nil {
		return badRequest(c, err)
	}

	if err := h.restaurants.Create(c.Request().Context(), middleware.CallerFromContext(c), &restaurant); err != nil {
		return respondError(c, err, "create restaurant")
	}
	return c.JSON(http.StatusCreated, restaurant)
}

func (h *RestaurantHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	var restaurant model.Restaurant
	if err := decode(c, &restaurant); err != nil {
		return badRequest(c, err)
	}

	if err := h.restaurants.Update(c.Request().Context(), middleware.CallerFromContext(c), id, &restaurant); err != nil {
		return respondError(c, err, "update restaurant")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RestaurantHandler) UploadProfilePhoto(c echo.Context) error {
	return h.replacePhoto(c, storage.KindProfile)
}

func (h *RestaurantHandler) UploadLogo(c echo.Context) error {
	return h.replacePhoto(c, storage.KindLogo)
}

func (h *RestaurantHandler) replacePhoto(c echo.Context, kind storage.Kind) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	upload, closeFn, err := formUpload(c)
	if err != nil {
		return badRequest(c, err)
	}
	defer closeFn()

	url, err := h.restaurants.ReplacePhoto(c.Request().Context(), middleware.CallerFromContext(c), id, kind, upload)
	if err != nil {
		return respondError(c, err, "upload "+string(kind))
	}

	logger.FromContext(c).Info("Restaurant photo replaced",
		zap.Uint("restaurant_id", id),
		zap.String("kind", string(kind)),
		zap.String("url", url))
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

func (h *RestaurantHandler) ListImages(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	images, err := h.restaurants.ListImages(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "list images")
	}
	return c.JSON(http.StatusOK, images)
}

func (h *RestaurantHandler) AddImage(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	upload, closeFn, err := formUpload(c)
	if err != nil {
		return badRequest(c, err)
	}
	defer closeFn()

	image, err := h.restaurants.AddImage(c.Request().Context(), middleware.CallerFromContext(c), id, c.FormValue("caption"), upload)
	if err != nil {
		return respondError(c, err, "upload image")
	}
	return c.JSON(http.StatusCreated, image)
}

func (h *RestaurantHandler) UpdateCaption(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	imageID, ok := parseID(c, "imageId")
	if !ok {
		return invalidID(c, "imageId")
	}

	var req CaptionRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.restaurants.UpdateCaption(c.Request().Context(), middleware.CallerFromContext(c), id, imageID, req.Caption); err != nil {
		return respondError(c, err, "update caption")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RestaurantHandler) DeleteImage(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	imageID, ok := parseID(c, "imageId")
	if !ok {
		return invalidID(c, "imageId")
	}

	if err := h.restaurants.DeleteImage(c.Request().Context(), middleware.CallerFromContext(c), id, imageID); err != nil {
		return respondError(c, err, "delete image")
	}
	return c.NoContent(http.StatusNoContent)
}

// formUpload opens the multipart "file" field
func formUpload(c echo.Context) (service.Upload, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		logger.FromContext(c).Warn("Missing upload", zap.Error(err))
		return service.Upload{}, nil, errNoFile
	}
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, nil, errNoFile
	}
	return service.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}, func() { f.Close() }, nil
}
