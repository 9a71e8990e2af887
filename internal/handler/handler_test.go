package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository/repotest"
	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/cache"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/config"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/events"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/jwtutil"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/mailer"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const maxUpload = 5 * 1024 * 1024

type body = map[string]interface{}

func init() {
	logger.SetLogger(zap.NewNop())
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Dispatch(msg mailer.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

type testServer struct {
	e     *echo.Echo
	store *repotest.Store
	jwt   *jwtutil.JWTUtil
	mail  *outbox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLimiter(t, middleware.NewRateLimiter(1000, 1000))
}

func newTestServerWithLimiter(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()

	log := zap.NewNop()
	store := repotest.New()
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	mail := &outbox{}
	notifier := events.NewNotifier(events.NopPublisher{}, log, time.Second)
	files := storage.NewLocalStore(t.TempDir(), "/uploads")

	accounts := service.NewAccountService(store.Users, jwt, mail, service.AccountConfig{
		WebAppURL:       "http://web.test",
		TwoFactorTTL:    15 * time.Minute,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}, log)
	restaurants := service.NewRestaurantService(store.Restaurants, store.Reviews, store.Images, files,
		cache.NewMemoryCache(16, time.Hour), maxUpload, log)
	reviews := service.NewReviewService(store.Reviews, store.Restaurants, notifier, log)
	reservations := service.NewReservationService(store.Reservations, store.Restaurants, notifier, mail, log)
	insights := service.NewInsightService(store.Restaurants, store.Reviews, store.Reservations)

	e := echo.New()
	e.Validator = NewValidator()
	RegisterRoutes(e, Handlers{
		Account:      NewAccountHandler(accounts),
		Restaurants:  NewRestaurantHandler(restaurants),
		Reviews:      NewReviewHandler(reviews),
		Reservations: NewReservationHandler(reservations),
		Charts:       NewChartHandler(insights),
		Dashboard:    NewDashboardHandler(insights),
	}, middleware.NewAuth(jwt), limiter)

	return &testServer{e: e, store: store, jwt: jwt, mail: mail}
}

func (s *testServer) token(t *testing.T, id uint, role string) string {
	t.Helper()
	token, err := s.jwt.GenerateToken(id, "user", "user@example.com", role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return s.send(req, token)
}

func (s *testServer) upload(path, filename string, content []byte, fields map[string]string, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	part, _ := w.CreateFormFile("file", filename)
	_, _ = part.Write(content)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedRestaurant(t *testing.T, id uint, name string) {
	t.Helper()
	require.NoError(t, s.store.Restaurants.Create(context.Background(), &model.Restaurant{
		ID:      id,
		Name:    name,
		City:    "Philadelphia",
		State:   "PA",
		Cuisine: "Italian",
	}))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	decodeJSON(t, rec, &resp)
	return resp["error"]
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
