package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestUserRepositoryFindByUsernameNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE LOWER\(username\) = LOWER\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "email", "user_type", "is_verified"}).
		AddRow(3, "carol", "carol@example.com", model.RoleReviewer, true)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).WillReturnRows(rows)

	user, err := repo.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
	assert.True(t, user.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRegisterDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Register(context.Background(), &model.User{Username: "dave", Email: "dave@example.com"}, false)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryClearExpiredTokens(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE "users" SET .*WHERE verification_token_expiry < \$`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "users" SET .*WHERE two_factor_expiry < \$`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET .*WHERE reset_token_expiry < \$`).WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.ClearExpiredTokens(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepository(db)

	mock.ExpectExec(`UPDATE "reservations" SET "status"=\$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), 5, model.StatusConfirmed))

	mock.ExpectExec(`UPDATE "reservations" SET "status"=\$1`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), 6, model.StatusConfirmed), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectExec(`DELETE FROM "reviews" WHERE "reviews"."id" = \$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 9))

	mock.ExpectExec(`DELETE FROM "reviews"`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 10), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestaurantRepositoryDistinctCuisines(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRestaurantRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT .*cuisine.* FROM "restaurants"`).
		WillReturnRows(sqlmock.NewRows([]string{"cuisine"}).AddRow("Italian").AddRow("Thai"))

	cuisines, err := repo.DistinctCuisines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Italian", "Thai"}, cuisines)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestaurantRepositorySearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRestaurantRepository(db)

	rows := sqlmock.NewRows([]string{
		"restaurant_id", "name", "logo_photo", "cuisine", "city", "state",
		"overall_rating", "review_count", "average_price_rating",
	}).AddRow(4, "Trattoria", "/uploads/logo.png", "Italian", "Philadelphia", "PA", 4.3, 12, 2.5)

	mock.ExpectQuery(`LEFT JOIN reviews ON reviews.restaurant_id = restaurants.id .*LOWER\(restaurants.cuisine\) IN .*LOWER\(restaurants.city\) = .*restaurants.state = `).
		WillReturnRows(rows)

	results, err := repo.Search(context.Background(), SearchCriteria{
		Cuisines: []string{"Italian", " "},
		City:     "philadelphia",
		State:    "pa",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(4), results[0].RestaurantID)
	assert.Equal(t, 4.3, results[0].OverallRating)
	assert.Equal(t, 12, results[0].ReviewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImageRepositoryDeleteRollsBackOnCallbackError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImageRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "restaurant_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "restaurant_id", "image_path"}).AddRow(2, 4, "/uploads/a.jpg"))
	mock.ExpectExec(`DELETE FROM "restaurant_images"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 2, func(img *model.RestaurantImage) error {
		assert.Equal(t, "/uploads/a.jpg", img.ImagePath)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
