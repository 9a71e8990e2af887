package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Username: "alice", Email: "alice@example.com",
		Password: "secret1", ConfirmPassword: "secret1",
		UserType:          "restaurantrep",
		SecurityQuestion1: "First pet?", SecurityAnswer1: " Rex ",
		SecurityQuestion2: "Home town?", SecurityAnswer2: "Springfield",
		SecurityQuestion3: "Favourite food?", SecurityAnswer3: "Pizza",
	}
}

func TestRegisterCreatesUnverifiedUserAndRestaurant(t *testing.T) {
	svc, store, mail := newAccountService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	stored := store.Users.Get(user.ID)
	require.NotNil(t, stored)
	assert.Equal(t, model.RoleRestaurantRep, stored.UserType)
	assert.False(t, stored.IsVerified)
	assert.NotEmpty(t, stored.VerificationToken)
	assert.Equal(t, testNow.Add(24*time.Hour), *stored.VerificationTokenExpiry)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.SecurityAnswerHash1), []byte("rex")))

	_, err = store.Restaurants.FindByID(ctx, user.ID)
	assert.NoError(t, err)

	msg := mail.last()
	assert.Equal(t, mailer.TemplateVerification, msg.Template)
	assert.Contains(t, msg.HTMLBody, "http://web.test/Account/Verify?token=")
}

func TestRegisterReviewerHasNoRestaurant(t *testing.T) {
	svc, store, _ := newAccountService(t)
	in := validRegistration()
	in.UserType = "Reviewer"

	user, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	_, err = store.Restaurants.FindByID(context.Background(), user.ID)
	assert.Error(t, err)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _, _ := newAccountService(t)

	cases := map[string]func(*RegisterInput){
		"short password": func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abc" },
		"mismatch":       func(in *RegisterInput) { in.ConfirmPassword = "other12" },
		"bad role":       func(in *RegisterInput) { in.UserType = "admin" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validRegistration()
			mutate(&in)
			_, err := svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newAccountService(t)
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	in := validRegistration()
	in.Username = "ALICE"
	_, err = svc.Register(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Registration failed. Username or email may already exist.", err.Error())
}

func TestLoginVerifiedUserGetsToken(t *testing.T) {
	svc, store, _ := newAccountService(t)
	store.Users.Put(&model.User{Username: "bob", Email: "bob@example.com", PasswordHash: mustHash(t, "pw1234"), UserType: model.RoleReviewer, IsVerified: true})

	resp, err := svc.Login(context.Background(), "Bob", "pw1234")
	require.NoError(t, err)
	assert.True(t, resp.IsAuthenticated)
	assert.True(t, resp.IsVerified)
	assert.False(t, resp.RequiresTwoFactor)
	require.NotEmpty(t, resp.Token)

	claims, err := newTestJWT().ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, model.RoleReviewer, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, store, _ := newAccountService(t)
	store.Users.Put(&model.User{Username: "bob", Email: "bob@example.com", PasswordHash: mustHash(t, "pw1234"), IsVerified: true})

	_, err := svc.Login(context.Background(), "bob", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid username or password.", err.Error())

	_, err = svc.Login(context.Background(), "nobody", "pw1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnverifiedRequiresTwoFactor(t *testing.T) {
	svc, store, mail := newAccountService(t)
	store.Users.Put(&model.User{Username: "carl", Email: "carl@example.com", PasswordHash: mustHash(t, "pw1234"), UserType: model.RoleReviewer})

	resp, err := svc.Login(context.Background(), "carl", "pw1234")
	require.NoError(t, err)
	assert.True(t, resp.RequiresTwoFactor)
	assert.False(t, resp.IsVerified)
	assert.Empty(t, resp.Token)

	stored := store.Users.Get(resp.UserID)
	require.Len(t, stored.TwoFactorCode, 6)
	assert.Equal(t, testNow.Add(15*time.Minute), *stored.TwoFactorExpiry)
	assert.Equal(t, mailer.TemplateTwoFactor, mail.last().Template)
	assert.Contains(t, mail.last().HTMLBody, stored.TwoFactorCode)
}

func TestVerifyTwoFactor(t *testing.T) {
	svc, store, _ := newAccountService(t)
	expiry := testNow.Add(5 * time.Minute)
	store.Users.Put(&model.User{Username: "dana", Email: "dana@example.com", UserType: model.RoleReviewer, TwoFactorCode: "123456", TwoFactorExpiry: &expiry})
	ctx := context.Background()

	_, err := svc.VerifyTwoFactor(ctx, 1, "654321")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid verification code. Please try again.", err.Error())

	resp, err := svc.VerifyTwoFactor(ctx, 1, "123456")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	stored := store.Users.Get(1)
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.TwoFactorCode)

	// the code is single use
	_, err = svc.VerifyTwoFactor(ctx, 1, "123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTwoFactorExpired(t *testing.T) {
	svc, store, _ := newAccountService(t)
	expiry := testNow.Add(-time.Second)
	store.Users.Put(&model.User{Username: "eve", Email: "eve@example.com", TwoFactorCode: "123456", TwoFactorExpiry: &expiry})

	_, err := svc.VerifyTwoFactor(context.Background(), 1, "123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResendTwoFactor(t *testing.T) {
	svc, store, mail := newAccountService(t)
	store.Users.Put(&model.User{Username: "fay", Email: "fay@example.com"})
	store.Users.Put(&model.User{Username: "gus", Email: "gus@example.com", IsVerified: true})

	require.NoError(t, svc.ResendTwoFactor(context.Background(), 1))
	assert.Equal(t, []string{mailer.TemplateTwoFactor}, mail.templates())

	assert.ErrorIs(t, svc.ResendTwoFactor(context.Background(), 2), ErrInvalidInput)
	assert.ErrorIs(t, svc.ResendTwoFactor(context.Background(), 42), ErrNotFound)
}

func TestConfirmEmail(t *testing.T) {
	svc, store, _ := newAccountService(t)
	valid := testNow.Add(time.Hour)
	old := testNow.Add(-time.Hour)
	store.Users.Put(&model.User{Username: "h", Email: "h@example.com", VerificationToken: "good", VerificationTokenExpiry: &valid})
	store.Users.Put(&model.User{Username: "i", Email: "i@example.com", VerificationToken: "stale", VerificationTokenExpiry: &old})
	ctx := context.Background()

	require.NoError(t, svc.ConfirmEmail(ctx, "good"))
	assert.True(t, store.Users.Get(1).IsVerified)
	assert.Empty(t, store.Users.Get(1).VerificationToken)

	for _, token := range []string{"good", "stale", "", "unknown"} {
		err := svc.ConfirmEmail(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken, token)
		assert.Equal(t, "Invalid or expired verification token.", err.Error())
	}
}

func TestForgotPasswordAndReset(t *testing.T) {
	svc, store, mail := newAccountService(t)
	store.Users.Put(&model.User{Username: "jo", Email: "jo@example.com", PasswordHash: mustHash(t, "oldpass")})
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.com"))
	assert.Empty(t, mail.templates())

	require.NoError(t, svc.ForgotPassword(ctx, "JO@example.com"))
	stored := store.Users.Get(1)
	require.NotEmpty(t, stored.ResetToken)
	assert.Equal(t, testNow.Add(time.Hour), *stored.ResetTokenExpiry)
	assert.Contains(t, mail.last().HTMLBody, "http://web.test/Account/ResetPassword?userId=1&amp;token=")

	err := svc.ResetPassword(ctx, ResetPasswordInput{UserID: 1, Token: "wrong", NewPassword: "newpass", ConfirmPassword: "newpass"})
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, "Invalid or expired reset token.", err.Error())

	err = svc.ResetPassword(ctx, ResetPasswordInput{UserID: 1, Token: stored.ResetToken, NewPassword: "newpass", ConfirmPassword: "newpass"})
	require.NoError(t, err)

	stored = store.Users.Get(1)
	assert.Empty(t, stored.ResetToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpass")))
	assert.Equal(t, mailer.TemplatePasswordChanged, mail.last().Template)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, store, _ := newAccountService(t)
	old := testNow.Add(-time.Minute)
	store.Users.Put(&model.User{Username: "k", Email: "k@example.com", ResetToken: "tok", ResetTokenExpiry: &old})

	err := svc.ResetPassword(context.Background(), ResetPasswordInput{UserID: 1, Token: "tok", NewPassword: "newpass", ConfirmPassword: "newpass"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForgotUsername(t *testing.T) {
	svc, store, mail := newAccountService(t)
	store.Users.Put(&model.User{Username: "lee", Email: "lee@example.com"})
	ctx := context.Background()

	require.NoError(t, svc.ForgotUsername(ctx, "lee"))
	assert.Empty(t, mail.templates())

	require.NoError(t, svc.ForgotUsername(ctx, "LEE@example.com"))
	assert.Equal(t, mailer.TemplateUsernameReminder, mail.last().Template)
	assert.Contains(t, mail.last().HTMLBody, "lee")
}

func TestSecurityQuestionFlow(t *testing.T) {
	svc, store, _ := newAccountService(t)
	store.Users.Put(&model.User{
		Username:          "max",
		Email:             "max@example.com",
		SecurityQuestion1: "First pet?", SecurityAnswerHash1: mustHash(t, "rex"),
		SecurityQuestion3: "Home town?", SecurityAnswerHash3: mustHash(t, "springfield"),
	})
	svc.pick = func(n int) int { return n - 1 }
	ctx := context.Background()

	n, q, err := svc.SecurityQuestion(ctx, "max")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "Home town?", q)

	_, _, err = svc.SecurityQuestion(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.VerifySecurityAnswer(ctx, "max", 3, "Shelbyville")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.VerifySecurityAnswer(ctx, "max", 2, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	userID, token, err := svc.VerifySecurityAnswer(ctx, "max", 3, "  SpringField ")
	require.NoError(t, err)
	assert.Equal(t, uint(1), userID)
	assert.Equal(t, token, store.Users.Get(1).ResetToken)

	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordInput{UserID: userID, Token: token, NewPassword: "brandnew", ConfirmPassword: "brandnew"}))
}

func TestTwoFactorCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateTwoFactorCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.False(t, strings.HasPrefix(code, "0"))
	}
}
