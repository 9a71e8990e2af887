package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/mailer"
	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgRegistrationFailed = "Registration failed. Username or email may already exist."
	msgInvalidLogin       = "Invalid username or password."
	msgInvalidCode        = "Invalid verification code. Please try again."
	msgInvalidVerifyToken = "Invalid or expired verification token."
	msgInvalidResetToken  = "Invalid or expired reset token."
	minPasswordLength     = 6
)

// TokenIssuer signs bearer tokens for authenticated users
type TokenIssuer interface {
	GenerateToken(userID uint, username, email, role string) (string, error)
}

// AccountConfig holds the lifetimes and links used by account flows
type AccountConfig struct {
	WebAppURL       string
	TwoFactorTTL    time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	BcryptCost      int
}

// AccountService implements registration, login with 2FA, email
// verification and password recovery.
type AccountService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	mail   MailDispatcher
	cfg    AccountConfig
	log    *zap.Logger
	now    func() time.Time
	pick   func(n int) int
}

func NewAccountService(users repository.UserRepository, tokens TokenIssuer, mail MailDispatcher, cfg AccountConfig, log *zap.Logger) *AccountService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	cfg.WebAppURL = strings.TrimRight(cfg.WebAppURL, "/")
	return &AccountService{
		users:  users,
		tokens: tokens,
		mail:   mail,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		pick:   rand.Intn,
	}
}

type RegisterInput struct {
	Username          string `json:"username" validate:"required,max=50"`
	Email             string `json:"email" validate:"required,email,max=100"`
	Password          string `json:"password" validate:"required,min=6"`
	ConfirmPassword   string `json:"confirm_password" validate:"required,eqfield=Password"`
	UserType          string `json:"user_type" validate:"required"`
	SecurityQuestion1 string `json:"security_question_1" validate:"required,max=255"`
	SecurityAnswer1   string `json:"security_answer_1" validate:"required"`
	SecurityQuestion2 string `json:"security_question_2" validate:"required,max=255"`
	SecurityAnswer2   string `json:"security_answer_2" validate:"required"`
	SecurityQuestion3 string `json:"security_question_3" validate:"required,max=255"`
	SecurityAnswer3   string `json:"security_answer_3" validate:"required"`
}

// Register creates an unverified account and emails the confirmation link
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if len(in.Password) < minPasswordLength {
		return nil, newError(ErrInvalidInput, "Password must be at least %d characters.", minPasswordLength)
	}
	if in.Password != in.ConfirmPassword {
		return nil, newError(ErrInvalidInput, "Passwords do not match.")
	}
	role, ok := model.NormalizeRole(in.UserType)
	if !ok {
		return nil, newError(ErrInvalidInput, "Invalid user type.")
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, newError(ErrInvalidInput, msgRegistrationFailed)
	}

	passwordHash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	var answerHashes [3]string
	for i, answer := range []string{in.SecurityAnswer1, in.SecurityAnswer2, in.SecurityAnswer3} {
		if answerHashes[i], err = s.hash(normalizeAnswer(answer)); err != nil {
			return nil, err
		}
	}

	token, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	expiry := s.now().Add(s.cfg.VerificationTTL)

	user := &model.User{
		Username:                username,
		Email:                   email,
		PasswordHash:            passwordHash,
		UserType:                role,
		SecurityQuestion1:       strings.TrimSpace(in.SecurityQuestion1),
		SecurityAnswerHash1:     answerHashes[0],
		SecurityQuestion2:       strings.TrimSpace(in.SecurityQuestion2),
		SecurityAnswerHash2:     answerHashes[1],
		SecurityQuestion3:       strings.TrimSpace(in.SecurityQuestion3),
		SecurityAnswerHash3:     answerHashes[2],
		VerificationToken:       token,
		VerificationTokenExpiry: &expiry,
	}

	if err := s.users.Register(ctx, user, role == model.RoleRestaurantRep); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrInvalidInput, msgRegistrationFailed)
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	link := fmt.Sprintf("%s/Account/Verify?token=%s", s.cfg.WebAppURL, url.QueryEscape(token))
	s.mail.Dispatch(mailer.VerificationEmail(user.Email, user.Username, link, s.cfg.VerificationTTL))

	prometheus.RecordAuthOperation("register")
	s.log.Info("User registered",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", role))
	return user, nil
}

// Login checks the password. Verified users get a token; unverified users
// are sent a 2FA code and must call VerifyTwoFactor.
func (s *AccountService) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			prometheus.RecordAuthError("user_not_found")
			return nil, newError(ErrInvalidCredentials, msgInvalidLogin)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		prometheus.RecordAuthError("invalid_password")
		return nil, newError(ErrInvalidCredentials, msgInvalidLogin)
	}

	if !user.IsVerified {
		if err := s.issueTwoFactorCode(ctx, user); err != nil {
			return nil, err
		}
		prometheus.RecordAuthOperation("login_2fa_required")
		return &model.LoginResponse{
			IsAuthenticated:   true,
			IsVerified:        false,
			RequiresTwoFactor: true,
			UserID:            user.ID,
			Username:          user.Username,
			Role:              user.UserType,
		}, nil
	}

	prometheus.RecordAuthOperation("login")
	return s.loginResponse(user)
}

// VerifyTwoFactor consumes a 2FA code, marks the user verified and signs them in
func (s *AccountService) VerifyTwoFactor(ctx context.Context, userID uint, code string) (*model.LoginResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			prometheus.RecordAuthError("invalid_2fa_code")
			return nil, newError(ErrInvalidCredentials, msgInvalidCode)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !tokensEqual(user.TwoFactorCode, strings.TrimSpace(code)) || expired(user.TwoFactorExpiry, s.now()) {
		prometheus.RecordAuthError("invalid_2fa_code")
		return nil, newError(ErrInvalidCredentials, msgInvalidCode)
	}

	err = s.users.Update(ctx, user.ID, map[string]interface{}{
		"two_factor_code":   "",
		"two_factor_expiry": nil,
		"is_verified":       true,
	})
	if err != nil {
		return nil, fmt.Errorf("clear 2fa code: %w", err)
	}
	user.IsVerified = true

	prometheus.RecordAuthOperation("verify_2fa")
	return s.loginResponse(user)
}

// ResendTwoFactor issues a fresh code to an unverified user
func (s *AccountService) ResendTwoFactor(ctx context.Context, userID uint) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return notFound(err, "User not found.")
	}
	if user.IsVerified {
		return newError(ErrInvalidInput, "Account is already verified.")
	}
	if err := s.issueTwoFactorCode(ctx, user); err != nil {
		return err
	}
	prometheus.RecordAuthOperation("resend_2fa")
	return nil
}

// ConfirmEmail consumes a verification token
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return newError(ErrInvalidToken, msgInvalidVerifyToken)
	}
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			prometheus.RecordAuthError("invalid_verification_token")
			return newError(ErrInvalidToken, msgInvalidVerifyToken)
		}
		return fmt.Errorf("find user by token: %w", err)
	}
	if expired(user.VerificationTokenExpiry, s.now()) {
		prometheus.RecordAuthError("invalid_verification_token")
		return newError(ErrInvalidToken, msgInvalidVerifyToken)
	}

	err = s.users.Update(ctx, user.ID, map[string]interface{}{
		"is_verified":               true,
		"verification_token":        "",
		"verification_token_expiry": nil,
	})
	if err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	prometheus.RecordAuthOperation("confirm_email")
	return nil
}

// ForgotPassword emails a reset link when the account exists. Unknown
// accounts are not reported to the caller.
func (s *AccountService) ForgotPassword(ctx context.Context, emailOrUsername string) error {
	user, err := s.users.FindByEmailOrUsername(ctx, strings.TrimSpace(emailOrUsername))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("Password reset requested for unknown account")
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	token, err := s.issueResetToken(ctx, user)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/Account/ResetPassword?userId=%d&token=%s", s.cfg.WebAppURL, user.ID, url.QueryEscape(token))
	s.mail.Dispatch(mailer.PasswordResetEmail(user.Email, user.Username, link, s.cfg.ResetTTL))
	prometheus.RecordAuthOperation("forgot_password")
	return nil
}

// ForgotUsername emails the username registered to email, if any
func (s *AccountService) ForgotUsername(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	user, err := s.users.FindByEmailOrUsername(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !strings.EqualFold(user.Email, email) {
		return nil
	}
	s.mail.Dispatch(mailer.UsernameReminderEmail(user.Email, user.Username))
	prometheus.RecordAuthOperation("forgot_username")
	return nil
}

// SecurityQuestion picks one of the user's questions at random
func (s *AccountService) SecurityQuestion(ctx context.Context, username string) (int, string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return 0, "", notFound(err, "User not found.")
	}
	available := user.AvailableSecurityQuestions()
	if len(available) == 0 {
		return 0, "", newError(ErrNotFound, "No security questions are set for this account.")
	}
	n := available[s.pick(len(available))]
	question, _ := user.SecurityQuestion(n)
	return n, question, nil
}

// VerifySecurityAnswer checks an answer and, when correct, issues a reset token
func (s *AccountService) VerifySecurityAnswer(ctx context.Context, username string, questionNumber int, answer string) (uint, string, error) {
	invalid := newError(ErrInvalidCredentials, "The answer to the security question is incorrect.")

	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			prometheus.RecordAuthError("invalid_security_answer")
			return 0, "", invalid
		}
		return 0, "", fmt.Errorf("find user: %w", err)
	}

	_, hash := user.SecurityQuestion(questionNumber)
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalizeAnswer(answer))) != nil {
		prometheus.RecordAuthError("invalid_security_answer")
		return 0, "", invalid
	}

	token, err := s.issueResetToken(ctx, user)
	if err != nil {
		return 0, "", err
	}
	prometheus.RecordAuthOperation("security_question")
	return user.ID, token, nil
}

type ResetPasswordInput struct {
	UserID          uint   `json:"user_id" validate:"required"`
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// ResetPassword consumes a reset token and stores the new password
func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if len(in.NewPassword) < minPasswordLength {
		return newError(ErrInvalidInput, "Password must be at least %d characters.", minPasswordLength)
	}
	if in.NewPassword != in.ConfirmPassword {
		return newError(ErrInvalidInput, "Passwords do not match.")
	}

	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrInvalidToken, msgInvalidResetToken)
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !tokensEqual(user.ResetToken, in.Token) || expired(user.ResetTokenExpiry, s.now()) {
		prometheus.RecordAuthError("invalid_reset_token")
		return newError(ErrInvalidToken, msgInvalidResetToken)
	}

	hash, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	err = s.users.Update(ctx, user.ID, map[string]interface{}{
		"password_hash":      hash,
		"reset_token":        "",
		"reset_token_expiry": nil,
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.mail.Dispatch(mailer.PasswordChangedEmail(user.Email, user.Username))
	prometheus.RecordAuthOperation("password_reset")
	s.log.Info("Password reset", zap.Uint("user_id", user.ID))
	return nil
}

// Me returns the caller's account
func (s *AccountService) Me(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found.")
	}
	return user, nil
}

func (s *AccountService) issueTwoFactorCode(ctx context.Context, user *model.User) error {
	code, err := generateTwoFactorCode()
	if err != nil {
		return err
	}
	expiry := s.now().Add(s.cfg.TwoFactorTTL)
	err = s.users.Update(ctx, user.ID, map[string]interface{}{
		"two_factor_code":   code,
		"two_factor_expiry": expiry,
	})
	if err != nil {
		return fmt.Errorf("store 2fa code: %w", err)
	}
	s.mail.Dispatch(mailer.TwoFactorEmail(user.Email, user.Username, code, s.cfg.TwoFactorTTL))
	return nil
}

func (s *AccountService) issueResetToken(ctx context.Context, user *model.User) (string, error) {
	token, err := generateSecureToken()
	if err != nil {
		return "", err
	}
	expiry := s.now().Add(s.cfg.ResetTTL)
	err = s.users.Update(ctx, user.ID, map[string]interface{}{
		"reset_token":        token,
		"reset_token_expiry": expiry,
	})
	if err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

func (s *AccountService) loginResponse(user *model.User) (*model.LoginResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Email, user.UserType)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &model.LoginResponse{
		IsAuthenticated: true,
		IsVerified:      true,
		UserID:          user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Role:            user.UserType,
		Token:           token,
	}, nil
}

func (s *AccountService) hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(b), nil
}

func expired(expiry *time.Time, now time.Time) bool {
	return expiry == nil || !now.Before(*expiry)
}
