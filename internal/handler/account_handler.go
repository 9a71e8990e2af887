package handler

import (
	"net/http"

	"github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	msgRegistered        = "Registration successful. Please check your email to confirm your account."
	msgCodeResent        = "A new verification code has been sent to your email."
	msgEmailConfirmed    = "Your email has been confirmed. You can now log in."
	msgResetInstructions = "If your email is registered with us, you will receive reset instructions."
	msgUsernameReminder  = "If your email is registered with us, you will receive your username."
	msgPasswordReset     = "Your password has been reset successfully."
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyTwoFactorRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

type ResendTwoFactorRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

type ForgotPasswordRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required"`
}

type ForgotUsernameRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SecurityAnswerRequest struct {
	Username       string `json:"username" validate:"required"`
	QuestionNumber int    `json:"question_number" validate:"min=1,max=3"`
	Answer         string `json:"answer" validate:"required"`
}

// AccountHandler serves /api/account
type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register creates a new account
func (h *AccountHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.RegisterInput
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	user, err := h.accounts.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "register user")
	}

	log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", user.UserType))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": msgRegistered,
		"user_id": user.ID,
	})
}

// Login checks credentials and either issues a token or starts 2FA
func (h *AccountHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	resp, err := h.accounts.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err, "log in")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) VerifyTwoFactor(c echo.Context) error {
	var req VerifyTwoFactorRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	resp, err := h.accounts.VerifyTwoFactor(c.Request().Context(), req.UserID, req.Code)
	if err != nil {
		return respondError(c, err, "verify code")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) ResendTwoFactor(c echo.Context) error {
	var req ResendTwoFactorRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.accounts.ResendTwoFactor(c.Request().Context(), req.UserID); err != nil {
		return respondError(c, err, "resend code")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgCodeResent})
}

func (h *AccountHandler) ConfirmEmail(c echo.Context) error {
	if err := h.accounts.ConfirmEmail(c.Request().Context(), c.QueryParam("token")); err != nil {
		return respondError(c, err, "confirm email")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgEmailConfirmed})
}

// ForgotPassword answers the same way whether or not the account exists
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.accounts.ForgotPassword(c.Request().Context(), req.EmailOrUsername); err != nil {
		logger.FromContext(c).Error("Failed to process password reset request", zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgResetInstructions})
}

func (h *AccountHandler) ForgotUsername(c echo.Context) error {
	var req ForgotUsernameRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.accounts.ForgotUsername(c.Request().Context(), req.Email); err != nil {
		logger.FromContext(c).Error("Failed to process username reminder", zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgUsernameReminder})
}

func (h *AccountHandler) SecurityQuestion(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username is required"})
	}

	n, question, err := h.accounts.SecurityQuestion(c.Request().Context(), username)
	if err != nil {
		return respondError(c, err, "load security question")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"question_number": n,
		"question":        question,
	})
}

func (h *AccountHandler) VerifySecurityAnswer(c echo.Context) error {
	var req SecurityAnswerRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	userID, token, err := h.accounts.VerifySecurityAnswer(c.Request().Context(), req.Username, req.QuestionNumber, req.Answer)
	if err != nil {
		return respondError(c, err, "verify security answer")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": userID,
		"token":   token,
	})
}

func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req service.ResetPasswordInput
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.accounts.ResetPassword(c.Request().Context(), req); err != nil {
		return respondError(c, err, "reset password")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgPasswordReset})
}

// Me returns the profile of the authenticated user
func (h *AccountHandler) Me(c echo.Context) error {
	caller := middleware.CallerFromContext(c)

	user, err := h.accounts.Me(c.Request().Context(), caller.UserID)
	if err != nil {
		return respondError(c, err, "load profile")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"role":        user.UserType,
		"is_verified": user.IsVerified,
	})
}
