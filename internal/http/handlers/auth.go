package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/account"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Signup(ctx context.Context, in account.SignupInput) (account.Session, error)
	Login(ctx context.Context, email, password string) (account.Session, error)
}

type AuthHandler struct {
	accounts AccountService
	timeout  time.Duration
}

func NewAuthHandler(accounts AccountService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		timeout:  timeout,
	}
}

type SignupRequest struct {
	FirstName string `json:"firstName" binding:"omitempty,max=100"`
	LastName  string `json:"lastName" binding:"omitempty,max=100"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,min=5,max=256"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
}

func (h *AuthHandler) Signup(ctx *gin.Context) {
	var req SignupRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.accounts.Signup(cctx, account.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, account.ErrAccountExists) {
			RespondConflict(ctx, "account_exists", "Account already exists!")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "signup_failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not create account")
		return
	}

	ctx.JSON(http.StatusOK, sessionResponse{
		Message: "Signup successful!",
		Token:   sess.Token,
		ID:      sess.User.ID,
		Name:    sess.User.DisplayName(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.accounts.Login(cctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailNotFound):
			RespondNotFound(ctx, "email_not_found", "Email not found!")
		case errors.Is(err, account.ErrBadCredentials):
			RespondError(ctx, http.StatusBadRequest, "invalid_credentials", "Incorrect email or password!", nil)
		default:
			slog.Default().ErrorContext(ctx.Request.Context(), "login_failed", "err", err, "request_id", requestIDFrom(ctx))
			RespondInternal(ctx, "Could not log in")
		}
		return
	}

	ctx.JSON(http.StatusOK, sessionResponse{
		Message: "Login successful!",
		Token:   sess.Token,
		ID:      sess.User.ID,
		Name:    sess.User.DisplayName(),
	})
}
