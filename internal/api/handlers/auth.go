package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/kavholm-api/internal/api/middleware"
	"github.com/dom/kavholm-api/internal/api/respond"
	"github.com/dom/kavholm-api/internal/domain"
	"github.com/dom/kavholm-api/internal/logging"
	"github.com/dom/kavholm-api/internal/notify"
	"github.com/dom/kavholm-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	MsgRecoverySent  = "If your account exists in our system, you should receive an email shortly."
	MsgPasswordReset = "Password successfully reset."
)

type AuthHandler struct {
	accounts *service.AccountService
	notifier *notify.Notifier
	log      logging.Logger
	validate *validator.Validate
}

func NewAuthHandler(accounts *service.AccountService, notifier *notify.Notifier, log logging.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		notifier: notifier,
		log:      log,
		validate: newValidator(),
	}
}

// RegisterRequest has no isAdmin field: self-registration can never create
// an administrator.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"firstName" validate:"required,max=255"`
	LastName  string `json:"lastName" validate:"required,max=255"`
	Password  string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RecoverRequest struct {
	Email string `json:"email"`
}

type PasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type AuthResponse struct {
	User  domain.PublicAccount `json:"user"`
	Token string               `json:"token"`
}

type UserResponse struct {
	User domain.PublicAccount `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respond.ServiceError(w, r, h.log, err)
		return
	}

	result, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		IsAdmin:   false,
	})
	if err != nil {
		respond.ServiceError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusCreated, AuthResponse{User: result.User, Token: result.Token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respond.ServiceError(w, r, h.log, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.ServiceError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, AuthResponse{User: result.User, Token: result.Token})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetSession(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	account, err := h.accounts.CurrentAccount(r.Context(), claims)
	if err != nil {
		respond.ServiceError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, UserResponse{User: account.Public()})
}

// Recover always answers with the same message, whether or not the email
// matched an account and whether or not the email went out.
func (h *AuthHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req RecoverRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	account, err := h.accounts.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.log.Error(r.Context(), "password recovery failed", "error", err)
	}

	if account != nil && account.PasswordResetToken != nil {
		out := h.notifier.SendPasswordReset(r.Context(), account, *account.PasswordResetToken)
		if !out.OK() {
			h.log.Warn(r.Context(), "password reset email not delivered", "account_id", account.ID, "status", out.Status, "error", out.Err)
		}
	}

	respond.JSON(w, http.StatusOK, MessageResponse{Message: MsgRecoverySent})
}

// PasswordReset takes the token from the query string, falling back to the
// body.
func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = req.Token
	}

	account, err := h.accounts.ResetPassword(r.Context(), token, req.NewPassword)
	if err != nil {
		respond.ServiceError(w, r, h.log, err)
		return
	}

	out := h.notifier.SendPasswordResetConfirmation(r.Context(), account)
	if !out.OK() {
		h.log.Warn(r.Context(), "password reset confirmation not delivered", "account_id", account.ID, "status", out.Status, "error", out.Err)
	}

	respond.JSON(w, http.StatusOK, MessageResponse{Message: MsgPasswordReset})
}

// GetAccount lets an administrator look up any account by username.
func (h *AuthHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.FetchByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respond.ServiceError(w, r, h.log, err)
		return
	}
	if account == nil {
		respond.ServiceError(w, r, h.log, domain.ErrAccountNotFound)
		return
	}

	respond.JSON(w, http.StatusOK, UserResponse{User: account.Public()})
}
