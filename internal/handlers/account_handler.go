package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/services"
)

type AccountService interface {
	CreateAccount(ctx context.Context, userID, initialBalance int64) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID int64, accountNumber string) (*models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]models.AccountInfo, error)
}

// CreateAccountRequest represents an account opening request
type CreateAccountRequest struct {
	UserID         int64 `json:"userId" validate:"required,min=1" example:"1"`
	InitialBalance int64 `json:"initialBalance" validate:"min=0" example:"10000"`
}

// DeleteAccountRequest represents an account closing request
type DeleteAccountRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1" example:"1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric" example:"1000000000"`
}

type CreateAccountResponse struct {
	UserID        int64     `json:"userId"`
	AccountNumber string    `json:"accountNumber"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

type DeleteAccountResponse struct {
	UserID         int64      `json:"userId"`
	AccountNumber  string     `json:"accountNumber"`
	UnregisteredAt *time.Time `json:"unRegisteredAt"`
}

type AccountHandler struct {
	service   AccountService
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewAccountHandler(service AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		service:   service,
		validator: services.NewValidationHelper(),
		logger:    logger,
	}
}

func (h *AccountHandler) Routes(r chi.Router) {
	r.Post("/accounts", h.CreateAccount)
	r.Delete("/accounts", h.DeleteAccount)
	r.Get("/accounts", h.ListAccounts)
	r.Get("/accounts/{id}", h.GetAccount)
}

// CreateAccount opens an account
// @Summary Create account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "Account request"
// @Success 201 {object} CreateAccountResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if err := checkCaller(r.Context(), req.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req.UserID, req.InitialBalance)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateAccountResponse{
		UserID:        account.UserID,
		AccountNumber: account.AccountNumber,
		RegisteredAt:  account.RegisteredAt,
	})
}

// DeleteAccount unregisters an empty account
// @Summary Delete account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body DeleteAccountRequest true "Account request"
// @Success 200 {object} DeleteAccountResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /accounts [delete]
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req DeleteAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if err := checkCaller(r.Context(), req.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	account, err := h.service.DeleteAccount(r.Context(), req.UserID, req.AccountNumber)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteAccountResponse{
		UserID:         account.UserID,
		AccountNumber:  account.AccountNumber,
		UnregisteredAt: account.UnregisteredAt,
	})
}

// ListAccounts lists a user's accounts
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Param user_id query int true "User ID"
// @Success 200 {array} models.AccountInfo
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID < 1 {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest, "user_id query parameter is required", http.StatusBadRequest, nil)
		return
	}
	if err := checkCaller(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	infos, err := h.service.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, infos)
}

// GetAccount returns one account
// @Summary Get account
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} models.Account
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := checkCaller(r.Context(), account.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
