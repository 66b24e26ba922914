package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/services"
)

type TransactionService interface {
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.TransactionView, error)
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.TransactionView, error)
	QueryTransaction(ctx context.Context, transactionID string) (*models.TransactionView, error)
}

// UseBalanceRequest represents a balance use request
type UseBalanceRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1" example:"1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric" example:"1000000000"`
	Amount        int64  `json:"amount" validate:"required,gt=0" example:"1000"`
}

// CancelBalanceRequest represents a cancellation of an earlier use
type CancelBalanceRequest struct {
	TransactionID string `json:"transactionId" validate:"required,max=64"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric" example:"1000000000"`
	Amount        int64  `json:"amount" validate:"required,gt=0" example:"1000"`
}

// AmountRange bounds accepted transaction amounts, inclusive.
type AmountRange struct {
	Min int64
	Max int64
}

type TransactionHandler struct {
	service   TransactionService
	validator *services.ValidationHelper
	amounts   AmountRange
	logger    *zap.Logger
}

func NewTransactionHandler(service TransactionService, amounts AmountRange, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		service:   service,
		validator: services.NewValidationHelper(),
		amounts:   amounts,
		logger:    logger,
	}
}

func (h *TransactionHandler) Routes(r chi.Router) {
	r.Post("/transactions/use", h.UseBalance)
	r.Post("/transactions/cancel", h.CancelBalance)
	r.Get("/transactions/{transactionId}", h.QueryTransaction)
}

func (h *TransactionHandler) checkAmount(w http.ResponseWriter, amount int64) bool {
	if amount < h.amounts.Min || amount > h.amounts.Max {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest,
			fmt.Sprintf("Amount must be between %d and %d", h.amounts.Min, h.amounts.Max), http.StatusBadRequest, nil)
		return false
	}
	return true
}

// UseBalance debits an account
// @Summary Use balance
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body UseBalanceRequest true "Use request"
// @Success 200 {object} models.TransactionView
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /transactions/use [post]
func (h *TransactionHandler) UseBalance(w http.ResponseWriter, r *http.Request) {
	var req UseBalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !h.checkAmount(w, req.Amount) {
		return
	}
	if err := checkCaller(r.Context(), req.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.service.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// CancelBalance reverses a use transaction in full
// @Summary Cancel balance use
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body CancelBalanceRequest true "Cancel request"
// @Success 200 {object} models.TransactionView
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /transactions/cancel [post]
func (h *TransactionHandler) CancelBalance(w http.ResponseWriter, r *http.Request) {
	var req CancelBalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !h.checkAmount(w, req.Amount) {
		return
	}

	view, err := h.service.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// QueryTransaction returns one transaction
// @Summary Get transaction
// @Tags transactions
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} models.TransactionView
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{transactionId} [get]
func (h *TransactionHandler) QueryTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")

	view, err := h.service.QueryTransaction(r.Context(), transactionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
