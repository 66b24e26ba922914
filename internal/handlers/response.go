package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/middleware"
	"github.com/ruralpay/myaccount/internal/services"
)

const maxBodyBytes = 1_048_576 // 1 MB

// decodeJSON reads exactly one JSON object into dst and writes the 400
// response itself when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, services.ErrCodeInvalidRequest, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps a domain error code onto an HTTP status.
func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrCodeUserNotFound, services.ErrCodeAccountNotFound, services.ErrCodeTransactionNotFound:
		return http.StatusNotFound
	case services.ErrCodeUserAccountUnMatch, services.ErrCodeTransactionAccountUnMatch:
		return http.StatusForbidden
	case services.ErrCodeAccountTransactionLock:
		return http.StatusConflict
	case services.ErrCodeMaxAccountPerUser, services.ErrCodeAccountNumberExhausted, services.ErrCodeAccountAlreadyUnregistered, services.ErrCodeBalanceNotEmpty,
		services.ErrCodeAmountExceedBalance, services.ErrCodeCancelMustFully, services.ErrCodeTooOldOrderToCancel,
		services.ErrCodeTransactionAlreadyCancelled, services.ErrCodeTransactionNotCancellable:
		return http.StatusUnprocessableEntity
	case services.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case services.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeError sends the error's code and description. Errors outside the
// domain taxonomy are logged and collapsed to INTERNAL_SERVER_ERROR.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code := services.CodeOf(err)
	if code == services.ErrCodeInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	services.SendErrorResponse(w, code, code.Description(), statusFor(code), nil)
}

// checkCaller rejects requests whose body names a different user than the
// authenticated one. Without authentication every caller passes.
func checkCaller(ctx context.Context, userID int64) error {
	if authenticated, ok := middleware.UserIDFromContext(ctx); ok && authenticated != userID {
		return services.NewAccountError(services.ErrCodeUserAccountUnMatch)
	}
	return nil
}
