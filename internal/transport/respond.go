package transport

import (
	"errors"
	"net/http"

	"petshop/internal/middleware"
	"petshop/internal/repository"
	"petshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondServiceError maps service and repository errors onto status codes.
// Unrecognized errors are logged and reported as 500 without their text.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	var stockErr *service.InsufficientStockError
	var invalidErr *service.InvalidInputError

	switch {
	case errors.As(err, &stockErr):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, stockErr.Error(), map[string]any{
			"product_id":   stockErr.ProductID.String(),
			"product_name": stockErr.ProductName,
			"requested":    stockErr.Requested,
			"available":    stockErr.Available,
		})
	case errors.As(err, &invalidErr):
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, invalidErr.Error(), map[string]any{
			"field": invalidErr.Field,
		})
	case errors.Is(err, service.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusBadRequest, service.ErrEmptyCart.Error())
	case errors.Is(err, repository.ErrProductInUse):
		middleware.RespondWithError(w, http.StatusConflict, repository.ErrProductInUse.Error())
	case errors.Is(err, repository.ErrStockConflict):
		middleware.RespondWithError(w, http.StatusConflict, repository.ErrStockConflict.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, repository.ErrProductNotFound.Error())
	case errors.Is(err, repository.ErrCartItemNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, repository.ErrCartItemNotFound.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, repository.ErrOrderNotFound.Error())
	case errors.Is(err, repository.ErrCommentNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, repository.ErrCommentNotFound.Error())
	default:
		logger.Error("Failed to "+action, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// uuidParam reads a UUID path parameter, answering 400 when it is malformed
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// sessionFrom prefers an explicit session id and falls back to the header
func sessionFrom(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	sessionID, _ := middleware.GetSessionID(r.Context())
	return sessionID
}

func passthrough(next http.Handler) http.Handler { return next }

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}
