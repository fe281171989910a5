// Package handler содержит HTTP-обработчики JSON API бэк-офиса.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-backoffice/internal/apperr"
	"github.com/mmeshcher/bank-backoffice/internal/model"
)

// CustomerService определяет операции над клиентами, доступные через API.
type CustomerService interface {
	Add(ctx context.Context, c *model.Customer) (int64, error)
	Remove(ctx context.Context, id int64) error
	Update(ctx context.Context, c *model.Customer) error
	Find(ctx context.Context, id int64) (*model.Customer, error)
	ListEnrolled(ctx context.Context) ([]model.Customer, error)
	ListUnenrolled(ctx context.Context) ([]model.Customer, error)
	ListAll(ctx context.Context) ([]model.Customer, error)
	ValidateActive(ctx context.Context, id int64) error
}

// AccountService определяет операции над счетами, доступные через API.
type AccountService interface {
	Add(ctx context.Context, a *model.Account) error
	Remove(ctx context.Context, number string) error
	Deposit(ctx context.Context, number string, amount *decimal.Decimal) error
	Withdraw(ctx context.Context, number string, amount *decimal.Decimal) error
	Find(ctx context.Context, number string) (*model.Account, error)
	ListOpen(ctx context.Context, owner int64) ([]model.Account, error)
	ListClosed(ctx context.Context, owner int64) ([]model.Account, error)
	ListAll(ctx context.Context, owner int64) ([]model.Account, error)
}

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler реализует HTTP-обработчики API бэк-офиса.
type Handler struct {
	customers CustomerService
	accounts  AccountService
	storage   Pinger
	logger    *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(customers CustomerService, accounts AccountService, storage Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		customers: customers,
		accounts:  accounts,
		storage:   storage,
		logger:    logger,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const internalErrorCode = "INTERNAL_ERROR"

// writeError отвечает кодом нарушенного правила либо 500 для ошибок хранилища.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    internalErrorCode,
			Message: "internal error, the operation was not completed",
		})
		return
	}

	writeJSON(w, statusFor(ve.Code), errorResponse{Code: string(ve.Code), Message: ve.Message})
}

func statusFor(code apperr.Code) int {
	switch {
	case strings.HasSuffix(string(code), "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(string(code), "_ALREADY_EXISTS"):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Health отвечает 200, если хранилище доступно.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
