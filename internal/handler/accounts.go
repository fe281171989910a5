package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/bank-backoffice/internal/apperr"
	"github.com/mmeshcher/bank-backoffice/internal/model"
	"github.com/mmeshcher/bank-backoffice/internal/validation"
)

type accountRequest struct {
	Number  string          `json:"number"`
	Owner   int64           `json:"owner"`
	Balance json.RawMessage `json:"balance,omitempty"`
	Status  string          `json:"status,omitempty"`
}

type accountResponse struct {
	Number  string `json:"number"`
	Balance string `json:"balance"`
	Status  string `json:"status"`
	Owner   int64  `json:"owner"`
}

func newAccountResponse(a model.Account) accountResponse {
	return accountResponse{
		Number:  a.Number.String(),
		Balance: a.RoundedBalance().StringFixed(model.MoneyScale),
		Status:  string(a.Status),
		Owner:   a.Owner,
	}
}

type amountRequest struct {
	Amount json.RawMessage `json:"amount"`
}

// parseAmount принимает сумму строкой или числом JSON. Отсутствующая сумма возвращается как nil.
func parseAmount(raw json.RawMessage) (*decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, apperr.ErrAccountAmountInvalid
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, apperr.ErrAccountAmountInvalid
	}
	return &d, nil
}

// numberParam возвращает номер счёта из пути в исходном виде, с пробелами.
func numberParam(r *http.Request) (string, bool) {
	number, err := url.PathUnescape(chi.URLParam(r, "number"))
	if err != nil {
		return "", false
	}
	return number, true
}

// CreateAccount открывает счёт для зарегистрированного клиента.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w)
		return
	}

	a := &model.Account{Owner: req.Owner, Status: model.AccountStatus(req.Status)}

	if strings.TrimSpace(req.Number) != "" {
		n, err := validation.ParseAccountNumber(req.Number)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		a.Number = n
	}

	balance, err := parseAmount(req.Balance)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if balance != nil {
		a.Balance = *balance
	}

	if err := h.customers.ValidateActive(r.Context(), req.Owner); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.Add(r.Context(), a); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAccountResponse(model.Account{
		Number:  a.Number,
		Balance: decimal.Zero,
		Status:  model.AccountStatusOpen,
		Owner:   a.Owner,
	}))
}

// GetAccount возвращает счёт по номеру.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	number, ok := numberParam(r)
	if !ok {
		badRequest(w)
		return
	}

	a, err := h.accounts.Find(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if a == nil {
		h.writeError(w, r, apperr.ErrAccountNotFound)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(*a))
}

// CloseAccount закрывает счёт с нулевым балансом.
func (h *Handler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	number, ok := numberParam(r)
	if !ok {
		badRequest(w)
		return
	}

	if err := h.accounts.Remove(r.Context(), number); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Deposit зачисляет сумму на счёт и возвращает счёт с новым балансом.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.accounts.Deposit)
}

// Withdraw снимает сумму со счёта и возвращает счёт с новым балансом.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.accounts.Withdraw)
}

type movementFunc func(ctx context.Context, number string, amount *decimal.Decimal) error

func (h *Handler) movement(w http.ResponseWriter, r *http.Request, apply movementFunc) {
	number, ok := numberParam(r)
	if !ok {
		badRequest(w)
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, r, h.checkMovable(r.Context(), number, err))
		return
	}

	if err := apply(r.Context(), number, amount); err != nil {
		h.writeError(w, r, err)
		return
	}

	a, err := h.accounts.Find(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if a == nil {
		h.writeError(w, r, apperr.ErrAccountNotFound)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(*a))
}

// checkMovable возвращает ошибку поиска или статуса счёта, а если счёт открыт, то amountErr.
func (h *Handler) checkMovable(ctx context.Context, number string, amountErr error) error {
	a, err := h.accounts.Find(ctx, number)
	switch {
	case err != nil:
		return err
	case a == nil:
		return apperr.ErrAccountNotFound
	case a.Status == model.AccountStatusClosed:
		return apperr.ErrAccountAlreadyClosed
	default:
		return amountErr
	}
}
