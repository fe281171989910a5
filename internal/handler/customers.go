package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/bank-backoffice/internal/apperr"
	"github.com/mmeshcher/bank-backoffice/internal/model"
)

type customerRequest struct {
	ID         int64  `json:"id,omitempty"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Status     string `json:"status,omitempty"`
}

func (req customerRequest) toModel() *model.Customer {
	return &model.Customer{
		ID:         req.ID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Street:     req.Street,
		PostalCode: req.PostalCode,
		City:       req.City,
		Status:     model.CustomerStatus(req.Status),
	}
}

type customerResponse struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Status     string `json:"status"`
}

func newCustomerResponse(c model.Customer) customerResponse {
	return customerResponse{
		ID:         c.ID,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Street:     c.Street,
		PostalCode: c.PostalCode,
		City:       c.City,
		Status:     string(c.Status),
	}
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// CreateCustomer регистрирует нового клиента.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w)
		return
	}

	id, err := h.customers.Add(r.Context(), req.toModel())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// ListCustomers возвращает клиентов по статусу: enrolled (по умолчанию), unenrolled или all.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	var (
		customers []model.Customer
		err       error
	)

	switch r.URL.Query().Get("status") {
	case "", "enrolled":
		customers, err = h.customers.ListEnrolled(r.Context())
	case "unenrolled":
		customers, err = h.customers.ListUnenrolled(r.Context())
	case "all":
		customers, err = h.customers.ListAll(r.Context())
	default:
		badRequest(w)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, newCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCustomer возвращает клиента по идентификатору.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w)
		return
	}

	c, err := h.customers.Find(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if c == nil {
		h.writeError(w, r, apperr.ErrCustomerNotFound)
		return
	}

	writeJSON(w, http.StatusOK, newCustomerResponse(*c))
}

// UpdateCustomer изменяет имя и адрес клиента. Идентификатор берётся из пути.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w)
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w)
		return
	}

	c := req.toModel()
	c.ID = id
	if err := h.customers.Update(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCustomer снимает клиента с обслуживания.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w)
		return
	}

	if err := h.customers.Remove(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCustomerAccounts возвращает счета клиента по статусу: open, closed или all (по умолчанию).
func (h *Handler) ListCustomerAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w)
		return
	}

	var (
		accounts []model.Account
		err      error
	)

	switch r.URL.Query().Get("status") {
	case "", "all":
		accounts, err = h.accounts.ListAll(r.Context(), id)
	case "open":
		accounts, err = h.accounts.ListOpen(r.Context(), id)
	case "closed":
		accounts, err = h.accounts.ListClosed(r.Context(), id)
	default:
		badRequest(w)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, newAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}
