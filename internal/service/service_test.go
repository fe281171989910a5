package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/bank-backoffice/internal/model"
	"github.com/mmeshcher/bank-backoffice/internal/repository"
	"github.com/mmeshcher/bank-backoffice/internal/validation"
)

var errStorageDown = errors.New("connection refused")

type fixture struct {
	mem       *repository.Memory
	customers *CustomerService
	accounts  *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := repository.NewMemory()
	accounts := NewAccountService(mem.Accounts(), nil, nil)
	customers := NewCustomerService(mem.Customers(), accounts, nil, nil)

	return &fixture{mem: mem, customers: customers, accounts: accounts}
}

func newCustomer() *model.Customer {
	return &model.Customer{
		FirstName:  "Jan",
		LastName:   "Peeters",
		Street:     "Kerkstraat 1",
		PostalCode: "2000",
		City:       "Antwerpen",
	}
}

func (f *fixture) enroll(t *testing.T, c *model.Customer) int64 {
	t.Helper()
	id, err := f.customers.Add(context.Background(), c)
	require.NoError(t, err)
	return id
}

func (f *fixture) open(t *testing.T, raw string, owner int64) validation.AccountNumber {
	t.Helper()
	n, err := validation.ParseAccountNumber(raw)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Add(context.Background(), &model.Account{Number: n, Owner: owner}))
	return n
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// failingCustomers и failingAccounts имитируют недоступное хранилище.
type failingCustomers struct{}

func (failingCustomers) Insert(context.Context, *model.Customer) (int64, error) {
	return 0, errStorageDown
}
func (failingCustomers) Update(context.Context, *model.Customer) error { return errStorageDown }
func (failingCustomers) SetUnenrolled(context.Context, int64) error    { return errStorageDown }
func (failingCustomers) FindByID(context.Context, int64) (*model.Customer, error) {
	return nil, errStorageDown
}
func (failingCustomers) ExistsByNameAddress(context.Context, model.NameAddress) (bool, error) {
	return false, errStorageDown
}
func (failingCustomers) ListByStatus(context.Context, model.CustomerStatus) ([]model.Customer, error) {
	return nil, errStorageDown
}
func (failingCustomers) ListAll(context.Context) ([]model.Customer, error) {
	return nil, errStorageDown
}

type failingAccounts struct{}

func (failingAccounts) Insert(context.Context, *model.Account) error { return errStorageDown }
func (failingAccounts) SetClosed(context.Context, string) error      { return errStorageDown }
func (failingAccounts) SetBalance(context.Context, string, decimal.Decimal) error {
	return errStorageDown
}
func (failingAccounts) FindByNumber(context.Context, string) (*model.Account, error) {
	return nil, errStorageDown
}
func (failingAccounts) ListByOwnerAndStatus(context.Context, int64, model.AccountStatus) ([]model.Account, error) {
	return nil, errStorageDown
}
func (failingAccounts) ListByOwner(context.Context, int64) ([]model.Account, error) {
	return nil, errStorageDown
}
func (failingAccounts) CountByOwnerAndStatus(context.Context, int64, model.AccountStatus) (int, error) {
	return 0, errStorageDown
}
