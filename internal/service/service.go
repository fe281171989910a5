// Package service реализует бизнес-правила бэк-офиса: жизненный цикл клиентов и счетов,
// пополнение и снятие средств.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/bank-backoffice/internal/model"
)

// CustomerRepository описывает контракт хранилища клиентов, используемый CustomerService.
// Реализация обязана гарантировать уникальность имени и адреса на уровне хранилища.
// FindByID возвращает nil без ошибки, если клиент не найден.
type CustomerRepository interface {
	Insert(ctx context.Context, c *model.Customer) (int64, error)
	Update(ctx context.Context, c *model.Customer) error
	SetUnenrolled(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*model.Customer, error)
	ExistsByNameAddress(ctx context.Context, key model.NameAddress) (bool, error)
	ListByStatus(ctx context.Context, status model.CustomerStatus) ([]model.Customer, error)
	ListAll(ctx context.Context) ([]model.Customer, error)
}

// AccountRepository описывает контракт хранилища счетов, используемый AccountService.
// FindByNumber возвращает nil без ошибки, если счёт не найден.
type AccountRepository interface {
	Insert(ctx context.Context, a *model.Account) error
	SetClosed(ctx context.Context, number string) error
	SetBalance(ctx context.Context, number string, balance decimal.Decimal) error
	FindByNumber(ctx context.Context, number string) (*model.Account, error)
	ListByOwnerAndStatus(ctx context.Context, owner int64, status model.AccountStatus) ([]model.Account, error)
	ListByOwner(ctx context.Context, owner int64) ([]model.Account, error)
	CountByOwnerAndStatus(ctx context.Context, owner int64, status model.AccountStatus) (int, error)
}

// OpenAccountCounter даёт CustomerService число открытых счетов клиента.
type OpenAccountCounter interface {
	CountOpen(ctx context.Context, owner int64) (int, error)
}
