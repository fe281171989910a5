// Package model содержит доменные сущности бэк-офиса банка.
package model

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/bank-backoffice/internal/validation"
)

// MoneyScale задаёт число знаков после запятой, с которым хранятся и показываются суммы.
const MoneyScale = 2

// CustomerStatus описывает статус клиента. Пустое значение означает, что статус не задан.
type CustomerStatus string

const (
	CustomerStatusEnrolled   CustomerStatus = "ENROLLED"
	CustomerStatusUnenrolled CustomerStatus = "UNENROLLED"
)

// Customer представляет клиента банка. ID равен нулю, пока клиент не сохранён.
type Customer struct {
	ID         int64
	FirstName  string
	LastName   string
	Street     string
	PostalCode string
	City       string
	Status     CustomerStatus
}

// NameAddress содержит поля, по которым клиенты считаются одинаковыми.
type NameAddress struct {
	LastName   string
	FirstName  string
	Street     string
	PostalCode string
	City       string
}

// Key возвращает имя и адрес клиента.
func (c *Customer) Key() NameAddress {
	return NameAddress{
		LastName:   c.LastName,
		FirstName:  c.FirstName,
		Street:     c.Street,
		PostalCode: c.PostalCode,
		City:       c.City,
	}
}

// AccountStatus описывает статус счёта. Пустое значение означает, что статус не задан.
type AccountStatus string

const (
	AccountStatusOpen   AccountStatus = "OPEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// Account описывает счёт клиента.
type Account struct {
	Number  validation.AccountNumber
	Balance decimal.Decimal
	Status  AccountStatus
	Owner   int64
}

// RoundedBalance возвращает баланс, округлённый до копеек half-up.
func (a *Account) RoundedBalance() decimal.Decimal {
	return RoundMoney(a.Balance)
}

// RoundMoney округляет сумму до MoneyScale знаков, половины округляются от нуля.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
