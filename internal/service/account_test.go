package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/bank-backoffice/internal/apperr"
	"github.com/mmeshcher/bank-backoffice/internal/model"
	"github.com/mmeshcher/bank-backoffice/internal/validation"
)

const testNumber = "BE68 5390 0754 7034"

func (f *fixture) balance(t *testing.T, number string) string {
	t.Helper()
	a, err := f.accounts.Find(context.Background(), number)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a.RoundedBalance().StringFixed(model.MoneyScale)
}

func TestAccountService_AddOpens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.enroll(t, newCustomer())

	f.open(t, testNumber, owner)

	a, err := f.accounts.Find(ctx, testNumber)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, model.AccountStatusOpen, a.Status)
	assert.True(t, a.Balance.IsZero())
	assert.Equal(t, owner, a.Owner)
	assert.Equal(t, testNumber, a.Number.String())
}

func TestAccountService_AddValidationOrder(t *testing.T) {
	n, err := validation.ParseAccountNumber(testNumber)
	require.NoError(t, err)

	tests := []struct {
		name    string
		account *model.Account
		want    error
	}{
		{name: "nil account", account: nil, want: apperr.ErrAccountMissing},
		{
			name:    "number before balance",
			account: &model.Account{Balance: decimal.NewFromInt(5)},
			want:    apperr.ErrAccountNumberFieldMissing,
		},
		{
			name:    "balance before status",
			account: &model.Account{Number: n, Balance: decimal.RequireFromString("0.01"), Status: model.AccountStatusOpen},
			want:    apperr.ErrAccountBalanceMustBeZero,
		},
		{
			name:    "status preset open",
			account: &model.Account{Number: n, Status: model.AccountStatusOpen},
			want:    apperr.ErrAccountMustBeOpen,
		},
		{
			name:    "status preset closed",
			account: &model.Account{Number: n, Status: model.AccountStatusClosed},
			want:    apperr.ErrAccountMustBeOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			owner := f.enroll(t, newCustomer())
			if tt.account != nil {
				tt.account.Owner = owner
			}

			assert.ErrorIs(t, f.accounts.Add(context.Background(), tt.account), tt.want)

			none, err := f.accounts.Find(context.Background(), testNumber)
			require.NoError(t, err)
			assert.Nil(t, none)
		})
	}
}

func TestAccountService_AddDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.enroll(t, newCustomer())
	n := f.open(t, testNumber, owner)

	assert.ErrorIs(t, f.accounts.Add(ctx, &model.Account{Number: n, Owner: owner}), apperr.ErrAccountAlreadyExists)

	// Закрытый номер повторно не выдаётся.
	require.NoError(t, f.accounts.Remove(ctx, testNumber))
	assert.ErrorIs(t, f.accounts.Add(ctx, &model.Account{Number: n, Owner: owner}), apperr.ErrAccountAlreadyExists)
}

func TestAccountService_AddUnknownOwnerIsStorageFailure(t *testing.T) {
	f := newFixture(t)
	n, err := validation.ParseAccountNumber(testNumber)
	require.NoError(t, err)

	err = f.accounts.Add(context.Background(), &model.Account{Number: n, Owner: 404})
	assert.True(t, apperr.IsStorage(err))
}

func TestAccountService_Remove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.enroll(t, newCustomer())

	assert.NoError(t, f.accounts.Remove(ctx, ""), "blank number is ignored")
	assert.NoError(t, f.accounts.Remove(ctx, "   "), "blank number is ignored")
	assert.ErrorIs(t, f.accounts.Remove(ctx, testNumber), apperr.ErrAccountNotFound)

	f.open(t, testNumber, owner)
	require.NoError(t, f.accounts.Deposit(ctx, testNumber, amount("0.01")))
	assert.ErrorIs(t, f.accounts.Remove(ctx, testNumber), apperr.ErrAccountBalanceMustBeZero)

	require.NoError(t, f.accounts.Withdraw(ctx, testNumber, amount("0.01")))
	require.NoError(t, f.accounts.Remove(ctx, testNumber))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, f.accounts.Remove(ctx, testNumber), apperr.ErrAccountAlreadyClosed)
	}

	a, err := f.accounts.Find(ctx, testNumber)
	require.NoError(t, err)
	assert.Equal(t, model.AccountStatusClosed, a.Status)
	assert.Equal(t, "0.00", f.balance(t, testNumber))
}

func TestAccountService_MovementValidationOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.enroll(t, newCustomer())
	f.open(t, testNumber, owner)
	f.open(t, "BE62 0016 6836 7361", owner)
	require.NoError(t, f.accounts.Remove(ctx, "BE62 0016 6836 7361"))

	tests := []struct {
		name   string
		number string
		amount *decimal.Decimal
		want   error
	}{
		{name: "blank number", number: "", amount: nil, want: apperr.ErrAccountNumberFieldMissing},
		{name: "unknown account before amount", number: "BE24 1238 8888 8838", amount: nil, want: apperr.ErrAccountNotFound},
		{name: "closed account before amount", number: "BE62 0016 6836 7361", amount: amount("-1"), want: apperr.ErrAccountAlreadyClosed},
		{name: "missing amount", number: testNumber, amount: nil, want: apperr.ErrAccountAmountMissing},
		{name: "zero amount", number: testNumber, amount: amount("0"), want: apperr.ErrAccountAmountMustBePositive},
		{name: "negative amount", number: testNumber, amount: amount("-0.01"), want: apperr.ErrAccountAmountMustBePositive},
	}

	for _, tt := range tests {
		t.Run("deposit/"+tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.accounts.Deposit(ctx, tt.number, tt.amount), tt.want)
		})
		t.Run("withdraw/"+tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.accounts.Withdraw(ctx, tt.number, tt.amount), tt.want)
		})
	}

	assert.Equal(t, "0.00", f.balance(t, testNumber))
}

func TestAccountService_WithdrawTooLarge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.enroll(t, newCustomer())
	f.open(t, testNumber, owner)

	require.NoError(t, f.accounts.Deposit(ctx, testNumber, amount("100.00")))

	assert.ErrorIs(t, f.accounts.Withdraw(ctx, testNumber, amount("150.00")), apperr.ErrAccountAmountTooLarge)
	assert.Equal(t, "100.00", f.balance(t, testNumber))

	assert.ErrorIs(t, f.accounts.Withdraw(ctx, testNumber, amount("100.01")), apperr.ErrAccountAmountTooLarge)

	require.NoError(t, f.accounts.Withdraw(ctx, testNumber, amount("100.00")))
	assert.Equal(t, "0.00", f.balance(t, testNumber))
}

func TestAccountService_BalanceRounding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.enroll(t, newCustomer())
	f.open(t, testNumber, owner)

	steps := []struct {
		deposit bool
		amount  string
		want    string
	}{
		{deposit: true, amount: "10.005", want: "10.01"},
		{deposit: true, amount: "0.004", want: "10.01"},
		{deposit: false, amount: "0.015", want: "10.00"},
		{deposit: true, amount: "1234.5", want: "1244.50"},
		{deposit: false, amount: "44.495", want: "1200.01"},
		{deposit: false, amount: "1200.01", want: "0.00"},
	}

	for _, step := range steps {
		var err error
		if step.deposit {
			err = f.accounts.Deposit(ctx, testNumber, amount(step.amount))
		} else {
			err = f.accounts.Withdraw(ctx, testNumber, amount(step.amount))
		}
		require.NoError(t, err, "amount %s", step.amount)
		assert.Equal(t, step.want, f.balance(t, testNumber), "after %s", step.amount)
	}
}

func TestAccountService_ListsAndCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.enroll(t, newCustomer())

	other := newCustomer()
	other.FirstName = "An"
	otherOwner := f.enroll(t, other)

	f.open(t, "BE84 5555 5555 5559", owner)
	f.open(t, "BE24 1238 8888 8838", owner)
	f.open(t, "BE33 1112 2222 2246", owner)
	f.open(t, "BE62 0016 6836 7361", otherOwner)
	require.NoError(t, f.accounts.Remove(ctx, "BE33 1112 2222 2246"))

	open, err := f.accounts.ListOpen(ctx, owner)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "BE24 1238 8888 8838", open[0].Number.String())

	closed, err := f.accounts.ListClosed(ctx, owner)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, "BE33 1112 2222 2246", closed[0].Number.String())

	all, err := f.accounts.ListAll(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := f.accounts.CountOpen(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.accounts.CountOpen(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAccountService_Find(t *testing.T) {
	f := newFixture(t)

	_, err := f.accounts.Find(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrAccountNumberFieldMissing)

	a, err := f.accounts.Find(context.Background(), testNumber)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAccountService_StorageFailure(t *testing.T) {
	ctx := context.Background()
	s := NewAccountService(failingAccounts{}, nil, nil)

	n, err := validation.ParseAccountNumber(testNumber)
	require.NoError(t, err)

	err = s.Add(ctx, &model.Account{Number: n, Owner: 1})
	assert.True(t, apperr.IsStorage(err))
	assert.ErrorIs(t, err, errStorageDown)

	assert.True(t, apperr.IsStorage(s.Remove(ctx, testNumber)))
	assert.True(t, apperr.IsStorage(s.Deposit(ctx, testNumber, amount("1"))))
	assert.True(t, apperr.IsStorage(s.Withdraw(ctx, testNumber, amount("1"))))

	_, err = s.CountOpen(ctx, 1)
	assert.True(t, apperr.IsStorage(err))

	_, err = s.ListAll(ctx, 1)
	assert.True(t, apperr.IsStorage(err))
}

// Полный цикл: открытие счёта, движение средств, закрытие и снятие клиента с обслуживания.
func TestAccountService_CustomerLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := validation.ParseAccountNumber("BE68 5390 0754 7035")
	require.ErrorIs(t, err, apperr.ErrAccountNumberInvalidChecksum)

	owner := f.enroll(t, newCustomer())
	n := f.open(t, "BE68 5390 0754 7034", owner)
	assert.Equal(t, "0.00", f.balance(t, n.String()))

	require.NoError(t, f.accounts.Deposit(ctx, n.String(), amount("100.00")))
	assert.ErrorIs(t, f.accounts.Withdraw(ctx, n.String(), amount("150.00")), apperr.ErrAccountAmountTooLarge)
	assert.Equal(t, "100.00", f.balance(t, n.String()))

	assert.ErrorIs(t, f.customers.Remove(ctx, owner), apperr.ErrCustomerHasOpenAccounts)
	assert.ErrorIs(t, f.accounts.Remove(ctx, n.String()), apperr.ErrAccountBalanceMustBeZero)

	require.NoError(t, f.accounts.Withdraw(ctx, n.String(), amount("100.00")))
	require.NoError(t, f.accounts.Remove(ctx, n.String()))
	require.NoError(t, f.customers.Remove(ctx, owner))

	c, err := f.customers.Find(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, model.CustomerStatusUnenrolled, c.Status)

	a, err := f.accounts.Find(ctx, n.String())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, model.AccountStatusClosed, a.Status)
}
