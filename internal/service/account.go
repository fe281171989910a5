package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-backoffice/internal/apperr"
	"github.com/mmeshcher/bank-backoffice/internal/metrics"
	"github.com/mmeshcher/bank-backoffice/internal/model"
)

// AccountService проверяет правила открытия, закрытия и движения средств по счетам.
type AccountService struct {
	repo    AccountRepository
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAccountService создаёт сервис счетов. logger и m могут быть nil.
func NewAccountService(repo AccountRepository, logger *zap.Logger, m *metrics.Metrics) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		repo:    repo,
		logger:  logger,
		metrics: m,
	}
}

// Add открывает новый счёт. Баланс должен быть нулевым, статус не задаётся.
// Существование владельца здесь не проверяется, это делает вызывающая сторона
// через CustomerService.ValidateActive.
func (s *AccountService) Add(ctx context.Context, a *model.Account) (err error) {
	defer s.observe("add_account", time.Now(), &err)

	if a == nil {
		return apperr.ErrAccountMissing
	}
	if a.Number.IsZero() {
		return apperr.ErrAccountNumberFieldMissing
	}
	if !a.Balance.IsZero() {
		return apperr.ErrAccountBalanceMustBeZero
	}
	if a.Status != "" {
		return apperr.ErrAccountMustBeOpen
	}

	existing, err := s.repo.FindByNumber(ctx, a.Number.String())
	if err != nil {
		return apperr.Storage("find account", err)
	}
	if existing != nil {
		return apperr.ErrAccountAlreadyExists
	}

	toInsert := model.Account{
		Number:  a.Number,
		Balance: decimal.Zero,
		Status:  model.AccountStatusOpen,
		Owner:   a.Owner,
	}
	if err := s.repo.Insert(ctx, &toInsert); err != nil {
		return apperr.Storage("insert account", err)
	}

	s.metrics.IncAccountsOpened()
	s.logger.Info("account opened",
		zap.String("account", a.Number.Compact()),
		zap.Int64("owner", a.Owner),
	)
	return nil
}

// Remove закрывает счёт с нулевым балансом. Пустой номер молча игнорируется.
func (s *AccountService) Remove(ctx context.Context, number string) (err error) {
	defer s.observe("close_account", time.Now(), &err)

	if strings.TrimSpace(number) == "" {
		return nil
	}

	a, err := s.findOpen(ctx, number)
	if err != nil {
		return err
	}
	if !a.RoundedBalance().IsZero() {
		return apperr.ErrAccountBalanceMustBeZero
	}

	if err := s.repo.SetClosed(ctx, number); err != nil {
		return apperr.Storage("close account", err)
	}

	s.metrics.IncAccountsClosed()
	s.logger.Info("account closed", zap.String("account", a.Number.Compact()), zap.Int64("owner", a.Owner))
	return nil
}

// Deposit зачисляет amount на открытый счёт.
func (s *AccountService) Deposit(ctx context.Context, number string, amount *decimal.Decimal) (err error) {
	defer s.observe("deposit", time.Now(), &err)

	a, err := s.prepareMovement(ctx, number, amount)
	if err != nil {
		return err
	}

	balance := model.RoundMoney(a.RoundedBalance().Add(*amount))
	if err := s.repo.SetBalance(ctx, number, balance); err != nil {
		return apperr.Storage("set balance", err)
	}

	s.metrics.IncDeposits()
	s.logger.Info("deposit applied",
		zap.String("account", a.Number.Compact()),
		zap.String("amount", amount.String()),
		zap.String("balance", balance.StringFixed(model.MoneyScale)),
	)
	return nil
}

// Withdraw снимает amount с открытого счёта, не допуская отрицательного баланса.
func (s *AccountService) Withdraw(ctx context.Context, number string, amount *decimal.Decimal) (err error) {
	defer s.observe("withdraw", time.Now(), &err)

	a, err := s.prepareMovement(ctx, number, amount)
	if err != nil {
		return err
	}

	current := a.RoundedBalance()
	if amount.GreaterThan(current) {
		return apperr.ErrAccountAmountTooLarge
	}

	balance := model.RoundMoney(current.Sub(*amount))
	if err := s.repo.SetBalance(ctx, number, balance); err != nil {
		return apperr.Storage("set balance", err)
	}

	s.metrics.IncWithdrawals()
	s.logger.Info("withdrawal applied",
		zap.String("account", a.Number.Compact()),
		zap.String("amount", amount.String()),
		zap.String("balance", balance.StringFixed(model.MoneyScale)),
	)
	return nil
}

// prepareMovement выполняет общие для пополнения и снятия проверки в фиксированном порядке.
func (s *AccountService) prepareMovement(ctx context.Context, number string, amount *decimal.Decimal) (*model.Account, error) {
	if number == "" {
		return nil, apperr.ErrAccountNumberFieldMissing
	}

	a, err := s.findOpen(ctx, number)
	if err != nil {
		return nil, err
	}

	if amount == nil {
		return nil, apperr.ErrAccountAmountMissing
	}
	if !amount.IsPositive() {
		return nil, apperr.ErrAccountAmountMustBePositive
	}

	return a, nil
}

func (s *AccountService) findOpen(ctx context.Context, number string) (*model.Account, error) {
	a, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, apperr.Storage("find account", err)
	}
	if a == nil {
		return nil, apperr.ErrAccountNotFound
	}
	if a.Status == model.AccountStatusClosed {
		return nil, apperr.ErrAccountAlreadyClosed
	}
	return a, nil
}

// Find возвращает счёт по номеру или nil, если счёт не найден.
func (s *AccountService) Find(ctx context.Context, number string) (*model.Account, error) {
	if number == "" {
		return nil, apperr.ErrAccountNumberFieldMissing
	}

	a, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, apperr.Storage("find account", err)
	}
	return a, nil
}

// ListOpen возвращает открытые счета владельца.
func (s *AccountService) ListOpen(ctx context.Context, owner int64) ([]model.Account, error) {
	return s.listByStatus(ctx, owner, model.AccountStatusOpen)
}

// ListClosed возвращает закрытые счета владельца.
func (s *AccountService) ListClosed(ctx context.Context, owner int64) ([]model.Account, error) {
	return s.listByStatus(ctx, owner, model.AccountStatusClosed)
}

func (s *AccountService) listByStatus(ctx context.Context, owner int64, status model.AccountStatus) ([]model.Account, error) {
	accounts, err := s.repo.ListByOwnerAndStatus(ctx, owner, status)
	if err != nil {
		return nil, apperr.Storage("list accounts", err)
	}
	return accounts, nil
}

// ListAll возвращает все счета владельца независимо от статуса.
func (s *AccountService) ListAll(ctx context.Context, owner int64) ([]model.Account, error) {
	accounts, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperr.Storage("list accounts", err)
	}
	return accounts, nil
}

// CountOpen возвращает число открытых счетов владельца.
func (s *AccountService) CountOpen(ctx context.Context, owner int64) (int, error) {
	n, err := s.repo.CountByOwnerAndStatus(ctx, owner, model.AccountStatusOpen)
	if err != nil {
		return 0, apperr.Storage("count open accounts", err)
	}
	return n, nil
}

func (s *AccountService) observe(operation string, start time.Time, err *error) {
	s.metrics.ObserveOutcome(operation, start, *err)
}
