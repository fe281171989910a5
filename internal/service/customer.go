package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/bank-backoffice/internal/apperr"
	"github.com/mmeshcher/bank-backoffice/internal/metrics"
	"github.com/mmeshcher/bank-backoffice/internal/model"
)

// CustomerService проверяет правила регистрации, изменения и снятия с обслуживания клиентов.
type CustomerService struct {
	repo     CustomerRepository
	accounts OpenAccountCounter
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewCustomerService создаёт сервис клиентов. accounts используется только для проверки
// открытых счетов перед снятием клиента с обслуживания. logger и m могут быть nil.
func NewCustomerService(repo CustomerRepository, accounts OpenAccountCounter, logger *zap.Logger, m *metrics.Metrics) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		repo:     repo,
		accounts: accounts,
		logger:   logger,
		metrics:  m,
	}
}

// Add регистрирует нового клиента и возвращает присвоенный хранилищем идентификатор.
func (s *CustomerService) Add(ctx context.Context, c *model.Customer) (id int64, err error) {
	defer s.observe("add_customer", time.Now(), &err)

	if c == nil {
		return 0, apperr.ErrCustomerMissing
	}
	if err := checkFields(c); err != nil {
		return 0, err
	}
	if c.ID != 0 {
		return 0, apperr.ErrCustomerIDPreset
	}
	if c.Status != "" {
		return 0, apperr.ErrCustomerStatusPreset
	}

	exists, err := s.repo.ExistsByNameAddress(ctx, c.Key())
	if err != nil {
		return 0, apperr.Storage("check customer exists", err)
	}
	if exists {
		return 0, apperr.ErrCustomerAlreadyExists
	}

	toInsert := *c
	toInsert.Status = model.CustomerStatusEnrolled

	id, err = s.repo.Insert(ctx, &toInsert)
	if err != nil {
		return 0, apperr.Storage("insert customer", err)
	}

	s.metrics.IncCustomersEnrolled()
	s.logger.Info("customer enrolled", zap.Int64("customer", id))
	return id, nil
}

// Remove снимает клиента с обслуживания. Запись не удаляется, меняется только статус.
func (s *CustomerService) Remove(ctx context.Context, id int64) (err error) {
	defer s.observe("unenroll_customer", time.Now(), &err)

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperr.Storage("find customer", err)
	}
	if existing == nil {
		return apperr.ErrCustomerNotFound
	}
	if existing.Status == model.CustomerStatusUnenrolled {
		return apperr.ErrCustomerAlreadyUnenrolled
	}

	open, err := s.accounts.CountOpen(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return apperr.ErrCustomerHasOpenAccounts
	}

	if err := s.repo.SetUnenrolled(ctx, id); err != nil {
		return apperr.Storage("unenroll customer", err)
	}

	s.metrics.IncCustomersUnenrolled()
	s.logger.Info("customer unenrolled", zap.Int64("customer", id))
	return nil
}

// Update изменяет имя и адрес зарегистрированного клиента. Статус и идентификатор не меняются.
func (s *CustomerService) Update(ctx context.Context, c *model.Customer) (err error) {
	defer s.observe("update_customer", time.Now(), &err)

	if c == nil {
		return apperr.ErrCustomerMissing
	}
	if err := checkFields(c); err != nil {
		return err
	}
	if c.Status != "" {
		return apperr.ErrCustomerStatusPreset
	}

	existing, err := s.Find(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.ErrCustomerNotFound
	}
	if existing.Status == model.CustomerStatusUnenrolled {
		return apperr.ErrCustomerAlreadyUnenrolled
	}

	// Имя и адрес уникальны, поэтому при неизменённом ключе совпадает сам клиент.
	if c.Key() != existing.Key() {
		exists, err := s.repo.ExistsByNameAddress(ctx, c.Key())
		if err != nil {
			return apperr.Storage("check customer exists", err)
		}
		if exists {
			return apperr.ErrCustomerAlreadyExists
		}
	}

	toUpdate := *c
	toUpdate.Status = existing.Status
	if err := s.repo.Update(ctx, &toUpdate); err != nil {
		return apperr.Storage("update customer", err)
	}

	s.logger.Info("customer updated", zap.Int64("customer", c.ID))
	return nil
}

// Exists сообщает, есть ли клиент с таким же именем и адресом, независимо от статуса.
func (s *CustomerService) Exists(ctx context.Context, c *model.Customer) (bool, error) {
	if c == nil {
		return false, apperr.ErrCustomerMissing
	}

	exists, err := s.repo.ExistsByNameAddress(ctx, c.Key())
	if err != nil {
		return false, apperr.Storage("check customer exists", err)
	}
	return exists, nil
}

// Find возвращает клиента по идентификатору или nil, если клиент не найден.
func (s *CustomerService) Find(ctx context.Context, id int64) (*model.Customer, error) {
	if id == 0 {
		return nil, apperr.ErrCustomerIDMissing
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("find customer", err)
	}
	return c, nil
}

// ListEnrolled возвращает зарегистрированных клиентов, отсортированных по фамилии и имени.
func (s *CustomerService) ListEnrolled(ctx context.Context) ([]model.Customer, error) {
	return s.listByStatus(ctx, model.CustomerStatusEnrolled)
}

// ListUnenrolled возвращает снятых с обслуживания клиентов в том же порядке.
func (s *CustomerService) ListUnenrolled(ctx context.Context) ([]model.Customer, error) {
	return s.listByStatus(ctx, model.CustomerStatusUnenrolled)
}

func (s *CustomerService) listByStatus(ctx context.Context, status model.CustomerStatus) ([]model.Customer, error) {
	customers, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperr.Storage("list customers", err)
	}
	return customers, nil
}

// ListAll возвращает всех клиентов, отсортированных по фамилии и имени.
func (s *CustomerService) ListAll(ctx context.Context) ([]model.Customer, error) {
	customers, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Storage("list customers", err)
	}
	return customers, nil
}

// ValidateActive проверяет, что клиент существует и не снят с обслуживания.
func (s *CustomerService) ValidateActive(ctx context.Context, id int64) error {
	c, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.ErrCustomerNotFound
	}
	if c.Status == model.CustomerStatusUnenrolled {
		return apperr.ErrCustomerAlreadyUnenrolled
	}
	return nil
}

func checkFields(c *model.Customer) error {
	switch {
	case isBlank(c.FirstName):
		return apperr.ErrCustomerFirstNameMissing
	case isBlank(c.LastName):
		return apperr.ErrCustomerLastNameMissing
	case isBlank(c.Street):
		return apperr.ErrCustomerStreetMissing
	case isBlank(c.PostalCode):
		return apperr.ErrCustomerPostalCodeMissing
	case isBlank(c.City):
		return apperr.ErrCustomerCityMissing
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (s *CustomerService) observe(operation string, start time.Time, err *error) {
	s.metrics.ObserveOutcome(operation, start, *err)
}
