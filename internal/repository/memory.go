package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/bank-backoffice/internal/model"
)

// Memory хранит клиентов и счета в памяти процесса. Используется в тестах сервисов
// и при запуске без DATABASE_URI. Безопасен для конкурентного использования.
type Memory struct {
	mu        sync.RWMutex
	nextID    int64
	customers map[int64]model.Customer
	keys      map[model.NameAddress]int64
	accounts  map[string]model.Account
}

// NewMemory создаёт пустое хранилище. Идентификаторы клиентов выдаются начиная с 1.
func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		customers: make(map[int64]model.Customer),
		keys:      make(map[model.NameAddress]int64),
		accounts:  make(map[string]model.Account),
	}
}

// Ping всегда успешен.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// Close ничего не освобождает.
func (m *Memory) Close() error {
	return nil
}

// Customers возвращает хранилище клиентов.
func (m *Memory) Customers() *MemoryCustomers {
	return &MemoryCustomers{m: m}
}

// Accounts возвращает хранилище счетов.
func (m *Memory) Accounts() *MemoryAccounts {
	return &MemoryAccounts{m: m}
}

// MemoryCustomers реализует хранилище клиентов поверх Memory.
type MemoryCustomers struct {
	m *Memory
}

// Insert сохраняет клиента и возвращает сгенерированный идентификатор.
func (r *MemoryCustomers) Insert(ctx context.Context, c *model.Customer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	key := c.Key()
	if _, ok := r.m.keys[key]; ok {
		return 0, fmt.Errorf("%w: customer %s %s", ErrDuplicate, c.FirstName, c.LastName)
	}

	id := r.m.nextID
	r.m.nextID++

	stored := *c
	stored.ID = id
	r.m.customers[id] = stored
	r.m.keys[key] = id
	return id, nil
}

// Update изменяет имя и адрес клиента. Статус не затрагивается.
func (r *MemoryCustomers) Update(ctx context.Context, c *model.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	existing, ok := r.m.customers[c.ID]
	if !ok {
		return fmt.Errorf("%w: customer %d", ErrNotFound, c.ID)
	}

	key := c.Key()
	if owner, ok := r.m.keys[key]; ok && owner != c.ID {
		return fmt.Errorf("%w: customer %d", ErrDuplicate, c.ID)
	}

	delete(r.m.keys, existing.Key())
	existing.FirstName = c.FirstName
	existing.LastName = c.LastName
	existing.Street = c.Street
	existing.PostalCode = c.PostalCode
	existing.City = c.City
	r.m.customers[c.ID] = existing
	r.m.keys[key] = c.ID
	return nil
}

// SetUnenrolled переводит клиента в статус UNENROLLED.
func (r *MemoryCustomers) SetUnenrolled(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.customers[id]
	if !ok {
		return fmt.Errorf("%w: customer %d", ErrNotFound, id)
	}
	c.Status = model.CustomerStatusUnenrolled
	r.m.customers[id] = c
	return nil
}

// FindByID возвращает клиента или nil, если клиента нет.
func (r *MemoryCustomers) FindByID(ctx context.Context, id int64) (*model.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	c, ok := r.m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// ExistsByNameAddress проверяет наличие клиента с таким именем и адресом в любом статусе.
func (r *MemoryCustomers) ExistsByNameAddress(ctx context.Context, key model.NameAddress) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	_, ok := r.m.keys[key]
	return ok, nil
}

// ListByStatus возвращает клиентов со статусом status, отсортированных по фамилии и имени.
func (r *MemoryCustomers) ListByStatus(ctx context.Context, status model.CustomerStatus) ([]model.Customer, error) {
	return r.list(ctx, func(c model.Customer) bool { return c.Status == status })
}

// ListAll возвращает всех клиентов, отсортированных по фамилии и имени.
func (r *MemoryCustomers) ListAll(ctx context.Context) ([]model.Customer, error) {
	return r.list(ctx, func(model.Customer) bool { return true })
}

func (r *MemoryCustomers) list(ctx context.Context, keep func(model.Customer) bool) ([]model.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.m.mu.RLock()
	var res []model.Customer
	for _, c := range r.m.customers {
		if keep(c) {
			res = append(res, c)
		}
	}
	r.m.mu.RUnlock()

	// Тот же порядок, что и ORDER BY last_name, first_name, id в PostgreSQL.
	sort.Slice(res, func(i, j int) bool {
		if res[i].LastName != res[j].LastName {
			return res[i].LastName < res[j].LastName
		}
		if res[i].FirstName != res[j].FirstName {
			return res[i].FirstName < res[j].FirstName
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

// MemoryAccounts реализует хранилище счетов поверх Memory.
type MemoryAccounts struct {
	m *Memory
}

// Insert сохраняет новый счёт.
func (r *MemoryAccounts) Insert(ctx context.Context, a *model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	number := a.Number.String()
	if _, ok := r.m.accounts[number]; ok {
		return fmt.Errorf("%w: account %s", ErrDuplicate, number)
	}
	if _, ok := r.m.customers[a.Owner]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOwner, a.Owner)
	}

	r.m.accounts[number] = *a
	return nil
}

// SetClosed переводит счёт в статус CLOSED. Баланс не меняется.
func (r *MemoryAccounts) SetClosed(ctx context.Context, number string) error {
	return r.modify(ctx, number, func(a *model.Account) {
		a.Status = model.AccountStatusClosed
	})
}

// SetBalance записывает новый баланс счёта.
func (r *MemoryAccounts) SetBalance(ctx context.Context, number string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return fmt.Errorf("set balance of %s: negative balance %s", number, balance)
	}
	return r.modify(ctx, number, func(a *model.Account) {
		a.Balance = balance
	})
}

func (r *MemoryAccounts) modify(ctx context.Context, number string, fn func(*model.Account)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a, ok := r.m.accounts[number]
	if !ok {
		return fmt.Errorf("%w: account %s", ErrNotFound, number)
	}
	fn(&a)
	r.m.accounts[number] = a
	return nil
}

// FindByNumber возвращает счёт или nil, если счёта нет.
func (r *MemoryAccounts) FindByNumber(ctx context.Context, number string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	a, ok := r.m.accounts[number]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListByOwnerAndStatus возвращает счета владельца с указанным статусом.
func (r *MemoryAccounts) ListByOwnerAndStatus(ctx context.Context, owner int64, status model.AccountStatus) ([]model.Account, error) {
	return r.list(ctx, func(a model.Account) bool { return a.Owner == owner && a.Status == status })
}

// ListByOwner возвращает все счета владельца.
func (r *MemoryAccounts) ListByOwner(ctx context.Context, owner int64) ([]model.Account, error) {
	return r.list(ctx, func(a model.Account) bool { return a.Owner == owner })
}

// CountByOwnerAndStatus возвращает число счетов владельца с указанным статусом.
func (r *MemoryAccounts) CountByOwnerAndStatus(ctx context.Context, owner int64, status model.AccountStatus) (int, error) {
	accounts, err := r.ListByOwnerAndStatus(ctx, owner, status)
	if err != nil {
		return 0, err
	}
	return len(accounts), nil
}

func (r *MemoryAccounts) list(ctx context.Context, keep func(model.Account) bool) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.m.mu.RLock()
	var res []model.Account
	for _, a := range r.m.accounts {
		if keep(a) {
			res = append(res, a)
		}
	}
	r.m.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		return res[i].Number.String() < res[j].Number.String()
	})
	return res, nil
}
