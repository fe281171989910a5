package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/bank-backoffice/internal/model"
	"github.com/mmeshcher/bank-backoffice/internal/validation"
)

// Баланс читается текстом, чтобы не терять точность NUMERIC.
const accountColumns = `number, balance::text, status, owner_id`

// PostgresAccounts хранит счета в таблице accounts.
type PostgresAccounts struct {
	db *Postgres
}

// Insert сохраняет новый счёт.
func (r *PostgresAccounts) Insert(ctx context.Context, a *model.Account) error {
	// Если соединение оборвалось после фиксации INSERT, повтор вернёт ErrDuplicate
	// для уже сохранённого счёта.
	err := r.db.withRetry(ctx, func() error {
		_, err := r.db.pool.Exec(ctx,
			`INSERT INTO accounts (number, balance, status, owner_id) VALUES ($1, $2::numeric, $3, $4)`,
			a.Number.String(), a.Balance.String(), string(a.Status), a.Owner,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %s", ErrDuplicate, a.Number)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %d", ErrUnknownOwner, a.Owner)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// SetClosed переводит счёт в статус CLOSED. Баланс не меняется.
func (r *PostgresAccounts) SetClosed(ctx context.Context, number string) error {
	return r.exec(ctx, "close account", number,
		`UPDATE accounts SET status = $2 WHERE number = $1`,
		number, string(model.AccountStatusClosed),
	)
}

// SetBalance записывает новый баланс счёта.
func (r *PostgresAccounts) SetBalance(ctx context.Context, number string, balance decimal.Decimal) error {
	return r.exec(ctx, "set balance", number,
		`UPDATE accounts SET balance = $2::numeric WHERE number = $1`,
		number, balance.String(),
	)
}

func (r *PostgresAccounts) exec(ctx context.Context, op, number, query string, args ...any) error {
	var affected int64
	err := r.db.withRetry(ctx, func() error {
		tag, err := r.db.pool.Exec(ctx, query, args...)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: account %s", ErrNotFound, number)
	}
	return nil
}

// FindByNumber возвращает счёт или nil, если счёта нет.
func (r *PostgresAccounts) FindByNumber(ctx context.Context, number string) (*model.Account, error) {
	var a model.Account
	err := r.db.withRetry(ctx, func() error {
		return scanAccount(r.db.pool.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE number = $1`,
			number,
		), &a)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &a, nil
}

// ListByOwnerAndStatus возвращает счета владельца с указанным статусом.
func (r *PostgresAccounts) ListByOwnerAndStatus(ctx context.Context, owner int64, status model.AccountStatus) ([]model.Account, error) {
	return r.list(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE owner_id = $1 AND status = $2
		 ORDER BY number`,
		owner, string(status),
	)
}

// ListByOwner возвращает все счета владельца.
func (r *PostgresAccounts) ListByOwner(ctx context.Context, owner int64) ([]model.Account, error) {
	return r.list(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE owner_id = $1
		 ORDER BY number`,
		owner,
	)
}

// CountByOwnerAndStatus возвращает число счетов владельца с указанным статусом.
func (r *PostgresAccounts) CountByOwnerAndStatus(ctx context.Context, owner int64, status model.AccountStatus) (int, error) {
	var count int
	err := r.db.withRetry(ctx, func() error {
		return r.db.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM accounts WHERE owner_id = $1 AND status = $2`,
			owner, string(status),
		).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func (r *PostgresAccounts) list(ctx context.Context, query string, args ...any) ([]model.Account, error) {
	var res []model.Account
	err := r.db.withRetry(ctx, func() error {
		res = nil

		rows, err := r.db.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a model.Account
			if err := scanAccount(rows, &a); err != nil {
				return fmt.Errorf("scan account: %w", err)
			}
			res = append(res, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	return res, nil
}

func scanAccount(row pgx.Row, a *model.Account) error {
	var (
		number  string
		balance string
		status  string
	)
	if err := row.Scan(&number, &balance, &status, &a.Owner); err != nil {
		return err
	}

	n, err := validation.ParseAccountNumber(number)
	if err != nil {
		return fmt.Errorf("%w: account number %q: %v", ErrCorruptRow, number, err)
	}

	d, err := decimal.NewFromString(balance)
	if err != nil {
		return fmt.Errorf("%w: balance of %q: %v", ErrCorruptRow, number, err)
	}

	a.Number = n
	a.Balance = d
	a.Status = model.AccountStatus(status)
	return nil
}
